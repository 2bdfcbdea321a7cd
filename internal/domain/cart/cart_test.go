package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/cafe-orders/internal/domain/menu"
	"github.com/xenking/cafe-orders/internal/domain/order"
)

func item(id, name, price string) menu.Item {
	return menu.Item{
		ID:       id,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: menu.DefaultCategory,
	}
}

// recomputed sums the lines independently of Cart.Total.
func recomputed(c *Cart) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines() {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

func TestAddItem_MergesByName(t *testing.T) {
	c := New()
	latte := item("1", "Latte", "150")
	muffin := item("2", "Muffin", "80")

	for _, it := range []menu.Item{latte, muffin, latte, latte, muffin} {
		c.AddItem(it)
	}

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "Latte", lines[0].Name)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, "Muffin", lines[1].Name)
	assert.Equal(t, 2, lines[1].Quantity)
}

func TestAddItem_SameNameDifferentIDsCollapse(t *testing.T) {
	c := New()
	c.AddItem(item("1", "Latte", "150"))
	c.AddItem(item("99", "Latte", "170"))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("150").Equal(lines[0].Price), "first price snapshot wins")
}

func TestAddItem_PriceSnapshot(t *testing.T) {
	c := New()
	latte := item("1", "Latte", "150")
	c.AddItem(latte)

	latte.Price = decimal.RequireFromString("999")
	c.AddItem(latte)

	assert.True(t, decimal.RequireFromString("300").Equal(c.Total()))
}

func TestChangeQuantity(t *testing.T) {
	c := New()
	c.AddItem(item("1", "Latte", "150"))

	require.NoError(t, c.ChangeQuantity(0, 4))
	assert.Equal(t, 5, c.Lines()[0].Quantity)

	require.NoError(t, c.ChangeQuantity(0, -2))
	assert.Equal(t, 3, c.Lines()[0].Quantity)
}

func TestChangeQuantity_RemovesAtZero(t *testing.T) {
	c := New()
	c.AddItem(item("1", "Latte", "150"))
	c.AddItem(item("2", "Muffin", "80"))
	c.AddItem(item("2", "Muffin", "80"))

	q := c.Lines()[1].Quantity
	require.NoError(t, c.ChangeQuantity(1, -q))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Latte", lines[0].Name)
}

func TestChangeQuantity_BelowZeroRemoves(t *testing.T) {
	c := New()
	c.AddItem(item("1", "Latte", "150"))

	require.NoError(t, c.ChangeQuantity(0, -10))
	assert.Zero(t, c.Len())
	assert.True(t, decimal.Zero.Equal(c.Total()))
}

func TestChangeQuantity_InvalidIndex(t *testing.T) {
	c := New()
	c.AddItem(item("1", "Latte", "150"))

	require.ErrorIs(t, c.ChangeQuantity(1, 1), ErrInvalidIndex)
	require.ErrorIs(t, c.ChangeQuantity(-1, 1), ErrInvalidIndex)
	assert.Equal(t, 1, c.Lines()[0].Quantity)
}

func TestRemoveItem(t *testing.T) {
	c := New()
	c.AddItem(item("1", "Latte", "150"))
	c.AddItem(item("2", "Muffin", "80"))

	require.NoError(t, c.RemoveItem(0))
	require.Len(t, c.Lines(), 1)
	assert.Equal(t, "Muffin", c.Lines()[0].Name)

	require.ErrorIs(t, c.RemoveItem(5), ErrInvalidIndex)
}

func TestTotal_AfterOperations(t *testing.T) {
	c := New()
	latte := item("1", "Latte", "150")
	muffin := item("2", "Muffin", "80")
	tea := item("3", "Kettle Tea", "45.50")

	steps := []func(){
		func() { c.AddItem(latte) },
		func() { c.AddItem(muffin) },
		func() { c.AddItem(latte) },
		func() { c.AddItem(tea) },
		func() { _ = c.ChangeQuantity(2, 3) },
		func() { _ = c.RemoveItem(1) },
		func() { _ = c.ChangeQuantity(0, -1) },
		func() { c.AddItem(muffin) },
	}
	for i, step := range steps {
		step()
		assert.True(t, recomputed(c).Equal(c.Total()), "step %d", i)
	}
}

func TestExampleScenario(t *testing.T) {
	c := New()
	latte := item("1", "Latte", "150")
	c.AddItem(latte)
	c.AddItem(latte)
	c.AddItem(item("2", "Muffin", "80"))

	assert.True(t, decimal.NewFromInt(380).Equal(c.Total()))

	items := c.ToOrderItems()
	require.Len(t, items, 2)
	assert.True(t, decimal.NewFromInt(300).Equal(items[0].Total))
	assert.True(t, decimal.NewFromInt(80).Equal(items[1].Total))
}

func TestFromOrder(t *testing.T) {
	o := &order.Order{
		Items: []order.LineItem{
			order.NewLineItem("Latte", 2, decimal.NewFromInt(150)),
			order.NewLineItem("Muffin", 1, decimal.NewFromInt(80)),
		},
	}

	c := FromOrder(o)
	require.Equal(t, 2, c.Len())
	assert.True(t, decimal.NewFromInt(380).Equal(c.Total()))

	c.AddItem(item("1", "Latte", "175"))
	assert.Equal(t, 3, c.Lines()[0].Quantity)
	assert.True(t, decimal.NewFromInt(530).Equal(c.Total()), "restored line keeps its original price")
}

func TestZeroValueCart(t *testing.T) {
	var c Cart
	assert.True(t, decimal.Zero.Equal(c.Total()))
	assert.Empty(t, c.ToOrderItems())
	c.AddItem(item("1", "Latte", "150"))
	assert.Equal(t, 1, c.Len())
}
