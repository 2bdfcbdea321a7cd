package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/cafe-orders/db"
	"github.com/xenking/cafe-orders/internal/domain/auth"
	"github.com/xenking/cafe-orders/internal/domain/menu"
	"github.com/xenking/cafe-orders/internal/storage/memory"
)

func TestParse_Embedded(t *testing.T) {
	d, err := Parse(db.SeedMenu)
	require.NoError(t, err)
	require.NotEmpty(t, d.Staff)
	assert.Len(t, d.Items, 11)
	assert.Equal(t, "Espresso", d.Items[0].Name)
	assert.Equal(t, "90.00", d.Items[0].Price)
}

func TestParse_BadPrice(t *testing.T) {
	_, err := Parse([]byte("items:\n  - name: Tea\n    price: cheap\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Tea"`)
}

func TestApply_Idempotent(t *testing.T) {
	ctx := context.Background()
	staff := auth.NewService(memory.NewStaffStore(), []byte("secret"), time.Hour)
	catalog := menu.NewService(memory.NewMenuStore())

	d := &Data{
		Staff: []Staff{{Email: "desk@cafe.test", Name: "Desk", Password: "pw"}},
		Items: []Item{
			{Name: "Latte", Price: "150", Category: "Beverages"},
			{Name: "Muffin", Price: "90.50"},
		},
	}

	res, err := Apply(ctx, staff, catalog, d)
	require.NoError(t, err)
	assert.Equal(t, Result{Staff: 1, Items: 2}, res)

	res, err = Apply(ctx, staff, catalog, d)
	require.NoError(t, err)
	assert.Equal(t, Result{Staff: 1, Skipped: 2}, res)

	items, err := catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, menu.DefaultCategory, items[1].Category)

	_, _, err = staff.Login(ctx, "desk@cafe.test", "pw")
	require.NoError(t, err)
}
