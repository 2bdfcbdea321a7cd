package order

import (
	"slices"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Tab partitions the order list into unpaid and paid orders.
type Tab string

const (
	TabOngoing   Tab = "ongoing"
	TabCompleted Tab = "completed"
)

// DateWindow restricts orders by creation day.
type DateWindow string

const (
	WindowAll        DateWindow = "all"
	WindowToday      DateWindow = "today"
	WindowYesterday  DateWindow = "yesterday"
	WindowLast7Days  DateWindow = "last7days"
	WindowLast30Days DateWindow = "last30days"
)

// SortOrder is the creation-time ordering of the filtered list.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

// FilterSpec selects and orders the orders shown in the list view.
// Zero values mean: ongoing tab, all dates, no search, newest first.
type FilterSpec struct {
	Tab    Tab
	Window DateWindow
	Search string
	// Month (1-12) and Year restrict the creation date when non-zero.
	Month int
	Year  int
	Sort  SortOrder
}

// ParseTab parses a tab name; the empty string selects the ongoing tab.
func ParseTab(s string) (Tab, error) {
	switch t := Tab(strings.ToLower(s)); t {
	case "", TabOngoing:
		return TabOngoing, nil
	case TabCompleted:
		return t, nil
	}
	return "", errors.Errorf("unknown tab %q", s)
}

// ParseDateWindow parses a window name; the empty string selects all dates.
func ParseDateWindow(s string) (DateWindow, error) {
	switch w := DateWindow(strings.ToLower(s)); w {
	case "", WindowAll:
		return WindowAll, nil
	case WindowToday, WindowYesterday, WindowLast7Days, WindowLast30Days:
		return w, nil
	}
	return "", errors.Errorf("unknown date window %q", s)
}

// ParseSortOrder parses a sort direction; the empty string selects newest first.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(s)); o {
	case "", SortNewest:
		return SortNewest, nil
	case SortOldest:
		return o, nil
	}
	return "", errors.Errorf("unknown sort order %q", s)
}

// Filter returns the orders matching spec, sorted by creation time. Days are
// evaluated in now's location. The input slice is not modified and orders
// with equal timestamps keep their relative order.
func Filter(orders []Order, spec FilterSpec, now time.Time) []Order {
	loc := now.Location()
	today := startOfDay(now)
	query := strings.ToLower(strings.TrimSpace(spec.Search))

	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if !matchTab(&o, spec.Tab) {
			continue
		}
		created := o.CreatedAt.In(loc)
		if !matchWindow(startOfDay(created), today, spec.Window) {
			continue
		}
		if spec.Month != 0 && int(created.Month()) != spec.Month {
			continue
		}
		if spec.Year != 0 && created.Year() != spec.Year {
			continue
		}
		if !matchSearch(&o, query) {
			continue
		}
		out = append(out, o)
	}

	slices.SortStableFunc(out, func(a, b Order) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if spec.Sort == SortOldest {
			return c
		}
		return -c
	})
	return out
}

func matchTab(o *Order, t Tab) bool {
	if t == TabCompleted {
		return o.IsPaid()
	}
	return !o.IsPaid()
}

func matchWindow(day, today time.Time, w DateWindow) bool {
	switch w {
	case WindowToday:
		return day.Equal(today)
	case WindowYesterday:
		return day.Equal(today.AddDate(0, 0, -1))
	case WindowLast7Days:
		return within(day, today.AddDate(0, 0, -6), today)
	case WindowLast30Days:
		return within(day, today.AddDate(0, 0, -29), today)
	}
	return true
}

func within(day, from, to time.Time) bool {
	return !day.Before(from) && !day.After(to)
}

func matchSearch(o *Order, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(o.CustomerName), query) ||
		strings.Contains(strings.ToLower(o.InvoiceNumber()), query)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
