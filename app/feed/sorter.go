package feed

import (
	"slices"
	"time"
)

// SortByDateDesc orders items newest first by Date. Time is not part of the
// key; items on the same date keep their discovery order.
func SortByDateDesc(items []Item) []Item {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b Item) int {
		return itemDate(b).Compare(itemDate(a))
	})
	return sorted
}

func itemDate(item Item) time.Time {
	t, err := time.Parse(DateLayout, item.Date)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t
}
