package sheet

import "fmt"

// Layout says where each record field goes. Rows and columns are 1-based.
type Layout struct {
	StartRow    int
	DateCol     int
	HoursCol    int
	LocationCol int
	PositionCol int
}

// DefaultLayout matches the stock timesheet template: data from row 4 in
// columns A to D.
func DefaultLayout() Layout {
	return Layout{StartRow: 4, DateCol: 1, HoursCol: 2, LocationCol: 3, PositionCol: 4}
}

// Validate checks indices are positive and columns are distinct.
func (l Layout) Validate() error {
	if l.StartRow < 1 {
		return fmt.Errorf("%w: start_row must be >= 1, got %d", ErrLayout, l.StartRow)
	}
	cols := map[string]int{
		"date_col":     l.DateCol,
		"hours_col":    l.HoursCol,
		"location_col": l.LocationCol,
		"position_col": l.PositionCol,
	}
	used := make(map[int]string, len(cols))
	for _, name := range []string{"date_col", "hours_col", "location_col", "position_col"} {
		col := cols[name]
		if col < 1 {
			return fmt.Errorf("%w: %s must be >= 1, got %d", ErrLayout, name, col)
		}
		if other, dup := used[col]; dup {
			return fmt.Errorf("%w: %s and %s both use column %d", ErrLayout, other, name, col)
		}
		used[col] = name
	}
	return nil
}
