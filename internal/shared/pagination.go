package shared

// ListFilter carries the filter and paging parameters for listings.
type ListFilter struct {
	Page  int
	Limit int
	Name  string
}

// Normalize clamps paging parameters to sane values.
func (f ListFilter) Normalize(defaultLimit int) ListFilter {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	return f
}

// Offset returns the row offset for the current page.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
