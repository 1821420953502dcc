package domain

// Page sizes for listing endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest selects one 1-indexed page of a listing.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest builds a PageRequest from optional query values. Missing or
// non-positive values fall back to the first page of DefaultPageSize items and
// the limit never exceeds MaxPageSize.
func NewPageRequest(page, limit *int) PageRequest {
	p := PageRequest{Page: 1, Limit: DefaultPageSize}
	if page != nil && *page > 0 {
		p.Page = *page
	}
	if limit != nil && *limit > 0 {
		p.Limit = min(*limit, MaxPageSize)
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pages reports how many pages hold total items at this page size.
func (p PageRequest) Pages(total int64) int {
	if p.Limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}
