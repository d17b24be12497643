package models

// PageRequest describes one listing fetch. Offsets of consecutive pages in a
// chain differ by exactly Limit.
type PageRequest struct {
	Filter string `json:"filter,omitempty"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// Page pairs a request with what the data API returned for it.
type Page struct {
	Request    PageRequest `json:"request"`
	Items      []Posting   `json:"items"`
	TotalCount *int        `json:"total_count,omitempty"`
}

// Terminal reports whether no further page can follow. A missing or zero
// total is treated as "cannot page further", not as "unlimited".
func (p Page) Terminal() bool {
	if p.TotalCount == nil || *p.TotalCount <= 0 || p.Request.Limit <= 0 {
		return true
	}
	return p.Request.Offset+p.Request.Limit >= *p.TotalCount
}

// NextRequest returns the request for the following page, or false when the
// page is terminal. Filter and limit carry over unchanged.
func (p Page) NextRequest() (PageRequest, bool) {
	if p.Terminal() {
		return PageRequest{}, false
	}
	next := p.Request
	next.Offset = p.Request.Offset + p.Request.Limit
	return next, true
}

// Pagination is the cursor metadata returned by the JSON API.
type Pagination struct {
	Offset     int  `json:"offset"`
	Limit      int  `json:"limit"`
	TotalCount *int `json:"total_count"`
	HasMore    bool `json:"has_more"`
	NextOffset *int `json:"next_offset,omitempty"`
}

// PaginationFor summarises a fetched page for API consumers.
func PaginationFor(p Page) *Pagination {
	pg := &Pagination{Offset: p.Request.Offset, Limit: p.Request.Limit, TotalCount: p.TotalCount}
	if next, ok := p.NextRequest(); ok {
		pg.HasMore = true
		pg.NextOffset = &next.Offset
	}
	return pg
}
