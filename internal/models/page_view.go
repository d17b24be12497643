package models

import "time"

// PageView is the analytics event emitted for every rendered page.
type PageView struct {
	Path       string            `json:"page_path"`
	Location   string            `json:"page_location"`
	Title      string            `json:"page_title"`
	SearchTerm string            `json:"search_term,omitempty"`
	PostingID  string            `json:"posting_id,omitempty"`
	Course     string            `json:"course,omitempty"`
	School     string            `json:"school,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
