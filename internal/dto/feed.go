package dto

// Client frame types accepted on the live feed socket.
const (
	FrameInput   = "input"
	FrameMore    = "more"
	FrameRetry   = "retry"
	FrameSuggest = "suggest"
)

// Server frame types.
const (
	FrameReset       = "reset"
	FramePage        = "page"
	FrameError       = "error"
	FrameSuggestions = "suggestions"
	FrameDone        = "done"
)

// ClientFrame is a message from the browser.
type ClientFrame struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Field string `json:"field,omitempty"`
}

// FeedFrame is a message to the browser. Fields are populated per type.
type FeedFrame struct {
	Type        string        `json:"type"`
	Filter      string        `json:"filter"`
	Items       []PostingCard `json:"items,omitempty"`
	Offset      int           `json:"offset,omitempty"`
	TotalCount  *int          `json:"total_count,omitempty"`
	HasMore     bool          `json:"has_more"`
	Retryable   bool          `json:"retryable,omitempty"`
	Message     string        `json:"message,omitempty"`
	Field       string        `json:"field,omitempty"`
	Suggestions []string      `json:"suggestions,omitempty"`
}
