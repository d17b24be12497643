package service

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// QueryPolicy is the length gate and quiet period shared by the listing
// filter and autocomplete.
type QueryPolicy struct {
	MinLength  int
	Debounce   time.Duration
	AllowEmpty bool
}

// Normalize trims surrounding whitespace from user input.
func (p QueryPolicy) Normalize(text string) string {
	return strings.TrimSpace(text)
}

// Submittable reports whether text may be sent to the data API. Non-empty
// text shorter than MinLength is treated as still being typed.
func (p QueryPolicy) Submittable(text string) bool {
	n := utf8.RuneCountInString(p.Normalize(text))
	if n == 0 {
		return p.AllowEmpty
	}
	return n >= p.MinLength
}

// scheduleFunc runs f after d and returns a function that cancels it.
type scheduleFunc func(d time.Duration, f func()) (cancel func() bool)

func afterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// DebouncedQuery delivers the last submittable input after a quiet period.
// Every call to Input cancels what was pending, so a burst of keystrokes
// produces at most one delivery.
type DebouncedQuery struct {
	policy   QueryPolicy
	deliver  func(text string)
	schedule scheduleFunc

	mu      sync.Mutex
	seq     uint64
	cancel  func() bool
	stopped bool
}

// NewDebouncedQuery returns a query that calls deliver from a timer goroutine.
func NewDebouncedQuery(policy QueryPolicy, deliver func(text string)) *DebouncedQuery {
	return newDebouncedQuery(policy, deliver, afterFunc)
}

func newDebouncedQuery(policy QueryPolicy, deliver func(string), schedule scheduleFunc) *DebouncedQuery {
	if schedule == nil {
		schedule = afterFunc
	}
	return &DebouncedQuery{policy: policy, deliver: deliver, schedule: schedule}
}

// Input records a keystroke. It returns false when text is gated and nothing
// was scheduled.
func (q *DebouncedQuery) Input(text string) bool {
	text = q.policy.Normalize(text)

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return false
	}
	q.seq++
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	if !q.policy.Submittable(text) {
		return false
	}

	seq := q.seq
	q.cancel = q.schedule(q.policy.Debounce, func() { q.fire(seq, text) })
	return true
}

func (q *DebouncedQuery) fire(seq uint64, text string) {
	q.mu.Lock()
	if q.stopped || seq != q.seq {
		q.mu.Unlock()
		return
	}
	q.cancel = nil
	q.mu.Unlock()

	q.deliver(text)
}

// Stop cancels pending delivery and ignores further input.
func (q *DebouncedQuery) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopped = true
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
}
