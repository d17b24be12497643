package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTimers records scheduled callbacks so tests decide when time passes.
type fakeTimers struct {
	mu      sync.Mutex
	pending []*fakeTimer
}

type fakeTimer struct {
	delay     time.Duration
	f         func()
	cancelled bool
	fired     bool
}

func (ft *fakeTimers) schedule(d time.Duration, f func()) func() bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	t := &fakeTimer{delay: d, f: f}
	ft.pending = append(ft.pending, t)
	return func() bool {
		ft.mu.Lock()
		defer ft.mu.Unlock()
		if t.fired || t.cancelled {
			return false
		}
		t.cancelled = true
		return true
	}
}

// elapse fires every live timer, as if their delay passed with no input.
func (ft *fakeTimers) elapse() int {
	ft.mu.Lock()
	var due []*fakeTimer
	for _, t := range ft.pending {
		if !t.cancelled && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	ft.pending = nil
	ft.mu.Unlock()

	for _, t := range due {
		t.f()
	}
	return len(due)
}

func (ft *fakeTimers) live() []*fakeTimer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	var out []*fakeTimer
	for _, t := range ft.pending {
		if !t.cancelled && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

func TestQueryPolicySubmittable(t *testing.T) {
	feed := QueryPolicy{MinLength: 3, AllowEmpty: true}
	assert.True(t, feed.Submittable(""))
	assert.True(t, feed.Submittable("   "))
	assert.False(t, feed.Submittable("a"))
	assert.False(t, feed.Submittable("ab"))
	assert.True(t, feed.Submittable("abc"))
	assert.False(t, feed.Submittable("é"))
	assert.True(t, feed.Submittable("éüö"))

	suggest := QueryPolicy{MinLength: 3}
	assert.False(t, suggest.Submittable(""))
	assert.True(t, suggest.Submittable("uni"))
}

func TestDebouncedQueryTypingBurstDeliversOnce(t *testing.T) {
	timers := &fakeTimers{}
	var delivered []string
	q := newDebouncedQuery(QueryPolicy{MinLength: 3, AllowEmpty: true, Debounce: 300 * time.Millisecond},
		func(text string) { delivered = append(delivered, text) }, timers.schedule)

	assert.False(t, q.Input("a"))
	assert.False(t, q.Input("ab"))
	assert.Empty(t, timers.live())

	assert.True(t, q.Input("abc"))
	live := timers.live()
	require.Len(t, live, 1)
	assert.Equal(t, 300*time.Millisecond, live[0].delay)
	assert.Empty(t, delivered)

	assert.Equal(t, 1, timers.elapse())
	assert.Equal(t, []string{"abc"}, delivered)
}

func TestDebouncedQueryLaterInputCancelsPending(t *testing.T) {
	timers := &fakeTimers{}
	var delivered []string
	q := newDebouncedQuery(QueryPolicy{MinLength: 3, AllowEmpty: true},
		func(text string) { delivered = append(delivered, text) }, timers.schedule)

	q.Input("abc")
	q.Input("abcd")
	q.Input("ab")
	assert.Equal(t, 0, timers.elapse())
	assert.Empty(t, delivered)

	q.Input("")
	timers.elapse()
	assert.Equal(t, []string{""}, delivered)
}

func TestDebouncedQueryIgnoresLateFire(t *testing.T) {
	timers := &fakeTimers{}
	var delivered []string
	q := newDebouncedQuery(QueryPolicy{MinLength: 3},
		func(text string) { delivered = append(delivered, text) }, timers.schedule)

	q.Input("abc")
	stale := timers.live()[0]
	q.Input("abcd")

	// A timer that already started firing when it was replaced must not deliver.
	stale.f()
	assert.Empty(t, delivered)

	timers.elapse()
	assert.Equal(t, []string{"abcd"}, delivered)
}

func TestDebouncedQueryStop(t *testing.T) {
	timers := &fakeTimers{}
	called := false
	q := newDebouncedQuery(QueryPolicy{MinLength: 1}, func(string) { called = true }, timers.schedule)

	q.Input("abc")
	q.Stop()
	assert.False(t, q.Input("abcd"))
	timers.elapse()
	assert.False(t, called)
}

func TestDebouncedQueryRealTimer(t *testing.T) {
	done := make(chan string, 1)
	q := NewDebouncedQuery(QueryPolicy{MinLength: 3, Debounce: 10 * time.Millisecond}, func(text string) { done <- text })
	defer q.Stop()

	q.Input("abc")
	select {
	case got := <-done:
		assert.Equal(t, "abc", got)
	case <-time.After(time.Second):
		t.Fatal("debounced input was not delivered")
	}
}
