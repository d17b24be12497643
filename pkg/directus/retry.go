package directus

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"time"
)

const maxBackoff = 2 * time.Second

type retryPolicy struct {
	maxRetries int
	initial    time.Duration
}

func newRetryPolicy(maxRetries int, initial time.Duration) retryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if initial <= 0 {
		initial = 100 * time.Millisecond
	}
	return retryPolicy{maxRetries: maxRetries, initial: initial}
}

// backoff doubles per attempt with +/-10% jitter.
func (p retryPolicy) backoff(attempt int) time.Duration {
	d := p.initial << (attempt - 1)
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	jitter := float64(d) * 0.1 * (rand.Float64()*2 - 1)
	return d + time.Duration(jitter)
}

func (p retryPolicy) retryable(status int, err error) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	if status != 0 {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}
