package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EstimatedTimeKind tags which encoding an EstimatedTime was read from.
type EstimatedTimeKind int

const (
	EstimatedTimeUnset EstimatedTimeKind = iota
	EstimatedTimeSeconds
	EstimatedTimeClock
)

// EstimatedTime is the completion estimate of a survey. The data API hands it
// out either as a bare number of seconds or as an "H:MM:SS" string; both are
// normalised here so formatting code only ever sees one shape.
type EstimatedTime struct {
	kind    EstimatedTimeKind
	seconds int
	h, m, s int
}

// SecondsEstimate builds an estimate from a plain number of seconds.
func SecondsEstimate(n int) EstimatedTime {
	if n < 0 {
		n = 0
	}
	return EstimatedTime{kind: EstimatedTimeSeconds, seconds: n}
}

// ClockEstimate builds an estimate from clock components.
func ClockEstimate(h, m, s int) EstimatedTime {
	return EstimatedTime{kind: EstimatedTimeClock, h: max(h, 0), m: max(m, 0), s: max(s, 0)}
}

// ParseEstimatedTime accepts "", "300", "300.0" or "H:MM:SS". Shorter clock
// values fill from the hour, so "5:30" is five and a half hours.
func ParseEstimatedTime(raw string) (EstimatedTime, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return EstimatedTime{}, nil
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return SecondsEstimate(int(n)), nil
	}

	parts := strings.Split(raw, ":")
	if len(parts) > 3 {
		return EstimatedTime{}, fmt.Errorf("estimated time %q: too many components", raw)
	}
	values := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return EstimatedTime{}, fmt.Errorf("estimated time %q: %w", raw, err)
		}
		values[i] = n
	}
	return ClockEstimate(values[0], values[1], values[2]), nil
}

// Kind reports which encoding the estimate came from.
func (e EstimatedTime) Kind() EstimatedTimeKind {
	return e.kind
}

// IsZero reports whether no estimate was provided.
func (e EstimatedTime) IsZero() bool {
	return e.kind == EstimatedTimeUnset
}

func (e EstimatedTime) clock() (int, int, int) {
	if e.kind == EstimatedTimeSeconds {
		return e.seconds / 3600, (e.seconds % 3600) / 60, e.seconds % 60
	}
	return e.h, e.m, e.s
}

// Duration returns the estimate as a time.Duration.
func (e EstimatedTime) Duration() time.Duration {
	h, m, s := e.clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

// Minutes rounds partial minutes up.
func (e EstimatedTime) Minutes() int {
	h, m, s := e.clock()
	return h*60 + m + (s+59)/60
}

// Short renders compact labels such as "< 1 min", "15 mins" or "1h 30m".
func (e EstimatedTime) Short() string {
	total := e.Minutes()
	if total < 1 {
		return "< 1 min"
	}
	if total < 60 {
		return fmt.Sprintf("%d mins", total)
	}
	h, m := total/60, total%60
	if m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dh", h)
}

// Long renders prose such as "1 hour and 5 minutes".
func (e EstimatedTime) Long() string {
	total := e.Minutes()
	if total < 1 {
		return "less than a minute"
	}
	if total < 60 {
		return fmt.Sprintf("%d minutes", total)
	}
	h, m := total/60, total%60
	hours := plural(h, "hour", "hours")
	if m == 0 {
		return hours
	}
	return hours + " and " + plural(m, "minute", "minutes")
}

// String renders the canonical "H:MM:SS" form used when writing to the API.
func (e EstimatedTime) String() string {
	if e.IsZero() {
		return ""
	}
	h, m, s := e.clock()
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// MarshalJSON writes null, a number of seconds or a clock string, mirroring
// the encoding the value was read from.
func (e EstimatedTime) MarshalJSON() ([]byte, error) {
	switch e.kind {
	case EstimatedTimeSeconds:
		return []byte(strconv.Itoa(e.seconds)), nil
	case EstimatedTimeClock:
		return json.Marshal(e.String())
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, numbers and strings. A value that is neither a
// number nor a clock leaves the estimate unset instead of failing the whole
// document it belongs to.
func (e *EstimatedTime) UnmarshalJSON(data []byte) error {
	*e = EstimatedTime{}
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		if parsed, err := ParseEstimatedTime(s); err == nil {
			*e = parsed
		}
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return nil
	}
	*e = SecondsEstimate(int(n))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
