// Package deadline parses the deadline timestamps exchanged between the
// todo and notification services.
package deadline

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidFormat = errors.New("invalid deadline date format")

// layouts are tried in order; layouts without an offset are read as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Parse returns the deadline in UTC.
func Parse(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
}

// IsExpired reports deadline <= now.
func IsExpired(deadline, now time.Time) bool {
	return !deadline.After(now)
}
