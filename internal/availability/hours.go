package availability

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

var ErrInvalidClock = errors.New("invalid time of day")

// DayHours is one weekday's opening window. Close <= Open denotes a span that
// wraps past midnight.
type DayHours struct {
	Open   string `json:"open" yaml:"open"`
	Close  string `json:"close" yaml:"close"`
	Closed bool   `json:"closed" yaml:"closed"`
}

// OpeningHours maps lowercase English weekday names ("monday") to DayHours.
type OpeningHours map[string]DayHours

// Day returns the hours configured for wd.
func (h OpeningHours) Day(wd time.Weekday) (DayHours, bool) {
	d, ok := h[strings.ToLower(wd.String())]
	return d, ok
}

// Validate checks day names and clock values.
func (h OpeningHours) Validate() error {
	for name, d := range h {
		if !isWeekdayName(name) {
			return fmt.Errorf("opening hours: unknown day %q", name)
		}
		if d.Closed {
			continue
		}
		if _, err := ParseClock(d.Open); err != nil {
			return fmt.Errorf("opening hours %s open: %w", name, err)
		}
		if _, err := ParseClock(d.Close); err != nil {
			return fmt.Errorf("opening hours %s close: %w", name, err)
		}
	}
	return nil
}

// window is an opening span in minutes since midnight. close may exceed
// minutesPerDay for overnight spans.
type window struct {
	open  int
	close int
}

func (w window) overnight() bool {
	return w.close > minutesPerDay
}

func (d DayHours) window() (window, bool) {
	if d.Closed {
		return window{}, false
	}
	open, err := ParseClock(d.Open)
	if err != nil {
		return window{}, false
	}
	closeAt, err := ParseClock(d.Close)
	if err != nil {
		return window{}, false
	}
	if closeAt < open {
		closeAt += minutesPerDay
	}
	return window{open: open, close: closeAt}, true
}

// ParseClock parses "HH:MM" (or "HH:MM:SS" as returned by Postgres TIME) into
// minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM", wrapping past 24h.
func FormatClock(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func minutesOf(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func isWeekdayName(s string) bool {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.ToLower(wd.String()) == s {
			return true
		}
	}
	return false
}
