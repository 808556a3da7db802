package data

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period is a trailing look-back window such as "3y", "6m", "2w" or "90d".
type Period struct {
	Years, Months, Days int
	Duration            time.Duration
}

// ParseTrailingPeriod parses period strings. Calendar units (y, mo/m, w, d,
// days) are kept as calendar offsets; anything else must be a Go duration
// like "168h".
func ParseTrailingPeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Period{}, fmt.Errorf("empty period")
	}

	units := []struct {
		suffix string
		apply  func(n int) Period
	}{
		{"days", func(n int) Period { return Period{Days: n} }},
		{"mo", func(n int) Period { return Period{Months: n} }},
		{"y", func(n int) Period { return Period{Years: n} }},
		{"m", func(n int) Period { return Period{Months: n} }},
		{"w", func(n int) Period { return Period{Days: 7 * n} }},
		{"d", func(n int) Period { return Period{Days: n} }},
	}
	for _, u := range units {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(s, u.suffix))
		if err != nil {
			break
		}
		if n <= 0 {
			return Period{}, fmt.Errorf("invalid period %q", s)
		}
		return u.apply(n), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return Period{}, fmt.Errorf("invalid period %q", s)
	}
	return Period{Duration: d}, nil
}

// Start returns the beginning of the window that ends at end.
func (p Period) Start(end time.Time) time.Time {
	return end.AddDate(-p.Years, -p.Months, -p.Days).Add(-p.Duration)
}
