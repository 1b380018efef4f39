// utils/dates.go
package utils

import (
	"time"

	"github.com/pkg/errors"
)

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// NextDay is the start of the calendar day after t, in t's location.
func NextDay(t time.Time) time.Time {
	return BeginningOfDay(t).AddDate(0, 0, 1)
}

// ParseDateParam accepts either an RFC3339 instant or a plain YYYY-MM-DD date.
// A plain date is interpreted at the beginning of that day in loc.
func ParseDateParam(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return nil, errors.Errorf("invalid date %q", s)
	}
	return &t, nil
}
