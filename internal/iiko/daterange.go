package iiko

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// ValidationError reports a date range rejected before any request is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid date range: " + e.Reason
	}
	return fmt.Sprintf("invalid date range: %s: %s", e.Field, e.Reason)
}

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) Validate() error {
	if r.Start.IsZero() {
		return &ValidationError{Field: "start", Reason: "is required"}
	}
	if r.End.IsZero() {
		return &ValidationError{Field: "end", Reason: "is required"}
	}
	if startOfDay(r.End).Before(startOfDay(r.Start)) {
		return &ValidationError{Reason: fmt.Sprintf("start %s is after end %s", r.Start.Format(DateLayout), r.End.Format(DateLayout))}
	}
	return nil
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// ParseDateRange parses YYYY-MM-DD bounds and validates their order.
func ParseDateRange(start, end string) (DateRange, error) {
	from, err := parseDay("start", start)
	if err != nil {
		return DateRange{}, err
	}
	to, err := parseDay("end", end)
	if err != nil {
		return DateRange{}, err
	}
	rng := DateRange{Start: from, End: to}
	if err := rng.Validate(); err != nil {
		return DateRange{}, err
	}
	return rng, nil
}

// Through returns the range from the given first day until the day of now.
func Through(from string, now time.Time) (DateRange, error) {
	start, err := parseDay("start", from)
	if err != nil {
		return DateRange{}, err
	}
	rng := DateRange{Start: start, End: startOfDay(now)}
	if err := rng.Validate(); err != nil {
		return DateRange{}, err
	}
	return rng, nil
}

func parseDay(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, &ValidationError{Field: field, Reason: "is required"}
	}
	t, err := time.ParseInLocation(DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", value)}
	}
	return t, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
