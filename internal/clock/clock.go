// Package clock pins every business date to one configured time zone.
//
// Civil dates (a debt's due date, the day a cash transaction belongs to) are
// stored as datatypes.Date holding UTC midnight of that calendar day, so two
// dates compare equal exactly when they name the same day in the business zone.
package clock

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

const DateLayout = "2006-01-02"

// Clock answers "what day is it" for the business.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New loads the named IANA zone. An empty name falls back to UTC.
func New(zone string) (*Clock, error) {
	if zone == "" {
		return &Clock{loc: time.UTC, now: time.Now}, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("clock: zona horaria %q: %w", zone, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// NewFixed returns a clock frozen at t. Intended for tests and one-off tools.
func NewFixed(t time.Time, loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc, now: func() time.Time { return t }}
}

func (c *Clock) Location() *time.Location { return c.loc }

// Now returns the current instant in the business zone.
func (c *Clock) Now() time.Time { return c.now().In(c.loc) }

// Today is the current civil date in the business zone.
func (c *Clock) Today() datatypes.Date { return c.DateOf(c.now()) }

// DateOf returns the civil date t falls on in the business zone.
func (c *Clock) DateOf(t time.Time) datatypes.Date {
	y, m, d := t.In(c.loc).Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// ParseDate parses a YYYY-MM-DD civil date.
func ParseDate(s string) (datatypes.Date, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return datatypes.Date{}, err
	}
	return datatypes.Date(t), nil
}

// FormatDate renders a civil date as YYYY-MM-DD.
func FormatDate(d datatypes.Date) string {
	y, m, day := time.Time(d).Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC).Format(DateLayout)
}

// Normalize drops any time-of-day and zone a scanned date may carry.
func Normalize(d datatypes.Date) datatypes.Date {
	y, m, day := time.Time(d).Date()
	return datatypes.Date(time.Date(y, m, day, 0, 0, 0, 0, time.UTC))
}

// Before reports whether a is an earlier calendar day than b.
func Before(a, b datatypes.Date) bool {
	return time.Time(Normalize(a)).Before(time.Time(Normalize(b)))
}

// DaysBetween counts whole days from a to b (negative when b precedes a).
func DaysBetween(a, b datatypes.Date) int {
	return int(time.Time(Normalize(b)).Sub(time.Time(Normalize(a))).Hours() / 24)
}
