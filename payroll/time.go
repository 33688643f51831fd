package payroll

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// =============================================================================
// CLOCK - Wall-clock time of day at minute granularity
// =============================================================================

// Clock is a time of day expressed as minutes since midnight.
type Clock int

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// ParseClock parses a 24-hour "HH:MM" string (00-23 hours, 00-59 minutes).
// Anything else is rejected with a *MalformedTimeError.
func ParseClock(s string) (Clock, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, &MalformedTimeError{Value: s}
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return NewClock(h, mm), nil
}

// MustParseClock is ParseClock for literals in tests and fixtures.
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func NewClock(hour, minute int) Clock { return Clock(hour*60 + minute) }

func (c Clock) Minutes() int   { return int(c) }
func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60) }

// =============================================================================
// DATE - Calendar day, always UTC midnight
// =============================================================================

const DateLayout = "2006-01-02"

type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

func (d Date) AddDays(n int) Date { return Date{Time: d.normalize().AddDate(0, 0, n)} }
func (d Date) IsZero() bool       { return d.Time.IsZero() }
func (d Date) String() string     { return d.normalize().Format(DateLayout) }
