// Package calendar provides business-day membership tests and date-rolling
// primitives used to place settlement and reference dates. Calendars are
// immutable once built and safe for concurrent use.
package calendar

import (
	"fmt"
	"time"
)

const dayKeyFormat = "2006-01-02"

// RollConvention maps a non-business date to an adjacent business date.
type RollConvention string

const (
	Following         RollConvention = "following"
	Preceding         RollConvention = "preceding"
	ModifiedFollowing RollConvention = "modified_following"
	ModifiedPreceding RollConvention = "modified_preceding"
)

// Calendar holds a region tag, a holiday set keyed by calendar day, and the
// weekdays treated as weekend. Time-of-day is discarded for all membership
// tests.
type Calendar struct {
	region   string
	holidays map[string]struct{}
	weekend  map[time.Weekday]struct{}
}

// New builds a calendar from an explicit holiday list and weekend weekdays.
// An empty weekendDays defaults to Saturday/Sunday.
func New(region string, holidays []time.Time, weekendDays ...time.Weekday) *Calendar {
	if len(weekendDays) == 0 {
		weekendDays = []time.Weekday{time.Saturday, time.Sunday}
	}
	c := &Calendar{
		region:   region,
		holidays: make(map[string]struct{}, len(holidays)),
		weekend:  make(map[time.Weekday]struct{}, len(weekendDays)),
	}
	for _, h := range holidays {
		c.holidays[h.Format(dayKeyFormat)] = struct{}{}
	}
	for _, w := range weekendDays {
		c.weekend[w] = struct{}{}
	}
	return c
}

// ForRegion returns the built-in calendar for a supported region tag.
func ForRegion(region string) (*Calendar, error) {
	holidays, ok := regionHolidays[region]
	if !ok {
		return nil, fmt.Errorf("unsupported calendar region %q", region)
	}
	dates := make([]time.Time, 0, len(holidays))
	for _, d := range holidays {
		t, err := time.Parse(dayKeyFormat, d)
		if err != nil {
			return nil, fmt.Errorf("bad built-in holiday %q for region %s: %w", d, region, err)
		}
		dates = append(dates, t)
	}
	return New(region, dates), nil
}

// Merge unions the holidays and weekend days of both calendars, modelling a
// compound calendar (e.g. settlement requires both legs' markets open).
func Merge(a, b *Calendar) *Calendar {
	m := &Calendar{
		region:   a.region + "+" + b.region,
		holidays: make(map[string]struct{}, len(a.holidays)+len(b.holidays)),
		weekend:  make(map[time.Weekday]struct{}, len(a.weekend)+len(b.weekend)),
	}
	for k := range a.holidays {
		m.holidays[k] = struct{}{}
	}
	for k := range b.holidays {
		m.holidays[k] = struct{}{}
	}
	for w := range a.weekend {
		m.weekend[w] = struct{}{}
	}
	for w := range b.weekend {
		m.weekend[w] = struct{}{}
	}
	return m
}

// Region returns the calendar's region tag.
func (c *Calendar) Region() string {
	return c.region
}

// IsWeekend reports whether the date falls on one of the calendar's weekend
// weekdays.
func (c *Calendar) IsWeekend(date time.Time) bool {
	_, ok := c.weekend[date.Weekday()]
	return ok
}

// IsHoliday reports whether the date's calendar day is in the holiday set.
func (c *Calendar) IsHoliday(date time.Time) bool {
	_, ok := c.holidays[date.Format(dayKeyFormat)]
	return ok
}

// IsBusinessDay reports whether the date is neither weekend nor holiday.
func (c *Calendar) IsBusinessDay(date time.Time) bool {
	return !c.IsWeekend(date) && !c.IsHoliday(date)
}

// RollForward returns the first business day at or after date. Idempotent on
// a date that is already a business day.
func (c *Calendar) RollForward(date time.Time) time.Time {
	for !c.IsBusinessDay(date) {
		date = date.AddDate(0, 0, 1)
	}
	return date
}

// RollBackward returns the first business day at or before date.
func (c *Calendar) RollBackward(date time.Time) time.Time {
	for !c.IsBusinessDay(date) {
		date = date.AddDate(0, 0, -1)
	}
	return date
}

// ApplyRollConvention rolls a date per the given convention. The modified
// variants substitute the opposite-direction roll when the naive roll crosses
// a calendar-month boundary relative to the input date.
func (c *Calendar) ApplyRollConvention(date time.Time, convention RollConvention) (time.Time, error) {
	switch convention {
	case Following:
		return c.RollForward(date), nil
	case Preceding:
		return c.RollBackward(date), nil
	case ModifiedFollowing:
		rolled := c.RollForward(date)
		if rolled.Month() != date.Month() || rolled.Year() != date.Year() {
			return c.RollBackward(date), nil
		}
		return rolled, nil
	case ModifiedPreceding:
		rolled := c.RollBackward(date)
		if rolled.Month() != date.Month() || rolled.Year() != date.Year() {
			return c.RollForward(date), nil
		}
		return rolled, nil
	default:
		return time.Time{}, fmt.Errorf("unknown roll convention %q", convention)
	}
}

// AddBusinessDays steps one calendar day at a time in the sign of n, counting
// only business days, until |n| business-day steps are consumed. Negative n
// subtracts business days.
func (c *Calendar) AddBusinessDays(date time.Time, n int) time.Time {
	if n == 0 {
		return date
	}
	step := 1
	if n < 0 {
		step = -1
		n = -n
	}
	for n > 0 {
		date = date.AddDate(0, 0, step)
		if c.IsBusinessDay(date) {
			n--
		}
	}
	return date
}

// CountBusinessDays counts business days between start and end inclusive of
// both endpoints. Returns the negated count when start > end.
func (c *Calendar) CountBusinessDays(start, end time.Time) int {
	if start.After(end) {
		return -c.CountBusinessDays(end, start)
	}
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if c.IsBusinessDay(d) {
			count++
		}
	}
	return count
}

// FirstBusinessDayOfMonth rolls calendar day 1 of the date's month forward.
func (c *Calendar) FirstBusinessDayOfMonth(date time.Time) time.Time {
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
	return c.RollForward(first)
}

// LastBusinessDayOfMonth rolls the last calendar day of the date's month
// backward.
func (c *Calendar) LastBusinessDayOfMonth(date time.Time) time.Time {
	last := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location()).
		AddDate(0, 1, -1)
	return c.RollBackward(last)
}
