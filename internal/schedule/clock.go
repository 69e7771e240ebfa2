package schedule

import (
	"time"

	"cloud.google.com/go/civil"
)

// BogotaOffset is UTC-05:00; Colombia has no daylight saving time.
const BogotaOffset = -5 * 60 * 60

// Clock answers every "is this in the past" question in one civil zone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock loads the named zone, falling back to a fixed UTC-05:00 zone
// when tzdata is unavailable. A nil now uses time.Now.
func NewClock(zone string, now func() time.Time) *Clock {
	loc, err := time.LoadLocation(zone)
	if err != nil || zone == "" {
		loc = time.FixedZone("America/Bogota", BogotaOffset)
	}
	if now == nil {
		now = time.Now
	}
	return &Clock{loc: loc, now: now}
}

// FixedClock is a clock frozen at t, used by tests and tools.
func FixedClock(loc *time.Location, t time.Time) *Clock {
	if loc == nil {
		loc = time.FixedZone("America/Bogota", BogotaOffset)
	}
	return &Clock{loc: loc, now: func() time.Time { return t }}
}

func (c *Clock) Location() *time.Location {
	return c.loc
}

// NowInZone is the current instant expressed in the civil zone.
func (c *Clock) NowInZone() time.Time {
	return c.now().In(c.loc)
}

// Today is the civil date of NowInZone.
func (c *Clock) Today() civil.Date {
	return civil.DateOf(c.NowInZone())
}

// SlotStart is the instant a slot label begins on date in the civil zone.
func (c *Clock) SlotStart(date civil.Date, label string) (time.Time, bool) {
	norm, ok := NormalizeHour(label)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date.String()+" "+norm, c.loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsPast reports whether the slot starts at or before now. Unparseable
// labels count as past so they are never offered.
func (c *Clock) IsPast(date civil.Date, label string) bool {
	start, ok := c.SlotStart(date, label)
	if !ok {
		return true
	}
	return !start.After(c.NowInZone())
}

// IsPastDate reports whether date is before today.
func (c *Clock) IsPastDate(date civil.Date) bool {
	return date.Before(c.Today())
}
