package calendar

import (
	"sync"
	"time"

	"ai-vacation-planner/internal/trip"
)

// DefaultWindowDays bounds how far ahead free ranges are searched.
const DefaultWindowDays = 60

// Event is a busy block on a user's mock calendar.
type Event struct {
	Title string
	Start trip.Date
	End   trip.Date // inclusive
}

// Oracle answers availability questions from an in-memory mock calendar.
// Lookups are pure queries; the only mutation is the demo seed on first
// access per user.
type Oracle struct {
	mu     sync.Mutex
	events map[string][]Event
	now    func() time.Time
}

// NewOracle creates an Oracle using the wall clock.
func NewOracle() *Oracle {
	return NewOracleAt(time.Now)
}

// NewOracleAt creates an Oracle with an injected clock, for tests.
func NewOracleAt(now func() time.Time) *Oracle {
	return &Oracle{events: make(map[string][]Event), now: now}
}

// SetEvents replaces a user's calendar, disabling the demo seed for them.
func (o *Oracle) SetEvents(userID string, events []Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events[userID] = events
}

// eventsFor seeds a demo busy day for users seen for the first time, so
// the mock calendar is never trivially empty.
func (o *Oracle) eventsFor(userID string) []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	if events, ok := o.events[userID]; ok {
		return events
	}
	busy := trip.DateOf(o.now().AddDate(0, 0, 3))
	seeded := []Event{{Title: "Work", Start: busy, End: busy}}
	o.events[userID] = seeded
	return seeded
}

// busyDays keys by the formatted date so two Date values for the same
// calendar day always collide.
func (o *Oracle) busyDays(userID string) map[string]bool {
	busy := make(map[string]bool)
	for _, e := range o.eventsFor(userID) {
		for d := e.Start; !d.After(e.End.Time); d = d.Next() {
			busy[d.String()] = true
		}
	}
	return busy
}

// FreeRanges finds contiguous free blocks of at least tripDays days within
// the next windowDays, starting today.
func (o *Oracle) FreeRanges(userID string, tripDays, windowDays int) []trip.DateRange {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if tripDays < 1 {
		tripDays = 1
	}

	busy := o.busyDays(userID)
	today := trip.DateOf(o.now())

	var ranges []trip.DateRange
	var start *trip.Date
	for offset := 0; offset < windowDays; offset++ {
		d := trip.Date{Time: today.AddDate(0, 0, offset)}
		if busy[d.String()] {
			if start != nil {
				r := trip.DateRange{Start: *start, End: trip.Date{Time: d.AddDate(0, 0, -1)}}
				if r.Days() >= tripDays {
					ranges = append(ranges, r)
				}
				start = nil
			}
			continue
		}
		if start == nil {
			s := d
			start = &s
		}
	}
	if start != nil {
		r := trip.DateRange{Start: *start, End: trip.Date{Time: today.AddDate(0, 0, windowDays-1)}}
		if r.Days() >= tripDays {
			ranges = append(ranges, r)
		}
	}
	return ranges
}

// IsFree reports whether every day in the range is free of calendar
// events for the user.
func (o *Oracle) IsFree(userID string, r trip.DateRange) bool {
	busy := o.busyDays(userID)
	for d := r.Start; !d.After(r.End.Time); d = d.Next() {
		if busy[d.String()] {
			return false
		}
	}
	return true
}
