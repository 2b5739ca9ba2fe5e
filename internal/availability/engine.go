// Package availability decides whether an establishment takes orders at a
// given instant and which future slots can be offered for scheduled orders.
// All arithmetic happens in the establishment's location; callers pass "now".
package availability

import (
	"errors"
	"time"
)

// Scheduling policy.
const (
	LeadTime      = 30 // minutes between now and the first slot offered today
	ClosingBuffer = 15 // minutes a slot must leave before close
	SlotInterval  = 30 // minutes between consecutive slots
	DayHorizon    = 14 // days scanned by NextAvailableDays
	roundingStep  = 15
)

var (
	ErrNoAvailableSlots = errors.New("no available slot at the requested time")
	ErrStoreClosed      = errors.New("store is closed")
)

// NextOpen is the next moment the store opens, labelled for display.
type NextOpen struct {
	Day  string `json:"day"`
	Time string `json:"time"`
}

// AvailableDay is a calendar day that still accepts scheduled orders.
type AvailableDay struct {
	Date  string `json:"date"`
	Label string `json:"label"`
}

// Status is a snapshot of the store's availability.
type Status struct {
	IsOpen          bool      `json:"is_open"`
	TemporaryClosed bool      `json:"temporary_closed"`
	NextOpen        *NextOpen `json:"next_open"`
}

// Engine evaluates opening hours in a fixed location.
type Engine struct {
	hours           OpeningHours
	temporaryClosed bool
	loc             *time.Location
}

// New creates an Engine. A nil hours table means always open; a nil loc means UTC.
func New(hours OpeningHours, temporaryClosed bool, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{hours: hours, temporaryClosed: temporaryClosed, loc: loc}
}

// Location returns the establishment's location.
func (e *Engine) Location() *time.Location {
	return e.loc
}

func (e *Engine) dayWindow(wd time.Weekday) (window, bool) {
	if e.hours == nil {
		return window{open: 0, close: minutesPerDay}, true
	}
	d, ok := e.hours.Day(wd)
	if !ok {
		return window{}, false
	}
	return d.window()
}

// IsOpenNow reports whether orders can be placed at now.
func (e *Engine) IsOpenNow(now time.Time) bool {
	if e.temporaryClosed {
		return false
	}
	local := now.In(e.loc)
	w, ok := e.dayWindow(local.Weekday())
	if !ok {
		return false
	}
	cur := minutesOf(local)
	if w.overnight() {
		return cur >= w.open || cur < w.close-minutesPerDay
	}
	return cur >= w.open && cur < w.close
}

// NextOpenTime returns the next opening within a week, or nil when the hours
// table is absent or no day in the horizon opens.
func (e *Engine) NextOpenTime(now time.Time) *NextOpen {
	if e.hours == nil {
		return nil
	}
	local := now.In(e.loc)
	if w, ok := e.dayWindow(local.Weekday()); ok && minutesOf(local) < w.open {
		return &NextOpen{Day: "Today", Time: FormatClock(w.open)}
	}
	for i := 1; i <= 7; i++ {
		day := local.AddDate(0, 0, i)
		w, ok := e.dayWindow(day.Weekday())
		if !ok {
			continue
		}
		label := day.Weekday().String()
		if i == 1 {
			label = "Tomorrow"
		}
		return &NextOpen{Day: label, Time: FormatClock(w.open)}
	}
	return nil
}

// Status bundles IsOpenNow and NextOpenTime.
func (e *Engine) Status(now time.Time) Status {
	return Status{
		IsOpen:          e.IsOpenNow(now),
		TemporaryClosed: e.temporaryClosed,
		NextOpen:        e.NextOpenTime(now),
	}
}

// AvailableScheduleSlots returns the "HH:MM" slots offered on date's calendar
// day. Today's slots start no earlier than now+LeadTime rounded up to the next
// quarter hour; no slot is closer than ClosingBuffer to close.
func (e *Engine) AvailableScheduleSlots(date, now time.Time) []string {
	slots := []string{}
	day := startOfDay(date.In(e.loc))
	if day.Before(startOfDay(now.In(e.loc))) {
		return slots
	}
	for _, m := range e.slotMinutes(day, now) {
		slots = append(slots, FormatClock(m))
	}
	return slots
}

// slotMinutes returns the slots of day as minutes since its midnight. Values
// past minutesPerDay belong to the overnight tail on the following date, so
// yesterday can still contribute slots after midnight.
func (e *Engine) slotMinutes(day, now time.Time) []int {
	local := now.In(e.loc)
	today := startOfDay(local)

	var elapsed int
	switch {
	case day.Equal(today):
		elapsed = minutesOf(local)
	case day.Equal(today.AddDate(0, 0, -1)):
		elapsed = minutesPerDay + minutesOf(local)
	case day.Before(today):
		return nil
	default:
		elapsed = -1
	}

	w, ok := e.dayWindow(day.Weekday())
	if !ok {
		return nil
	}

	start := w.open
	if elapsed >= 0 {
		earliest := roundUp(elapsed+LeadTime, roundingStep)
		if earliest > start {
			start = earliest
		}
	}

	var out []int
	for m := start; m < w.close-ClosingBuffer; m += SlotInterval {
		out = append(out, m)
	}
	return out
}

// NextAvailableDays returns up to count days, within DayHorizon, that accept
// scheduled orders. Today counts only while it still has slots.
func (e *Engine) NextAvailableDays(now time.Time, count int) []AvailableDay {
	days := []AvailableDay{}
	if count <= 0 {
		return days
	}

	today := startOfDay(now.In(e.loc))
	for i := 0; i < DayHorizon && len(days) < count; i++ {
		day := today.AddDate(0, 0, i)
		if _, ok := e.dayWindow(day.Weekday()); !ok {
			continue
		}
		if i == 0 && len(e.AvailableScheduleSlots(day, now)) == 0 {
			continue
		}
		days = append(days, AvailableDay{Date: day.Format("2006-01-02"), Label: dayLabel(day, i)})
	}
	return days
}

// ValidateScheduledFor checks that t is in the future and falls exactly on a
// slot offered by its own day or by the previous day's overnight span.
func (e *Engine) ValidateScheduledFor(t, now time.Time) error {
	if !t.After(now) {
		return ErrNoAvailableSlots
	}
	day := startOfDay(t.In(e.loc))
	for _, d := range []time.Time{day.AddDate(0, 0, -1), day} {
		for _, m := range e.slotMinutes(d, now) {
			if slotInstant(d, m).Equal(t) {
				return nil
			}
		}
	}
	return ErrNoAvailableSlots
}

// slotInstant is day's midnight plus minutes, normalised across dates.
func slotInstant(day time.Time, minutes int) time.Time {
	y, mo, d := day.Date()
	return time.Date(y, mo, d, 0, minutes, 0, 0, day.Location())
}

func dayLabel(day time.Time, offset int) string {
	switch offset {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	}
	return day.Format("Mon 02/01")
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func roundUp(v, step int) int {
	if r := v % step; r != 0 {
		return v + step - r
	}
	return v
}
