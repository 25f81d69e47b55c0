// Package engine implements the Booking Engine: facility-scoped interval
// storage, conflict detection, and confirmation-id allocation.
package engine

import (
	"sort"
	"sync"

	"github.com/arjunpatel/facilitybook/internal/bookingerr"
	"github.com/arjunpatel/facilitybook/internal/constants"
	"github.com/arjunpatel/facilitybook/internal/idalloc"
	"github.com/arjunpatel/facilitybook/internal/weektime"
)

// Booking is a single confirmed reservation. Start and End are half-open
// week-minute offsets: [Start, End).
type Booking struct {
	ConfirmationID uint32
	FacilityName   string
	Start, End     int
}

// Interval is a pair of minute-of-day offsets, as returned by Query.
type Interval struct {
	Start, End int
}

// DayAvailability is one day's clipped, sorted booking intervals.
type DayAvailability struct {
	Day       uint8
	Intervals []Interval
}

// Engine holds all facilities and bookings behind a single lock. Conflict
// detection is linear in the number of bookings per facility; acceptable
// at the scale this serves. A sorted interval tree per facility is a
// valid variant as long as external behavior is unchanged.
type Engine struct {
	mu         sync.RWMutex
	facilities map[string]map[uint32]struct{}
	bookings   map[uint32]*Booking
	ids        *idalloc.Allocator
}

func New(ids *idalloc.Allocator) *Engine {
	return &Engine{
		facilities: make(map[string]map[uint32]struct{}),
		bookings:   make(map[uint32]*Booking),
		ids:        ids,
	}
}

// EnsureFacility is idempotent: it adds an empty facility if absent.
func (e *Engine) EnsureFacility(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ensureFacilityLocked(name)
}

func (e *Engine) ensureFacilityLocked(name string) map[uint32]struct{} {
	set, ok := e.facilities[name]
	if !ok {
		set = make(map[uint32]struct{})
		e.facilities[name] = set
	}
	return set
}

// ListFacilities returns facility names in unspecified order.
func (e *Engine) ListFacilities() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.facilities))
	for name := range e.facilities {
		names = append(names, name)
	}
	return names
}

// FirstFacility returns the alphabetically first facility name and true,
// or ("", false) if no facility exists. Used by OP_B when the client
// omits a facility name.
func (e *Engine) FirstFacility() (string, bool) {
	names := e.ListFacilities()
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return names[0], true
}

func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// Book validates the requested interval, checks it against every existing
// booking of the facility, and on success allocates a confirmation id.
func (e *Engine) Book(name string, sDay, sHour, sMin, eDay, eHour, eMin uint8) (*Booking, error) {
	start, ok := weektime.ToMinute(sDay, sHour, sMin)
	if !ok {
		return nil, bookingerr.Invalidf("BOOK", "invalid start time")
	}
	end, ok := weektime.ToMinute(eDay, eHour, eMin)
	if !ok {
		return nil, bookingerr.Invalidf("BOOK", "invalid end time")
	}
	if end <= start {
		return nil, bookingerr.Invalidf("BOOK", "end must be after start")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	set, ok := e.facilities[name]
	if !ok {
		return nil, bookingerr.NotFoundf("BOOK", "facility %q not found", name)
	}
	for id := range set {
		b := e.bookings[id]
		if overlaps(start, end, b.Start, b.End) {
			return nil, bookingerr.Conflictf("BOOK", "interval overlaps booking %d", b.ConfirmationID)
		}
	}

	b := &Booking{ConfirmationID: e.ids.Next(), FacilityName: name, Start: start, End: end}
	e.bookings[b.ConfirmationID] = b
	set[b.ConfirmationID] = struct{}{}
	out := *b
	return &out, nil
}

// Change shifts both endpoints of an existing booking by offsetMinutes.
// On success it returns the updated booking, whose FacilityName identifies
// the facility to notify.
func (e *Engine) Change(confirmationID uint32, offsetMinutes int32) (*Booking, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, ok := e.bookings[confirmationID]
	if !ok {
		return nil, bookingerr.NotFoundf("CHANGE", "booking %d not found", confirmationID)
	}

	newStart := b.Start + int(offsetMinutes)
	newEnd := b.End + int(offsetMinutes)
	if !weektime.InRange(newStart) || !weektime.InRange(newEnd) || newEnd <= newStart {
		return nil, bookingerr.Invalidf("CHANGE", "shifted interval out of range")
	}

	set := e.facilities[b.FacilityName]
	for id := range set {
		if id == confirmationID {
			continue
		}
		other := e.bookings[id]
		if overlaps(newStart, newEnd, other.Start, other.End) {
			return nil, bookingerr.Conflictf("CHANGE", "shifted interval overlaps booking %d", other.ConfirmationID)
		}
	}

	b.Start, b.End = newStart, newEnd
	return b, nil
}

// Query returns, for each requested day (all seven if days is empty), the
// facility's bookings clipped to that day's window and sorted by start.
func (e *Engine) Query(name string, days []uint8) ([]DayAvailability, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	set, ok := e.facilities[name]
	if !ok {
		return nil, bookingerr.NotFoundf("QUERY", "facility %q not found", name)
	}

	reqDays := days
	if len(reqDays) == 0 {
		reqDays = []uint8{0, 1, 2, 3, 4, 5, 6}
	}

	result := make([]DayAvailability, 0, len(reqDays))
	for _, d := range reqDays {
		dayStart := int(d) * constants.MinutesPerDay
		dayEnd := dayStart + constants.MinutesPerDay

		var intervals []Interval
		for id := range set {
			b := e.bookings[id]
			s, en := b.Start, b.End
			if s < dayStart {
				s = dayStart
			}
			if en > dayEnd {
				en = dayEnd
			}
			if s < en {
				intervals = append(intervals, Interval{Start: s - dayStart, End: en - dayStart})
			}
		}
		sort.Slice(intervals, func(i, j int) bool { return intervals[i].Start < intervals[j].Start })
		result = append(result, DayAvailability{Day: d, Intervals: intervals})
	}
	return result, nil
}

// BookEarliestFree finds the earliest free 1-minute slot in the named
// facility's week and books it. Used by OP_B.
func (e *Engine) BookEarliestFree(name string) (*Booking, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	set, ok := e.facilities[name]
	if !ok {
		return nil, bookingerr.NotFoundf("OP_B", "facility %q not found", name)
	}

	occupied := make([]Interval, 0, len(set))
	for id := range set {
		b := e.bookings[id]
		occupied = append(occupied, Interval{b.Start, b.End})
	}
	sort.Slice(occupied, func(i, j int) bool { return occupied[i].Start < occupied[j].Start })

	t := 0
	for _, iv := range occupied {
		if t+1 <= iv.Start {
			break
		}
		if t < iv.End {
			t = iv.End
		}
	}
	if t+1 > constants.MinutesPerWeek {
		return nil, bookingerr.Conflictf("OP_B", "no free slot")
	}

	b := &Booking{ConfirmationID: e.ids.Next(), FacilityName: name, Start: t, End: t + 1}
	e.bookings[b.ConfirmationID] = b
	set[b.ConfirmationID] = struct{}{}
	return b, nil
}

// BookingsFor returns every booking currently held by the named facility,
// used to build monitor-callback payloads.
func (e *Engine) BookingsFor(name string) []Booking {
	e.mu.RLock()
	defer e.mu.RUnlock()
	set := e.facilities[name]
	out := make([]Booking, 0, len(set))
	for id := range set {
		out = append(out, *e.bookings[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
