package engine

import (
	"testing"

	"github.com/arjunpatel/facilitybook/internal/bookingerr"
	"github.com/arjunpatel/facilitybook/internal/idalloc"
)

func newEngine() *Engine {
	return New(idalloc.New())
}

func TestEnsureFacilityIdempotent(t *testing.T) {
	e := newEngine()
	e.EnsureFacility("RoomA")
	e.EnsureFacility("RoomA")
	names := e.ListFacilities()
	if len(names) != 1 || names[0] != "RoomA" {
		t.Fatalf("expected exactly one facility RoomA, got %v", names)
	}
}

func TestBookAssignsMonotonicIDs(t *testing.T) {
	e := newEngine()
	e.EnsureFacility("RoomA")

	b1, err := e.Book("RoomA", 0, 9, 0, 0, 10, 0)
	if err != nil {
		t.Fatalf("first book: %v", err)
	}
	b2, err := e.Book("RoomA", 0, 11, 0, 0, 12, 0)
	if err != nil {
		t.Fatalf("second book: %v", err)
	}
	if b1.ConfirmationID != 1 || b2.ConfirmationID != 2 {
		t.Fatalf("expected ids 1,2, got %d,%d", b1.ConfirmationID, b2.ConfirmationID)
	}
}

func TestBookRejectsUnknownFacility(t *testing.T) {
	e := newEngine()
	_, err := e.Book("Nope", 0, 9, 0, 0, 10, 0)
	if !bookingerr.Is(err, bookingerr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestBookRejectsOverlap(t *testing.T) {
	e := newEngine()
	e.EnsureFacility("RoomA")
	if _, err := e.Book("RoomA", 0, 9, 0, 0, 11, 0); err != nil {
		t.Fatalf("first book: %v", err)
	}
	_, err := e.Book("RoomA", 0, 10, 0, 0, 12, 0)
	if !bookingerr.Is(err, bookingerr.Conflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestBookAdjacentIntervalsDoNotConflict(t *testing.T) {
	e := newEngine()
	e.EnsureFacility("RoomA")
	if _, err := e.Book("RoomA", 0, 9, 0, 0, 10, 0); err != nil {
		t.Fatalf("first book: %v", err)
	}
	// [10:00,11:00) starts exactly where the first ends; half-open intervals
	// must not be treated as overlapping.
	if _, err := e.Book("RoomA", 0, 10, 0, 0, 11, 0); err != nil {
		t.Fatalf("adjacent booking should succeed, got %v", err)
	}
}

func TestBookRejectsInvalidRange(t *testing.T) {
	e := newEngine()
	e.EnsureFacility("RoomA")
	if _, err := e.Book("RoomA", 0, 10, 0, 0, 9, 0); !bookingerr.Is(err, bookingerr.Invalid) {
		t.Fatalf("expected Invalid for end<=start, got %v", err)
	}
	if _, err := e.Book("RoomA", 7, 0, 0, 0, 10, 0); !bookingerr.Is(err, bookingerr.Invalid) {
		t.Fatalf("expected Invalid for day=7, got %v", err)
	}
}

func TestChangeShiftsAndDetectsConflict(t *testing.T) {
	e := newEngine()
	e.EnsureFacility("RoomA")
	b1, _ := e.Book("RoomA", 0, 9, 0, 0, 10, 0)
	b2, _ := e.Book("RoomA", 0, 11, 0, 0, 12, 0)

	// Shifting b1 forward by 60 minutes lands it at [10:00,11:00), still clear.
	updated, err := e.Change(b1.ConfirmationID, 60)
	if err != nil {
		t.Fatalf("change: %v", err)
	}
	if updated.Start != b1.Start+60 || updated.End != b1.End+60 {
		t.Fatalf("unexpected shifted interval: %+v", updated)
	}

	// Shifting it further into b2's slot must conflict.
	_, err = e.Change(b1.ConfirmationID, 60)
	if !bookingerr.Is(err, bookingerr.Conflict) {
		t.Fatalf("expected conflict with b2, got %v", err)
	}
	_ = b2
}

func TestChangeNeverConflictsWithItself(t *testing.T) {
	e := newEngine()
	e.EnsureFacility("RoomA")
	b, _ := e.Book("RoomA", 0, 9, 0, 0, 10, 0)
	// A zero offset shift should always succeed: the booking cannot
	// conflict with itself.
	if _, err := e.Change(b.ConfirmationID, 0); err != nil {
		t.Fatalf("zero-offset change: %v", err)
	}
}

func TestChangeRejectsOutOfRange(t *testing.T) {
	e := newEngine()
	e.EnsureFacility("RoomA")
	b, _ := e.Book("RoomA", 0, 0, 0, 0, 1, 0)
	if _, err := e.Change(b.ConfirmationID, -100); !bookingerr.Is(err, bookingerr.Invalid) {
		t.Fatalf("expected Invalid shifting before week start, got %v", err)
	}
}

func TestChangeUnknownID(t *testing.T) {
	e := newEngine()
	_, err := e.Change(999, 10)
	if !bookingerr.Is(err, bookingerr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestQueryDefaultsToAllSevenDays(t *testing.T) {
	e := newEngine()
	e.EnsureFacility("RoomA")
	days, err := e.Query("RoomA", nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}
}

func TestQueryClipsMidnightSpanningBooking(t *testing.T) {
	e := newEngine()
	e.EnsureFacility("RoomA")
	// Monday 23:30 to Tuesday 00:30.
	if _, err := e.Book("RoomA", 0, 23, 30, 1, 0, 30); err != nil {
		t.Fatalf("book: %v", err)
	}

	days, err := e.Query("RoomA", []uint8{0, 1})
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	day0 := days[0]
	if len(day0.Intervals) != 1 || day0.Intervals[0].Start != 23*60+30 || day0.Intervals[0].End != 24*60 {
		t.Fatalf("unexpected day0 clip: %+v", day0.Intervals)
	}
	day1 := days[1]
	if len(day1.Intervals) != 1 || day1.Intervals[0].Start != 0 || day1.Intervals[0].End != 30 {
		t.Fatalf("unexpected day1 clip: %+v", day1.Intervals)
	}
}

func TestQuerySortsIntervalsAscending(t *testing.T) {
	e := newEngine()
	e.EnsureFacility("RoomA")
	e.Book("RoomA", 0, 14, 0, 0, 15, 0)
	e.Book("RoomA", 0, 9, 0, 0, 10, 0)
	e.Book("RoomA", 0, 11, 0, 0, 12, 0)

	days, err := e.Query("RoomA", []uint8{0})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	intervals := days[0].Intervals
	for i := 1; i < len(intervals); i++ {
		if intervals[i-1].Start > intervals[i].Start {
			t.Fatalf("intervals not sorted ascending: %+v", intervals)
		}
	}
}

func TestQueryUnknownFacility(t *testing.T) {
	e := newEngine()
	_, err := e.Query("Nope", nil)
	if !bookingerr.Is(err, bookingerr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestBookEarliestFreeFillsFromZero(t *testing.T) {
	e := newEngine()
	e.EnsureFacility("RoomA")
	b, err := e.BookEarliestFree("RoomA")
	if err != nil {
		t.Fatalf("book earliest free: %v", err)
	}
	if b.Start != 0 || b.End != 1 {
		t.Fatalf("expected [0,1), got [%d,%d)", b.Start, b.End)
	}
}

func TestBookEarliestFreeSkipsOccupiedPrefix(t *testing.T) {
	e := newEngine()
	e.EnsureFacility("RoomA")
	e.Book("RoomA", 0, 0, 0, 0, 0, 2) // occupies [0,2)
	b, err := e.BookEarliestFree("RoomA")
	if err != nil {
		t.Fatalf("book earliest free: %v", err)
	}
	if b.Start != 2 || b.End != 3 {
		t.Fatalf("expected [2,3), got [%d,%d)", b.Start, b.End)
	}
}

func TestBookEarliestFreeNoSlotWhenWeekFull(t *testing.T) {
	e := newEngine()
	e.EnsureFacility("RoomA")
	if _, err := e.Book("RoomA", 0, 0, 0, 6, 23, 59); err != nil {
		// book the whole week minus the last minute directly via raw engine state
		t.Fatalf("book: %v", err)
	}
	// Fill the final minute too via BookEarliestFree repeatedly.
	if _, err := e.BookEarliestFree("RoomA"); err != nil {
		t.Fatalf("expected last free minute to be booked, got %v", err)
	}
	_, err := e.BookEarliestFree("RoomA")
	if !bookingerr.Is(err, bookingerr.Conflict) {
		t.Fatalf("expected Conflict 'no free slot', got %v", err)
	}
}

func TestFirstFacilityDeterministic(t *testing.T) {
	e := newEngine()
	e.EnsureFacility("RoomB")
	e.EnsureFacility("RoomA")
	name, ok := e.FirstFacility()
	if !ok || name != "RoomA" {
		t.Fatalf("expected RoomA, got %q (%v)", name, ok)
	}
}

func TestFirstFacilityEmpty(t *testing.T) {
	e := newEngine()
	if _, ok := e.FirstFacility(); ok {
		t.Fatalf("expected no facility")
	}
}
