package calendar

import (
	"testing"
	"time"

	"ai-vacation-planner/internal/trip"
)

func fixedClock() func() time.Time {
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func TestFreeRangesAroundSeededBusyDay(t *testing.T) {
	oracle := NewOracleAt(fixedClock())
	today := trip.NewDate(2026, 3, 2)

	// First access seeds a busy day at today+3 (2026-03-05).
	ranges := oracle.FreeRanges("user-1", 2, 10)
	if len(ranges) != 2 {
		t.Fatalf("Expected 2 free ranges around the busy day, got %d: %v", len(ranges), ranges)
	}

	if !ranges[0].Start.Equal(today.Time) {
		t.Errorf("Expected first range to start today, got %s", ranges[0].Start)
	}
	if ranges[0].Days() != 3 {
		t.Errorf("Expected first range to be 3 days, got %d", ranges[0].Days())
	}
	if ranges[1].Days() != 6 {
		t.Errorf("Expected second range to be 6 days, got %d", ranges[1].Days())
	}
}

func TestFreeRangesFiltersShortBlocks(t *testing.T) {
	oracle := NewOracleAt(fixedClock())

	ranges := oracle.FreeRanges("user-1", 5, 10)
	if len(ranges) != 1 {
		t.Fatalf("Expected only the tail block to fit 5 days, got %d: %v", len(ranges), ranges)
	}
	if ranges[0].Days() != 6 {
		t.Errorf("Expected a 6-day block, got %d", ranges[0].Days())
	}
}

func TestFreeRangesWithExplicitEvents(t *testing.T) {
	oracle := NewOracleAt(fixedClock())
	oracle.SetEvents("user-1", []Event{
		{Title: "Conference", Start: trip.NewDate(2026, 3, 4), End: trip.NewDate(2026, 3, 6)},
	})

	ranges := oracle.FreeRanges("user-1", 1, 8)
	if len(ranges) != 2 {
		t.Fatalf("Expected 2 free ranges, got %d: %v", len(ranges), ranges)
	}
	if ranges[0].Days() != 2 {
		t.Errorf("Expected 2 free days before the conference, got %d", ranges[0].Days())
	}
	if !ranges[1].Start.Equal(trip.NewDate(2026, 3, 7).Time) {
		t.Errorf("Expected second range to start after the conference, got %s", ranges[1].Start)
	}
}

func TestIsFree(t *testing.T) {
	oracle := NewOracleAt(fixedClock())
	oracle.SetEvents("user-1", []Event{
		{Title: "Work", Start: trip.NewDate(2026, 3, 5), End: trip.NewDate(2026, 3, 5)},
	})

	free := trip.DateRange{Start: trip.NewDate(2026, 3, 7), End: trip.NewDate(2026, 3, 9)}
	if !oracle.IsFree("user-1", free) {
		t.Error("Expected the range after the event to be free")
	}

	overlapping := trip.DateRange{Start: trip.NewDate(2026, 3, 4), End: trip.NewDate(2026, 3, 6)}
	if oracle.IsFree("user-1", overlapping) {
		t.Error("Expected a range overlapping the event to be busy")
	}
}

func TestSeedHappensOncePerUser(t *testing.T) {
	oracle := NewOracleAt(fixedClock())

	first := oracle.FreeRanges("user-1", 1, 10)
	second := oracle.FreeRanges("user-1", 1, 10)
	if len(first) != len(second) {
		t.Errorf("Expected stable results across reads, got %v then %v", first, second)
	}

	// Another user gets their own seeded calendar, not a shared one.
	if !oracle.IsFree("user-2", trip.DateRange{Start: trip.NewDate(2026, 3, 10), End: trip.NewDate(2026, 3, 12)}) {
		t.Error("Expected user-2's later days to be free")
	}
}
