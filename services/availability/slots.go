package availability

import (
	"time"

	"bettermind/models"
)

// SlotLength is the fixed granularity of bookable slots.
const SlotLength = time.Hour

// DayBounds returns local midnight and 23:59:59.999 for the calendar day of t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
	return start, end
}

// GenerateCandidateSlots returns one hour-long slot per whole hour in
// [startHour, endHour) on the calendar day of day.
func GenerateCandidateSlots(day time.Time, loc *time.Location, startHour, endHour int) []models.TimeSlot {
	local := day.In(loc)
	slots := make([]models.TimeSlot, 0, max(endHour-startHour, 0))
	for h := startHour; h < endHour; h++ {
		start := time.Date(local.Year(), local.Month(), local.Day(), h, 0, 0, 0, loc)
		slots = append(slots, models.TimeSlot{Start: start, End: start.Add(SlotLength)})
	}
	return slots
}

// Overlaps reports whether a slot intersects a busy interval. Both are
// half-open, so touching endpoints do not overlap.
func Overlaps(slot models.TimeSlot, busy models.BusyInterval) bool {
	return slot.Start.Before(busy.End) && slot.End.After(busy.Start)
}

// FilterBusy drops every candidate that overlaps any busy interval.
func FilterBusy(candidates []models.TimeSlot, busy []models.BusyInterval) []models.TimeSlot {
	free := make([]models.TimeSlot, 0, len(candidates))
	for _, slot := range candidates {
		taken := false
		for _, b := range busy {
			if Overlaps(slot, b) {
				taken = true
				break
			}
		}
		if !taken {
			free = append(free, slot)
		}
	}
	return free
}

// ContainsStart reports whether any slot begins exactly at t.
func ContainsStart(slots []models.TimeSlot, t time.Time) bool {
	for _, s := range slots {
		if s.Start.Equal(t) {
			return true
		}
	}
	return false
}
