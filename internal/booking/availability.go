package booking

import (
	"context"
	"time"

	"github.com/mayflower/covid19-teststation-termine/internal/model"
)

// FreeSlotsBetween lists every slot starting in [start, end] that
// still has at least one claimable unit, ascending by start time.
// Soft claims older than the claim timeout count as free; genuinely
// booked units never do. Expiry is measured against the engine
// clock at query time.
func (s *Service) FreeSlotsBetween(ctx context.Context, start, end time.Time) ([]model.FreeSlot, error) {
	return s.slots.FreeSlotsBetween(ctx, start, end, s.claimCutoff(s.now()))
}

// FreeSlotsAfter lists free slots in [at, at + maxDays].
func (s *Service) FreeSlotsAfter(ctx context.Context, at time.Time, maxDays int) ([]model.FreeSlot, error) {
	start, end := windowAfter(at, maxDays)
	return s.FreeSlotsBetween(ctx, start, end)
}

// FreeSlotsBefore lists free slots in [at - maxDays, at]. Like the
// after variant the result is ascending by start time, and the
// follow-up scan consumes it in exactly that order.
func (s *Service) FreeSlotsBefore(ctx context.Context, at time.Time, maxDays int) ([]model.FreeSlot, error) {
	start, end := windowBefore(at, maxDays)
	return s.FreeSlotsBetween(ctx, start, end)
}

func windowAfter(at time.Time, days int) (time.Time, time.Time) {
	return at, at.AddDate(0, 0, days)
}

func windowBefore(at time.Time, days int) (time.Time, time.Time) {
	return at.AddDate(0, 0, -days), at
}
