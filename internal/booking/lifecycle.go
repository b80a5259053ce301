package booking

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mayflower/covid19-teststation-termine/internal/model"
)

// CreateSlots creates numSlots consecutive time slots starting at
// start, spaced durationMin apart, each populated with perSlot fresh
// free units. Purely additive; the whole batch commits as one
// transaction.
func (s *Service) CreateSlots(ctx context.Context, start time.Time, durationMin, numSlots, perSlot int) ([]model.TimeSlot, error) {
	if durationMin <= 0 || numSlots <= 0 || perSlot <= 0 {
		return nil, fmt.Errorf("%w: slot counts and duration must be positive", ErrValidation)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	created := make([]model.TimeSlot, 0, numSlots)
	for _, at := range slotTimes(start, durationMin, numSlots) {
		slot := model.TimeSlot{StartDateTime: at, LengthMin: durationMin}
		if err := s.slots.CreateTx(ctx, tx, &slot); err != nil {
			return nil, err
		}
		if err := s.appts.CreateBatchTx(ctx, tx, slot.ID, perSlot); err != nil {
			return nil, err
		}
		created = append(created, slot)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	s.log.Info("slot batch created",
		zap.Time("start", start),
		zap.Int("slots", numSlots),
		zap.Int("appointments_per_slot", perSlot))
	return created, nil
}

// slotTimes expands a batch origin into the start times of each slot.
func slotTimes(start time.Time, durationMin, count int) []time.Time {
	times := make([]time.Time, 0, count)
	for i := 0; i < count; i++ {
		times = append(times, start.Add(time.Duration(i*durationMin)*time.Minute))
	}
	return times
}

// DeleteReport describes a slot batch deletion, performed or not.
type DeleteReport struct {
	Performed    bool             `json:"performed"`
	Slots        []model.TimeSlot `json:"slots"`
	Appointments int              `json:"appointments"`
	Booked       int              `json:"booked"`
}

// DeleteSlots selects up to numSlots slots on from's day starting at
// or after from, ordered by start time, and deletes them together
// with their units. The deletion is all or nothing: if any unit in
// the batch is booked the whole batch is refused with
// ErrHasBookedAppointments and the store is left untouched. With
// forReal false the matched batch is only reported.
func (s *Service) DeleteSlots(ctx context.Context, from time.Time, numSlots int, forReal bool) (*DeleteReport, error) {
	if numSlots <= 0 {
		return nil, fmt.Errorf("%w: num_slots must be positive", ErrValidation)
	}
	dayEnd := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location()).AddDate(0, 0, 1)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	slots, err := s.slots.ListRangeTx(ctx, tx, from, dayEnd, numSlots)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, ErrNotFound
	}
	slotIDs := make([]uint64, 0, len(slots))
	for _, sl := range slots {
		slotIDs = append(slotIDs, sl.ID)
	}
	units, err := s.appts.ListBySlotIDsTx(ctx, tx, slotIDs)
	if err != nil {
		return nil, err
	}
	report := &DeleteReport{Slots: slots, Appointments: len(units)}
	for _, u := range units {
		if u.Booked {
			report.Booked++
		}
	}
	if report.Booked > 0 {
		return report, ErrHasBookedAppointments
	}
	if !forReal {
		return report, nil
	}
	if err := s.appts.DeleteBySlotIDsTx(ctx, tx, slotIDs); err != nil {
		return nil, err
	}
	if err := s.slots.DeleteByIDsTx(ctx, tx, slotIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	report.Performed = true
	s.log.Info("slot batch deleted",
		zap.Int("slots", len(slots)),
		zap.Int("appointments", report.Appointments))
	return report, nil
}
