package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mayflower/covid19-teststation-termine/internal/model"
)

// BookFollowup books a second appointment near anchor's start time
// plus deltaDays, searching up to dayRange days around the target.
// It refuses up front with ErrAlreadyBooked when the anchor's user
// already holds any booking. Candidates after the target are tried
// first, then candidates before it, each list in its ascending
// start-time order; a candidate lost to a concurrent claimant is
// simply skipped. On success the
// claim is finalized immediately with the anchor's contact details.
// When every candidate is exhausted it returns ErrSlotUnavailable
// and neither a booking nor a coupon change has happened.
func (s *Service) BookFollowup(ctx context.Context, anchor model.Booking, deltaDays, dayRange int) (*model.Booking, error) {
	if deltaDays <= 0 || dayRange < 0 {
		return nil, fmt.Errorf("%w: delta_days must be positive and day_range non-negative", ErrValidation)
	}
	if anchor.BookedBy == "" {
		return nil, fmt.Errorf("%w: anchor booking has no user", ErrValidation)
	}
	has, err := s.bookings.HasBookedBy(ctx, anchor.BookedBy)
	if err != nil {
		return nil, err
	}
	if has {
		return nil, ErrAlreadyBooked
	}

	target := anchor.StartDateTime.AddDate(0, 0, deltaDays)
	after, err := s.FreeSlotsAfter(ctx, target, dayRange)
	if err != nil {
		return nil, err
	}
	before, err := s.FreeSlotsBefore(ctx, target, dayRange)
	if err != nil {
		return nil, err
	}

	token, claimedAt, err := claimNearest(after, before, func(at time.Time) (string, error) {
		tok, _, err := s.Claim(ctx, at, anchor.BookedBy)
		return tok, err
	})
	if err != nil {
		if errors.Is(err, ErrSlotUnavailable) {
			s.log.Info("no follow-up slot claimable",
				zap.Time("target", target),
				zap.Int("day_range", dayRange),
				zap.String("user", anchor.BookedBy))
		}
		return nil, err
	}
	s.log.Info("follow-up slot claimed",
		zap.Time("slot", claimedAt), zap.String("user", anchor.BookedBy))
	return s.Finalize(ctx, token, anchor.BookingDetails, anchor.BookedBy)
}

// claimNearest walks the after candidates and then the before
// candidates, attempting each claim in order and stopping at the
// first success. ErrSlotUnavailable from a single candidate means
// another caller won that slot and the scan advances; any other
// error aborts the scan. The scan is bounded by the candidate list
// lengths and never re-queries availability.
func claimNearest(after, before []model.FreeSlot, claim func(time.Time) (string, error)) (string, time.Time, error) {
	for _, lists := range [][]model.FreeSlot{after, before} {
		for _, fs := range lists {
			token, err := claim(fs.StartDateTime)
			if err == nil {
				return token, fs.StartDateTime, nil
			}
			if !errors.Is(err, ErrSlotUnavailable) {
				return "", time.Time{}, err
			}
		}
	}
	return "", time.Time{}, ErrSlotUnavailable
}

// FollowupResult is the per-anchor outcome of a batch follow-up run.
type FollowupResult struct {
	Anchor  model.Booking  `json:"anchor"`
	Booking *model.Booking `json:"booking,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// BookFollowups applies BookFollowup to every anchor independently.
// One anchor failing never aborts the batch; each result carries
// either the new booking or the reason there is none.
func (s *Service) BookFollowups(ctx context.Context, anchors []model.Booking, deltaDays, dayRange int) []FollowupResult {
	results := make([]FollowupResult, 0, len(anchors))
	for _, anchor := range anchors {
		res := FollowupResult{Anchor: anchor}
		b, err := s.BookFollowup(ctx, anchor, deltaDays, dayRange)
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Booking = b
		}
		results = append(results, res)
	}
	return results
}
