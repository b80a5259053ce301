package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mayflower/covid19-teststation-termine/internal/model"
	"github.com/mayflower/covid19-teststation-termine/internal/utils"
)

// EventPublisher receives booking lifecycle events after the owning
// transaction has committed. Publish failures are the publisher's
// problem; the engine never rolls back a committed booking because
// a broker was down.
type EventPublisher interface {
	BookingCreated(ctx context.Context, b *model.Booking)
	BookingCancelled(ctx context.Context, b *model.Booking)
}

// Options configures a Service. Zero values fall back to sane
// defaults; Clock exists so tests can simulate claim expiry
// deterministically.
type Options struct {
	ClaimTimeout time.Duration
	Location     *time.Location
	Events       EventPublisher
	Logger       *zap.Logger
	Clock        func() time.Time
}

// Service is the reservation engine. All state lives in the store;
// the service owns the transaction boundaries and the business
// rules, nothing else.
type Service struct {
	db       *sql.DB
	slots    SlotStore
	appts    AppointmentStore
	bookings BookingStore
	users    UserStore
	events   EventPublisher
	log      *zap.Logger
	timeout  time.Duration
	loc      *time.Location
	now      func() time.Time
}

// New constructs a Service over the given database and stores.
func New(db *sql.DB, slots SlotStore, appts AppointmentStore,
	bookings BookingStore, users UserStore, opts Options) *Service {
	if opts.ClaimTimeout <= 0 {
		opts.ClaimTimeout = 5 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{
		db:       db,
		slots:    slots,
		appts:    appts,
		bookings: bookings,
		users:    users,
		events:   opts.Events,
		log:      opts.Logger,
		timeout:  opts.ClaimTimeout,
		loc:      opts.Location,
		now:      opts.Clock,
	}
}

// claimCutoff returns the instant before which a claim counts as
// expired: claimed_at < cutoff <=> claimed_at + timeout < now.
func (s *Service) claimCutoff(now time.Time) time.Time {
	return now.Add(-s.timeout)
}

// claimExpired reports whether a claim taken at claimedAt is stale
// at instant now.
func (s *Service) claimExpired(claimedAt, now time.Time) bool {
	return now.After(claimedAt.Add(s.timeout))
}

// Claim soft-claims one free (or expired-claimed) unit of the slot
// starting exactly at start, on behalf of userName. The account is
// auto-created with the default coupon allowance when unknown. It
// returns the claim token and the instant the claim expires, or
// ErrSlotUnavailable when the slot does not exist or every unit is
// taken.
func (s *Service) Claim(ctx context.Context, start time.Time, userName string) (string, time.Time, error) {
	now := s.now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", time.Time{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := s.users.GetOrCreateTx(ctx, tx, userName, model.RoleUser); err != nil {
		return "", time.Time{}, err
	}
	slot, err := s.slots.FindByStartTx(ctx, tx, start)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, ErrSlotUnavailable
		}
		return "", time.Time{}, err
	}
	token, err := utils.RandomHex(32)
	if err != nil {
		return "", time.Time{}, err
	}
	claimed, err := s.appts.ClaimTx(ctx, tx, slot.ID, token, now, s.claimCutoff(now))
	if err != nil {
		return "", time.Time{}, err
	}
	if !claimed {
		return "", time.Time{}, ErrSlotUnavailable
	}
	if err := tx.Commit(); err != nil {
		return "", time.Time{}, err
	}
	committed = true
	s.log.Info("appointment claimed",
		zap.Time("slot", slot.StartDateTime), zap.String("user", userName))
	return token, now.Add(s.timeout), nil
}

// ReleaseClaim drops a soft claim so the unit is immediately free
// again instead of lingering until the timeout.
func (s *Service) ReleaseClaim(ctx context.Context, token string) error {
	released, err := s.appts.ReleaseByToken(ctx, token)
	if err != nil {
		return err
	}
	if !released {
		return ErrInvalidToken
	}
	return nil
}

// Finalize converts a live soft claim into a durable booking. The
// unit mutation, the booking row and the coupon decrement commit as
// one transaction; on any failure nothing is applied. Fails with
// ErrInvalidToken for unknown tokens, ErrClaimExpired for stale
// ones, and ErrOutOfCoupons when the user's allowance is spent.
func (s *Service) Finalize(ctx context.Context, token string, details model.BookingDetails, userName string) (*model.Booking, error) {
	now := s.now()
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

	appt, slotStart, err := s.appts.FindByClaimTokenTx(ctx, tx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if appt.ClaimedAt == nil || s.claimExpired(*appt.ClaimedAt, now) {
		return nil, ErrClaimExpired
	}
	user, err := s.users.GetOrCreateTx(ctx, tx, userName, model.RoleUser)
	if err != nil {
		return nil, err
	}
	if user.Coupons < 1 {
		return nil, ErrOutOfCoupons
	}
	booked, err := s.appts.BookTx(ctx, tx, appt.ID, token)
	if err != nil {
		return nil, err
	}
	if !booked {
		// the token vanished between lookup and update
		return nil, ErrInvalidToken
	}
	b := &model.Booking{
		AppointmentID:  appt.ID,
		StartDateTime:  slotStart,
		BookedBy:       user.UserName,
		Secret:         uuid.NewString(),
		BookedAt:       now,
		BookingDetails: details,
	}
	if err := s.bookings.CreateTx(ctx, tx, b); err != nil {
		return nil, err
	}
	if err := s.users.AddCouponsTx(ctx, tx, user.UserName, -1); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	s.log.Info("booking created",
		zap.Uint64("booking_id", b.ID),
		zap.Time("slot", slotStart),
		zap.String("user", user.UserName))
	if s.events != nil {
		s.events.BookingCreated(ctx, b)
	}
	return b, nil
}

// CancelOutcome reports what a cancellation did, or would do in a
// dry run.
type CancelOutcome struct {
	Performed bool           `json:"performed"`
	Booking   *model.Booking `json:"booking"`
}

// Cancel removes the booking matching secret whose slot starts at
// start. With forReal false it only reports the booking that would
// be removed and performs no mutation. With forReal true it deletes
// the booking, frees the unit and restores one coupon to the owner,
// atomically.
func (s *Service) Cancel(ctx context.Context, secret string, start time.Time, forReal bool) (*CancelOutcome, error) {
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

	b, err := s.bookings.FindBySecretAndStartTx(ctx, tx, secret, start)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !forReal {
		return &CancelOutcome{Performed: false, Booking: b}, nil
	}
	if err := s.appts.UnbookTx(ctx, tx, b.AppointmentID); err != nil {
		return nil, err
	}
	if err := s.bookings.DeleteTx(ctx, tx, b.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// lost a cancel race; the booking is already gone
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.users.AddCouponsTx(ctx, tx, b.BookedBy, 1); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	s.log.Info("booking cancelled",
		zap.Uint64("booking_id", b.ID),
		zap.Time("slot", b.StartDateTime),
		zap.String("user", b.BookedBy))
	if s.events != nil {
		s.events.BookingCancelled(ctx, b)
	}
	return &CancelOutcome{Performed: true, Booking: b}, nil
}

// BookingsCreatedAt returns the bookings created on a given day
// (input "2006-01-02") or at one exact instant (full timestamp).
func (s *Service) BookingsCreatedAt(ctx context.Context, at string) ([]model.Booking, error) {
	t, dateOnly, err := ParseWhen(at, s.loc)
	if err != nil {
		return nil, err
	}
	if dateOnly {
		return s.bookings.CreatedBetween(ctx, t, t.AddDate(0, 0, 1))
	}
	return s.bookings.CreatedAtInstant(ctx, t)
}

// ParseWhen parses a timestamp the admin surface accepts: RFC3339,
// the naive ISO form interpreted in loc, or a bare date. The second
// return value reports the bare-date case.
func ParseWhen(v string, loc *time.Location) (time.Time, bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false, fmt.Errorf("%w: empty timestamp", ErrValidation)
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, false, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999", "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, false, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w: %q is not an ISO timestamp", ErrValidation, v)
}
