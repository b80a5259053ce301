package booking

import (
	"context"
	"database/sql"
	"time"

	"github.com/mayflower/covid19-teststation-termine/internal/model"
)

// The engine talks to the store through these interfaces, satisfied
// by the repositories in internal/repository. Tx variants run inside
// the engine's transaction; the rest are single atomic statements.

// SlotStore persists time slots and answers the availability query.
type SlotStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, slot *model.TimeSlot) error
	FindByStartTx(ctx context.Context, tx *sql.Tx, start time.Time) (*model.TimeSlot, error)
	ListRangeTx(ctx context.Context, tx *sql.Tx, from, until time.Time, limit int) ([]model.TimeSlot, error)
	DeleteByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64) error
	FreeSlotsBetween(ctx context.Context, start, end, cutoff time.Time) ([]model.FreeSlot, error)
}

// AppointmentStore persists the reservable units and owns the
// conditional updates the claim state machine relies on.
type AppointmentStore interface {
	CreateBatchTx(ctx context.Context, tx *sql.Tx, slotID uint64, n int) error
	ClaimTx(ctx context.Context, tx *sql.Tx, slotID uint64, token string, now, cutoff time.Time) (bool, error)
	FindByClaimTokenTx(ctx context.Context, tx *sql.Tx, token string) (*model.Appointment, time.Time, error)
	BookTx(ctx context.Context, tx *sql.Tx, id uint64, token string) (bool, error)
	UnbookTx(ctx context.Context, tx *sql.Tx, id uint64) error
	ReleaseByToken(ctx context.Context, token string) (bool, error)
	ListBySlotIDsTx(ctx context.Context, tx *sql.Tx, slotIDs []uint64) ([]model.Appointment, error)
	DeleteBySlotIDsTx(ctx context.Context, tx *sql.Tx, slotIDs []uint64) error
}

// BookingStore persists finalized bookings.
type BookingStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	FindBySecretAndStartTx(ctx context.Context, tx *sql.Tx, secret string, start time.Time) (*model.Booking, error)
	DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error
	HasBookedBy(ctx context.Context, userName string) (bool, error)
	CreatedBetween(ctx context.Context, from, until time.Time) ([]model.Booking, error)
	CreatedAtInstant(ctx context.Context, at time.Time) ([]model.Booking, error)
}

// UserStore persists accounts and the coupon balance column.
type UserStore interface {
	GetByName(ctx context.Context, name string) (*model.User, error)
	GetByNameTx(ctx context.Context, tx *sql.Tx, name string) (*model.User, error)
	CreateTx(ctx context.Context, tx *sql.Tx, u *model.User) error
	GetOrCreateTx(ctx context.Context, tx *sql.Tx, name, role string) (*model.User, error)
	AddCouponsTx(ctx context.Context, tx *sql.Tx, name string, delta int) error
	AddCoupons(ctx context.Context, name string, delta int) error
	SetCoupons(ctx context.Context, name string, value int) error
	UpdateRoleAndCoupons(ctx context.Context, name, role string, coupons int) error
	ListSummaries(ctx context.Context) ([]model.UserSummary, error)
}
