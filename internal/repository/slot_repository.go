package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mayflower/covid19-teststation-termine/internal/model"
)

// SlotRepo provides data access to the time_slots table. Slots are
// created and deleted in batches together with their appointment
// units; the unit queries live in AppointmentRepo. All timestamps
// are UTC.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo returns a new SlotRepo bound to the provided database.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

// CreateTx inserts a new time slot within the given transaction and
// populates the generated ID on the provided record.
func (r *SlotRepo) CreateTx(ctx context.Context, tx *sql.Tx, slot *model.TimeSlot) error {
	const q = `INSERT INTO time_slots (start_date_time, length_min) VALUES (?, ?)`
	res, err := tx.ExecContext(ctx, q, slot.StartDateTime.UTC(), slot.LengthMin)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	slot.ID = uint64(id)
	return nil
}

// FindByStartTx returns the slot starting exactly at the given
// instant. sql.ErrNoRows is returned when no slot starts there.
func (r *SlotRepo) FindByStartTx(ctx context.Context, tx *sql.Tx, start time.Time) (*model.TimeSlot, error) {
	const q = `SELECT id, start_date_time, length_min FROM time_slots WHERE start_date_time = ?`
	var slot model.TimeSlot
	if err := tx.QueryRowContext(ctx, q, start.UTC()).Scan(&slot.ID, &slot.StartDateTime, &slot.LengthMin); err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListRangeTx returns up to limit slots whose start falls in
// [from, until), ordered ascending by start time. It is used by the
// guarded batch delete to select the day's slots.
func (r *SlotRepo) ListRangeTx(ctx context.Context, tx *sql.Tx, from, until time.Time, limit int) ([]model.TimeSlot, error) {
	const q = `SELECT id, start_date_time, length_min
	           FROM time_slots
	           WHERE start_date_time >= ? AND start_date_time < ?
	           ORDER BY start_date_time
	           LIMIT ?`
	rows, err := tx.QueryContext(ctx, q, from.UTC(), until.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var slots []model.TimeSlot
	for rows.Next() {
		var s model.TimeSlot
		if err := rows.Scan(&s.ID, &s.StartDateTime, &s.LengthMin); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

// DeleteByIDsTx removes the given slots. The caller must have
// deleted (or verified) the owned appointment units first; the
// foreign key otherwise refuses the delete.
func (r *SlotRepo) DeleteByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, 0, len(ids))
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `DELETE FROM time_slots WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// FreeSlotsBetween returns, ordered ascending by start time, every
// slot starting in [start, end] that still has at least one claimable
// unit, together with how many such units remain. A unit counts as
// claimable when it is not booked and either carries no claim token
// or its claim was taken before the cutoff (i.e. the soft claim has
// expired). Expiry is evaluated here, at query time, against the
// cutoff the caller computed from its clock; no background job ever
// clears stale claims.
func (r *SlotRepo) FreeSlotsBetween(ctx context.Context, start, end, cutoff time.Time) ([]model.FreeSlot, error) {
	const q = `SELECT ts.start_date_time, COUNT(a.id)
	           FROM time_slots ts
	           JOIN appointments a ON a.time_slot_id = ts.id
	           WHERE ts.start_date_time >= ? AND ts.start_date_time <= ?
	             AND a.booked = 0
	             AND (a.claim_token IS NULL OR a.claimed_at < ?)
	           GROUP BY ts.start_date_time
	           ORDER BY ts.start_date_time`
	rows, err := r.db.QueryContext(ctx, q, start.UTC(), end.UTC(), cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots := make([]model.FreeSlot, 0)
	for rows.Next() {
		var fs model.FreeSlot
		if err := rows.Scan(&fs.StartDateTime, &fs.FreeAppointments); err != nil {
			return nil, err
		}
		slots = append(slots, fs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}
