package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mayflower/covid19-teststation-termine/internal/model"
)

// AppointmentRepo provides data access to the appointments table.
// An appointment is one reservable unit inside a time slot. The
// claim operation is a single conditional UPDATE so that two racing
// claimants can never both succeed; whichever statement matches the
// pre-claim row state wins and the loser affects zero rows.
type AppointmentRepo struct {
	db *sql.DB
}

// NewAppointmentRepo returns a new AppointmentRepo bound to the provided database.
func NewAppointmentRepo(db *sql.DB) *AppointmentRepo { return &AppointmentRepo{db: db} }

// CreateBatchTx inserts n fresh unbooked units for the given slot in
// a single statement. Passing n <= 0 has no effect and returns nil.
func (r *AppointmentRepo) CreateBatchTx(ctx context.Context, tx *sql.Tx, slotID uint64, n int) error {
	if n <= 0 {
		return nil
	}
	query := `INSERT INTO appointments (time_slot_id, booked) VALUES `
	args := make([]interface{}, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			query += ","
		}
		query += "(?, 0)"
		args = append(args, slotID)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ClaimTx tries to soft-claim one unit of the given slot. Eligible
// units are those not booked whose claim token is either absent or
// stale (claimed before the cutoff). The lowest-id eligible unit is
// taken. It returns false when no unit was claimed, which is the
// expected outcome under contention and not an error.
func (r *AppointmentRepo) ClaimTx(ctx context.Context, tx *sql.Tx, slotID uint64, token string, now, cutoff time.Time) (bool, error) {
	const q = `UPDATE appointments
	           SET claim_token = ?, claimed_at = ?
	           WHERE time_slot_id = ? AND booked = 0
	             AND (claim_token IS NULL OR claimed_at < ?)
	           ORDER BY id
	           LIMIT 1`
	res, err := tx.ExecContext(ctx, q, token, now.UTC(), slotID, cutoff.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// FindByClaimTokenTx looks up the unit holding the given claim token
// and returns it together with the start time of its slot.
// sql.ErrNoRows is returned when no unit carries the token.
func (r *AppointmentRepo) FindByClaimTokenTx(ctx context.Context, tx *sql.Tx, token string) (*model.Appointment, time.Time, error) {
	const q = `SELECT a.id, a.time_slot_id, a.booked, a.claim_token, a.claimed_at, ts.start_date_time
	           FROM appointments a
	           JOIN time_slots ts ON ts.id = a.time_slot_id
	           WHERE a.claim_token = ?`
	var (
		appt      model.Appointment
		claimTok  sql.NullString
		claimedAt sql.NullTime
		slotStart time.Time
	)
	err := tx.QueryRowContext(ctx, q, token).Scan(
		&appt.ID, &appt.TimeSlotID, &appt.Booked, &claimTok, &claimedAt, &slotStart,
	)
	if err != nil {
		return nil, time.Time{}, err
	}
	if claimTok.Valid {
		t := claimTok.String
		appt.ClaimToken = &t
	}
	if claimedAt.Valid {
		t := claimedAt.Time
		appt.ClaimedAt = &t
	}
	return &appt, slotStart, nil
}

// BookTx flips the unit into the booked state, clearing the claim
// fields, but only while it still carries the expected token. It
// returns false when the token no longer matches, meaning the claim
// was lost between lookup and booking.
func (r *AppointmentRepo) BookTx(ctx context.Context, tx *sql.Tx, id uint64, token string) (bool, error) {
	const q = `UPDATE appointments
	           SET booked = 1, claim_token = NULL, claimed_at = NULL
	           WHERE id = ? AND claim_token = ? AND booked = 0`
	res, err := tx.ExecContext(ctx, q, id, token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// UnbookTx returns a booked unit to the free state. Used by
// cancellation; the booking row itself is deleted by the caller in
// the same transaction.
func (r *AppointmentRepo) UnbookTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE appointments SET booked = 0, claim_token = NULL, claimed_at = NULL WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ReleaseByToken drops a soft claim without booking it. Booked
// units are never touched. Returns false when the token matched no
// claimed unit.
func (r *AppointmentRepo) ReleaseByToken(ctx context.Context, token string) (bool, error) {
	const q = `UPDATE appointments
	           SET claim_token = NULL, claimed_at = NULL
	           WHERE claim_token = ? AND booked = 0`
	res, err := r.db.ExecContext(ctx, q, token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListBySlotIDsTx returns every unit under the given slots. The
// guarded batch delete uses this to inspect booked flags before
// deciding whether the whole batch may be removed.
func (r *AppointmentRepo) ListBySlotIDsTx(ctx context.Context, tx *sql.Tx, slotIDs []uint64) ([]model.Appointment, error) {
	if len(slotIDs) == 0 {
		return []model.Appointment{}, nil
	}
	placeholders := make([]string, 0, len(slotIDs))
	args := make([]interface{}, 0, len(slotIDs))
	for _, id := range slotIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT id, time_slot_id, booked, claim_token, claimed_at
	      FROM appointments
	      WHERE time_slot_id IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY time_slot_id, id`
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var appts []model.Appointment
	for rows.Next() {
		var (
			a         model.Appointment
			claimTok  sql.NullString
			claimedAt sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.TimeSlotID, &a.Booked, &claimTok, &claimedAt); err != nil {
			return nil, err
		}
		if claimTok.Valid {
			t := claimTok.String
			a.ClaimToken = &t
		}
		if claimedAt.Valid {
			t := claimedAt.Time
			a.ClaimedAt = &t
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return appts, nil
}

// DeleteBySlotIDsTx removes every unit under the given slots.
func (r *AppointmentRepo) DeleteBySlotIDsTx(ctx context.Context, tx *sql.Tx, slotIDs []uint64) error {
	if len(slotIDs) == 0 {
		return nil
	}
	placeholders := make([]string, 0, len(slotIDs))
	args := make([]interface{}, 0, len(slotIDs))
	for _, id := range slotIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `DELETE FROM appointments WHERE time_slot_id IN (` + strings.Join(placeholders, ",") + `)`
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}
