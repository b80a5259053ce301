package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mayflower/covid19-teststation-termine/internal/model"
)

// BookingRepo provides data access to the bookings table. A booking
// references exactly one appointment unit; both sides of that link
// are always mutated inside the same transaction by the engine.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `b.id, b.appointment_id, ts.start_date_time, b.booked_by, b.secret,
	b.first_name, b.surname, b.phone, b.birthday, b.street, b.street_number,
	b.post_code, b.city, b.reason, b.booked_at`

const bookingJoins = `FROM bookings b
	JOIN appointments a ON a.id = b.appointment_id
	JOIN time_slots ts ON ts.id = a.time_slot_id`

func scanBooking(row interface {
	Scan(dest ...interface{}) error
}) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID, &b.AppointmentID, &b.StartDateTime, &b.BookedBy, &b.Secret,
		&b.FirstName, &b.Surname, &b.Phone, &b.Birthday, &b.Street, &b.StreetNumber,
		&b.PostCode, &b.City, &b.Reason, &b.BookedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateTx inserts a new booking within the given transaction and
// populates the generated ID on the provided record.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings
	           (appointment_id, booked_by, secret, first_name, surname, phone,
	            birthday, street, street_number, post_code, city, reason, booked_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		b.AppointmentID, b.BookedBy, b.Secret, b.FirstName, b.Surname, b.Phone,
		b.Birthday, b.Street, b.StreetNumber, b.PostCode, b.City, b.Reason, b.BookedAt.UTC(),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// FindBySecretAndStartTx returns the booking matching the given
// cancellation secret whose slot starts at the given instant.
// sql.ErrNoRows is returned when nothing matches.
func (r *BookingRepo) FindBySecretAndStartTx(ctx context.Context, tx *sql.Tx, secret string, start time.Time) (*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` ` + bookingJoins + `
	      WHERE b.secret = ? AND ts.start_date_time = ?`
	return scanBooking(tx.QueryRowContext(ctx, q, secret, start.UTC()))
}

// DeleteTx removes a booking row.
func (r *BookingRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `DELETE FROM bookings WHERE id = ?`
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

// HasBookedBy reports whether the named user has made any booking.
// The follow-up scheduler uses this as its idempotence guard.
func (r *BookingRepo) HasBookedBy(ctx context.Context, userName string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM bookings WHERE booked_by = ?)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, userName).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CreatedBetween returns all bookings created in [from, until),
// ordered by creation time, with the slot start joined in.
func (r *BookingRepo) CreatedBetween(ctx context.Context, from, until time.Time) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` ` + bookingJoins + `
	      WHERE b.booked_at >= ? AND b.booked_at < ?
	      ORDER BY b.booked_at`
	return r.queryBookings(ctx, q, from.UTC(), until.UTC())
}

// CreatedAtInstant returns the bookings created at exactly the given
// timestamp. Used when the caller passes a full timestamp rather
// than a day.
func (r *BookingRepo) CreatedAtInstant(ctx context.Context, at time.Time) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` ` + bookingJoins + `
	      WHERE b.booked_at = ?
	      ORDER BY b.id`
	return r.queryBookings(ctx, q, at.UTC())
}

func (r *BookingRepo) queryBookings(ctx context.Context, q string, args ...interface{}) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}
