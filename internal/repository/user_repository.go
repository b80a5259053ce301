package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mayflower/covid19-teststation-termine/internal/model"
)

// UserRepo provides data access to the users table, including the
// coupon balance column the booking engine debits and credits.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the provided database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, user_name, role, password_hash, coupons, created_at`

// GetByName returns the user with the given name, or sql.ErrNoRows.
func (r *UserRepo) GetByName(ctx context.Context, name string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE user_name = ?`
	return scanUser(r.db.QueryRowContext(ctx, q, name))
}

// GetByNameTx is GetByName inside an existing transaction.
func (r *UserRepo) GetByNameTx(ctx context.Context, tx *sql.Tx, name string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE user_name = ?`
	return scanUser(tx.QueryRowContext(ctx, q, name))
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.UserName, &u.Role, &u.PasswordHash, &u.Coupons, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateTx inserts a new user within the given transaction and
// populates the generated ID. Duplicate names surface as the
// driver's unique-key violation; callers that need a friendly
// conflict check should look the name up first in the same
// transaction.
func (r *UserRepo) CreateTx(ctx context.Context, tx *sql.Tx, u *model.User) error {
	const q = `INSERT INTO users (user_name, role, password_hash, coupons, created_at)
	           VALUES (?, ?, ?, ?, ?)`
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := tx.ExecContext(ctx, q, u.UserName, u.Role, u.PasswordHash, u.Coupons, u.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetOrCreateTx returns the named user, creating it with the given
// role and the default coupon allowance when it does not exist yet.
// Claim and follow-up paths use this for accounts that only ever
// book, never log in.
func (r *UserRepo) GetOrCreateTx(ctx context.Context, tx *sql.Tx, name, role string) (*model.User, error) {
	u, err := r.GetByNameTx(ctx, tx, name)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	u = &model.User{
		UserName: name,
		Role:     role,
		Coupons:  model.DefaultCoupons,
	}
	if err := r.CreateTx(ctx, tx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// AddCouponsTx applies a signed delta to the user's coupon balance.
// The result is deliberately not clamped: administrative increments
// and decrements land verbatim. sql.ErrNoRows is returned when the
// user does not exist.
func (r *UserRepo) AddCouponsTx(ctx context.Context, tx *sql.Tx, name string, delta int) error {
	const q = `UPDATE users SET coupons = coupons + ? WHERE user_name = ?`
	res, err := tx.ExecContext(ctx, q, delta, name)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// AddCoupons is AddCouponsTx outside a transaction; the single
// UPDATE is atomic on its own.
func (r *UserRepo) AddCoupons(ctx context.Context, name string, delta int) error {
	const q = `UPDATE users SET coupons = coupons + ? WHERE user_name = ?`
	res, err := r.db.ExecContext(ctx, q, delta, name)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetCoupons sets the balance to an absolute value. Clamping to
// zero is the engine's job, not the store's.
func (r *UserRepo) SetCoupons(ctx context.Context, name string, value int) error {
	const q = `UPDATE users SET coupons = ? WHERE user_name = ?`
	res, err := r.db.ExecContext(ctx, q, value, name)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateRoleAndCoupons updates both administrative fields of a user
// in one statement.
func (r *UserRepo) UpdateRoleAndCoupons(ctx context.Context, name, role string, coupons int) error {
	const q = `UPDATE users SET role = ?, coupons = ? WHERE user_name = ?`
	res, err := r.db.ExecContext(ctx, q, role, coupons, name)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListSummaries returns every non-anonymous account with its coupon
// balance and total bookings, admins first, then by name.
func (r *UserRepo) ListSummaries(ctx context.Context) ([]model.UserSummary, error) {
	const q = `SELECT u.user_name, u.role, u.coupons, COUNT(b.id)
	           FROM users u
	           LEFT JOIN bookings b ON b.booked_by = u.user_name
	           WHERE u.role <> 'anon'
	           GROUP BY u.user_name, u.role, u.coupons
	           ORDER BY u.role DESC, u.user_name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	summaries := make([]model.UserSummary, 0)
	for rows.Next() {
		var (
			s    model.UserSummary
			role string
		)
		if err := rows.Scan(&s.UserName, &role, &s.Coupons, &s.TotalBookings); err != nil {
			return nil, err
		}
		s.IsAdmin = role == model.RoleAdmin
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// requireRow converts "zero rows affected" into sql.ErrNoRows so
// callers can treat missing users uniformly.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
