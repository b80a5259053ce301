package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mayflower/covid19-teststation-termine/internal/model"
)

// AdjustCoupons adds the signed delta to a user's coupon balance.
// The delta is applied as-is, so driving a balance negative is
// allowed here. Unknown users yield ErrNotFound.
func (s *Service) AdjustCoupons(ctx context.Context, userName string, delta int) error {
	if userName == "" {
		return fmt.Errorf("%w: user name required", ErrValidation)
	}
	if err := s.users.AddCoupons(ctx, userName, delta); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	s.log.Info("coupons adjusted", zap.String("user", userName), zap.Int("delta", delta))
	return nil
}

// SetCoupons overwrites a user's coupon balance, clamping negative
// values to zero.
func (s *Service) SetCoupons(ctx context.Context, userName string, coupons int) error {
	if userName == "" {
		return fmt.Errorf("%w: user name required", ErrValidation)
	}
	if err := s.users.SetCoupons(ctx, userName, clampNonNegative(coupons)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// PatchUser updates a user's coupon balance and, when the acting
// admin is editing someone other than themselves, promotes or
// demotes the target's role. Admins editing their own record keep
// their role no matter what the request says, so the last admin
// cannot lock everyone out.
func (s *Service) PatchUser(ctx context.Context, actingUser, userName string, coupons int, makeAdmin bool) (*model.User, error) {
	if userName == "" {
		return nil, fmt.Errorf("%w: user name required", ErrValidation)
	}
	u, err := s.users.GetByName(ctx, userName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	role := u.Role
	if actingUser != userName {
		role = model.RoleUser
		if makeAdmin {
			role = model.RoleAdmin
		}
	}
	balance := clampNonNegative(coupons)
	if err := s.users.UpdateRoleAndCoupons(ctx, userName, role, balance); err != nil {
		return nil, err
	}
	u.Role = role
	u.Coupons = balance
	s.log.Info("user updated",
		zap.String("user", userName), zap.String("role", role), zap.Int("coupons", balance))
	return u, nil
}

// CouponState lists every non-anonymous user with their booking
// count and remaining coupons, admins first.
func (s *Service) CouponState(ctx context.Context) ([]model.UserSummary, error) {
	return s.users.ListSummaries(ctx)
}

// CreateUser registers a named account with a pre-hashed password.
// Names are stored lowercase; a taken name yields ErrUserExists.
// A negative coupon request falls back to the default allowance.
func (s *Service) CreateUser(ctx context.Context, userName, passwordHash string, coupons int, isAdmin bool) (*model.User, error) {
	if userName == "" || passwordHash == "" {
		return nil, fmt.Errorf("%w: user name and password required", ErrValidation)
	}
	if coupons < 0 {
		coupons = model.DefaultCoupons
	}
	role := model.RoleUser
	if isAdmin {
		role = model.RoleAdmin
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

	if _, err := s.users.GetByNameTx(ctx, tx, userName); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	u := &model.User{
		UserName:     userName,
		Role:         role,
		PasswordHash: passwordHash,
		Coupons:      coupons,
	}
	if err := s.users.CreateTx(ctx, tx, u); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	s.log.Info("user created", zap.String("user", userName), zap.String("role", role))
	return u, nil
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
