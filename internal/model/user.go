package model

import "time"

// Roles a user account can hold. Anonymous accounts are created on
// the fly for claim-only flows and never show up in admin listings.
const (
	RoleAnon  = "anon"
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// DefaultCoupons is the allowance a freshly created user starts with.
const DefaultCoupons = 10

// User represents an account row in the `users` table. The coupon
// balance gates how many bookings the account may hold: one coupon
// is consumed per finalized booking and restored per cancellation.
//
// Fields:
//  ID           – primary key identifier.
//  UserName     – unique lowercase account name.
//  Role         – one of anon, user, admin.
//  PasswordHash – bcrypt hashed password.
//  Coupons      – remaining booking allowance.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	UserName     string    // users.user_name
	Role         string    // users.role
	PasswordHash string    // users.password_hash
	Coupons      int       // users.coupons
	CreatedAt    time.Time // users.created_at
}

// UserSummary is the admin listing row: account info plus how many
// bookings the account has made so far.
type UserSummary struct {
	UserName      string `json:"user_name"`
	IsAdmin       bool   `json:"is_admin"`
	TotalBookings int    `json:"total_bookings"`
	Coupons       int    `json:"coupons"`
}
