// Package booking implements the reservation and availability
// engine: the claim/finalize/cancel state machine over appointment
// units, the free-slot query, the slot batch lifecycle, the
// follow-up scheduler and the coupon ledger. Every multi-step
// mutation runs inside one database transaction; correctness under
// concurrent callers rests on the store's conditional updates, not
// on locks held in this process.
package booking

import "errors"

// Sentinel errors returned by the engine. Handlers match them with
// errors.Is and translate them into HTTP responses.
var (
	// ErrSlotUnavailable means no claimable unit existed at claim
	// time. Expected under contention; the follow-up scheduler
	// recovers from it locally and never surfaces it per candidate.
	ErrSlotUnavailable = errors.New("no free appointment for this slot")

	// ErrInvalidToken means finalize was called with a token no unit
	// carries. The caller must claim again.
	ErrInvalidToken = errors.New("unknown claim token")

	// ErrClaimExpired means the soft claim aged past the claim
	// timeout before finalize. The caller must claim again.
	ErrClaimExpired = errors.New("claim expired")

	// ErrHasBookedAppointments refuses a slot batch deletion because
	// at least one unit in the batch is booked. Never overridden;
	// the whole batch is kept.
	ErrHasBookedAppointments = errors.New("batch contains booked appointments")

	// ErrNotFound means a lookup by identifier or secret matched
	// nothing.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyBooked is the follow-up guard: the requesting user
	// already holds a booking, so no search is performed.
	ErrAlreadyBooked = errors.New("user already has a booking")

	// ErrOutOfCoupons refuses finalize when the acting user's coupon
	// balance is exhausted.
	ErrOutOfCoupons = errors.New("no coupons left")

	// ErrUserExists refuses creating an account under a name that is
	// already taken.
	ErrUserExists = errors.New("user name already taken")

	// ErrValidation covers malformed input such as non-ISO
	// timestamps or non-positive counts.
	ErrValidation = errors.New("invalid input")
)
