package model

import "time"

// Appointment is a single reservable unit inside a time slot, a row
// in the `appointments` table. Exactly one of three states holds at
// any instant: free (no claim token), soft-claimed (token set,
// ClaimedAt recent) or booked. A soft claim is never reaped by a
// background job; readers treat a claim older than the configured
// claim timeout exactly like no claim at all, so abandoned claims
// become reclaimable on their own.
//
// Fields:
//  ID         – primary key identifier.
//  TimeSlotID – owning slot (read-only back-reference).
//  Booked     – true once a booking finalized this unit.
//  ClaimToken – opaque token held by the claiming client (nullable).
//  ClaimedAt  – when the current claim was taken (nullable).
type Appointment struct {
	ID         uint64     // appointments.id
	TimeSlotID uint64     // appointments.time_slot_id
	Booked     bool       // appointments.booked
	ClaimToken *string    // appointments.claim_token (nullable)
	ClaimedAt  *time.Time // appointments.claimed_at (nullable)
}
