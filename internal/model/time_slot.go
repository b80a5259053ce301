package model

import "time"

// TimeSlot represents a reservable time window as stored in the
// `time_slots` table. A slot owns a fixed set of appointment units
// that are created together with it and share its start time and
// length. Slots are immutable once created; the only lifecycle
// operation besides creation is deletion, which is refused while
// any owned unit is booked.
//
// Fields:
//  ID            – primary key identifier.
//  StartDateTime – start of the window (unique across slots).
//  LengthMin     – duration of the window in minutes.
type TimeSlot struct {
	ID            uint64    `json:"id"`              // time_slots.id
	StartDateTime time.Time `json:"start_date_time"` // time_slots.start_date_time
	LengthMin     int       `json:"length_min"`      // time_slots.length_min
}

// FreeSlot is the availability query result for one slot: its start
// time plus the number of units that are currently claimable. Only
// slots with at least one free unit are ever reported.
type FreeSlot struct {
	StartDateTime    time.Time `json:"start_date_time"`
	FreeAppointments int       `json:"free_appointments"`
}
