// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingCreatedEvent is published when a claim is finalized into a
// booking. It carries enough for downstream consumers to log, notify, or
// trigger analytics without querying the primary database. Contact
// details stay out of the event on purpose.
type BookingCreatedEvent struct {
	BookingID     uint64 `json:"booking_id"`
	AppointmentID uint64 `json:"appointment_id"`
	StartDateTime string `json:"start_date_time"`
	BookedBy      string `json:"booked_by"`
	Secret        string `json:"secret"`
	BookedAt      string `json:"booked_at"`
}

// BookingCancelledEvent is published when an admin cancels a booking
// for real (dry runs publish nothing).
type BookingCancelledEvent struct {
	BookingID     uint64 `json:"booking_id"`
	AppointmentID uint64 `json:"appointment_id"`
	StartDateTime string `json:"start_date_time"`
	BookedBy      string `json:"booked_by"`
	CancelledAt   string `json:"cancelled_at"`
}
