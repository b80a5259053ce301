package model

import "time"

// BookingDetails carries the contact fields of the person a booking
// is for. They are copied verbatim onto follow-up bookings, so the
// scheduling fields (claim token, start time) deliberately live
// outside this struct.
type BookingDetails struct {
	FirstName    string `json:"first_name"`
	Surname      string `json:"surname"`
	Phone        string `json:"phone"`
	Birthday     string `json:"birthday"`
	Street       string `json:"street"`
	StreetNumber string `json:"street_number"`
	PostCode     string `json:"post_code"`
	City         string `json:"city"`
	Reason       string `json:"reason"`
}

// Booking is a durable reservation of exactly one appointment unit,
// a row in the `bookings` table. A booking exists for a unit iff
// that unit's booked flag is set; both are flipped inside the same
// transaction. The Secret is handed to the client and later
// authorizes cancellation.
//
// Fields:
//  ID            – primary key identifier.
//  AppointmentID – the unit this booking finalizes (unique).
//  StartDateTime – start of the owning slot, joined in for callers.
//  BookedBy      – user name of the account that booked.
//  Secret        – client-visible cancellation secret.
//  BookedAt      – when the booking was created.
type Booking struct {
	ID            uint64    `json:"id"`
	AppointmentID uint64    `json:"-"`
	StartDateTime time.Time `json:"start_date_time"`
	BookedBy      string    `json:"booked_by"`
	Secret        string    `json:"secret"`
	BookedAt      time.Time `json:"booked_at"`
	BookingDetails
}
