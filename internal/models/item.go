package models

import "time"

type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Available   bool      `json:"available"`
	OwnerID     int64     `json:"owner_id"`
	RequestID   int64     `json:"request_id,omitempty"` // 0 когда вещь создана не по запросу
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemPatch carries the mutable item fields; nil means "leave as is".
type ItemPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

// BookingRef is the short booking form embedded into item views.
type BookingRef struct {
	ID       int64     `json:"id"`
	BookerID int64     `json:"booker_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// ItemDetails is the owner-facing item view: the item itself plus its
// comments and, for the owner only, the surrounding approved bookings.
type ItemDetails struct {
	Item
	LastBooking *BookingRef `json:"last_booking,omitempty"`
	NextBooking *BookingRef `json:"next_booking,omitempty"`
	Comments    []Comment   `json:"comments"`
}
