package models

import "time"

const (
	StatusWaiting  = "WAITING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
	// StatusCanceled зарезервирован: ни одна операция его пока не выставляет.
	StatusCanceled = "CANCELED"
)

// State filters for booking listings.
const (
	StateAll      = "ALL"
	StateCurrent  = "CURRENT"
	StatePast     = "PAST"
	StateFuture   = "FUTURE"
	StateWaiting  = "WAITING"
	StateRejected = "REJECTED"
)

type Booking struct {
	ID       int64     `json:"id"`
	ItemID   int64     `json:"item_id"`
	BookerID int64     `json:"booker_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Status   string    `json:"status"`
	// ItemName и BookerName заполняются запросами с JOIN, в таблице не хранятся.
	ItemName   string    `json:"item_name,omitempty"`
	BookerName string    `json:"booker_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// KnownState reports whether s is one of the supported listing filters.
func KnownState(s string) bool {
	switch s {
	case StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected:
		return true
	}
	return false
}
