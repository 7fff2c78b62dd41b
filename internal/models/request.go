package models

import "time"

// ItemRequest is a wish for an item that is not listed yet. Items created to
// fulfill it reference the request by id.
type ItemRequest struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	RequestorID int64     `json:"requestor_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// RequestDetails is the request plus the items listed in response to it.
type RequestDetails struct {
	ItemRequest
	Items []Item `json:"items"`
}
