package database

import "errors"

// Sentinel errors shared by the sqlite store, the in-memory store and the
// service layer. The HTTP layer maps them to status codes.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrRequestNotFound = errors.New("item request not found")
	ErrEmailExists     = errors.New("user with this email already exists")

	ErrLedgerTaskNotFound = errors.New("ledger task not found")

	// ErrNotOwner: чужую вещь редактировать запрещено.
	ErrNotOwner = errors.New("user is not the owner of the item")
	// ErrItemUnavailable: вещь снята с аренды.
	ErrItemUnavailable = errors.New("item is not available for booking")
	// ErrAlreadyApproved: подтвержденное бронирование менять нельзя.
	ErrAlreadyApproved = errors.New("booking is already approved")
	// ErrBookingAccess: бронирование скрыто от посторонних, наружу уходит 404.
	ErrBookingAccess = errors.New("booking is not accessible for this user")
	// ErrCommentForbidden: отзыв без завершенной аренды запрещен.
	ErrCommentForbidden = errors.New("user has no finished booking of the item")
	// ErrUnknownState: текст фиксирован, клиенты сверяют его дословно.
	ErrUnknownState = errors.New("Unknown state: UNSUPPORTED_STATUS")
)
