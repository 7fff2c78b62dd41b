package api

import (
	"errors"
	"net/http"

	"shareit/internal/database"
)

// statusFor переводит ошибки сервисного слоя в HTTP-статусы.
// Недоступность чужого бронирования намеренно выглядит как 404.
func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrItemNotFound),
		errors.Is(err, database.ErrBookingNotFound),
		errors.Is(err, database.ErrRequestNotFound),
		errors.Is(err, database.ErrBookingAccess):
		return http.StatusNotFound
	case errors.Is(err, database.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, database.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, database.ErrItemUnavailable),
		errors.Is(err, database.ErrAlreadyApproved),
		errors.Is(err, database.ErrCommentForbidden),
		errors.Is(err, database.ErrUnknownState):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	writeError(w, status, message)
}
