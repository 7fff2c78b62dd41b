package api

import (
	"net/http"

	"shareit/internal/models"
)

func (s *Server) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createBooking(w, r)
	case http.MethodGet:
		s.listBookerBookings(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleBookingsOwner(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, err := userIDFromHeader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, from, size, err := listParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookings, err := s.bookings.ListBookingsByOwner(r.Context(), userID, state, from, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingViews(bookings))
}

func (s *Server) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	id, tail, err := pathID(r.URL.Path, "/bookings/")
	if err != nil || tail != "" {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getBooking(w, r, id)
	case http.MethodPatch:
		s.approveBooking(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body createBookingRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := s.bookings.CreateBooking(r.Context(), userID, body.ItemID, body.Start, body.End)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingView(booking))
}

func (s *Server) getBooking(w http.ResponseWriter, r *http.Request, id int64) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := s.bookings.GetBookingByID(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingView(booking))
}

func (s *Server) approveBooking(w http.ResponseWriter, r *http.Request, id int64) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var approved bool
	switch r.URL.Query().Get("approved") {
	case "true":
		approved = true
	case "false":
		approved = false
	default:
		writeError(w, http.StatusBadRequest, "approved must be true or false")
		return
	}

	booking, err := s.bookings.ApproveBooking(r.Context(), userID, id, approved)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingView(booking))
}

func (s *Server) listBookerBookings(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, from, size, err := listParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookings, err := s.bookings.ListBookingsByBooker(r.Context(), userID, state, from, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingViews(bookings))
}

// listParams собирает state/from/size для списков бронирований.
// Неизвестный state не отклоняется здесь, его проверяет сервис.
func listParams(r *http.Request) (string, int, int, error) {
	state := r.URL.Query().Get("state")
	if state == "" {
		state = models.StateAll
	}
	from, size, err := pageParams(r)
	if err != nil {
		return "", 0, 0, err
	}
	return state, from, size, nil
}

func toBookingViews(bookings []models.Booking) []bookingView {
	views := make([]bookingView, 0, len(bookings))
	for i := range bookings {
		views = append(views, toBookingView(&bookings[i]))
	}
	return views
}
