package api

import (
	"net/http"

	"shareit/internal/models"
)

func (s *Server) handleRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createRequest(w, r)
	case http.MethodGet:
		s.listOwnRequests(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleRequestsAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, err := userIDFromHeader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	from, size, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	details, err := s.requests.GetOtherRequests(r.Context(), userID, from, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestViews(details))
}

func (s *Server) handleRequestByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, tail, err := pathID(r.URL.Path, "/requests/")
	if err != nil || tail != "" {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	userID, err := userIDFromHeader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	details, err := s.requests.GetRequestByID(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestView(*details))
}

func (s *Server) createRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body createRequestRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	request, err := s.requests.CreateRequest(r.Context(), userID, body.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	view := requestView{
		ID:          request.ID,
		Description: request.Description,
		Created:     request.CreatedAt,
		Items:       []itemView{},
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) listOwnRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	details, err := s.requests.GetOwnRequests(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestViews(details))
}

func toRequestViews(details []models.RequestDetails) []requestView {
	views := make([]requestView, 0, len(details))
	for _, d := range details {
		views = append(views, toRequestView(d))
	}
	return views
}
