package api

import (
	"net/http"

	"shareit/internal/models"
)

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createUser(w, r)
	case http.MethodGet:
		s.listUsers(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request) {
	id, tail, err := pathID(r.URL.Path, "/users/")
	if err != nil || tail != "" {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getUser(w, r, id)
	case http.MethodPatch:
		s.patchUser(w, r, id)
	case http.MethodDelete:
		s.deleteUser(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var body createUserRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := &models.User{Name: body.Name, Email: body.Email}
	if err := s.users.CreateUser(r.Context(), user); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(user))
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.GetAllUsers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	views := make([]userView, 0, len(users))
	for i := range users {
		views = append(views, toUserView(&users[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request, id int64) {
	user, err := s.users.GetUserByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(user))
}

func (s *Server) patchUser(w http.ResponseWriter, r *http.Request, id int64) {
	var patch models.UserPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.users.UpdateUser(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(user))
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request, id int64) {
	if err := s.users.DeleteUser(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
