package api

import (
	"net/http"

	"shareit/internal/models"
)

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createItem(w, r)
	case http.MethodGet:
		s.listOwnerItems(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleItemSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	from, size, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := s.items.SearchItems(r.Context(), r.URL.Query().Get("text"), from, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	views := make([]itemView, 0, len(items))
	for _, item := range items {
		views = append(views, toItemView(item))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleItemByID(w http.ResponseWriter, r *http.Request) {
	id, tail, err := pathID(r.URL.Path, "/items/")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	switch {
	case tail == "" && r.Method == http.MethodGet:
		s.getItem(w, r, id)
	case tail == "" && r.Method == http.MethodPatch:
		s.patchItem(w, r, id)
	case tail == "comment" && r.Method == http.MethodPost:
		s.addComment(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body createItemRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item := &models.Item{
		Name:        body.Name,
		Description: body.Description,
		RequestID:   body.RequestID,
	}
	if body.Available != nil {
		item.Available = *body.Available
	}

	if err := s.items.CreateItem(r.Context(), userID, item); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemView(*item))
}

func (s *Server) listOwnerItems(w http.ResponseWriter, r *http.Request) {
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

	details, err := s.items.GetItemsByOwner(r.Context(), userID, from, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	views := make([]itemDetailsView, 0, len(details))
	for _, d := range details {
		views = append(views, toItemDetailsView(d))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request, id int64) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	details, err := s.items.GetItemByID(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDetailsView(*details))
}

func (s *Server) patchItem(w http.ResponseWriter, r *http.Request, id int64) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var patch models.ItemPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := s.items.UpdateItem(r.Context(), userID, id, patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemView(*item))
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request, itemID int64) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body createCommentRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	comment, err := s.items.AddComment(r.Context(), userID, itemID, body.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentView(*comment))
}
