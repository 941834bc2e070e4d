package http

import (
	"net/http"

	"moneta/internal/core"
)

type categoryJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Color string `json:"color"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{ID: c.ID, Name: c.Name, Kind: string(c.Kind), Color: c.Color}
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	var req struct {
		Name  string `json:"name"`
		Kind  string `json:"kind"`
		Color string `json:"color"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := s.categories.Create(r.Context(), u.ID, core.Category{
		Name:  sanitizeInput(req.Name),
		Kind:  core.TransactionType(req.Kind),
		Color: req.Color,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toCategoryJSON(c))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	items, err := s.categories.List(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]categoryJSON, 0, len(items))
	for _, c := range items {
		out = append(out, toCategoryJSON(c))
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	if err := s.categories.Delete(r.Context(), u.ID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "category deleted")
}
