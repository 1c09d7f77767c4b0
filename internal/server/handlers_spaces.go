package server

import (
	"net/http"

	"spaces/internal/api"
	"spaces/internal/models"
)

func (s *Server) handleCreateSpace(w http.ResponseWriter, r *http.Request) {
	var req api.SpaceCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	space, err := s.spaceService.CreateSpace(r.Context(), CreateSpaceInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		AccessCode:  req.AccessCode,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, space)
}

func (s *Server) handleListSpaces(w http.ResponseWriter, r *http.Request) {
	spaces, err := s.spaceService.ListSpaces(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if spaces == nil {
		spaces = []models.Space{}
	}

	s.writeJSON(w, http.StatusOK, spaces)
}

func (s *Server) handleGetSpace(w http.ResponseWriter, r *http.Request) {
	id, ok := s.spaceIDOrBadRequest(w, r)
	if !ok {
		return
	}

	space, err := s.spaceService.GetSpace(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, space)
}

func (s *Server) handleUpdateSpace(w http.ResponseWriter, r *http.Request) {
	id, ok := s.spaceIDOrBadRequest(w, r)
	if !ok {
		return
	}

	var req api.SpaceUpdateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	space, err := s.spaceService.UpdateSpace(r.Context(), id, UpdateSpaceInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		AccessCode:  req.AccessCode,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, space)
}

func (s *Server) handleDeleteSpace(w http.ResponseWriter, r *http.Request) {
	id, ok := s.spaceIDOrBadRequest(w, r)
	if !ok {
		return
	}

	space, err := s.spaceService.DeleteSpace(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, space)
}
