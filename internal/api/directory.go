package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tutorrio/icalsender/internal/directory"
	"github.com/tutorrio/icalsender/internal/storage"
)

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var u directory.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if u.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	if err := s.dir.CreateUser(r.Context(), u); err != nil {
		s.logger.Error("create user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	u, err := s.dir.UserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		s.logger.Error("get user failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var c directory.Course
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if c.FullName == "" {
		writeError(w, http.StatusBadRequest, "full_name is required")
		return
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	if err := s.dir.CreateCourse(r.Context(), c); err != nil {
		s.logger.Error("create course failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create course")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.dir.Course(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "course not found")
			return
		}
		s.logger.Error("get course failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get course")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCreateCohort(w http.ResponseWriter, r *http.Request) {
	var c directory.Cohort
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if c.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	if err := s.dir.CreateCohort(r.Context(), c); err != nil {
		s.logger.Error("create cohort failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create cohort")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var g directory.Group
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if g.CourseID == "" || g.Name == "" {
		writeError(w, http.StatusBadRequest, "course_id and name are required")
		return
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}

	if err := s.dir.CreateGroup(r.Context(), g); err != nil {
		s.logger.Error("create group failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create group")
		return
	}
	writeJSON(w, http.StatusCreated, g)
}
