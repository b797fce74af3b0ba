package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tutorrio/icalsender/internal/engine"
	"github.com/tutorrio/icalsender/internal/storage"
)

type membershipRequest struct {
	ActorID string `json:"actor_id"`
	UserID  string `json:"user_id"`
}

type cohortSyncRequest struct {
	ActorID  string `json:"actor_id"`
	CohortID string `json:"cohort_id"`
}

func (s *Server) handleEnrol(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "id")

	var req membershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if req.ActorID == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "actor_id and user_id are required")
		return
	}

	if err := s.dir.Enrol(r.Context(), courseID, req.UserID); err != nil {
		s.logger.Error("enrol failed", "course", courseID, "user", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to enrol user")
		return
	}

	s.bus.Publish(engine.Trigger{
		Kind:     engine.TriggerUserJoinedCourse,
		ActorID:  req.ActorID,
		UserID:   req.UserID,
		CourseID: courseID,
	})
	writeJSON(w, http.StatusCreated, map[string]string{"status": "enrolled"})
}

func (s *Server) handleUnenrol(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "id")
	userID := chi.URLParam(r, "userID")

	actorID := r.URL.Query().Get("actor_id")
	if actorID == "" {
		writeError(w, http.StatusBadRequest, "actor_id query parameter is required")
		return
	}

	if err := s.dir.Unenrol(r.Context(), courseID, userID); err != nil {
		s.logger.Error("unenrol failed", "course", courseID, "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to unenrol user")
		return
	}

	s.bus.Publish(engine.Trigger{
		Kind:     engine.TriggerUserLeftCourse,
		ActorID:  actorID,
		UserID:   userID,
		CourseID: courseID,
	})
	w.WriteHeader(http.StatusNoContent)
}

// handleCohortSync enrols every member of a cohort into the course. Each
// member produces its own join trigger, exactly as if enrolled one by one.
func (s *Server) handleCohortSync(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "id")

	var req cohortSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if req.ActorID == "" || req.CohortID == "" {
		writeError(w, http.StatusBadRequest, "actor_id and cohort_id are required")
		return
	}

	members, err := s.dir.CohortMembers(r.Context(), req.CohortID)
	if err != nil {
		s.logger.Error("resolving cohort failed", "cohort", req.CohortID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve cohort")
		return
	}

	for _, m := range members {
		if err := s.dir.Enrol(r.Context(), courseID, m.ID); err != nil {
			s.logger.Error("cohort sync enrol failed",
				"course", courseID, "user", m.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to enrol cohort member")
			return
		}
		s.bus.Publish(engine.Trigger{
			Kind:     engine.TriggerUserJoinedCourse,
			ActorID:  req.ActorID,
			UserID:   m.ID,
			CourseID: courseID,
		})
	}

	writeJSON(w, http.StatusCreated, map[string]int{"enrolled": len(members)})
}

func (s *Server) handleAddGroupMember(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")

	var req membershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if req.ActorID == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "actor_id and user_id are required")
		return
	}

	group, err := s.dir.GroupByID(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		s.logger.Error("get group failed", "group", groupID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get group")
		return
	}

	if err := s.dir.AddGroupMember(r.Context(), groupID, req.UserID); err != nil {
		s.logger.Error("add group member failed", "group", groupID, "user", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add group member")
		return
	}

	s.bus.Publish(engine.Trigger{
		Kind:     engine.TriggerUserJoinedGroup,
		ActorID:  req.ActorID,
		UserID:   req.UserID,
		CourseID: group.CourseID,
		GroupID:  groupID,
	})
	writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (s *Server) handleRemoveGroupMember(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	userID := chi.URLParam(r, "userID")

	actorID := r.URL.Query().Get("actor_id")
	if actorID == "" {
		writeError(w, http.StatusBadRequest, "actor_id query parameter is required")
		return
	}

	group, err := s.dir.GroupByID(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		s.logger.Error("get group failed", "group", groupID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get group")
		return
	}

	if err := s.dir.RemoveGroupMember(r.Context(), groupID, userID); err != nil {
		s.logger.Error("remove group member failed", "group", groupID, "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove group member")
		return
	}

	s.bus.Publish(engine.Trigger{
		Kind:     engine.TriggerUserLeftGroup,
		ActorID:  actorID,
		UserID:   userID,
		CourseID: group.CourseID,
		GroupID:  groupID,
	})
	w.WriteHeader(http.StatusNoContent)
}

// handleAddCohortMember records cohort membership. Joining a cohort alone
// touches no course calendar, so no trigger is published until the cohort is
// synced into a course.
func (s *Server) handleAddCohortMember(w http.ResponseWriter, r *http.Request) {
	cohortID := chi.URLParam(r, "id")

	var req membershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := s.dir.AddCohortMember(r.Context(), cohortID, req.UserID); err != nil {
		s.logger.Error("add cohort member failed", "cohort", cohortID, "user", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add cohort member")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}
