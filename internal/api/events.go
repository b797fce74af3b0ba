package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tutorrio/icalsender/internal/directory"
	"github.com/tutorrio/icalsender/internal/engine"
	"github.com/tutorrio/icalsender/internal/storage"
)

type eventRequest struct {
	ActorID      string `json:"actor_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	TimeStart    int64  `json:"time_start"`
	TimeDuration int64  `json:"time_duration"`
	Location     string `json:"location"`
	EventType    string `json:"event_type"`
	CourseID     string `json:"course_id"`
	GroupID      string `json:"group_id"`
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if req.ActorID == "" || req.Name == "" || req.TimeStart == 0 {
		writeError(w, http.StatusBadRequest, "actor_id, name and time_start are required")
		return
	}
	if req.EventType == "" {
		req.EventType = directory.EventTypeCourse
	}

	ev := directory.Event{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Description:  req.Description,
		TimeStart:    req.TimeStart,
		TimeDuration: req.TimeDuration,
		Location:     req.Location,
		EventType:    req.EventType,
		CourseID:     req.CourseID,
		GroupID:      req.GroupID,
	}

	if err := s.dir.CreateEvent(r.Context(), ev); err != nil {
		s.logger.Error("create event failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}

	s.bus.Publish(engine.Trigger{
		Kind:     engine.TriggerEventCreated,
		ActorID:  req.ActorID,
		CourseID: ev.CourseID,
		GroupID:  ev.GroupID,
		EventID:  ev.ID,
	})
	writeJSON(w, http.StatusCreated, ev)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ev, err := s.dir.EventByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		s.logger.Error("get event failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if req.ActorID == "" {
		writeError(w, http.StatusBadRequest, "actor_id is required")
		return
	}

	ev := directory.Event{
		ID:           id,
		Name:         req.Name,
		Description:  req.Description,
		TimeStart:    req.TimeStart,
		TimeDuration: req.TimeDuration,
		Location:     req.Location,
		EventType:    req.EventType,
		CourseID:     req.CourseID,
		GroupID:      req.GroupID,
	}

	if err := s.dir.UpdateEvent(r.Context(), ev); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		s.logger.Error("update event failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update event")
		return
	}

	s.bus.Publish(engine.Trigger{
		Kind:     engine.TriggerEventUpdated,
		ActorID:  req.ActorID,
		CourseID: ev.CourseID,
		GroupID:  ev.GroupID,
		EventID:  id,
	})
	writeJSON(w, http.StatusOK, ev)
}

// handleDeleteEvent captures the event's timing before the row disappears:
// the cancellation payload still needs the original start and duration after
// the backing record is gone.
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	actorID := r.URL.Query().Get("actor_id")
	if actorID == "" {
		writeError(w, http.StatusBadRequest, "actor_id query parameter is required")
		return
	}

	ev, err := s.dir.EventByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		s.logger.Error("get event failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}

	if err := s.dir.DeleteEvent(r.Context(), id); err != nil {
		s.logger.Error("delete event failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}

	s.bus.Publish(engine.Trigger{
		Kind:     engine.TriggerEventDeleted,
		ActorID:  actorID,
		CourseID: ev.CourseID,
		GroupID:  ev.GroupID,
		EventID:  id,
		Deleted: &engine.DeletedEvent{
			TimeStart:    ev.TimeStart,
			TimeDuration: ev.TimeDuration,
		},
	})
	w.WriteHeader(http.StatusNoContent)
}
