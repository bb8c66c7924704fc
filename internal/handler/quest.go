package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/mobilityquest/internal/model"
	"github.com/dukerupert/mobilityquest/internal/quest"
)

type QuestHandler struct {
	svc    *quest.Service
	logger *slog.Logger
}

func NewQuestHandler(svc *quest.Service, logger *slog.Logger) *QuestHandler {
	return &QuestHandler{svc: svc, logger: logger}
}

// State handles GET /api/state
func (h *QuestHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.State())
}

// Routine handles GET /api/routines/{type}
func (h *QuestHandler) Routine(w http.ResponseWriter, r *http.Request) {
	t := model.RoutineType(r.PathValue("type"))
	if !t.Valid() {
		writeError(w, http.StatusBadRequest, "routine type must be morning or night")
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Routine(t))
}

// Profile handles GET /api/profile
func (h *QuestHandler) Profile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Profile())
}

// Achievements handles GET /api/achievements
func (h *QuestHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Achievements())
}

// Completions handles GET /api/completions?limit=N
func (h *QuestHandler) Completions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	writeJSON(w, http.StatusOK, map[string]any{
		"completions": h.svc.Completions(limit),
		"daily":       h.svc.DailyCompletions(),
	})
}

// Timer handles GET /api/timer
func (h *QuestHandler) Timer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, timerResponse{Timer: h.svc.Timer()})
}

type startTimerRequest struct {
	RoutineType   model.RoutineType `json:"routineType"`
	ExerciseIndex *int              `json:"exerciseIndex"`
}

type timerResponse struct {
	Started bool                 `json:"started,omitempty"`
	Timer   *model.TimerSnapshot `json:"timer"`
}

// StartTimer handles POST /api/timer/start. An index outside the routine is
// not an error: the current timer is returned with started=false.
func (h *QuestHandler) StartTimer(w http.ResponseWriter, r *http.Request) {
	var req startTimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !req.RoutineType.Valid() {
		writeError(w, http.StatusBadRequest, "routineType must be morning or night")
		return
	}
	if req.ExerciseIndex == nil {
		writeError(w, http.StatusBadRequest, "exerciseIndex is required")
		return
	}

	snap, ok := h.svc.StartExercise(req.RoutineType, *req.ExerciseIndex)
	writeJSON(w, http.StatusOK, timerResponse{Started: ok, Timer: snap})
}

// PauseTimer handles POST /api/timer/pause
func (h *QuestHandler) PauseTimer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, timerResponse{Timer: h.svc.Pause()})
}

// ResumeTimer handles POST /api/timer/resume
func (h *QuestHandler) ResumeTimer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, timerResponse{Timer: h.svc.Resume()})
}

// ToggleTimer handles POST /api/timer/toggle
func (h *QuestHandler) ToggleTimer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, timerResponse{Timer: h.svc.TogglePlay()})
}

// ResetTimer handles POST /api/timer/reset
func (h *QuestHandler) ResetTimer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, timerResponse{Timer: h.svc.ResetTimer()})
}

// CloseTimer handles POST /api/timer/close
func (h *QuestHandler) CloseTimer(w http.ResponseWriter, r *http.Request) {
	h.svc.CloseTimer()
	w.WriteHeader(http.StatusNoContent)
}

// GetNotificationSettings handles GET /api/settings/notifications
func (h *QuestHandler) GetNotificationSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"settings": h.svc.NotificationSettings(),
		"state":    h.svc.NotificationState(),
	})
}

// UpdateNotificationSettings handles PUT /api/settings/notifications
func (h *QuestHandler) UpdateNotificationSettings(w http.ResponseWriter, r *http.Request) {
	var req model.NotificationSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.svc.UpdateNotificationSettings(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.svc.NotificationSettings())
}

// ResetProgress handles POST /api/progress/reset
func (h *QuestHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ResetProgress(); err != nil {
		// In-memory state is already back at defaults; only storage lagged.
		h.logger.Error("reset progress", "error", err)
	}
	writeJSON(w, http.StatusOK, h.svc.State())
}
