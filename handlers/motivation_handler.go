package handlers

import (
	"context"
	"net/http"
	"time"

	"vitalTrackAPI/internal/clock"
	"vitalTrackAPI/services"
	"vitalTrackAPI/utils"
)

type MotivationHandler struct {
	motivation *services.MotivationService
	progress   *services.ProgressService
	clock      clock.Clock
}

func NewMotivationHandler(motivation *services.MotivationService, progress *services.ProgressService, clk clock.Clock) *MotivationHandler {
	return &MotivationHandler{
		motivation: motivation,
		progress:   progress,
		clock:      clk,
	}
}

// GET /api/v1/motivation - the message the policy would pick right now
func (h *MotivationHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	now := h.clock.Now()
	timeOfDay := utils.TimeOfDayAt(now)
	snapshot := h.progress.Snapshot()

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":   h.motivation.Message(ctx, snapshot, timeOfDay),
		"timeOfDay": timeOfDay,
	})
}
