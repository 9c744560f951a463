package handlers

import (
	"encoding/json"
	"net/http"

	"vitalTrackAPI/services"
)

type ProgressHandler struct {
	progressService *services.ProgressService
	discoveryEngine *services.DiscoveryEngine
}

func NewProgressHandler(progressService *services.ProgressService, discoveryEngine *services.DiscoveryEngine) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
		discoveryEngine: discoveryEngine,
	}
}

// GET /api/v1/progress - today's derived snapshot
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.progressService.Snapshot())
}

// POST /api/v1/logs/water - append a water log entry for today
func (h *ProgressHandler) AddWaterLog(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.progressService.AddWaterLog(body.Amount)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, entry)
}

// POST /api/v1/logs/food - append a food log entry for today
func (h *ProgressHandler) AddFoodLog(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Calories int    `json:"calories"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Food name is required")
		return
	}

	entry, err := h.progressService.AddFoodLog(body.Name, body.Calories)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.discoveryEngine.OnFoodLogged()
	respondWithJSON(w, http.StatusCreated, entry)
}
