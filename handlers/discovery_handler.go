package handlers

import (
	"net/http"

	"vitalTrackAPI/services"
)

type DiscoveryHandler struct {
	engine *services.DiscoveryEngine
}

func NewDiscoveryHandler(engine *services.DiscoveryEngine) *DiscoveryHandler {
	return &DiscoveryHandler{engine: engine}
}

// GET /api/v1/discovery - current nudge state plus the single nudge the UI
// should actually render
func (h *DiscoveryHandler) GetState(w http.ResponseWriter, r *http.Request) {
	state := h.engine.Refresh()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"state":        state,
		"primaryNudge": state.PrimaryNudge(),
	})
}

// POST /api/v1/discovery/dismiss/tooltip
func (h *DiscoveryHandler) DismissTooltip(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DismissFirstTimeTooltip(); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to dismiss tooltip")
		return
	}
	respondWithJSON(w, http.StatusOK, h.engine.State())
}

// POST /api/v1/discovery/dismiss/reengagement
func (h *DiscoveryHandler) DismissReengagement(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DismissReengagement(); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to dismiss suggestion")
		return
	}
	respondWithJSON(w, http.StatusOK, h.engine.State())
}

// POST /api/v1/discovery/dismiss/meal-banner
func (h *DiscoveryHandler) DismissMealBanner(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DismissMealBanner(); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to dismiss banner")
		return
	}
	respondWithJSON(w, http.StatusOK, h.engine.State())
}

// POST /api/v1/discovery/scan-used - records a scan, retiring the tooltip
func (h *DiscoveryHandler) ScanUsed(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.RecordScanUsage(); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to record scan usage")
		return
	}
	respondWithJSON(w, http.StatusOK, h.engine.State())
}
