package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"vitalTrackAPI/internal/types/notification"
	"vitalTrackAPI/services"
)

type NotificationHandler struct {
	scheduler *services.NotificationScheduler
}

func NewNotificationHandler(scheduler *services.NotificationScheduler) *NotificationHandler {
	return &NotificationHandler{scheduler: scheduler}
}

// GET /api/v1/notifications/settings
func (h *NotificationHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"settings":   h.scheduler.Settings(),
		"permission": h.scheduler.Permission(ctx),
	})
}

// PUT /api/v1/notifications/settings - partial update, absent fields unchanged
func (h *NotificationHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req notification.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	settings, err := h.scheduler.UpdateSettings(ctx, req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}

	respondWithJSON(w, http.StatusOK, settings)
}

// POST /api/v1/notifications/enable - requests permission; denial is reported
// in the payload, not as an HTTP error
func (h *NotificationHandler) Enable(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	settings, err := h.scheduler.Enable(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to enable notifications")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"settings":   settings,
		"permission": h.scheduler.Permission(ctx),
	})
}

// POST /api/v1/notifications/disable
func (h *NotificationHandler) Disable(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	settings, err := h.scheduler.Disable(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to disable notifications")
		return
	}

	respondWithJSON(w, http.StatusOK, settings)
}

// GET /api/v1/notifications/pending
func (h *NotificationHandler) GetPending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ids, err := h.scheduler.Pending(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list pending notifications")
		return
	}
	if ids == nil {
		ids = []int{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"pending": ids,
		"count":   len(ids),
	})
}

// POST /api/v1/notifications/test - immediate test notification with the
// current policy message, bypassing the throttle
func (h *NotificationHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	message, sent := h.scheduler.SendTest(ctx)
	if !sent {
		respondWithError(w, http.StatusConflict, "Notification permission denied")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"sent":    true,
		"message": message,
	})
}

// POST /api/v1/notifications/send - throttled immediate notification
func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req notification.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" || req.Body == "" {
		respondWithError(w, http.StatusBadRequest, "Title and body are required")
		return
	}

	sent := h.scheduler.SendNow(ctx, req.Title, req.Body, req.Tag)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"sent": sent,
	})
}

// POST /api/v1/notifications/register-device
func (h *NotificationHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req notification.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.scheduler.RegisterDevice(req.Token, req.Platform); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}
