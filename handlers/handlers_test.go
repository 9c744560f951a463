package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitalTrackAPI/internal/clock"
	sink "vitalTrackAPI/internal/notification"
	"vitalTrackAPI/internal/store"
	"vitalTrackAPI/services"
)

func newTestRouter(now time.Time) (*mux.Router, *sink.SimulatedSink) {
	kv := store.NewMemoryStore()
	sim := sink.NewSimulatedSink()
	clk := clock.NewFake(now)

	progressService := services.NewProgressService(kv, clk)
	motivationService := services.NewMotivationService("", "")
	scheduler := services.NewNotificationScheduler(kv, sim, progressService, motivationService, clk)
	discoveryEngine := services.NewDiscoveryEngine(kv, progressService, clk)

	progressHandler := NewProgressHandler(progressService, discoveryEngine)
	notificationHandler := NewNotificationHandler(scheduler)
	discoveryHandler := NewDiscoveryHandler(discoveryEngine)
	motivationHandler := NewMotivationHandler(motivationService, progressService, clk)

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/progress", progressHandler.GetProgress).Methods("GET")
	api.HandleFunc("/logs/water", progressHandler.AddWaterLog).Methods("POST")
	api.HandleFunc("/logs/food", progressHandler.AddFoodLog).Methods("POST")
	api.HandleFunc("/motivation", motivationHandler.GetMessage).Methods("GET")
	api.HandleFunc("/notifications/settings", notificationHandler.GetSettings).Methods("GET")
	api.HandleFunc("/notifications/settings", notificationHandler.UpdateSettings).Methods("PUT")
	api.HandleFunc("/notifications/enable", notificationHandler.Enable).Methods("POST")
	api.HandleFunc("/notifications/pending", notificationHandler.GetPending).Methods("GET")
	api.HandleFunc("/notifications/send", notificationHandler.Send).Methods("POST")
	api.HandleFunc("/discovery", discoveryHandler.GetState).Methods("GET")
	api.HandleFunc("/discovery/dismiss/tooltip", discoveryHandler.DismissTooltip).Methods("POST")

	return r, sim
}

func doJSON(t *testing.T, r *mux.Router, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestProgressEndpoints(t *testing.T) {
	r, _ := newTestRouter(time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC))

	rec, _ := doJSON(t, r, http.MethodPost, "/api/v1/logs/water", map[string]int{"amount": 500})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = doJSON(t, r, http.MethodPost, "/api/v1/logs/food", map[string]interface{}{"name": "Salad", "calories": 320})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, body := doJSON(t, r, http.MethodGet, "/api/v1/progress", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(500), body["waterIntake"])
	assert.Equal(t, float64(320), body["caloriesConsumed"])
	assert.Equal(t, float64(2000), body["waterGoal"])
}

func TestProgressValidation(t *testing.T) {
	r, _ := newTestRouter(time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC))

	rec, _ := doJSON(t, r, http.MethodPost, "/api/v1/logs/water", map[string]int{"amount": -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, r, http.MethodPost, "/api/v1/logs/food", map[string]interface{}{"calories": 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotificationEndpoints(t *testing.T) {
	r, sim := newTestRouter(time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC))

	rec, body := doJSON(t, r, http.MethodGet, "/api/v1/notifications/settings", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	settings := body["settings"].(map[string]interface{})
	assert.Equal(t, false, settings["enabled"])

	// Immediate sends are refused until the master switch is on.
	rec, body = doJSON(t, r, http.MethodPost, "/api/v1/notifications/send", map[string]string{"title": "Hi", "body": "There", "tag": "t"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["sent"])

	rec, body = doJSON(t, r, http.MethodPost, "/api/v1/notifications/enable", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	settings = body["settings"].(map[string]interface{})
	assert.Equal(t, true, settings["enabled"])
	assert.Equal(t, "granted", body["permission"])
	assert.Len(t, sim.Pending(), 6)

	rec, body = doJSON(t, r, http.MethodGet, "/api/v1/notifications/pending", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(6), body["count"])

	off := false
	rec, body = doJSON(t, r, http.MethodPut, "/api/v1/notifications/settings", map[string]*bool{"waterReminders": &off})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["waterReminders"])
	assert.Len(t, sim.Pending(), 3)
}

func TestDiscoveryEndpoints(t *testing.T) {
	r, _ := newTestRouter(time.Date(2026, 8, 24, 12, 30, 0, 0, time.UTC))

	rec, body := doJSON(t, r, http.MethodGet, "/api/v1/discovery", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "first_time_tooltip", body["primaryNudge"])

	rec, _ = doJSON(t, r, http.MethodPost, "/api/v1/discovery/dismiss/tooltip", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = doJSON(t, r, http.MethodGet, "/api/v1/discovery", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	state := body["state"].(map[string]interface{})
	assert.Equal(t, false, state["showFirstTimeTooltip"])
	assert.Equal(t, true, state["showMealTimeBanner"])
	assert.Equal(t, "lunch", state["currentMealWindow"])
}

func TestMotivationEndpoint(t *testing.T) {
	r, _ := newTestRouter(time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC))

	rec, body := doJSON(t, r, http.MethodGet, "/api/v1/motivation", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "morning", body["timeOfDay"])
	assert.NotEmpty(t, body["message"])
}
