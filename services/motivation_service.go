package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"vitalTrackAPI/internal/types/progress"
	"vitalTrackAPI/utils"
)

// MotivationService selects the motivational message for a progress snapshot.
// The remote text-generation endpoint is optional and unreliable; any failure
// falls back to the deterministic local rules and is never surfaced to the
// caller as an error.
type MotivationService struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

func NewMotivationService(endpoint, apiKey string) *MotivationService {
	return &MotivationService{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

type motivationRequest struct {
	Progress  progress.UserProgress `json:"progress"`
	TimeOfDay utils.TimeOfDay       `json:"timeOfDay"`
}

type motivationResponse struct {
	Message string `json:"message"`
}

// Message returns the remote message when the endpoint is configured and
// answers with a usable body, otherwise the local selection.
func (s *MotivationService) Message(ctx context.Context, p progress.UserProgress, timeOfDay utils.TimeOfDay) string {
	if s.endpoint == "" {
		return s.LocalMessage(p, timeOfDay)
	}

	msg, err := s.remoteMessage(ctx, p, timeOfDay)
	if err != nil {
		log.Printf("Remote motivation failed, using local fallback: %v", err)
		return s.LocalMessage(p, timeOfDay)
	}
	return msg
}

func (s *MotivationService) remoteMessage(ctx context.Context, p progress.UserProgress, timeOfDay utils.TimeOfDay) (string, error) {
	body, err := json.Marshal(motivationRequest{Progress: p, TimeOfDay: timeOfDay})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var out motivationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	msg := strings.TrimSpace(out.Message)
	if msg == "" {
		return "", fmt.Errorf("empty message in response")
	}
	return msg, nil
}

// LocalMessage applies the priority rules; the first matching rule wins.
func (s *MotivationService) LocalMessage(p progress.UserProgress, timeOfDay utils.TimeOfDay) string {
	waterPercent := percentOf(p.WaterIntake, p.WaterGoal)
	caloriePercent := percentOf(p.CaloriesConsumed, p.CalorieGoal)
	waterRemaining := p.WaterGoal - p.WaterIntake
	caloriesRemaining := p.CalorieGoal - p.CaloriesConsumed

	if waterPercent < 50 && timeOfDay != utils.Morning {
		return fmt.Sprintf("Your body is 60%% water—let's hydrate! 💧 Only %dml to go!", waterRemaining)
	}

	if caloriePercent >= 80 && caloriePercent <= 100 {
		return fmt.Sprintf("You're killing it! 🎯 Only %d calories left today.", caloriesRemaining)
	}

	if p.Streak >= 3 {
		return fmt.Sprintf("%d-day streak! Don't break the chain! 🔥", p.Streak)
	}

	if float64(p.YesterdayWater) < float64(p.WaterGoal)*0.5 {
		return "Today's a fresh start. Let's get back on track! 🌟"
	}

	if p.WeeklyGoalsMet >= 5 {
		return "AI Tip: You're on fire! Try adding more protein for extra energy! 💪"
	}

	switch timeOfDay {
	case utils.Morning:
		return "Good morning! Start strong and make today count! ☀️"
	case utils.Afternoon:
		return "Keep the momentum going! You're doing great! 🚀"
	case utils.Evening:
		return "Finish the day well! You're almost there! 🌙"
	default:
		return "Every step counts on your wellness journey! ✨"
	}
}

// percentOf guards the zero-goal edge: a zero or negative goal reads as 0%,
// not a division error.
func percentOf(value, goal int) int {
	if goal <= 0 {
		return 0
	}
	return int(math.Round(float64(value) / float64(goal) * 100))
}
