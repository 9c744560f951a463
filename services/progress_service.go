package services

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"vitalTrackAPI/internal/clock"
	"vitalTrackAPI/internal/store"
	"vitalTrackAPI/internal/types/progress"
	"vitalTrackAPI/utils"
)

const (
	defaultWaterGoal   = 2000 // ml
	defaultCalorieGoal = 2000 // kcal
)

// ProgressService derives UserProgress snapshots from the persisted water
// logs, food logs and profile. Reads fail soft: absent or malformed data
// yields zeroed values and default goals, never an error.
type ProgressService struct {
	store store.KVStore
	clock clock.Clock
}

func NewProgressService(kv store.KVStore, clk clock.Clock) *ProgressService {
	return &ProgressService{store: kv, clock: clk}
}

// Snapshot recomputes today's and yesterday's totals. Day boundaries are the
// local calendar date.
func (s *ProgressService) Snapshot() progress.UserProgress {
	now := s.clock.Now()
	today := utils.DateKey(now)
	yesterday := utils.DateKey(now.AddDate(0, 0, -1))

	waterLogs := s.waterLogs()
	foodLogs := s.foodLogs()
	profile := s.profile()

	todayWater := 0
	yesterdayWater := 0
	for _, entry := range waterLogs {
		switch entry.Date {
		case today:
			todayWater += entry.Amount
		case yesterday:
			yesterdayWater += entry.Amount
		}
	}

	todayCalories := 0
	for _, entry := range foodLogs {
		if entry.Date == today {
			todayCalories += entry.FoodItem.Calories
		}
	}

	waterGoal := profile.Goals.WaterGoal
	if waterGoal == 0 {
		waterGoal = defaultWaterGoal
	}
	calorieGoal := profile.Goals.CalorieGoal
	if calorieGoal == 0 {
		calorieGoal = defaultCalorieGoal
	}

	weeklyGoalsMet := profile.Streak
	if weeklyGoalsMet > 7 {
		weeklyGoalsMet = 7
	}

	return progress.UserProgress{
		WaterIntake:      todayWater,
		WaterGoal:        waterGoal,
		CaloriesConsumed: todayCalories,
		CalorieGoal:      calorieGoal,
		Streak:           profile.Streak,
		YesterdayWater:   yesterdayWater,
		WeeklyGoalsMet:   weeklyGoalsMet,
	}
}

// HasMealsToday reports whether any food log entry matches today's date.
func (s *ProgressService) HasMealsToday() bool {
	today := utils.DateKey(s.clock.Now())
	for _, entry := range s.foodLogs() {
		if entry.Date == today {
			return true
		}
	}
	return false
}

// AddWaterLog appends a water entry dated today.
func (s *ProgressService) AddWaterLog(amount int) (progress.WaterLog, error) {
	if amount <= 0 {
		return progress.WaterLog{}, fmt.Errorf("water amount must be positive, got %d", amount)
	}

	entry := progress.WaterLog{
		ID:     uuid.New(),
		Date:   utils.DateKey(s.clock.Now()),
		Amount: amount,
	}

	logs := append(s.waterLogs(), entry)
	raw, err := json.Marshal(logs)
	if err != nil {
		return progress.WaterLog{}, fmt.Errorf("failed to marshal water logs: %w", err)
	}
	if err := s.store.Set(store.KeyWaterLogs, string(raw)); err != nil {
		return progress.WaterLog{}, fmt.Errorf("failed to persist water logs: %w", err)
	}
	return entry, nil
}

// AddFoodLog appends a food entry dated today.
func (s *ProgressService) AddFoodLog(name string, calories int) (progress.FoodLog, error) {
	if calories < 0 {
		return progress.FoodLog{}, fmt.Errorf("calories must be non-negative, got %d", calories)
	}

	entry := progress.FoodLog{
		ID:   uuid.New(),
		Date: utils.DateKey(s.clock.Now()),
		FoodItem: progress.FoodItem{
			Name:     name,
			Calories: calories,
		},
	}

	logs := append(s.foodLogs(), entry)
	raw, err := json.Marshal(logs)
	if err != nil {
		return progress.FoodLog{}, fmt.Errorf("failed to marshal food logs: %w", err)
	}
	if err := s.store.Set(store.KeyFoodLogs, string(raw)); err != nil {
		return progress.FoodLog{}, fmt.Errorf("failed to persist food logs: %w", err)
	}
	return entry, nil
}

func (s *ProgressService) waterLogs() []progress.WaterLog {
	raw, ok := s.store.Get(store.KeyWaterLogs)
	if !ok {
		return nil
	}
	var logs []progress.WaterLog
	if err := json.Unmarshal([]byte(raw), &logs); err != nil {
		log.Printf("Failed to parse water logs, treating as empty: %v", err)
		return nil
	}
	return logs
}

func (s *ProgressService) foodLogs() []progress.FoodLog {
	raw, ok := s.store.Get(store.KeyFoodLogs)
	if !ok {
		return nil
	}
	var logs []progress.FoodLog
	if err := json.Unmarshal([]byte(raw), &logs); err != nil {
		log.Printf("Failed to parse food logs, treating as empty: %v", err)
		return nil
	}
	return logs
}

func (s *ProgressService) profile() progress.Profile {
	raw, ok := s.store.Get(store.KeyUserProfile)
	if !ok {
		return progress.Profile{}
	}
	var p progress.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		log.Printf("Failed to parse user profile, using defaults: %v", err)
		return progress.Profile{}
	}
	return p
}
