package progress

import (
	"github.com/google/uuid"
)

// UserProgress is a derived snapshot, recomputed from logs and profile on
// every read. JSON tags match the client wire format.
type UserProgress struct {
	WaterIntake      int `json:"waterIntake"`
	WaterGoal        int `json:"waterGoal"`
	CaloriesConsumed int `json:"caloriesConsumed"`
	CalorieGoal      int `json:"calorieGoal"`
	Streak           int `json:"streak"`
	YesterdayWater   int `json:"yesterdayWater"`
	WeeklyGoalsMet   int `json:"weeklyGoalsMet"`
}

type WaterLog struct {
	ID     uuid.UUID `json:"id"`
	Date   string    `json:"date"` // local calendar date, YYYY-MM-DD
	Amount int       `json:"amount"`
}

type FoodItem struct {
	Name     string `json:"name"`
	Calories int    `json:"calories"`
}

type FoodLog struct {
	ID       uuid.UUID `json:"id"`
	Date     string    `json:"date"`
	FoodItem FoodItem  `json:"foodItem"`
}

type Goals struct {
	WaterGoal   int `json:"waterGoal"`
	CalorieGoal int `json:"calorieGoal"`
}

type Profile struct {
	Goals  Goals `json:"goals"`
	Streak int   `json:"streak"`
}
