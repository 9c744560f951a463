package discovery

type MealWindow string

const (
	MealWindowNone      MealWindow = ""
	MealWindowBreakfast MealWindow = "breakfast"
	MealWindowLunch     MealWindow = "lunch"
	MealWindowDinner    MealWindow = "dinner"
)

// WindowAt maps a local hour to its meal window: breakfast [7,10),
// lunch [11,14), dinner [18,21).
func WindowAt(hour int) MealWindow {
	switch {
	case hour >= 7 && hour < 10:
		return MealWindowBreakfast
	case hour >= 11 && hour < 14:
		return MealWindowLunch
	case hour >= 18 && hour < 21:
		return MealWindowDinner
	default:
		return MealWindowNone
	}
}

type Nudge string

const (
	NudgeNone             Nudge = ""
	NudgeFirstTimeTooltip Nudge = "first_time_tooltip"
	NudgeReengagement     Nudge = "reengagement"
	NudgeEmptyState       Nudge = "empty_state"
	NudgeMealBanner       Nudge = "meal_banner"
)

// State holds the four discovery layers. The first-time tooltip being active
// forces every other layer false; the remaining layers may be simultaneously
// true and are ranked by PrimaryNudge.
type State struct {
	ShowFirstTimeTooltip       bool       `json:"showFirstTimeTooltip"`
	ShowReengagementSuggestion bool       `json:"showReengagementSuggestion"`
	ShowEmptyStateCard         bool       `json:"showEmptyStateCard"`
	ShowMealTimeBanner         bool       `json:"showMealTimeBanner"`
	CurrentMealWindow          MealWindow `json:"currentMealWindow"`
}

// PrimaryNudge returns the single highest-priority active layer, or NudgeNone.
func (s State) PrimaryNudge() Nudge {
	switch {
	case s.ShowFirstTimeTooltip:
		return NudgeFirstTimeTooltip
	case s.ShowReengagementSuggestion:
		return NudgeReengagement
	case s.ShowEmptyStateCard:
		return NudgeEmptyState
	case s.ShowMealTimeBanner:
		return NudgeMealBanner
	default:
		return NudgeNone
	}
}

// MealBannerDismissal is the persisted per-window dismissal record.
type MealBannerDismissal struct {
	Date   string     `json:"date"` // YYYY-MM-DD
	Window MealWindow `json:"window"`
}
