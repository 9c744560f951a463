package notification

import "time"

// Channel groups notifications for platform-level categorization and
// independent enable/disable.
type Channel string

const (
	ChannelWater      Channel = "vitaltrack-water"
	ChannelGoals      Channel = "vitaltrack-goals"
	ChannelMotivation Channel = "vitaltrack-motivation"
	ChannelWeekly     Channel = "vitaltrack-weekly"
)

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// Fixed IDs for the daily slot set. Immediate notifications use generated IDs
// outside this range.
const (
	IDAIMotivation = 1
	IDWater10AM    = 2
	IDWater2PM     = 3
	IDWater6PM     = 4
	IDCheckIn12PM  = 5
	IDCheckIn8PM   = 6
	IDWeeklyRecap  = 7
	IDTest         = 100
)

type Settings struct {
	Enabled        bool `json:"enabled"`
	WaterReminders bool `json:"waterReminders"`
	GoalCheckIns   bool `json:"goalCheckIns"`
	AIMotivation   bool `json:"aiMotivation"`
	WeeklyRecap    bool `json:"weeklyRecap"`
}

// DefaultSettings is the first-load state: channels on, master switch off
// until the user grants permission.
func DefaultSettings() Settings {
	return Settings{
		Enabled:        false,
		WaterReminders: true,
		GoalCheckIns:   true,
		AIMotivation:   true,
		WeeklyRecap:    true,
	}
}

type UpdateSettingsRequest struct {
	Enabled        *bool `json:"enabled,omitempty"`
	WaterReminders *bool `json:"waterReminders,omitempty"`
	GoalCheckIns   *bool `json:"goalCheckIns,omitempty"`
	AIMotivation   *bool `json:"aiMotivation,omitempty"`
	WeeklyRecap    *bool `json:"weeklyRecap,omitempty"`
}

// ScheduledNotification is transient scheduler state. The full set is
// invalidated and rebuilt on every settings change or day rollover.
type ScheduledNotification struct {
	ID      int       `json:"id"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	FireAt  time.Time `json:"fireAt"`
	Channel Channel   `json:"channel"`
}

type DeviceToken struct {
	Token    string    `json:"token"`
	Platform string    `json:"platform"`
	AddedAt  time.Time `json:"addedAt"`
	LastUsed time.Time `json:"lastUsed"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type SendRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
}
