package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"vitalTrackAPI/internal/clock"
	sink "vitalTrackAPI/internal/notification"
	"vitalTrackAPI/internal/store"
	"vitalTrackAPI/internal/types/notification"
	"vitalTrackAPI/internal/types/progress"
	"vitalTrackAPI/utils"
)

// Immediate sends with the same tag are suppressed inside this window.
const throttleWindow = 30 * time.Minute

var (
	notificationsScheduled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_scheduled_total",
			Help: "Notifications handed to the platform sink",
		},
		[]string{"channel"},
	)
	notificationsSuppressed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_suppressed_total",
			Help: "Immediate notifications dropped by the per-tag throttle",
		},
	)
)

// InitMetrics registers the scheduler metrics. Call once from main.go.
func InitMetrics() {
	prometheus.MustRegister(notificationsScheduled)
	prometheus.MustRegister(notificationsSuppressed)
}

// NotificationScheduler owns the daily notification slots. On any settings
// change the previously scheduled set is cancelled wholesale and recomputed;
// there is no incremental diffing. Slot failures are logged and never block
// sibling slots.
type NotificationScheduler struct {
	mu         sync.Mutex
	store      store.KVStore
	sink       sink.Sink
	progress   *ProgressService
	motivation *MotivationService
	clock      clock.Clock
}

func NewNotificationScheduler(kv store.KVStore, s sink.Sink, prog *ProgressService, mot *MotivationService, clk clock.Clock) *NotificationScheduler {
	return &NotificationScheduler{
		store:      kv,
		sink:       s,
		progress:   prog,
		motivation: mot,
		clock:      clk,
	}
}

// Settings loads the persisted settings, substituting defaults when absent
// or unreadable.
func (s *NotificationScheduler) Settings() notification.Settings {
	raw, ok := s.store.Get(store.KeyNotificationSettings)
	if !ok {
		return notification.DefaultSettings()
	}
	var settings notification.Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		log.Printf("Failed to parse notification settings, using defaults: %v", err)
		return notification.DefaultSettings()
	}
	return settings
}

func (s *NotificationScheduler) saveSettings(settings notification.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := s.store.Set(store.KeyNotificationSettings, string(raw)); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}

// UpdateSettings applies a partial update, persists it and reschedules the
// full daily set.
func (s *NotificationScheduler) UpdateSettings(ctx context.Context, req notification.UpdateSettingsRequest) (notification.Settings, error) {
	settings := s.Settings()
	if req.Enabled != nil {
		settings.Enabled = *req.Enabled
	}
	if req.WaterReminders != nil {
		settings.WaterReminders = *req.WaterReminders
	}
	if req.GoalCheckIns != nil {
		settings.GoalCheckIns = *req.GoalCheckIns
	}
	if req.AIMotivation != nil {
		settings.AIMotivation = *req.AIMotivation
	}
	if req.WeeklyRecap != nil {
		settings.WeeklyRecap = *req.WeeklyRecap
	}

	if err := s.saveSettings(settings); err != nil {
		return settings, err
	}
	s.Reschedule(ctx)
	return settings, nil
}

// Enable requests platform permission. Denial is not an error: it silently
// persists enabled=false and reports the resulting state.
func (s *NotificationScheduler) Enable(ctx context.Context) (notification.Settings, error) {
	settings := s.Settings()

	perm := s.sink.RequestPermission(ctx)
	if perm == notification.PermissionDenied {
		settings.Enabled = false
		if err := s.saveSettings(settings); err != nil {
			return settings, err
		}
		return settings, nil
	}

	settings.Enabled = true
	if err := s.saveSettings(settings); err != nil {
		return settings, err
	}
	s.Reschedule(ctx)
	return settings, nil
}

// Disable turns the master switch off and cancels everything pending.
func (s *NotificationScheduler) Disable(ctx context.Context) (notification.Settings, error) {
	settings := s.Settings()
	settings.Enabled = false
	if err := s.saveSettings(settings); err != nil {
		return settings, err
	}

	s.mu.Lock()
	s.cancelAll(ctx)
	s.mu.Unlock()
	return settings, nil
}

func (s *NotificationScheduler) Permission(ctx context.Context) notification.Permission {
	return s.sink.CheckPermission(ctx)
}

// Pending returns the IDs currently held by the sink.
func (s *NotificationScheduler) Pending(ctx context.Context) ([]int, error) {
	return s.sink.ListPending(ctx)
}

// Reschedule cancels every pending entry and recomputes the full daily set
// from the current settings, clock and progress snapshot. Returns the entries
// that were handed to the sink.
func (s *NotificationScheduler) Reschedule(ctx context.Context) []notification.ScheduledNotification {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelAll(ctx)

	settings := s.Settings()
	if !settings.Enabled {
		return nil
	}

	now := s.clock.Now()
	prog := s.progress.Snapshot()
	message := s.motivation.Message(ctx, prog, utils.TimeOfDayAt(now))

	var scheduled []notification.ScheduledNotification
	for _, plan := range dailySlots(settings, now, prog, message) {
		n := notification.ScheduledNotification{
			ID:      plan.id,
			Title:   plan.title,
			Body:    plan.body,
			FireAt:  nextFireTime(now, plan.hour, plan.minute),
			Channel: plan.channel,
		}
		if err := s.sink.Schedule(ctx, n); err != nil {
			log.Printf("Failed to schedule notification %d: %v", n.ID, err)
			continue
		}
		notificationsScheduled.WithLabelValues(string(n.Channel)).Inc()
		scheduled = append(scheduled, n)
	}
	return scheduled
}

// SendNow dispatches a best-effort immediate notification, throttled per tag:
// a send with the same tag within the last 30 minutes is suppressed. Returns
// whether the notification was handed to the sink.
func (s *NotificationScheduler) SendNow(ctx context.Context, title, body, tag string) bool {
	settings := s.Settings()
	if !settings.Enabled {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	lastFired := s.lastFired()
	if tag != "" {
		if last, ok := lastFired[tag]; ok && now.UnixMilli()-last < throttleWindow.Milliseconds() {
			notificationsSuppressed.Inc()
			return false
		}
	}

	n := notification.ScheduledNotification{
		ID:      immediateID(),
		Title:   title,
		Body:    body,
		FireAt:  now.Add(100 * time.Millisecond),
		Channel: notification.ChannelMotivation,
	}
	if err := s.sink.Schedule(ctx, n); err != nil {
		log.Printf("Failed to send immediate notification: %v", err)
		return false
	}
	notificationsScheduled.WithLabelValues(string(n.Channel)).Inc()

	if tag != "" {
		lastFired[tag] = now.UnixMilli()
		s.saveLastFired(lastFired)
	}
	return true
}

// SendTest dispatches the policy message immediately, bypassing the throttle.
// Used by the settings screen's "test notification" action.
func (s *NotificationScheduler) SendTest(ctx context.Context) (string, bool) {
	if s.sink.CheckPermission(ctx) == notification.PermissionDenied {
		return "", false
	}

	now := s.clock.Now()
	prog := s.progress.Snapshot()
	message := s.motivation.Message(ctx, prog, utils.TimeOfDayAt(now))

	n := notification.ScheduledNotification{
		ID:      notification.IDTest,
		Title:   "VitalTrack Test ✨",
		Body:    message,
		FireAt:  now.Add(500 * time.Millisecond),
		Channel: notification.ChannelMotivation,
	}
	if err := s.sink.Schedule(ctx, n); err != nil {
		log.Printf("Failed to send test notification: %v", err)
		return "", false
	}
	notificationsScheduled.WithLabelValues(string(n.Channel)).Inc()
	return message, true
}

// RegisterDevice records a device token for the push sink, refreshing
// last-used on duplicates.
func (s *NotificationScheduler) RegisterDevice(token, platform string) error {
	if token == "" {
		return fmt.Errorf("device token is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tokens := s.deviceTokens()
	now := s.clock.Now()

	exists := false
	for i := range tokens {
		if tokens[i].Token == token {
			tokens[i].LastUsed = now
			exists = true
			break
		}
	}
	if !exists {
		tokens = append(tokens, notification.DeviceToken{
			Token:    token,
			Platform: platform,
			AddedAt:  now,
			LastUsed: now,
		})
	}

	raw, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to marshal device tokens: %w", err)
	}
	if err := s.store.Set(store.KeyDeviceTokens, string(raw)); err != nil {
		return fmt.Errorf("failed to persist device tokens: %w", err)
	}
	return nil
}

// cancelAll clears the sink's pending set; callers hold the lock. Errors are
// logged, not returned, so rescheduling always proceeds.
func (s *NotificationScheduler) cancelAll(ctx context.Context) {
	ids, err := s.sink.ListPending(ctx)
	if err != nil {
		log.Printf("Failed to list pending notifications: %v", err)
		return
	}
	if len(ids) == 0 {
		return
	}
	if err := s.sink.Cancel(ctx, ids); err != nil {
		log.Printf("Failed to cancel pending notifications: %v", err)
	}
}

func (s *NotificationScheduler) lastFired() map[string]int64 {
	fired := make(map[string]int64)
	raw, ok := s.store.Get(store.KeyLastNotifications)
	if !ok {
		return fired
	}
	if err := json.Unmarshal([]byte(raw), &fired); err != nil {
		log.Printf("Failed to parse throttle map, resetting: %v", err)
		return make(map[string]int64)
	}
	return fired
}

func (s *NotificationScheduler) saveLastFired(fired map[string]int64) {
	raw, err := json.Marshal(fired)
	if err != nil {
		log.Printf("Failed to marshal throttle map: %v", err)
		return
	}
	if err := s.store.Set(store.KeyLastNotifications, string(raw)); err != nil {
		log.Printf("Failed to persist throttle map: %v", err)
	}
}

func (s *NotificationScheduler) deviceTokens() []notification.DeviceToken {
	raw, ok := s.store.Get(store.KeyDeviceTokens)
	if !ok {
		return nil
	}
	var tokens []notification.DeviceToken
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		log.Printf("Failed to parse device tokens, treating as empty: %v", err)
		return nil
	}
	return tokens
}

type slotPlan struct {
	id      int
	hour    int
	minute  int
	channel notification.Channel
	title   string
	body    string
}

// dailySlots builds the fixed daily set, gated by the per-channel flags. The
// Sunday weekly recap is the only weekday-dependent slot.
func dailySlots(settings notification.Settings, now time.Time, prog progress.UserProgress, message string) []slotPlan {
	var plans []slotPlan

	if settings.AIMotivation {
		plans = append(plans, slotPlan{
			id: notification.IDAIMotivation, hour: 9,
			channel: notification.ChannelMotivation,
			title:   "VitalTrack 🌟",
			body:    message,
		})
	}
	if settings.WaterReminders {
		plans = append(plans, slotPlan{
			id: notification.IDWater10AM, hour: 10,
			channel: notification.ChannelWater,
			title:   "Hydration Reminder 💧",
			body:    "Time to drink some water! Stay hydrated for better focus and energy.",
		})
	}
	if settings.GoalCheckIns {
		plans = append(plans, slotPlan{
			id: notification.IDCheckIn12PM, hour: 12,
			channel: notification.ChannelGoals,
			title:   "Midday Check-in 📊",
			body:    message,
		})
	}
	if settings.WaterReminders {
		plans = append(plans, slotPlan{
			id: notification.IDWater2PM, hour: 14,
			channel: notification.ChannelWater,
			title:   "Stay Hydrated 💧",
			body:    "You're halfway through the day! Keep up with your water intake!",
		})
	}
	if settings.WaterReminders {
		plans = append(plans, slotPlan{
			id: notification.IDWater6PM, hour: 18,
			channel: notification.ChannelWater,
			title:   "Evening Hydration 💧",
			body:    "Evening check! Let's finish strong with your water goal!",
		})
	}
	if settings.GoalCheckIns {
		plans = append(plans, slotPlan{
			id: notification.IDCheckIn8PM, hour: 20,
			channel: notification.ChannelGoals,
			title:   "Evening Wrap-up 🌙",
			body:    message,
		})
	}
	if settings.WeeklyRecap && now.Weekday() == time.Sunday {
		plans = append(plans, slotPlan{
			id: notification.IDWeeklyRecap, hour: 19,
			channel: notification.ChannelWeekly,
			title:   "Weekly Recap 📈",
			body: fmt.Sprintf("Great week! You maintained a %d-day streak and hit your goals %d times!",
				prog.Streak, prog.WeeklyGoalsMet),
		})
	}
	return plans
}

// nextFireTime resolves a slot's clock time for "today", rolling exactly one
// calendar day forward when that time has already passed.
func nextFireTime(now time.Time, hour, minute int) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}

// immediateID derives a one-shot notification ID outside the fixed slot range.
func immediateID() int {
	return int(uuid.New().ID()%9000) + 1000
}
