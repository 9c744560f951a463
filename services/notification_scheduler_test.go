package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitalTrackAPI/internal/clock"
	sink "vitalTrackAPI/internal/notification"
	"vitalTrackAPI/internal/store"
	"vitalTrackAPI/internal/types/notification"
)

func newTestScheduler(now time.Time) (*NotificationScheduler, *sink.SimulatedSink, *store.MemoryStore, *clock.Fake) {
	kv := store.NewMemoryStore()
	sim := sink.NewSimulatedSink()
	clk := clock.NewFake(now)
	prog := NewProgressService(kv, clk)
	mot := NewMotivationService("", "")
	sched := NewNotificationScheduler(kv, sim, prog, mot, clk)
	return sched, sim, kv, clk
}

func enable(t *testing.T, sched *NotificationScheduler) {
	t.Helper()
	settings, err := sched.Enable(context.Background())
	require.NoError(t, err)
	require.True(t, settings.Enabled)
}

func TestRescheduleWeekdaySlots(t *testing.T) {
	// Monday morning, before any slot time.
	monday := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	sched, sim, _, _ := newTestScheduler(monday)
	enable(t, sched)

	pending := sim.Pending()
	require.Len(t, pending, 6)

	byID := map[int]notification.ScheduledNotification{}
	for _, n := range pending {
		byID[n.ID] = n
	}

	assert.Equal(t, 9, byID[notification.IDAIMotivation].FireAt.Hour())
	assert.Equal(t, 10, byID[notification.IDWater10AM].FireAt.Hour())
	assert.Equal(t, 12, byID[notification.IDCheckIn12PM].FireAt.Hour())
	assert.Equal(t, 14, byID[notification.IDWater2PM].FireAt.Hour())
	assert.Equal(t, 18, byID[notification.IDWater6PM].FireAt.Hour())
	assert.Equal(t, 20, byID[notification.IDCheckIn8PM].FireAt.Hour())

	// All today: nothing has passed yet.
	for _, n := range pending {
		assert.Equal(t, monday.Day(), n.FireAt.Day(), "slot %d", n.ID)
	}

	_, hasRecap := byID[notification.IDWeeklyRecap]
	assert.False(t, hasRecap, "weekly recap must only appear on Sundays")
}

func TestRescheduleSundayIncludesWeeklyRecap(t *testing.T) {
	sunday := time.Date(2026, 8, 23, 8, 0, 0, 0, time.UTC)
	sched, sim, kv, _ := newTestScheduler(sunday)

	profile := `{"goals": {"waterGoal": 2000, "calorieGoal": 2000}, "streak": 5}`
	require.NoError(t, kv.Set(store.KeyUserProfile, profile))

	enable(t, sched)

	pending := sim.Pending()
	require.Len(t, pending, 7)

	var recap *notification.ScheduledNotification
	for i := range pending {
		if pending[i].ID == notification.IDWeeklyRecap {
			recap = &pending[i]
		}
	}
	require.NotNil(t, recap)
	assert.Equal(t, 19, recap.FireAt.Hour())
	assert.Equal(t, "Great week! You maintained a 5-day streak and hit your goals 5 times!", recap.Body)
}

func TestRescheduleIsIdempotent(t *testing.T) {
	monday := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	sched, sim, _, _ := newTestScheduler(monday)
	enable(t, sched)

	first := sim.Pending()
	sched.Reschedule(context.Background())
	second := sim.Pending()

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.True(t, first[i].FireAt.Equal(second[i].FireAt), "slot %d fire time drifted", first[i].ID)
	}
}

func TestReschedulePassedSlotsRollOneDay(t *testing.T) {
	// Mid-afternoon: the 9:00, 10:00, 12:00 and 14:00 slots are already past.
	monday := time.Date(2026, 8, 24, 15, 0, 0, 0, time.UTC)
	sched, sim, _, _ := newTestScheduler(monday)
	enable(t, sched)

	for _, n := range sim.Pending() {
		assert.True(t, n.FireAt.After(monday), "slot %d scheduled in the past", n.ID)
		switch n.ID {
		case notification.IDAIMotivation, notification.IDWater10AM, notification.IDCheckIn12PM, notification.IDWater2PM:
			assert.Equal(t, monday.Day()+1, n.FireAt.Day(), "slot %d should roll to tomorrow", n.ID)
		default:
			assert.Equal(t, monday.Day(), n.FireAt.Day(), "slot %d should stay today", n.ID)
		}
	}
}

func TestRescheduleRespectsChannelFlags(t *testing.T) {
	monday := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	sched, sim, _, _ := newTestScheduler(monday)
	enable(t, sched)

	off := false
	_, err := sched.UpdateSettings(context.Background(), notification.UpdateSettingsRequest{
		WaterReminders: &off,
	})
	require.NoError(t, err)

	pending := sim.Pending()
	require.Len(t, pending, 3)
	for _, n := range pending {
		assert.NotEqual(t, notification.ChannelWater, n.Channel)
	}
}

func TestRescheduleNoopWhenDisabled(t *testing.T) {
	monday := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	sched, sim, _, _ := newTestScheduler(monday)

	scheduled := sched.Reschedule(context.Background())
	assert.Empty(t, scheduled)
	assert.Empty(t, sim.Pending())
}

func TestDisableCancelsEverything(t *testing.T) {
	monday := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	sched, sim, _, _ := newTestScheduler(monday)
	enable(t, sched)
	require.NotEmpty(t, sim.Pending())

	settings, err := sched.Disable(context.Background())
	require.NoError(t, err)
	assert.False(t, settings.Enabled)
	assert.Empty(t, sim.Pending())
}

func TestEnableWithDeniedPermission(t *testing.T) {
	monday := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	sched, sim, kv, _ := newTestScheduler(monday)
	sim.SetPermission(notification.PermissionDenied)

	settings, err := sched.Enable(context.Background())
	require.NoError(t, err)
	assert.False(t, settings.Enabled)
	assert.Empty(t, sim.Pending())

	// The denial is persisted, not just reported.
	raw, ok := kv.Get(store.KeyNotificationSettings)
	require.True(t, ok)
	assert.Contains(t, raw, `"enabled":false`)
}

func TestSendNowThrottlesPerTag(t *testing.T) {
	monday := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	sched, sim, _, clk := newTestScheduler(monday)
	enable(t, sched)
	baseline := len(sim.History())

	assert.True(t, sched.SendNow(context.Background(), "Hi", "First", "greeting"))
	assert.False(t, sched.SendNow(context.Background(), "Hi", "Second", "greeting"))
	assert.Len(t, sim.History(), baseline+1)

	// A different tag is unaffected.
	assert.True(t, sched.SendNow(context.Background(), "Hi", "Other", "reminder"))

	// Past the window the original tag fires again.
	clk.Advance(31 * time.Minute)
	assert.True(t, sched.SendNow(context.Background(), "Hi", "Third", "greeting"))
	assert.Len(t, sim.History(), baseline+3)
}

func TestSendNowSuppressionKeepsOriginalTimestamp(t *testing.T) {
	monday := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	sched, _, _, clk := newTestScheduler(monday)
	enable(t, sched)

	assert.True(t, sched.SendNow(context.Background(), "Hi", "First", "greeting"))

	// A suppressed attempt must not refresh the window.
	clk.Advance(20 * time.Minute)
	assert.False(t, sched.SendNow(context.Background(), "Hi", "Second", "greeting"))
	clk.Advance(11 * time.Minute)
	assert.True(t, sched.SendNow(context.Background(), "Hi", "Third", "greeting"))
}

func TestSendNowRequiresEnabled(t *testing.T) {
	monday := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	sched, sim, _, _ := newTestScheduler(monday)

	assert.False(t, sched.SendNow(context.Background(), "Hi", "Body", "tag"))
	assert.Empty(t, sim.History())
}

func TestSendTest(t *testing.T) {
	monday := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	sched, sim, _, _ := newTestScheduler(monday)

	msg, sent := sched.SendTest(context.Background())
	require.True(t, sent)
	assert.NotEmpty(t, msg)

	history := sim.History()
	require.Len(t, history, 1)
	assert.Equal(t, notification.IDTest, history[0].ID)
	assert.Equal(t, "VitalTrack Test ✨", history[0].Title)
	assert.Equal(t, msg, history[0].Body)
}

func TestSendTestDeniedPermission(t *testing.T) {
	monday := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	sched, sim, _, _ := newTestScheduler(monday)
	sim.SetPermission(notification.PermissionDenied)

	_, sent := sched.SendTest(context.Background())
	assert.False(t, sent)
	assert.Empty(t, sim.History())
}

func TestRegisterDeviceDeduplicates(t *testing.T) {
	monday := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	sched, _, kv, clk := newTestScheduler(monday)

	require.NoError(t, sched.RegisterDevice("token-a", "android"))
	clk.Advance(time.Hour)
	require.NoError(t, sched.RegisterDevice("token-a", "android"))
	require.NoError(t, sched.RegisterDevice("token-b", "ios"))

	tokens := sink.StoreTokenSource(kv)()
	assert.Equal(t, []string{"token-a", "token-b"}, tokens)

	assert.Error(t, sched.RegisterDevice("", "android"))
}

func TestSettingsDefaultsOnCorruptBlob(t *testing.T) {
	monday := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	sched, _, kv, _ := newTestScheduler(monday)

	require.NoError(t, kv.Set(store.KeyNotificationSettings, "{broken"))

	settings := sched.Settings()
	assert.Equal(t, notification.DefaultSettings(), settings)
}
