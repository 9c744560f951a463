package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"vitalTrackAPI/internal/clock"
	"vitalTrackAPI/internal/store"
	"vitalTrackAPI/internal/types/discovery"
	"vitalTrackAPI/utils"
)

const (
	reengagementIdleDays     = 3
	reengagementCooldownDays = 7
)

// DiscoveryEngine decides which onboarding nudge (if any) to surface. Four
// layers are evaluated in strict priority; the first-time tooltip being
// active forces everything else off. Meal windows are pure functions of
// wall-clock time, so the state is re-evaluated once per minute in addition
// to event-driven triggers.
type DiscoveryEngine struct {
	mu       sync.RWMutex
	store    store.KVStore
	progress *ProgressService
	clock    clock.Clock
	state    discovery.State
}

func NewDiscoveryEngine(kv store.KVStore, prog *ProgressService, clk clock.Clock) *DiscoveryEngine {
	e := &DiscoveryEngine{
		store:    kv,
		progress: prog,
		clock:    clk,
	}
	e.Refresh()
	return e
}

// Start runs the minute re-evaluation loop until the context is cancelled.
func (e *DiscoveryEngine) Start(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.Refresh()
		case <-ctx.Done():
			return
		}
	}
}

// State returns the last evaluated discovery state.
func (e *DiscoveryEngine) State() discovery.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Refresh recomputes the full state from persisted flags and the clock.
func (e *DiscoveryEngine) Refresh() discovery.State {
	next := e.evaluate()
	e.mu.Lock()
	e.state = next
	e.mu.Unlock()
	return next
}

func (e *DiscoveryEngine) evaluate() discovery.State {
	now := e.clock.Now()

	// Layer 1: first-time tooltip, active until the shown flag is persisted.
	_, tooltipShown := e.store.Get(store.KeyFirstTimeTooltipShown)
	showTooltip := !tooltipShown

	// Layer 2: re-engagement after 3 idle days, at most once per 7 days.
	showReengagement := false
	if !showTooltip {
		if lastUsed, ok := e.parseTimestamp(store.KeyLastScanDate); ok {
			if daysBetween(lastUsed, now) >= reengagementIdleDays {
				if lastShown, ok := e.parseTimestamp(store.KeyReengagementShown); ok {
					showReengagement = daysBetween(lastShown, now) >= reengagementCooldownDays
				} else {
					showReengagement = true
				}
			}
		}
	}

	// Layer 3: empty-state card when nothing was logged today.
	showEmptyState := !e.progress.HasMealsToday() && !showTooltip

	// Layer 4: meal-time banner, unless dismissed for this window today.
	window := discovery.WindowAt(now.Hour())
	showMealBanner := window != discovery.MealWindowNone &&
		!e.bannerDismissedFor(window, now) &&
		!showTooltip

	return discovery.State{
		ShowFirstTimeTooltip:       showTooltip,
		ShowReengagementSuggestion: showReengagement,
		ShowEmptyStateCard:         showEmptyState,
		ShowMealTimeBanner:         showMealBanner,
		CurrentMealWindow:          window,
	}
}

// DismissFirstTimeTooltip persists the shown flag and flips only the tooltip
// layer; lower layers activate on the next evaluation, not synchronously.
func (e *DiscoveryEngine) DismissFirstTimeTooltip() error {
	if err := e.store.Set(store.KeyFirstTimeTooltipShown, "true"); err != nil {
		return fmt.Errorf("failed to persist tooltip dismissal: %w", err)
	}
	e.mu.Lock()
	e.state.ShowFirstTimeTooltip = false
	e.mu.Unlock()
	return nil
}

func (e *DiscoveryEngine) DismissReengagement() error {
	now := e.clock.Now().Format(time.RFC3339)
	if err := e.store.Set(store.KeyReengagementShown, now); err != nil {
		return fmt.Errorf("failed to persist re-engagement dismissal: %w", err)
	}
	e.mu.Lock()
	e.state.ShowReengagementSuggestion = false
	e.mu.Unlock()
	return nil
}

// DismissMealBanner records the dismissal for the current window and date.
func (e *DiscoveryEngine) DismissMealBanner() error {
	now := e.clock.Now()
	if window := discovery.WindowAt(now.Hour()); window != discovery.MealWindowNone {
		record := discovery.MealBannerDismissal{
			Date:   utils.DateKey(now),
			Window: window,
		}
		raw, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal dismissal record: %w", err)
		}
		if err := e.store.Set(store.KeyMealBannerDismissed, string(raw)); err != nil {
			return fmt.Errorf("failed to persist dismissal record: %w", err)
		}
	}
	e.mu.Lock()
	e.state.ShowMealTimeBanner = false
	e.mu.Unlock()
	return nil
}

// RecordScanUsage marks the feature as used right now, which also retires the
// first-time tooltip permanently.
func (e *DiscoveryEngine) RecordScanUsage() error {
	now := e.clock.Now()
	if err := e.store.Set(store.KeyLastScanDate, now.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to persist scan usage: %w", err)
	}
	if _, ok := e.store.Get(store.KeyFirstTimeTooltipShown); !ok {
		if err := e.store.Set(store.KeyFirstTimeTooltipShown, "true"); err != nil {
			return fmt.Errorf("failed to persist tooltip flag: %w", err)
		}
	}
	e.mu.Lock()
	e.state.ShowFirstTimeTooltip = false
	e.state.ShowReengagementSuggestion = false
	e.state.ShowEmptyStateCard = false
	e.mu.Unlock()
	return nil
}

// OnFoodLogged flips only the empty-state layer off.
func (e *DiscoveryEngine) OnFoodLogged() {
	e.mu.Lock()
	e.state.ShowEmptyStateCard = false
	e.mu.Unlock()
}

func (e *DiscoveryEngine) parseTimestamp(key string) (time.Time, bool) {
	raw, ok := e.store.Get(key)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		log.Printf("Failed to parse timestamp under %s, treating as absent: %v", key, err)
		return time.Time{}, false
	}
	return t, true
}

func (e *DiscoveryEngine) bannerDismissedFor(window discovery.MealWindow, now time.Time) bool {
	raw, ok := e.store.Get(store.KeyMealBannerDismissed)
	if !ok {
		return false
	}
	var record discovery.MealBannerDismissal
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return false
	}
	return record.Date == utils.DateKey(now) && record.Window == window
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
