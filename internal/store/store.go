package store

import "sync"

// Fixed keys for the persisted blobs. Kept as the client's original
// localStorage keys so an exported local-state dump imports cleanly.
const (
	KeyNotificationSettings  = "vitaltrack_notification_settings"
	KeyLastNotifications     = "vitaltrack_last_notifications"
	KeyWaterLogs             = "vitaltrack_water_logs"
	KeyFoodLogs              = "vitaltrack_food_logs"
	KeyUserProfile           = "vitaltrack_user_profile"
	KeyDeviceTokens          = "vitaltrack_device_tokens"
	KeyFirstTimeTooltipShown = "ai_scan_first_time_tooltip_shown"
	KeyLastScanDate          = "ai_scan_last_used_date"
	KeyReengagementShown     = "ai_scan_reengagement_shown_date"
	KeyMealBannerDismissed   = "ai_scan_meal_banner_dismissed"
)

// KVStore is the persistence contract for the policy layer: JSON-serializable
// blobs under fixed string keys, no transactionality across keys. Read errors
// in implementations surface as "absent" so callers substitute defaults.
type KVStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryStore is the in-process implementation, used in tests and as the
// fallback when no persistence backend is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
