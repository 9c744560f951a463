package notification

import (
	"context"
	"encoding/json"
	"log"

	"vitalTrackAPI/internal/store"
	"vitalTrackAPI/internal/types/notification"
)

// Sink is the platform notification capability the scheduler dispatches
// through. Implementations must be safe for concurrent use and must tolerate
// running on platforms without native notification support.
type Sink interface {
	Schedule(ctx context.Context, n notification.ScheduledNotification) error
	Cancel(ctx context.Context, ids []int) error
	ListPending(ctx context.Context) ([]int, error)
	CheckPermission(ctx context.Context) notification.Permission
	RequestPermission(ctx context.Context) notification.Permission
}

// StoreTokenSource reads registered device tokens from the preference store.
// Parse failures degrade to an empty list.
func StoreTokenSource(kv store.KVStore) func() []string {
	return func() []string {
		raw, ok := kv.Get(store.KeyDeviceTokens)
		if !ok {
			return nil
		}
		var tokens []notification.DeviceToken
		if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
			log.Printf("Failed to parse device tokens: %v", err)
			return nil
		}
		out := make([]string, 0, len(tokens))
		for _, t := range tokens {
			out = append(out, t.Token)
		}
		return out
	}
}
