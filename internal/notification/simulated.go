package notification

import (
	"context"
	"sort"
	"sync"

	"vitalTrackAPI/internal/types/notification"
)

// SimulatedSink stands in on platforms without native notification support:
// every call succeeds, nothing ever fires. It records each Schedule call so
// tests and the web preview can observe what would have been dispatched.
type SimulatedSink struct {
	mu         sync.Mutex
	permission notification.Permission
	pending    map[int]notification.ScheduledNotification
	history    []notification.ScheduledNotification
}

func NewSimulatedSink() *SimulatedSink {
	return &SimulatedSink{
		permission: notification.PermissionGranted,
		pending:    make(map[int]notification.ScheduledNotification),
	}
}

// SetPermission overrides the reported permission state, e.g. to exercise
// the denied path.
func (s *SimulatedSink) SetPermission(p notification.Permission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permission = p
}

func (s *SimulatedSink) Schedule(_ context.Context, n notification.ScheduledNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[n.ID] = n
	s.history = append(s.history, n)
	return nil
}

func (s *SimulatedSink) Cancel(_ context.Context, ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.pending, id)
	}
	return nil
}

func (s *SimulatedSink) ListPending(_ context.Context) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *SimulatedSink) CheckPermission(context.Context) notification.Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permission
}

func (s *SimulatedSink) RequestPermission(ctx context.Context) notification.Permission {
	return s.CheckPermission(ctx)
}

// Pending returns the current pending set ordered by ID.
func (s *SimulatedSink) Pending() []notification.ScheduledNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]notification.ScheduledNotification, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.pending[id])
	}
	return out
}

// History returns every Schedule call in order, including cancelled entries.
func (s *SimulatedSink) History() []notification.ScheduledNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notification.ScheduledNotification, len(s.history))
	copy(out, s.history)
	return out
}
