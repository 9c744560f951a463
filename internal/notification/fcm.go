package notification

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"vitalTrackAPI/internal/types/notification"
)

// FCMSink is the native-platform sink: it holds the pending set in memory and
// pushes due entries to the user's registered devices through Firebase Cloud
// Messaging once per minute.
type FCMSink struct {
	client *messaging.Client
	tokens func() []string

	mu      sync.Mutex
	pending map[int]notification.ScheduledNotification
}

// NewFCMSink initializes the messaging client. Credentials come from the
// FCM_SERVICE_ACCOUNT_JSON environment variable (Base64 encoded) with a local
// service account key file as fallback.
func NewFCMSink(localFilePath string, tokens func() []string) (*FCMSink, error) {
	var opt option.ClientOption

	encodedCreds := os.Getenv("FCM_SERVICE_ACCOUNT_JSON")
	if encodedCreds != "" {
		decoded, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 firebase credentials: %w", err)
		}
		opt = option.WithCredentialsJSON(decoded)
		log.Println("FCM sink: initializing from FCM_SERVICE_ACCOUNT_JSON")
	} else {
		if _, err := os.Stat(localFilePath); os.IsNotExist(err) {
			return nil, fmt.Errorf("firebase credentials file not found: %s, and FCM_SERVICE_ACCOUNT_JSON is not set", localFilePath)
		}
		opt = option.WithCredentialsFile(localFilePath)
		log.Printf("FCM sink: initializing from local file %s", localFilePath)
	}

	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMSink{
		client:  client,
		tokens:  tokens,
		pending: make(map[int]notification.ScheduledNotification),
	}, nil
}

func (s *FCMSink) Schedule(_ context.Context, n notification.ScheduledNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[n.ID] = n
	return nil
}

func (s *FCMSink) Cancel(_ context.Context, ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.pending, id)
	}
	return nil
}

func (s *FCMSink) ListPending(_ context.Context) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// CheckPermission reports granted once the messaging client exists; FCM has
// no server-side permission prompt, the device opt-in happens on the client.
func (s *FCMSink) CheckPermission(context.Context) notification.Permission {
	if s.client == nil {
		return notification.PermissionDefault
	}
	return notification.PermissionGranted
}

func (s *FCMSink) RequestPermission(ctx context.Context) notification.Permission {
	return s.CheckPermission(ctx)
}

// Start runs the due-dispatch loop until the context is cancelled.
func (s *FCMSink) Start(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.dispatchDue(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *FCMSink) dispatchDue(ctx context.Context) {
	now := time.Now()

	s.mu.Lock()
	var due []notification.ScheduledNotification
	for id, n := range s.pending {
		if !n.FireAt.After(now) {
			due = append(due, n)
			delete(s.pending, id)
		}
	}
	s.mu.Unlock()

	for _, n := range due {
		sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := s.send(sendCtx, n); err != nil {
			log.Printf("FCM: failed to dispatch notification %d: %v", n.ID, err)
		}
		cancel()
	}
}

func (s *FCMSink) send(ctx context.Context, n notification.ScheduledNotification) error {
	tokens := s.tokens()
	if len(tokens) == 0 {
		log.Printf("FCM: no registered devices, dropping notification %d", n.ID)
		return nil
	}

	successCount := 0
	failureCount := 0
	for _, token := range tokens {
		message := &messaging.Message{
			Token: token,
			Notification: &messaging.Notification{
				Title: n.Title,
				Body:  n.Body,
			},
			Data: map[string]string{
				"channel": string(n.Channel),
			},
			Android: &messaging.AndroidConfig{
				Priority: "high",
				Notification: &messaging.AndroidNotification{
					Sound:     "default",
					ChannelID: string(n.Channel),
				},
			},
		}

		if _, err := s.client.Send(ctx, message); err != nil {
			log.Printf("FCM: failed to send to token %s: %v", token, err)
			failureCount++
		} else {
			successCount++
		}
	}

	log.Printf("FCM: sent %d messages, %d failed", successCount, failureCount)
	if successCount == 0 && failureCount > 0 {
		return fmt.Errorf("all push notifications failed")
	}
	return nil
}
