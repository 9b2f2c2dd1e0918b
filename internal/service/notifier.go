package service

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lshigami/Bandicoots/config"
	"github.com/rs/zerolog/log"
)

// AttemptEvent is emitted after a submit or grade commits. Delivery is
// fire-and-forget: a failure is reported in the operation result but never
// rolls back the scoring transaction.
type AttemptEvent struct {
	Event         string    `json:"event"` // "attempt_submitted" | "attempt_graded"
	QuizID        uint      `json:"quiz_id"`
	UserID        uint      `json:"user_id"`
	AttemptID     uint      `json:"attempt_id"`
	AttemptNumber int       `json:"attempt_number"`
	TotalScore    int       `json:"total_score"`
	Passed        bool      `json:"passed"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Notification delivery statuses surfaced on operation results.
const (
	NotificationSent    = "sent"
	NotificationSkipped = "skipped"
	NotificationFailed  = "failed"
)

type Notifier interface {
	// Notify returns the delivery status and never a caller-facing error.
	Notify(event AttemptEvent) string
}

type webhookNotifier struct {
	client *resty.Client
	url    string
}

func NewWebhookNotifier(cfg *config.Config) Notifier {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0)
	return &webhookNotifier{client: client, url: cfg.Notification.WebhookURL}
}

func (n *webhookNotifier) Notify(event AttemptEvent) string {
	if n.url == "" {
		return NotificationSkipped
	}

	resp, err := n.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(event).
		Post(n.url)
	if err != nil {
		log.Warn().Err(err).Str("event", event.Event).Uint("attemptID", event.AttemptID).Msg("Notification delivery failed")
		return NotificationFailed
	}
	if resp.IsError() {
		log.Warn().Int("status", resp.StatusCode()).Str("event", event.Event).Uint("attemptID", event.AttemptID).Msg("Notification endpoint returned an error")
		return NotificationFailed
	}
	return NotificationSent
}
