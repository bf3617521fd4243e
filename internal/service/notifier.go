package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classtrack-api/internal/observability"
)

const (
	// EventSubmissionGraded is published when a teacher grades a submission.
	EventSubmissionGraded = "submission.graded"
	// EventAttemptScored is published when a quiz attempt is scored.
	EventAttemptScored = "attempt.scored"
	// EventStandingEvaluated is published after a mutating standing evaluation.
	EventStandingEvaluated = "standing.evaluated"
)

// ProgressEvent describes a grading change other services may react to.
type ProgressEvent struct {
	Type        string    `json:"type"`
	StudentID   uint      `json:"student_id"`
	ClassroomID uint      `json:"classroom_id"`
	EntityID    uint      `json:"entity_id,omitempty"`
	Score       *float64  `json:"score,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	Source      string    `json:"source,omitempty"`
}

// Notifier publishes progress events. Delivery is fire-and-forget; grading
// never fails because a broker is down.
type Notifier interface {
	Publish(ctx context.Context, event ProgressEvent)
}

type brokerNotifier struct {
	redis   *redis.Client
	channel string
	nats    *nats.Conn
	subject string
	logger  zerolog.Logger
	nodeID  string
}

// NewBrokerNotifier constructs a Notifier fanning out to Redis pub/sub and
// NATS. Either client may be nil.
func NewBrokerNotifier(redisClient *redis.Client, channel string, natsConn *nats.Conn, subject string, logger zerolog.Logger) Notifier {
	return &brokerNotifier{
		redis:   redisClient,
		channel: channel,
		nats:    natsConn,
		subject: subject,
		logger:  logger.With().Str("component", "notifier").Logger(),
		nodeID:  uuid.NewString(),
	}
}

func (n *brokerNotifier) Publish(ctx context.Context, event ProgressEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	event.Source = n.nodeID

	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to encode progress event")
		return
	}

	if n.redis != nil && n.channel != "" {
		if err := n.redis.Publish(ctx, n.channel, payload).Err(); err != nil {
			n.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish progress event to redis")
		}
	}

	if n.nats != nil && n.subject != "" {
		if err := n.nats.Publish(n.subject, payload); err != nil {
			n.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish progress event to nats")
		}
	}

	observability.GradeEventsPublished().WithLabelValues(event.Type).Inc()
}
