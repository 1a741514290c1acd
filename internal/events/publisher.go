package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learning-gap-api/internal/observability"
)

// Event types emitted by the services.
const (
	TypeContentUploaded   = "content.uploaded"
	TypeCatalogUpdated    = "catalog.updated"
	TypeAssignmentCreated = "assignment.created"
	TypeSubmissionCreated = "submission.created"
	TypeRiskAssessed      = "risk.assessed"
)

// Event is the envelope written to every broker.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Source     string          `json:"source"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Publisher delivers domain events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// BrokerPublisher fans events out to a Redis pub/sub channel and a NATS
// subject. Either broker may be nil; with both nil Publish does nothing.
type BrokerPublisher struct {
	redis   *redis.Client
	channel string
	nats    *nats.Conn
	subject string
	nodeID  string
	logger  zerolog.Logger
	now     func() time.Time
}

// NewBrokerPublisher derives the channel "<base>:events" and the subject
// "<base with dots>.events" from base.
func NewBrokerPublisher(redisClient *redis.Client, natsConn *nats.Conn, base string, logger zerolog.Logger) *BrokerPublisher {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "learngap"
	}

	return &BrokerPublisher{
		redis:   redisClient,
		channel: base + ":events",
		nats:    natsConn,
		subject: strings.ReplaceAll(base, ":", ".") + ".events",
		nodeID:  uuid.NewString(),
		logger:  logger.With().Str("component", "event_publisher").Logger(),
		now:     time.Now,
	}
}

// Channel returns the Redis channel events are published on.
func (p *BrokerPublisher) Channel() string {
	return p.channel
}

// Subject returns the NATS subject events are published on.
func (p *BrokerPublisher) Subject() string {
	return p.subject
}

// Publish encodes payload into an Event and sends it to every configured
// broker. Failures of individual brokers are joined into the returned error.
func (p *BrokerPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	if p.redis == nil && p.nats == nil {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}

	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Source:     p.nodeID,
		OccurredAt: p.now().UTC(),
		Payload:    body,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	var errs []error
	if p.redis != nil {
		if err := p.redis.Publish(ctx, p.channel, data).Err(); err != nil {
			observability.EventPublishFailures().WithLabelValues("redis").Inc()
			errs = append(errs, fmt.Errorf("redis publish: %w", err))
		}
	}

	if p.nats != nil {
		if err := p.nats.Publish(p.subject, data); err != nil {
			observability.EventPublishFailures().WithLabelValues("nats").Inc()
			errs = append(errs, fmt.Errorf("nats publish: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	p.logger.Debug().Str("event_type", eventType).Str("event_id", event.ID).Msg("event published")
	return nil
}
