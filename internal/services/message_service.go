// Package services – MessageService
//
// This file implements MessageService, which owns message ingestion and
// listing. Ingestion persists unconditionally and, for topics with a
// notification config, hands a job to the notification dispatcher. It never
// waits for delivery and never fails because of it.
//
// Observability: public methods are OpenTelemetry-instrumented with the
// topic id (and message id once assigned).
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-topic-relay/internal/domain"
	"github.com/tbourn/go-topic-relay/internal/notify"
	"github.com/tbourn/go-topic-relay/internal/repo"
)

// TopicLookup resolves topics for MessageService. *TopicService implements it.
type TopicLookup interface {
	Get(ctx context.Context, id string) (*domain.Topic, error)
}

// Enqueuer accepts notification jobs without waiting for them.
// *notify.Dispatcher implements it.
type Enqueuer interface {
	Enqueue(ctx context.Context, n notify.Notification) error
}

// MessageService coordinates message persistence and notification handoff.
type MessageService struct {
	DB     *gorm.DB
	Topics TopicLookup
	// Dispatcher may be nil, in which case no notifications are sent.
	Dispatcher Enqueuer
}

// Ingest stores a message for topicID and, when the topic notifies, queues
// the notification. It returns once the message is durable; delivery
// outcomes are never reported back.
func (s *MessageService) Ingest(ctx context.Context, topicID string, contacts domain.JSON, text string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Ingest",
		trace.WithAttributes(attribute.String("topic.id", topicID)),
	)
	defer span.End()

	if contacts.IsEmpty() {
		return nil, ErrInvalidContacts
	}

	topic, err := s.Topics.Get(ctx, topicID)
	if err != nil {
		return nil, err
	}

	m, err := repo.CreateMessage(ctx, s.DB, topic.ID, contacts, text)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTopicNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist message")
		return nil, err
	}
	span.SetAttributes(attribute.Int64("message.id", int64(m.ID)))

	s.notify(ctx, topic, m)
	return m, nil
}

// notify queues the relay for m. Problems are logged and swallowed.
func (s *MessageService) notify(ctx context.Context, topic *domain.Topic, m *domain.Message) {
	if !topic.CanNotify() || s.Dispatcher == nil {
		return
	}
	lg := zerolog.Ctx(ctx).With().
		Str("topic_id", topic.ID).
		Uint("message_id", m.ID).
		Logger()

	cfg, err := notify.DecodeConfig(topic.NotificationConfig)
	if err != nil {
		lg.Warn().Err(err).Msg("stored notification config unusable; message not relayed")
		return
	}

	err = s.Dispatcher.Enqueue(ctx, notify.Notification{
		MessageID: m.ID,
		TopicID:   topic.ID,
		TopicName: topic.Name,
		Config:    cfg,
		Text:      m.Text,
		Contacts:  []byte(m.Contacts),
	})
	if err != nil {
		lg.Warn().Err(err).Msg("could not queue notification")
	}
}

// List returns the topic's messages newest first. limit <= 0 means all.
func (s *MessageService) List(ctx context.Context, topicID string, limit int) ([]domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("topic.id", topicID),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	if _, err := s.Topics.Get(ctx, topicID); err != nil {
		return nil, err
	}
	return repo.ListMessages(ctx, s.DB, topicID, limit)
}

// Stats returns the message count and newest timestamp for topicID, used to
// derive listing ETags.
func (s *MessageService) Stats(ctx context.Context, topicID string) (int64, *time.Time, error) {
	return repo.MessagesStats(ctx, s.DB, topicID)
}
