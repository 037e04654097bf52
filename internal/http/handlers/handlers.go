// Package handlers implements the relay's HTTP endpoints.
//
// Handlers are transport-thin: they bind and validate input, call the
// application services and translate results (including service sentinel
// errors) into HTTP responses.
package handlers

import (
	"context"
	"time"

	"github.com/tbourn/go-topic-relay/internal/domain"
	"github.com/tbourn/go-topic-relay/internal/notify"
)

// TopicService is the topic registry consumed by the handlers.
type TopicService interface {
	// Create registers a topic, verifying cfg's credential when cfg is set.
	Create(ctx context.Context, name string, cfg *notify.Config) (*domain.Topic, error)
}

// MessageService covers ingestion and listing.
type MessageService interface {
	// Ingest persists a message and queues its notification, if any.
	Ingest(ctx context.Context, topicID string, contacts domain.JSON, text string) (*domain.Message, error)
	// List returns messages newest first; limit <= 0 means all.
	List(ctx context.Context, topicID string, limit int) ([]domain.Message, error)
	// Stats returns count and newest timestamp for ETag computation.
	Stats(ctx context.Context, topicID string) (int64, *time.Time, error)
}

// IdempotencyStore remembers which message an Idempotency-Key produced.
// Replays are detected earlier by middleware.IdempotencyValidator.
type IdempotencyStore interface {
	// Record stores the outcome of a successful ingestion.
	Record(ctx context.Context, topicID, key string, messageID uint, status int) error
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	topicSvc TopicService
	msgSvc   MessageService
	idem     IdempotencyStore
}

// New constructs Handlers. idem may be nil, in which case keys are never
// recorded.
func New(topicSvc TopicService, msgSvc MessageService, idem IdempotencyStore) *Handlers {
	return &Handlers{topicSvc: topicSvc, msgSvc: msgSvc, idem: idem}
}
