// Package services – TopicService
//
// This file implements TopicService, the registry of topics. It normalizes
// and validates names and, when a notification config is supplied, verifies
// the provider credential once before anything is persisted. Topics are
// append-only: there is no update or delete.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-topic-relay/internal/domain"
	"github.com/tbourn/go-topic-relay/internal/notify"
)

// DefaultTopicNameMaxLen matches the width of topics.name.
const DefaultTopicNameMaxLen = 255

// TopicRepo defines the repository contract required by TopicService.
type TopicRepo interface {
	// CreateTopic inserts a topic; config is nil for a non-notifying topic.
	CreateTopic(ctx context.Context, db *gorm.DB, name string, config domain.JSON) (*domain.Topic, error)

	// GetTopic fetches a topic by id or returns gorm.ErrRecordNotFound.
	GetTopic(ctx context.Context, db *gorm.DB, id string) (*domain.Topic, error)
}

// CredentialChecker verifies a provider credential. *notify.Client
// implements it.
type CredentialChecker interface {
	CheckLiveness(ctx context.Context, credential string) (bool, error)
}

// TopicService creates and resolves topics.
type TopicService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the topic repository used by this service.
	Repo TopicRepo
	// Checker validates credentials at creation time.
	Checker CredentialChecker

	// NameMaxLen caps names by rune length.
	NameMaxLen int
}

// NewTopicService constructs a TopicService with default name limits.
func NewTopicService(db *gorm.DB, r TopicRepo, checker CredentialChecker) *TopicService {
	return &TopicService{
		DB:         db,
		Repo:       r,
		Checker:    checker,
		NameMaxLen: DefaultTopicNameMaxLen,
	}
}

// Create registers a topic. With cfg == nil the topic never notifies. With a
// config, the credential must pass exactly one liveness check; a rejected or
// unreachable credential fails creation and nothing is stored.
func (s *TopicService) Create(ctx context.Context, name string, cfg *notify.Config) (*domain.Topic, error) {
	tr := otel.Tracer("services/TopicService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.Bool("topic.notifies", cfg != nil)),
	)
	defer span.End()

	name, err := s.normalizeName(name)
	if err != nil {
		return nil, err
	}

	var stored domain.JSON
	if cfg != nil {
		if stored, err = s.verify(ctx, *cfg); err != nil {
			span.SetStatus(codes.Error, "credential check failed")
			return nil, err
		}
	}

	t, err := s.Repo.CreateTopic(ctx, s.DB, name, stored)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create topic")
		return nil, err
	}
	span.SetAttributes(attribute.String("topic.id", t.ID))
	return t, nil
}

// verify runs the liveness check and returns the serialized config.
func (s *TopicService) verify(ctx context.Context, cfg notify.Config) (domain.JSON, error) {
	lg := zerolog.Ctx(ctx)

	if err := cfg.Validate(); err != nil {
		lg.Info().Err(err).Msg("notification config incomplete")
		return nil, fmt.Errorf("%w: %v", ErrCredentialRejected, err)
	}
	if s.Checker == nil {
		return nil, fmt.Errorf("%w: no credential checker configured", ErrCredentialUnreachable)
	}

	alive, err := s.Checker.CheckLiveness(ctx, cfg.Credential)
	switch {
	case err != nil:
		lg.Warn().Err(err).Msg("credential liveness check could not reach provider")
		return nil, fmt.Errorf("%w: %v", ErrCredentialUnreachable, err)
	case !alive:
		lg.Info().Msg("credential rejected by provider")
		return nil, ErrCredentialRejected
	}

	raw, err := cfg.Encode()
	if err != nil {
		return nil, err
	}
	return domain.JSON(raw), nil
}

// Get resolves a topic by id. Absent and malformed ids both yield
// ErrTopicNotFound.
func (s *TopicService) Get(ctx context.Context, id string) (*domain.Topic, error) {
	tr := otel.Tracer("services/TopicService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("topic.id", id)),
	)
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrTopicNotFound
	}
	t, err := s.Repo.GetTopic(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopicNotFound
		}
		span.RecordError(err)
		return nil, err
	}
	return t, nil
}

// normalizeName applies NFC, trims surrounding whitespace and enforces the
// length cap.
func (s *TopicService) normalizeName(name string) (string, error) {
	name = strings.TrimSpace(norm.NFC.String(name))
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidTopicName)
	}
	limit := s.NameMaxLen
	if limit <= 0 {
		limit = DefaultTopicNameMaxLen
	}
	if utf8.RuneCountInString(name) > limit {
		return "", fmt.Errorf("%w: name exceeds %d characters", ErrInvalidTopicName, limit)
	}
	return name, nil
}
