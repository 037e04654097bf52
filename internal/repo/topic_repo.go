// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Topic model.
//
// Error semantics:
//   - A missing topic is reported as ErrNotFound (gorm.ErrRecordNotFound).
//   - Any other DB error is propagated raw; callers treat it as an opaque
//     operation failure.
//
// Topics are append-only: there is no update or delete function.
package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-topic-relay/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateTopic inserts a topic with a fresh UUID. config is the serialized
// notification config, or nil for a topic that never notifies.
func CreateTopic(ctx context.Context, db *gorm.DB, name string, config domain.JSON) (*domain.Topic, error) {
	t := &domain.Topic{
		ID:                 uuid.NewString(),
		Name:               name,
		NotificationConfig: config,
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// GetTopic fetches a topic by id, or ErrNotFound.
func GetTopic(ctx context.Context, db *gorm.DB, id string) (*domain.Topic, error) {
	var t domain.Topic
	if err := db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}
