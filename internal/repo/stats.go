// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-topic-relay/internal/domain"
)

// MessagesStats returns the number of messages in a topic and the newest
// created_at among them. Messages are immutable, so the pair changes exactly
// when a message is added.
//
// When the topic has no messages, count is 0 and newest is nil.
func MessagesStats(ctx context.Context, db *gorm.DB, topicID string) (count int64, newest *time.Time, err error) {
	base := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.Message{}).Where("topic_id = ?", topicID)
	}

	if err = base().Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = base().Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
