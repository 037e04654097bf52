// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message model.
package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-topic-relay/internal/domain"
)

// CreateMessage inserts a message for topicID. The id and created_at are
// assigned by the store. If topicID does not reference an existing topic the
// foreign key rejects the insert and ErrNotFound is returned.
func CreateMessage(ctx context.Context, db *gorm.DB, topicID string, contacts domain.JSON, text string) (*domain.Message, error) {
	m := &domain.Message{
		TopicID:  topicID,
		Contacts: contacts,
		Text:     text,
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// ListMessages returns the topic's messages newest first (created_at DESC,
// id DESC as tie-breaker). A limit <= 0 returns all rows.
func ListMessages(ctx context.Context, db *gorm.DB, topicID string, limit int) ([]domain.Message, error) {
	out := []domain.Message{}
	q := db.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// isForeignKeyViolation detects FK failures across drivers that may not map
// to gorm.ErrForeignKeyViolated.
func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	// SQLite: "FOREIGN KEY constraint failed"; Postgres: "violates foreign key constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint")
}
