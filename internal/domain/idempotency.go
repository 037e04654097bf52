package domain

import "time"

// Idempotency records the outcome of a message ingestion performed under an
// Idempotency-Key, keyed by (topic_id, key). A live record lets a retried
// request be answered without persisting or relaying the message again.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	TopicID   string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_topic_key,priority:1"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_topic_key,priority:2"`
	MessageID uint      `gorm:"type:INTEGER NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
