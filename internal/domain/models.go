// Package domain defines the persistence models for topics and the messages
// posted to them. These types are mapped with GORM and form the core data
// layer of the relay service.
package domain

import "time"

// Topic is a named inbox that messages are posted to. A topic may carry a
// notification config; when it does, every ingested message is also relayed
// to the configured chat.
//
// Fields:
//   - ID: UUID primary key (char(36)), generated at creation.
//   - Name: human-readable label, immutable after creation.
//   - NotificationConfig: stored provider config document, NULL when the
//     topic never notifies. It is decoded only at dispatch time.
//   - CreatedAt: insert timestamp managed by GORM.
//
// Topics are never updated or deleted.
type Topic struct {
	ID                 string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Name               string    `json:"name"       gorm:"type:varchar(255);not null"`
	NotificationConfig JSON      `json:"-"          gorm:"type:text"`
	CreatedAt          time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName returns the database table name for Topic.
func (Topic) TableName() string { return "topics" }

// CanNotify reports whether a notification config is attached to the topic.
func (t *Topic) CanNotify() bool { return t != nil && !t.NotificationConfig.IsNull() }

// Message is a single inbound submission for a topic.
//
// Fields:
//   - ID: auto-increment primary key assigned by the store.
//   - CreatedAt: assigned by the store at insert time; listing order key.
//   - Contacts: opaque JSON supplied by the sender.
//   - Text: free-form body.
//   - TopicID: foreign key to the owning topic (indexed with CreatedAt).
//   - Topic: FK association; a message cannot reference a missing topic.
type Message struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index:idx_topic_msgs,priority:2"`
	Contacts  JSON      `json:"contacts"   gorm:"type:text;not null"`
	Text      string    `json:"text"       gorm:"type:text;not null"`
	TopicID   string    `json:"topic_id"   gorm:"type:char(36);not null;index:idx_topic_msgs,priority:1"`

	Topic Topic `json:"-" gorm:"foreignKey:TopicID;references:ID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }
