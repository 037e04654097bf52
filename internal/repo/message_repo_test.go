package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tbourn/go-topic-relay/internal/domain"
)

func TestCreateMessage_AssignsIDAndTimestamp(t *testing.T) {
	db := newRepoDB(t, &domain.Topic{}, &domain.Message{})
	tp := seedTopic(t, db, "t")

	m, err := CreateMessage(context.Background(), db, tp.ID, domain.JSON(`{"phone":"1"}`), "hello")
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if m.ID == 0 {
		t.Fatalf("expected store-assigned id")
	}
	if m.CreatedAt.IsZero() || time.Since(m.CreatedAt) > time.Minute {
		t.Fatalf("CreatedAt not set reasonably: %v", m.CreatedAt)
	}

	list, err := ListMessages(context.Background(), db, tp.ID, 0)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListMessages: %v (%d rows)", err, len(list))
	}
	got := list[0]
	if got.ID != m.ID || got.Text != "hello" || string(got.Contacts) != `{"phone":"1"}` || got.TopicID != tp.ID {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
}

func TestCreateMessage_IDsIncrease(t *testing.T) {
	db := newRepoDB(t, &domain.Topic{}, &domain.Message{})
	tp := seedTopic(t, db, "t")

	var last uint
	for i := 0; i < 5; i++ {
		m, err := CreateMessage(context.Background(), db, tp.ID, domain.JSON(`[]`), "x")
		if err != nil {
			t.Fatalf("CreateMessage #%d: %v", i, err)
		}
		if m.ID <= last {
			t.Fatalf("ids must increase: %d after %d", m.ID, last)
		}
		last = m.ID
	}
}

func TestCreateMessage_UnknownTopicIsNotFound(t *testing.T) {
	db := newRepoDB(t, &domain.Topic{}, &domain.Message{})

	_, err := CreateMessage(context.Background(), db, uuid.NewString(), domain.JSON(`{}`), "orphan")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from FK violation, got %v", err)
	}
	var n int64
	db.Model(&domain.Message{}).Count(&n)
	if n != 0 {
		t.Fatalf("no row expected")
	}
}

func TestListMessages_NewestFirst(t *testing.T) {
	db := newRepoDB(t, &domain.Topic{}, &domain.Message{})
	tp := seedTopic(t, db, "t")
	other := seedTopic(t, db, "other")
	ctx := context.Background()

	var ids []uint
	for _, text := range []string{"m1", "m2", "m3"} {
		m, err := CreateMessage(ctx, db, tp.ID, domain.JSON(`{}`), text)
		if err != nil {
			t.Fatalf("CreateMessage %s: %v", text, err)
		}
		ids = append(ids, m.ID)
	}
	if _, err := CreateMessage(ctx, db, other.ID, domain.JSON(`{}`), "elsewhere"); err != nil {
		t.Fatalf("CreateMessage other: %v", err)
	}

	got, err := ListMessages(ctx, db, tp.ID, 0)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(got) != 3 || got[0].Text != "m3" || got[1].Text != "m2" || got[2].Text != "m1" {
		t.Fatalf("expected [m3 m2 m1], got %+v", got)
	}

	top, err := ListMessages(ctx, db, tp.ID, 2)
	if err != nil {
		t.Fatalf("ListMessages(limit): %v", err)
	}
	if len(top) != 2 || top[0].ID != ids[2] || top[1].ID != ids[1] {
		t.Fatalf("unexpected limited page: %+v", top)
	}
}

func TestListMessages_TieBreaksOnID(t *testing.T) {
	db := newRepoDB(t, &domain.Topic{}, &domain.Message{})
	tp := seedTopic(t, db, "t")

	at := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	for _, m := range []*domain.Message{
		{ID: 10, TopicID: tp.ID, Contacts: domain.JSON(`{}`), Text: "a", CreatedAt: at},
		{ID: 11, TopicID: tp.ID, Contacts: domain.JSON(`{}`), Text: "b", CreatedAt: at},
	} {
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := ListMessages(context.Background(), db, tp.ID, 0)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(got) != 2 || got[0].ID != 11 || got[1].ID != 10 {
		t.Fatalf("expected id DESC on equal timestamps, got %+v", got)
	}
}

func TestListMessages_EmptyIsNonNil(t *testing.T) {
	db := newRepoDB(t, &domain.Topic{}, &domain.Message{})
	got, err := ListMessages(context.Background(), db, "none", 0)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
