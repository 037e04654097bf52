package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/tbourn/go-topic-relay/internal/domain"
)

func TestCreateTopic_AssignsUUID_AndStoresConfig(t *testing.T) {
	db := newRepoDB(t, &domain.Topic{})
	ctx := context.Background()

	cfg := domain.JSON(`{"credential":"k","destination":"-100"}`)
	tp, err := CreateTopic(ctx, db, "alerts", cfg)
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	if _, err := uuid.Parse(tp.ID); err != nil {
		t.Fatalf("topic id is not a UUID: %q", tp.ID)
	}

	got, err := GetTopic(ctx, db, tp.ID)
	if err != nil {
		t.Fatalf("GetTopic: %v", err)
	}
	if got.Name != "alerts" || string(got.NotificationConfig) != string(cfg) {
		t.Fatalf("unexpected topic: %+v", got)
	}
}

func TestCreateTopic_WithoutConfig(t *testing.T) {
	db := newRepoDB(t, &domain.Topic{})
	tp := seedTopic(t, db, "plain")

	got, err := GetTopic(context.Background(), db, tp.ID)
	if err != nil {
		t.Fatalf("GetTopic: %v", err)
	}
	if got.CanNotify() {
		t.Fatalf("topic without config must not notify: %q", got.NotificationConfig)
	}
}

func TestGetTopic_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.Topic{})
	_, err := GetTopic(context.Background(), db, uuid.NewString())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetTopic_ErrorWithoutTable(t *testing.T) {
	db := newRepoDB(t)
	_, err := GetTopic(context.Background(), db, "x")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected an operation failure distinct from ErrNotFound, got %v", err)
	}
}
