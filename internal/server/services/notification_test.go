package services

import (
	"context"
	"errors"
	"testing"

	"github.com/planhub/planhub/internal/server/models"
)

func TestNotify_StoresAndPublishes(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager()
	pub := &fakePublisher{}
	s := NewNotificationService(db, rm, pub, newTestLogger())

	n, err := s.Notify(context.Background(), "u-1", models.NotifyPlanApproved, "p-1", "Plano PL-001 aprobado")
	if err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	if n.ID == "" {
		t.Fatalf("notification not stored: %+v", n)
	}
	if len(pub.published) != 1 || pub.published[0] != models.NotifyPlanApproved {
		t.Fatalf("unexpected published events: %v", pub.published)
	}
}

func TestNotify_PublishFailureIsNonFatal(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager()
	pub := &fakePublisher{err: errors.New("broker down")}
	s := NewNotificationService(db, rm, pub, newTestLogger())

	n, err := s.Notify(context.Background(), "u-1", models.NotifyPlanRejected, "p-1", "rechazado")
	if err != nil {
		t.Fatalf("Notify must not fail on publish error: %v", err)
	}

	stored, _ := rm.n.ListForUser(context.Background(), "u-1", false)
	if len(stored) != 1 || stored[0].ID != n.ID {
		t.Fatalf("notification missing from store: %+v", stored)
	}
}

func TestNotify_StoreFailureFails(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager()
	rm.n.createErr = errors.New("db down")
	pub := &fakePublisher{}
	s := NewNotificationService(db, rm, pub, newTestLogger())

	if _, err := s.Notify(context.Background(), "u-1", models.NotifyPlanApproved, "p-1", "m"); err == nil {
		t.Fatal("expected store error")
	}
	if len(pub.published) != 0 {
		t.Fatal("nothing should be published when the store fails")
	}
}

func TestMarkRead_Flow(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager()
	s := NewNotificationService(db, rm, &fakePublisher{}, newTestLogger())

	ctx := context.Background()
	n, _ := s.Notify(ctx, "u-1", models.NotifyPlanSubmitted, "p-1", "enviado")
	s.Notify(ctx, "u-1", models.NotifyPlanApproved, "p-1", "aprobado")

	if err := s.MarkRead(ctx, n.ID, "u-1"); err != nil {
		t.Fatalf("MarkRead error: %v", err)
	}

	unread, _ := s.ListForUser(ctx, "u-1", true)
	if len(unread) != 1 {
		t.Fatalf("expected 1 unread, got %+v", unread)
	}

	if err := s.MarkAllRead(ctx, "u-1"); err != nil {
		t.Fatalf("MarkAllRead error: %v", err)
	}
	unread, _ = s.ListForUser(ctx, "u-1", true)
	if len(unread) != 0 {
		t.Fatalf("expected 0 unread, got %+v", unread)
	}
}
