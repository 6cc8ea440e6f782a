package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/docbot-ai/docbot/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.ChatSession{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestOwnershipIsolation(t *testing.T) {
	r := NewRepo(openTestDB(t))

	s, err := r.Create(context.Background(), 1, "Visit 1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// user 2 cannot see, mutate or delete user 1's session
	if _, err := r.Get(context.Background(), s.SessionID, 2); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not-found for foreign owner, got %v", err)
	}
	if _, err := r.Update(context.Background(), s.SessionID, 2, map[string]any{"title": "stolen"}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not-found on foreign update, got %v", err)
	}
	deleted, err := r.Delete(context.Background(), s.SessionID, 2)
	if err != nil || deleted {
		t.Fatalf("expected foreign delete to report false, got %v %v", deleted, err)
	}

	// the owner still sees it untouched
	got, err := r.Get(context.Background(), s.SessionID, 1)
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if got.Title != "Visit 1" {
		t.Fatalf("expected title unchanged, got %q", got.Title)
	}
}

func TestUpdate_ReplacesMessages(t *testing.T) {
	r := NewRepo(openTestDB(t))

	s, err := r.Create(context.Background(), 7, "Visit 1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	created := s.UpdatedAt

	two := models.ChatMessages{
		{Text: "hello", IsBot: false, Timestamp: time.Now()},
		{Text: "hi there", IsBot: true, Timestamp: time.Now()},
	}
	if _, err := r.Update(context.Background(), s.SessionID, 7, map[string]any{"messages": two}); err != nil {
		t.Fatalf("update 2 messages: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	three := models.ChatMessages{
		{Text: "hello", IsBot: false, Timestamp: time.Now()},
		{Text: "hi there", IsBot: true, Timestamp: time.Now()},
		{Text: "one more", IsBot: false, Timestamp: time.Now()},
	}
	if _, err := r.Update(context.Background(), s.SessionID, 7, map[string]any{"messages": three}); err != nil {
		t.Fatalf("update 3 messages: %v", err)
	}

	got, err := r.Get(context.Background(), s.SessionID, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Messages) != 3 {
		t.Fatalf("expected 3 messages after replace, got %d", len(got.Messages))
	}
	if got.Messages[2].Text != "one more" {
		t.Fatalf("unexpected last message: %q", got.Messages[2].Text)
	}
	if !got.UpdatedAt.After(created) {
		t.Fatalf("expected updated_at to advance")
	}
}

func TestList_OrderedByUpdatedAtDesc(t *testing.T) {
	r := NewRepo(openTestDB(t))

	first, err := r.Create(context.Background(), 3, "first")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := r.Create(context.Background(), 3, "second")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := r.Create(context.Background(), 99, "someone else"); err != nil {
		t.Fatalf("create: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	// touching the first session moves it to the top
	if _, err := r.Update(context.Background(), first.SessionID, 3, map[string]any{"title": "first touched"}); err != nil {
		t.Fatalf("touch: %v", err)
	}

	list, err := r.List(context.Background(), 3, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions for owner, got %d", len(list))
	}
	if list[0].SessionID != first.SessionID || list[1].SessionID != second.SessionID {
		t.Fatalf("unexpected order: %s, %s", list[0].SessionID, list[1].SessionID)
	}

	n, err := r.Count(context.Background(), 3)
	if err != nil || n != 2 {
		t.Fatalf("count: n=%d err=%v", n, err)
	}
}

func TestUpdate_TitleOnlyKeepsMessages(t *testing.T) {
	r := NewRepo(openTestDB(t))

	s, err := r.Create(context.Background(), 5, "notes")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	msgs := models.ChatMessages{{Text: "keep me", IsBot: false, Timestamp: time.Now()}}
	if _, err := r.Update(context.Background(), s.SessionID, 5, map[string]any{"messages": msgs}); err != nil {
		t.Fatalf("seed messages: %v", err)
	}

	got, err := r.Update(context.Background(), s.SessionID, 5, map[string]any{"title": "renamed"})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if got.Title != "renamed" {
		t.Fatalf("expected new title, got %q", got.Title)
	}
	if len(got.Messages) != 1 || got.Messages[0].Text != "keep me" {
		t.Fatalf("messages should be untouched, got %+v", got.Messages)
	}
}
