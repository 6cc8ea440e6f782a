package users

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
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, r *Repo, email string) *models.User {
	t.Helper()
	token := "tok-" + email
	u := &models.User{
		Email:             email,
		FullName:          "Test User",
		Role:              models.RoleUser,
		Status:            models.StatusActive,
		HashedPassword:    "x",
		VerificationToken: &token,
	}
	if err := r.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestCreate_DuplicateEmailRejectedByStore(t *testing.T) {
	r := NewRepo(openTestDB(t))
	seedUser(t, r, "alice@example.com")

	dup := &models.User{
		Email:          "alice@example.com",
		FullName:       "Other Alice",
		Role:           models.RoleUser,
		Status:         models.StatusActive,
		HashedPassword: "y",
	}
	err := r.Create(context.Background(), dup)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected ErrDuplicatedKey, got %v", err)
	}
}

func TestIncrementLoginAttempts(t *testing.T) {
	r := NewRepo(openTestDB(t))
	seedUser(t, r, "bob@example.com")

	for want := 1; want <= 3; want++ {
		got, err := r.IncrementLoginAttempts(context.Background(), "bob@example.com")
		if err != nil {
			t.Fatalf("increment %d: %v", want, err)
		}
		if got != want {
			t.Fatalf("expected %d attempts, got %d", want, got)
		}
	}

	if _, err := r.IncrementLoginAttempts(context.Background(), "nobody@example.com"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not-found for unknown email, got %v", err)
	}
}

func TestRecordSuccessfulLogin(t *testing.T) {
	r := NewRepo(openTestDB(t))
	u := seedUser(t, r, "carol@example.com")

	for i := 0; i < 3; i++ {
		if _, err := r.IncrementLoginAttempts(context.Background(), u.Email); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}

	ok, err := r.RecordSuccessfulLogin(context.Background(), u.ID)
	if err != nil || !ok {
		t.Fatalf("record login: ok=%v err=%v", ok, err)
	}

	got, err := r.GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LoginAttempts != 0 {
		t.Fatalf("expected attempts reset to 0, got %d", got.LoginAttempts)
	}
	if got.LastLogin == nil {
		t.Fatalf("expected last_login to be set")
	}
}

func TestMarkVerified_OneShot(t *testing.T) {
	r := NewRepo(openTestDB(t))
	u := seedUser(t, r, "dave@example.com")

	ok, err := r.MarkVerified(context.Background(), u.ID)
	if err != nil || !ok {
		t.Fatalf("first mark: ok=%v err=%v", ok, err)
	}

	got, err := r.GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.IsVerified {
		t.Fatalf("expected is_verified true")
	}
	if got.VerificationToken != nil {
		t.Fatalf("expected verification token cleared, got %q", *got.VerificationToken)
	}

	ok, err = r.MarkVerified(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if ok {
		t.Fatalf("expected second mark to report false")
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	r := NewRepo(openTestDB(t))
	u := seedUser(t, r, "erin@example.com")
	before := u.UpdatedAt

	time.Sleep(20 * time.Millisecond)

	got, err := r.Update(context.Background(), u.ID, map[string]any{"full_name": "Erin Updated"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.FullName != "Erin Updated" {
		t.Fatalf("expected full name updated, got %q", got.FullName)
	}
	if got.Email != "erin@example.com" {
		t.Fatalf("unsupplied field changed: %q", got.Email)
	}
	if !got.UpdatedAt.After(before) {
		t.Fatalf("expected updated_at to advance")
	}

	if _, err := r.Update(context.Background(), 9999, map[string]any{"full_name": "x"}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not-found for missing user, got %v", err)
	}
}

func TestDeleteListCount(t *testing.T) {
	r := NewRepo(openTestDB(t))
	a := seedUser(t, r, "a@example.com")
	seedUser(t, r, "b@example.com")

	n, err := r.Count(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("count: n=%d err=%v", n, err)
	}

	exists, err := r.EmailExists(context.Background(), "a@example.com")
	if err != nil || !exists {
		t.Fatalf("email exists: %v %v", exists, err)
	}

	list, err := r.List(context.Background(), 0, 10)
	if err != nil || len(list) != 2 {
		t.Fatalf("list: len=%d err=%v", len(list), err)
	}

	deleted, err := r.Delete(context.Background(), a.ID)
	if err != nil || !deleted {
		t.Fatalf("delete: %v %v", deleted, err)
	}
	deleted, err = r.Delete(context.Background(), a.ID)
	if err != nil || deleted {
		t.Fatalf("expected second delete to report false, got %v %v", deleted, err)
	}

	if _, err := r.GetByID(context.Background(), a.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not-found after delete, got %v", err)
	}
}

func TestGetByVerificationToken(t *testing.T) {
	r := NewRepo(openTestDB(t))
	u := seedUser(t, r, "frank@example.com")

	got, err := r.GetByVerificationToken(context.Background(), "tok-frank@example.com")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("expected user %d, got %d", u.ID, got.ID)
	}

	if _, err := r.GetByVerificationToken(context.Background(), "nope"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}
