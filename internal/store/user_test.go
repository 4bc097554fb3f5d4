package store

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mwalcott/eventdesk/internal/database"
)

func setupUserTestDB(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func TestUserCreate(t *testing.T) {
	s := setupUserTestDB(t)

	hash := []byte("salt-and-digest")
	u, err := s.Create("alice@example.com", hash)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", u.Email, "alice@example.com")
	}
	if !bytes.Equal(u.PasswordHash, hash) {
		t.Error("password hash not round-tripped")
	}
	if u.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	s := setupUserTestDB(t)

	if _, err := s.Create("alice@example.com", []byte("h1")); err != nil {
		t.Fatalf("create user: %v", err)
	}

	_, err := s.Create("alice@example.com", []byte("h2"))
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	s := setupUserTestDB(t)

	created, err := s.Create("alice@example.com", []byte("h"))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	u, err := s.GetByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.ID != created.ID {
		t.Errorf("id = %d, want %d", u.ID, created.ID)
	}
}

func TestUserGetByEmailNotFound(t *testing.T) {
	s := setupUserTestDB(t)

	u, err := s.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u != nil {
		t.Error("expected nil for unknown email")
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	s := setupUserTestDB(t)

	u, err := s.GetByID(9999)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if u != nil {
		t.Error("expected nil for unknown id")
	}
}
