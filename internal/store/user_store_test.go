package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jalolov/crm-tizimi/internal/model"
)

// newTestStore opens a fresh on-disk database in a temp directory and
// closes it when the test finishes.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "crm.db"), nil)
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestUser(t *testing.T, s *Store, username string, role model.Role) int64 {
	t.Helper()
	id, err := s.CreateUser(context.Background(), model.User{
		Username:     username,
		PasswordHash: "hash-" + username,
		Role:         role,
		FullName:     "Test " + username,
	})
	if err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
	return id
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateUser(ctx, model.User{
		Username:       "aziz",
		PasswordHash:   "secret-hash",
		Role:           model.RoleXodim,
		FullName:       "Aziz Karimov",
		TelegramChatID: "12345",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUserByID(ctx, id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.Username != "aziz" || got.FullName != "Aziz Karimov" {
		t.Errorf("got %q / %q, want aziz / Aziz Karimov", got.Username, got.FullName)
	}
	if got.Role != model.RoleXodim {
		t.Errorf("role = %q, want xodim", got.Role)
	}
	if got.TelegramChatID != "12345" {
		t.Errorf("chat id = %q, want 12345", got.TelegramChatID)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at must be populated")
	}

	byName, err := s.GetUserByUsername(ctx, "aziz")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if byName.ID != id {
		t.Errorf("lookup by username returned id %d, want %d", byName.ID, id)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetUserByID(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserByID(999) = %v, want ErrNotFound", err)
	}
	if _, err := s.GetUserByUsername(ctx, "yoq"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserByUsername = %v, want ErrNotFound", err)
	}
}

func TestDuplicateUsernameRejected(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "takror", model.RoleXodim)

	_, err := s.CreateUser(context.Background(), model.User{
		Username: "takror", PasswordHash: "x", Role: model.RoleXodim, FullName: "Dup",
	})
	if err == nil {
		t.Fatal("expected the unique constraint to reject a duplicate username")
	}
}

func TestEnsureBossIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.EnsureBoss(ctx, "boss", "hash-one", "Bosh Direktor"); err != nil {
		t.Fatalf("first EnsureBoss: %v", err)
	}
	// Second call must not overwrite the existing account.
	if err := s.EnsureBoss(ctx, "boss", "hash-two", "Boshqa Ism"); err != nil {
		t.Fatalf("second EnsureBoss: %v", err)
	}

	got, err := s.GetUserByUsername(ctx, "boss")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if got.PasswordHash != "hash-one" {
		t.Errorf("password hash = %q, seed must not overwrite", got.PasswordHash)
	}
	if got.Role != model.RoleBoss {
		t.Errorf("role = %q, want boss", got.Role)
	}
}

func TestUpdateUserPartial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := createTestUser(t, s, "olim", model.RoleXodim)

	newName := "Olim Yangi"
	newChat := "777"
	err := s.UpdateUser(ctx, id, UserUpdate{FullName: &newName, TelegramChatID: &newChat})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	got, err := s.GetUserByID(ctx, id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.FullName != "Olim Yangi" || got.TelegramChatID != "777" {
		t.Errorf("got %q / %q after update", got.FullName, got.TelegramChatID)
	}
	if got.Username != "olim" {
		t.Errorf("username changed to %q, untouched fields must survive", got.Username)
	}

	// An empty update is a no-op, not an error.
	if err := s.UpdateUser(ctx, id, UserUpdate{}); err != nil {
		t.Errorf("empty UpdateUser: %v", err)
	}

	if err := s.UpdateUser(ctx, 999, UserUpdate{FullName: &newName}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateUser(999) = %v, want ErrNotFound", err)
	}
}

func TestDeleteXodim(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	xodimID := createTestUser(t, s, "xodim1", model.RoleXodim)
	bossID := createTestUser(t, s, "rahbar", model.RoleBoss)

	if err := s.DeleteXodim(ctx, xodimID); err != nil {
		t.Fatalf("DeleteXodim: %v", err)
	}
	if _, err := s.GetUserByID(ctx, xodimID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted xodim still readable: %v", err)
	}

	// The boss role is protected from this path.
	if err := s.DeleteXodim(ctx, bossID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteXodim(boss) = %v, want ErrNotFound", err)
	}
	if _, err := s.GetUserByID(ctx, bossID); err != nil {
		t.Errorf("boss account must survive: %v", err)
	}
}

func TestListXodim(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createTestUser(t, s, "rahbar", model.RoleBoss)
	first := createTestUser(t, s, "birinchi", model.RoleXodim)
	second := createTestUser(t, s, "ikkinchi", model.RoleXodim)

	xodimlar, err := s.ListXodim(ctx)
	if err != nil {
		t.Fatalf("ListXodim: %v", err)
	}
	if len(xodimlar) != 2 {
		t.Fatalf("got %d xodim, want 2", len(xodimlar))
	}
	// Newest first.
	if xodimlar[0].ID != second || xodimlar[1].ID != first {
		t.Errorf("order = [%d %d], want [%d %d]", xodimlar[0].ID, xodimlar[1].ID, second, first)
	}

	all, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListUsers returned %d, want 3", len(all))
	}
}
