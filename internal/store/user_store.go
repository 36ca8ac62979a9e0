package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jalolov/crm-tizimi/internal/clock"
	"github.com/jalolov/crm-tizimi/internal/model"
)

// userRow is the raw scan shape for the users table.
type userRow struct {
	ID             int64  `db:"id"`
	Username       string `db:"username"`
	PasswordHash   string `db:"password_hash"`
	Role           string `db:"role"`
	FullName       string `db:"full_name"`
	TelegramChatID string `db:"telegram_chat_id"`
	CreatedAt      string `db:"created_at"`
}

func (r userRow) toModel() (model.User, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return model.User{}, fmt.Errorf("user %d: %w", r.ID, err)
	}
	return model.User{
		ID:             r.ID,
		Username:       r.Username,
		PasswordHash:   r.PasswordHash,
		Role:           model.Role(r.Role),
		FullName:       r.FullName,
		TelegramChatID: r.TelegramChatID,
		CreatedAt:      createdAt,
	}, nil
}

// CreateUser inserts a new account and returns its ID. A duplicate
// username surfaces as an error from the unique constraint.
func (s *Store) CreateUser(ctx context.Context, u model.User) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role, full_name, telegram_chat_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.Username, u.PasswordHash, string(u.Role), u.FullName, u.TelegramChatID,
		formatTime(clock.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("creating user %s: %w", u.Username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new user id: %w", err)
	}
	return id, nil
}

// EnsureBoss seeds the default boss account if no user with the given
// username exists. Safe to call on every startup.
func (s *Store) EnsureBoss(ctx context.Context, username, passwordHash, fullName string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO users (username, password_hash, role, full_name, telegram_chat_id, created_at)
		VALUES (?, ?, 'boss', ?, '', ?)`,
		username, passwordHash, fullName, formatTime(clock.Now()),
	)
	if err != nil {
		return fmt.Errorf("seeding boss account: %w", err)
	}
	return nil
}

// GetUserByUsername fetches one account by login name.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM users WHERE username = ?", username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", username, err)
	}
	u, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByID fetches one account by ID.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM users WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %d: %w", id, err)
	}
	u, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserUpdate describes a partial update of an account. Nil fields are
// left unchanged.
type UserUpdate struct {
	Username       *string
	PasswordHash   *string
	FullName       *string
	TelegramChatID *string
}

// UpdateUser applies a partial update to one account.
func (s *Store) UpdateUser(ctx context.Context, id int64, upd UserUpdate) error {
	var sets []string
	var args []any

	if upd.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *upd.Username)
	}
	if upd.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *upd.PasswordHash)
	}
	if upd.FullName != nil {
		sets = append(sets, "full_name = ?")
		args = append(args, *upd.FullName)
	}
	if upd.TelegramChatID != nil {
		sets = append(sets, "telegram_chat_id = ?")
		args = append(args, *upd.TelegramChatID)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = ?", strings.Join(sets, ", "))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating user %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating user %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteXodim removes a staff account. Boss accounts cannot be
// deleted through this path; deleting a missing or boss row returns
// ErrNotFound.
func (s *Store) DeleteXodim(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ? AND role = 'xodim'", id)
	if err != nil {
		return fmt.Errorf("deleting xodim %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting xodim %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListXodim returns all staff accounts, newest first.
func (s *Store) ListXodim(ctx context.Context) ([]model.User, error) {
	return s.listUsers(ctx, "SELECT * FROM users WHERE role = 'xodim' ORDER BY id DESC")
}

// ListUsers returns every account ordered for assignment pickers:
// staff first, then the boss, alphabetical by name within a role.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.listUsers(ctx, "SELECT * FROM users ORDER BY role DESC, full_name")
}

func (s *Store) listUsers(ctx context.Context, query string) ([]model.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	users := make([]model.User, 0, len(rows))
	for _, r := range rows {
		u, err := r.toModel()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
