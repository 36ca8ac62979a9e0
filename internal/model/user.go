package model

import "time"

// Role identifies what a user is allowed to do in the system.
type Role string

const (
	// RoleBoss is the manager account: creates staff, assigns tasks,
	// sees everything.
	RoleBoss Role = "boss"

	// RoleXodim is a staff account: sees and completes own tasks only.
	RoleXodim Role = "xodim"
)

// User is an account that can log in and (optionally) receive
// Telegram notifications.
type User struct {
	// ID is the internal unique identifier for this user.
	ID int64 `db:"id" json:"id"`

	// Username is the unique login name.
	Username string `db:"username" json:"username"`

	// PasswordHash is the bcrypt hash of the user's password.
	// Never serialized to API responses.
	PasswordHash string `db:"password_hash" json:"-"`

	// Role is either RoleBoss or RoleXodim.
	Role Role `db:"role" json:"role"`

	// FullName is the display name; may be empty.
	FullName string `db:"full_name" json:"full_name"`

	// TelegramChatID is the notification destination for this user.
	// Empty means the user receives no Telegram messages.
	TelegramChatID string `db:"telegram_chat_id" json:"telegram_chat_id"`

	// CreatedAt is when the account was created.
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DisplayName returns the full name, falling back to the username.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
