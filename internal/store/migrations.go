package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	username         TEXT NOT NULL UNIQUE,
	password_hash    TEXT NOT NULL,
	role             TEXT NOT NULL CHECK(role IN ('boss', 'xodim')),
	full_name        TEXT NOT NULL DEFAULT '',
	telegram_chat_id TEXT NOT NULL DEFAULT '',
	created_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	title             TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	assigned_to       INTEGER REFERENCES users(id) ON DELETE SET NULL,
	deadline          TEXT,
	status            TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'completed')),
	completion_note   TEXT NOT NULL DEFAULT '',
	completed_at      TEXT,
	created_at        TEXT NOT NULL,
	reminder_2h_sent  INTEGER NOT NULL DEFAULT 0,
	reminder_30m_sent INTEGER NOT NULL DEFAULT 0,
	reminder_5m_sent  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_tasks_assigned_to ON tasks(assigned_to);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_status_deadline ON tasks(status, deadline);
CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
