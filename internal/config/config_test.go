package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "yoq.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 5000 {
		t.Errorf("port = %d, want 5000", cfg.Port)
	}
	if cfg.DBPath != "crm.db" {
		t.Errorf("db_path = %q, want crm.db", cfg.DBPath)
	}
	if cfg.ReminderIntervalSec != 60 {
		t.Errorf("reminder_interval_sec = %d, want 60", cfg.ReminderIntervalSec)
	}
	if cfg.TelegramBotToken != "" {
		t.Errorf("telegram token = %q, want empty by default", cfg.TelegramBotToken)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "port: 8080\ndb_path: /var/lib/crm/crm.db\nreminder_interval_sec: 30\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.DBPath != "/var/lib/crm/crm.db" {
		t.Errorf("db_path = %q", cfg.DBPath)
	}
	if cfg.ReminderIntervalSec != 30 {
		t.Errorf("reminder_interval_sec = %d, want 30", cfg.ReminderIntervalSec)
	}
}

func TestEnvironmentWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: 8080\n"), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	t.Setenv("PORT", "9090")
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("port = %d, env must win over the file", cfg.Port)
	}
	if cfg.TelegramBotToken != "test-token" {
		t.Errorf("telegram token = %q, want test-token", cfg.TelegramBotToken)
	}
}

func TestBadIntervalFallsBack(t *testing.T) {
	t.Setenv("REMINDER_INTERVAL_SEC", "-5")

	cfg, err := Load(filepath.Join(t.TempDir(), "yoq.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ReminderIntervalSec != 60 {
		t.Errorf("reminder_interval_sec = %d, want the 60s fallback", cfg.ReminderIntervalSec)
	}
}
