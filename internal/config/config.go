// Package config loads the service configuration from an optional
// YAML file plus environment variables, with working defaults for
// local development.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config is the top-level service configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port int `mapstructure:"port"`

	// DBPath is the SQLite database file path.
	DBPath string `mapstructure:"db_path"`

	// SessionSecret signs nothing by itself today (session tokens are
	// random), but is kept as a deploy-time knob so rotating it is a
	// config change rather than a code change.
	SessionSecret string `mapstructure:"session_secret"`

	// TelegramBotToken authenticates against the Telegram Bot API.
	// Empty disables all outbound notifications.
	TelegramBotToken string `mapstructure:"telegram_bot_token"`

	// BossChatID is the Telegram chat that receives task-completed
	// notifications. Empty disables them.
	BossChatID string `mapstructure:"boss_telegram_chat_id"`

	// ReminderIntervalSec is how often the deadline scanner wakes up.
	ReminderIntervalSec int `mapstructure:"reminder_interval_sec"`
}

// defaultConfig returns the development defaults.
func defaultConfig() *Config {
	return &Config{
		Port:                5000,
		DBPath:              "crm.db",
		SessionSecret:       "dev-secret-key-change-in-production",
		ReminderIntervalSec: 60,
	}
}

// Load reads configuration from the YAML file at path (if it exists)
// and from the environment. Environment variables win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("port", 5000)
	v.SetDefault("db_path", "crm.db")
	v.SetDefault("session_secret", "dev-secret-key-change-in-production")
	v.SetDefault("reminder_interval_sec", 60)

	// Container deploys configure everything through the environment;
	// these names are part of the deploy contract.
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("db_path", "CRM_DB_PATH")
	_ = v.BindEnv("session_secret", "SESSION_SECRET")
	_ = v.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("boss_telegram_chat_id", "BOSS_TELEGRAM_CHAT_ID")
	_ = v.BindEnv("reminder_interval_sec", "REMINDER_INTERVAL_SEC")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
		// Missing file is fine; env and defaults still apply.
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.ReminderIntervalSec <= 0 {
		cfg.ReminderIntervalSec = 60
	}

	return cfg, nil
}
