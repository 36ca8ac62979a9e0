// Command crmd runs the CRM service: the HTTP API plus the deadline
// reminder scanner, sharing one SQLite database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jalolov/crm-tizimi/internal/config"
	"github.com/jalolov/crm-tizimi/internal/notify"
	"github.com/jalolov/crm-tizimi/internal/reminder"
	"github.com/jalolov/crm-tizimi/internal/server"
	"github.com/jalolov/crm-tizimi/internal/store"
)

// Default boss credentials seeded on first run. Changing the password
// after first login is strongly advised.
const (
	defaultBossUsername = "boss"
	defaultBossPassword = "magistr"
	defaultBossFullName = "Bosh Direktor"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal("loading config", zap.Error(err))
	}

	st, err := store.Open(cfg.DBPath, log)
	if err != nil {
		log.Fatal("opening store", zap.String("db_path", cfg.DBPath), zap.Error(err))
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultBossPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("hashing default password", zap.Error(err))
	}
	if err := st.EnsureBoss(ctx, defaultBossUsername, string(hash), defaultBossFullName); err != nil {
		log.Fatal("seeding boss account", zap.Error(err))
	}

	notifier := notify.NewTelegram(cfg.TelegramBotToken, log)
	if cfg.TelegramBotToken == "" {
		log.Warn("TELEGRAM_BOT_TOKEN not set; notifications disabled")
	}

	scheduler := reminder.New(st, notifier, log, reminder.Options{
		Interval: time.Duration(cfg.ReminderIntervalSec) * time.Second,
	})
	scheduler.Start(ctx)
	log.Info("reminder scanner started",
		zap.Int("interval_sec", cfg.ReminderIntervalSec))

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(st, notifier, log, cfg.BossChatID)

	// Run blocks until SIGINT/SIGTERM cancels ctx, then drains
	// in-flight requests before returning.
	if err := srv.Run(ctx, cfg.Port); err != nil {
		log.Fatal("http server", zap.Error(err))
	}
	log.Info("shut down cleanly")
}
