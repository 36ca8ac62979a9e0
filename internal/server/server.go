// Package server exposes the CRM over an HTTP JSON API: login
// sessions, staff management, task assignment and completion,
// dashboard counters and the CSV report. All of it is request/response
// glue over the store; the deadline reminder engine runs elsewhere.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jalolov/crm-tizimi/internal/notify"
	"github.com/jalolov/crm-tizimi/internal/store"
)

// Server wires the HTTP handlers to their collaborators.
type Server struct {
	store      *store.Store
	notifier   notify.Notifier
	sessions   *sessionStore
	log        *zap.Logger
	bossChatID string
}

// New creates a Server. bossChatID is the Telegram chat that receives
// task-completed notifications; empty disables them.
func New(st *store.Store, notifier notify.Notifier, log *zap.Logger, bossChatID string) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		store:      st,
		notifier:   notifier,
		sessions:   newSessionStore(),
		log:        log,
		bossChatID: bossChatID,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "CRM tizimi ishlamoqda"})
	})

	router.POST("/login", s.handleLogin)
	router.POST("/logout", s.requireLogin(), s.handleLogout)

	authed := router.Group("/", s.requireLogin())
	{
		authed.GET("/dashboard", s.handleDashboard)
		authed.GET("/my-tasks", s.handleMyTasks)
		authed.POST("/tasks/:id/complete", s.handleCompleteTask)
	}

	boss := router.Group("/", s.requireLogin(), s.requireBoss())
	{
		boss.GET("/xodimlar", s.handleListXodim)
		boss.POST("/xodimlar", s.handleCreateXodim)
		boss.PUT("/xodimlar/:id", s.handleUpdateXodim)
		boss.DELETE("/xodimlar/:id", s.handleDeleteXodim)

		boss.GET("/users", s.handleListUsers)

		boss.GET("/tasks", s.handleListTasks)
		boss.POST("/tasks", s.handleCreateTask)
		boss.PUT("/tasks/:id", s.handleUpdateTask)
		boss.DELETE("/tasks/:id", s.handleDeleteTask)

		boss.GET("/export/csv", s.handleExportCSV)
		boss.POST("/profile", s.handleChangeProfile)
	}

	return router
}

// Run starts the HTTP listener on the given port and blocks until ctx
// is cancelled or the listener fails. On cancellation in-flight
// requests get a grace period before the server is torn down.
func (s *Server) Run(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.log.Info("http server listening", zap.String("addr", addr))
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Router()}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
