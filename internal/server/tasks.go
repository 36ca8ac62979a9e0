package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jalolov/crm-tizimi/internal/clock"
	"github.com/jalolov/crm-tizimi/internal/model"
	"github.com/jalolov/crm-tizimi/internal/notify"
	"github.com/jalolov/crm-tizimi/internal/store"
)

type taskRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	AssignedTo   int64  `json:"assigned_to" binding:"required"`
	DeadlineDate string `json:"deadline_date"`
	DeadlineTime string `json:"deadline_time"`
}

// parseDeadline combines the optional date and time fields into an
// instant in the business zone. No date means no deadline; a missing
// time defaults to end of day. Malformed input is an error: silently
// dropping the deadline would leave the boss believing a reminder-less
// task is deadlined.
func parseDeadline(date, timeOfDay string) (*time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return nil, nil
	}
	timeOfDay = strings.TrimSpace(timeOfDay)
	if timeOfDay == "" {
		timeOfDay = "23:59"
	}

	deadline, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeOfDay, clock.Zone)
	if err != nil {
		return nil, fmt.Errorf("parsing deadline %q %q: %w", date, timeOfDay, err)
	}
	return &deadline, nil
}

// handleDashboard returns the role-scoped counters: the boss sees the
// whole system, staff see only their own tasks.
func (s *Server) handleDashboard(c *gin.Context) {
	sess := currentSession(c)

	var userID *int64
	if sess.Role != model.RoleBoss {
		userID = &sess.UserID
	}

	stats, err := s.store.Stats(c.Request.Context(), userID, clock.Now())
	if err != nil {
		s.log.Error("dashboard stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tizim xatosi"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// handleCreateTask adds a task and notifies the assignee on Telegram.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Topshiriq nomi va xodim tanlanishi shart!"})
		return
	}

	deadline, err := parseDeadline(req.DeadlineDate, req.DeadlineTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Muddat formati noto'g'ri!"})
		return
	}
	assignedTo := req.AssignedTo

	id, err := s.store.CreateTask(c.Request.Context(), model.Task{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		AssignedTo:  &assignedTo,
		Deadline:    deadline,
	})
	if err != nil {
		s.log.Error("task create failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tizim xatosi"})
		return
	}

	s.notifyAssignee(c.Request.Context(), assignedTo, req.Title, deadline)

	c.JSON(http.StatusCreated, gin.H{"id": id, "message": "Topshiriq qo'shildi!"})
}

// notifyAssignee sends the new-task message when the assignee has a
// chat ID configured. Delivery problems are logged, never surfaced:
// task creation must not depend on Telegram.
func (s *Server) notifyAssignee(ctx context.Context, userID int64, title string, deadline *time.Time) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil || user.TelegramChatID == "" {
		return
	}
	if err := s.notifier.Send(ctx, user.TelegramChatID, notify.NewTaskMessage(title, deadline)); err != nil {
		s.log.Warn("new-task notification failed",
			zap.Int64("user_id", userID), zap.Error(err))
	}
}

// handleUpdateTask rewrites a task's editable fields.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Topshiriq nomi va xodim tanlanishi shart!"})
		return
	}

	deadline, err := parseDeadline(req.DeadlineDate, req.DeadlineTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Muddat formati noto'g'ri!"})
		return
	}
	err = s.store.UpdateTask(c.Request.Context(), id,
		strings.TrimSpace(req.Title), strings.TrimSpace(req.Description),
		req.AssignedTo, deadline)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Topshiriq topilmadi!"})
		return
	}
	if err != nil {
		s.log.Error("task update failed", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tizim xatosi"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Topshiriq muvaffaqiyatli yangilandi!"})
}

// handleDeleteTask removes a task.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	err := s.store.DeleteTask(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Topshiriq topilmadi!"})
		return
	}
	if err != nil {
		s.log.Error("task delete failed", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tizim xatosi"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Topshiriq o'chirildi!"})
}

// handleListTasks returns all tasks, optionally filtered by status
// and assignee via query parameters.
func (s *Server) handleListTasks(c *gin.Context) {
	var filter store.TaskFilter
	filter.Status = c.Query("status")

	if xodim := c.Query("xodim"); xodim != "" {
		id, err := strconv.ParseInt(xodim, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Noto'g'ri xodim ID"})
			return
		}
		filter.AssignedTo = &id
	}

	tasks, err := s.store.ListTasks(c.Request.Context(), filter)
	if err != nil {
		s.log.Error("task list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tizim xatosi"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// handleMyTasks returns the caller's own tasks.
func (s *Server) handleMyTasks(c *gin.Context) {
	sess := currentSession(c)

	tasks, err := s.store.ListTasksForUser(c.Request.Context(), sess.UserID)
	if err != nil {
		s.log.Error("my-tasks list failed", zap.Int64("user_id", sess.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tizim xatosi"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

type completeTaskRequest struct {
	Note string `json:"note"`
}

// handleCompleteTask marks one of the caller's own tasks completed
// and notifies the boss chat.
func (s *Server) handleCompleteTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req completeTaskRequest
	// The note is optional; an empty body is fine.
	_ = c.ShouldBindJSON(&req)
	note := strings.TrimSpace(req.Note)

	sess := currentSession(c)
	ctx := c.Request.Context()

	err := s.store.CompleteTask(ctx, id, sess.UserID, note, clock.Now())
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Topshiriq topilmadi yoki sizga tegishli emas!"})
		return
	}
	if err != nil {
		s.log.Error("task complete failed", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tizim xatosi"})
		return
	}

	s.notifyBossCompleted(ctx, id, sess.FullName, note)

	c.JSON(http.StatusOK, gin.H{"message": "Topshiriq bajarildi deb belgilandi!"})
}

// notifyBossCompleted sends the task-completed message to the boss
// chat, when one is configured. Best effort only.
func (s *Server) notifyBossCompleted(ctx context.Context, taskID int64, doneBy, note string) {
	if s.bossChatID == "" {
		return
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return
	}
	msg := notify.TaskCompletedMessage(task.Title, doneBy, note)
	if err := s.notifier.Send(ctx, s.bossChatID, msg); err != nil {
		s.log.Warn("task-completed notification failed",
			zap.Int64("task_id", taskID), zap.Error(err))
	}
}
