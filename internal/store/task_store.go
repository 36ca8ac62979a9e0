package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jalolov/crm-tizimi/internal/clock"
	"github.com/jalolov/crm-tizimi/internal/model"
	"github.com/jalolov/crm-tizimi/internal/reminder"
)

// taskRow is the raw scan shape for the tasks table, optionally
// joined with the assignee's name and chat ID.
type taskRow struct {
	ID              int64          `db:"id"`
	Title           string         `db:"title"`
	Description     string         `db:"description"`
	AssignedTo      sql.NullInt64  `db:"assigned_to"`
	Deadline        sql.NullString `db:"deadline"`
	Status          string         `db:"status"`
	CompletionNote  string         `db:"completion_note"`
	CompletedAt     sql.NullString `db:"completed_at"`
	CreatedAt       string         `db:"created_at"`
	Reminder2HSent  bool           `db:"reminder_2h_sent"`
	Reminder30MSent bool           `db:"reminder_30m_sent"`
	Reminder5MSent  bool           `db:"reminder_5m_sent"`

	AssigneeName sql.NullString `db:"assignee_name"`
	ChatID       sql.NullString `db:"telegram_chat_id"`
}

func (r taskRow) toModel() (model.Task, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return model.Task{}, fmt.Errorf("task %d: %w", r.ID, err)
	}
	deadline, err := parseTimePtr(r.Deadline)
	if err != nil {
		return model.Task{}, fmt.Errorf("task %d: %w", r.ID, err)
	}
	completedAt, err := parseTimePtr(r.CompletedAt)
	if err != nil {
		return model.Task{}, fmt.Errorf("task %d: %w", r.ID, err)
	}

	t := model.Task{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		Deadline:        deadline,
		Status:          r.Status,
		CompletionNote:  r.CompletionNote,
		CompletedAt:     completedAt,
		CreatedAt:       createdAt,
		Reminder2HSent:  r.Reminder2HSent,
		Reminder30MSent: r.Reminder30MSent,
		Reminder5MSent:  r.Reminder5MSent,
	}
	if r.AssignedTo.Valid {
		id := r.AssignedTo.Int64
		t.AssignedTo = &id
	}
	return t, nil
}

// TaskWithAssignee joins a task with its assignee's display name for
// listings and the CSV export.
type TaskWithAssignee struct {
	model.Task
	AssigneeName string `json:"assignee_name"`
}

// TaskFilter narrows ListTasks. Zero values mean "all".
type TaskFilter struct {
	Status     string
	AssignedTo *int64
}

const taskSelect = `
	SELECT t.id, t.title, t.description, t.assigned_to, t.deadline,
	       t.status, t.completion_note, t.completed_at, t.created_at,
	       t.reminder_2h_sent, t.reminder_30m_sent, t.reminder_5m_sent,
	       u.full_name AS assignee_name
	FROM tasks t
	LEFT JOIN users u ON t.assigned_to = u.id`

// CreateTask inserts a new pending task and returns its ID.
func (s *Store) CreateTask(ctx context.Context, t model.Task) (int64, error) {
	var assignedTo any
	if t.AssignedTo != nil {
		assignedTo = *t.AssignedTo
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (title, description, assigned_to, deadline, status, created_at)
		VALUES (?, ?, ?, ?, 'pending', ?)`,
		t.Title, t.Description, assignedTo, formatTimePtr(t.Deadline),
		formatTime(clock.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("creating task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new task id: %w", err)
	}
	return id, nil
}

// UpdateTask rewrites the editable fields of a task: title,
// description, assignee and deadline. Status, completion data and the
// reminder flags are not touched here.
func (s *Store) UpdateTask(ctx context.Context, id int64, title, description string, assignedTo int64, deadline *time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, assigned_to = ?, deadline = ?
		WHERE id = ?`,
		title, description, assignedTo, formatTimePtr(deadline), id,
	)
	if err != nil {
		return fmt.Errorf("updating task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating task %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTask fetches one task by ID.
func (s *Store) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	var row taskRow
	err := s.db.GetContext(ctx, &row, taskSelect+" WHERE t.id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %d: %w", id, err)
	}
	t, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTasks returns tasks matching the filter, newest first, joined
// with assignee names.
func (s *Store) ListTasks(ctx context.Context, f TaskFilter) ([]TaskWithAssignee, error) {
	query := taskSelect
	var conditions []string
	var args []any

	if f.Status != "" {
		conditions = append(conditions, "t.status = ?")
		args = append(args, f.Status)
	}
	if f.AssignedTo != nil {
		conditions = append(conditions, "t.assigned_to = ?")
		args = append(args, *f.AssignedTo)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.id DESC"

	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	tasks := make([]TaskWithAssignee, 0, len(rows))
	for _, r := range rows {
		t, err := r.toModel()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, TaskWithAssignee{Task: t, AssigneeName: r.AssigneeName.String})
	}
	return tasks, nil
}

// ListTasksForUser returns the tasks assigned to one user, newest first.
func (s *Store) ListTasksForUser(ctx context.Context, userID int64) ([]model.Task, error) {
	var rows []taskRow
	err := s.db.SelectContext(ctx, &rows,
		taskSelect+" WHERE t.assigned_to = ? ORDER BY t.id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks for user %d: %w", userID, err)
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		t, err := r.toModel()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// CompleteTask marks a task completed with an optional note. Only the
// task's own assignee may complete it; anything else is ErrNotFound.
func (s *Store) CompleteTask(ctx context.Context, id, userID int64, note string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET status = 'completed', completion_note = ?, completed_at = ?
		WHERE id = ? AND assigned_to = ?`,
		note, formatTime(at), id, userID,
	)
	if err != nil {
		return fmt.Errorf("completing task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("completing task %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats returns the dashboard counters. A nil userID counts the whole
// system (boss view); otherwise only that user's tasks.
func (s *Store) Stats(ctx context.Context, userID *int64, now time.Time) (model.Stats, error) {
	scope := ""
	var scopeArgs []any
	if userID != nil {
		scope = " AND assigned_to = ?"
		scopeArgs = []any{*userID}
	}

	var stats model.Stats
	counts := []struct {
		dest  *int
		where string
		args  []any
	}{
		{&stats.Total, "1=1" + scope, scopeArgs},
		{&stats.Completed, "status = 'completed'" + scope, scopeArgs},
		{&stats.Pending, "status = 'pending'" + scope, scopeArgs},
		{&stats.Overdue, "status = 'pending' AND deadline IS NOT NULL AND deadline < ?" + scope,
			append([]any{formatTime(now)}, scopeArgs...)},
	}

	for _, c := range counts {
		err := s.db.GetContext(ctx, c.dest,
			"SELECT COUNT(*) FROM tasks WHERE "+c.where, c.args...)
		if err != nil {
			return model.Stats{}, fmt.Errorf("counting tasks: %w", err)
		}
	}
	return stats, nil
}

// PendingReminders returns the scanner's read shape: every pending
// task with a deadline, joined with the assignee's Telegram chat ID.
// Rows whose stored deadline cannot be parsed are logged and skipped,
// never guessed at.
func (s *Store) PendingReminders(ctx context.Context) ([]reminder.Task, error) {
	var rows []taskRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT t.id, t.title, t.deadline,
		       t.reminder_2h_sent, t.reminder_30m_sent, t.reminder_5m_sent,
		       u.telegram_chat_id
		FROM tasks t
		LEFT JOIN users u ON t.assigned_to = u.id
		WHERE t.status = 'pending' AND t.deadline IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("listing pending reminders: %w", err)
	}

	tasks := make([]reminder.Task, 0, len(rows))
	for _, r := range rows {
		deadline, err := parseTimePtr(r.Deadline)
		if err != nil || deadline == nil {
			s.log.Warn("skipping task with unreadable deadline",
				zap.Int64("task_id", r.ID), zap.Error(err))
			continue
		}
		tasks = append(tasks, reminder.Task{
			ID:       r.ID,
			Title:    r.Title,
			Deadline: *deadline,
			ChatID:   r.ChatID.String,
			Sent2H:   r.Reminder2HSent,
			Sent30M:  r.Reminder30MSent,
			Sent5M:   r.Reminder5MSent,
		})
	}
	return tasks, nil
}

// reminderColumns maps each threshold to its flag column. The map is
// the only place a threshold turns into SQL, keeping the targeted
// single-column update targeted.
var reminderColumns = map[reminder.Threshold]string{
	reminder.Threshold2H:  "reminder_2h_sent",
	reminder.Threshold30M: "reminder_30m_sent",
	reminder.Threshold5M:  "reminder_5m_sent",
}

// MarkReminderSent sets exactly one sent-flag to true. Marking a task
// that no longer exists is a no-op, not an error: the scanner read the
// row before someone deleted it, and there is nothing left to flag.
func (s *Store) MarkReminderSent(ctx context.Context, taskID int64, th reminder.Threshold) error {
	column, ok := reminderColumns[th]
	if !ok {
		return fmt.Errorf("unknown reminder threshold %q", th)
	}

	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE tasks SET %s = 1 WHERE id = ?", column), taskID)
	if err != nil {
		return fmt.Errorf("marking reminder %s sent for task %d: %w", th, taskID, err)
	}
	return nil
}
