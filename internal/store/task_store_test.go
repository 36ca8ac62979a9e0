package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jalolov/crm-tizimi/internal/clock"
	"github.com/jalolov/crm-tizimi/internal/model"
	"github.com/jalolov/crm-tizimi/internal/reminder"
)

func createTestTask(t *testing.T, s *Store, title string, assignedTo *int64, deadline *time.Time) int64 {
	t.Helper()
	id, err := s.CreateTask(context.Background(), model.Task{
		Title:       title,
		Description: "tavsif",
		AssignedTo:  assignedTo,
		Deadline:    deadline,
	})
	if err != nil {
		t.Fatalf("creating task %s: %v", title, err)
	}
	return id
}

func TestCreateAndGetTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID := createTestUser(t, s, "ishchi", model.RoleXodim)
	deadline := clock.Now().Add(48 * time.Hour).Truncate(time.Second)
	id := createTestTask(t, s, "Hisobot", &userID, &deadline)

	got, err := s.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Title != "Hisobot" || got.Status != model.StatusPending {
		t.Errorf("got title %q status %q", got.Title, got.Status)
	}
	if got.AssignedTo == nil || *got.AssignedTo != userID {
		t.Errorf("assigned_to = %v, want %d", got.AssignedTo, userID)
	}
	if got.Deadline == nil || !got.Deadline.Equal(deadline) {
		t.Errorf("deadline = %v, want %v", got.Deadline, deadline)
	}
	if got.Reminder2HSent || got.Reminder30MSent || got.Reminder5MSent {
		t.Error("new tasks must start with all reminder flags unset")
	}
}

func TestTaskWithoutDeadline(t *testing.T) {
	s := newTestStore(t)
	userID := createTestUser(t, s, "ishchi", model.RoleXodim)
	id := createTestTask(t, s, "Muddatsiz", &userID, nil)

	got, err := s.GetTask(context.Background(), id)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Deadline != nil {
		t.Errorf("deadline = %v, want nil", got.Deadline)
	}
}

func TestUpdateTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := createTestUser(t, s, "birinchi", model.RoleXodim)
	second := createTestUser(t, s, "ikkinchi", model.RoleXodim)
	id := createTestTask(t, s, "Eski nom", &first, nil)

	deadline := clock.Now().Add(2 * time.Hour).Truncate(time.Second)
	if err := s.UpdateTask(ctx, id, "Yangi nom", "yangi tavsif", second, &deadline); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	got, err := s.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Title != "Yangi nom" || got.Description != "yangi tavsif" {
		t.Errorf("got %q / %q after update", got.Title, got.Description)
	}
	if got.AssignedTo == nil || *got.AssignedTo != second {
		t.Errorf("assigned_to = %v, want %d", got.AssignedTo, second)
	}

	if err := s.UpdateTask(ctx, 999, "x", "y", first, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateTask(999) = %v, want ErrNotFound", err)
	}
}

func TestDeleteTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID := createTestUser(t, s, "ishchi", model.RoleXodim)
	id := createTestTask(t, s, "Ochiriladigan", &userID, nil)

	if err := s.DeleteTask(ctx, id); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if _, err := s.GetTask(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted task still readable: %v", err)
	}
	if err := s.DeleteTask(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete = %v, want ErrNotFound", err)
	}
}

func TestListTasksFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, s, "aliya", model.RoleXodim)
	bob := createTestUser(t, s, "botir", model.RoleXodim)

	t1 := createTestTask(t, s, "Aliya 1", &alice, nil)
	createTestTask(t, s, "Botir 1", &bob, nil)
	t3 := createTestTask(t, s, "Aliya 2", &alice, nil)

	if err := s.CompleteTask(ctx, t3, alice, "tayyor", clock.Now()); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	all, err := s.ListTasks(ctx, TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("unfiltered list = %d tasks, want 3", len(all))
	}
	if all[0].AssigneeName == "" {
		t.Error("listing must join the assignee name")
	}

	pending, err := s.ListTasks(ctx, TaskFilter{Status: model.StatusPending})
	if err != nil {
		t.Fatalf("ListTasks(pending): %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending = %d, want 2", len(pending))
	}

	aliyaOnly, err := s.ListTasks(ctx, TaskFilter{AssignedTo: &alice})
	if err != nil {
		t.Fatalf("ListTasks(assignee): %v", err)
	}
	if len(aliyaOnly) != 2 {
		t.Errorf("aliya's tasks = %d, want 2", len(aliyaOnly))
	}

	both, err := s.ListTasks(ctx, TaskFilter{Status: model.StatusPending, AssignedTo: &alice})
	if err != nil {
		t.Fatalf("ListTasks(both): %v", err)
	}
	if len(both) != 1 || both[0].ID != t1 {
		t.Errorf("combined filter = %+v, want just task %d", both, t1)
	}

	own, err := s.ListTasksForUser(ctx, alice)
	if err != nil {
		t.Fatalf("ListTasksForUser: %v", err)
	}
	if len(own) != 2 {
		t.Errorf("ListTasksForUser = %d, want 2", len(own))
	}
}

func TestCompleteTaskOwnershipRequired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "egasi", model.RoleXodim)
	other := createTestUser(t, s, "boshqa", model.RoleXodim)
	id := createTestTask(t, s, "Topshiriq", &owner, nil)

	// Someone else's task cannot be completed.
	if err := s.CompleteTask(ctx, id, other, "", clock.Now()); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign CompleteTask = %v, want ErrNotFound", err)
	}

	done := clock.Now().Truncate(time.Second)
	if err := s.CompleteTask(ctx, id, owner, "bajarildi", done); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	got, err := s.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Status != model.StatusCompleted || got.CompletionNote != "bajarildi" {
		t.Errorf("status %q note %q after completion", got.Status, got.CompletionNote)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(done) {
		t.Errorf("completed_at = %v, want %v", got.CompletedAt, done)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := clock.Now()

	alice := createTestUser(t, s, "aliya", model.RoleXodim)
	bob := createTestUser(t, s, "botir", model.RoleXodim)

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	createTestTask(t, s, "Kechikkan", &alice, &past)
	createTestTask(t, s, "Kelajak", &alice, &future)
	done := createTestTask(t, s, "Tugagan", &bob, nil)
	if err := s.CompleteTask(ctx, done, bob, "", now); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	system, err := s.Stats(ctx, nil, now)
	if err != nil {
		t.Fatalf("Stats(system): %v", err)
	}
	want := model.Stats{Total: 3, Completed: 1, Pending: 2, Overdue: 1}
	if system != want {
		t.Errorf("system stats = %+v, want %+v", system, want)
	}

	mine, err := s.Stats(ctx, &alice, now)
	if err != nil {
		t.Fatalf("Stats(alice): %v", err)
	}
	want = model.Stats{Total: 2, Completed: 0, Pending: 2, Overdue: 1}
	if mine != want {
		t.Errorf("alice stats = %+v, want %+v", mine, want)
	}
}

func TestPendingRemindersSelection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	deadline := clock.Now().Add(2 * time.Hour).Truncate(time.Second)

	withChat := createTestUser(t, s, "chatli", model.RoleXodim)
	newChat := "555"
	if err := s.UpdateUser(ctx, withChat, UserUpdate{TelegramChatID: &newChat}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	eligible := createTestTask(t, s, "Eslatiladigan", &withChat, &deadline)
	createTestTask(t, s, "Muddatsiz", &withChat, nil)
	completed := createTestTask(t, s, "Tugagan", &withChat, &deadline)
	if err := s.CompleteTask(ctx, completed, withChat, "", clock.Now()); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	unassigned := createTestTask(t, s, "Egasiz", nil, &deadline)

	got, err := s.PendingReminders(ctx)
	if err != nil {
		t.Fatalf("PendingReminders: %v", err)
	}
	// Completed and deadline-less tasks never appear; the unassigned
	// one does, with an empty chat ID for the scanner to skip.
	if len(got) != 2 {
		t.Fatalf("got %d reminder rows, want 2: %+v", len(got), got)
	}
	byID := map[int64]reminder.Task{}
	for _, r := range got {
		byID[r.ID] = r
	}
	if r, ok := byID[eligible]; !ok || r.ChatID != "555" {
		t.Errorf("eligible row = %+v, want chat 555", r)
	}
	if r, ok := byID[unassigned]; !ok || r.ChatID != "" {
		t.Errorf("unassigned row = %+v, want empty chat", r)
	}
	if !byID[eligible].Deadline.Equal(deadline) {
		t.Errorf("deadline round-trip = %v, want %v", byID[eligible].Deadline, deadline)
	}
}

func TestMarkReminderSentSingleColumn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	deadline := clock.Now().Add(2 * time.Hour)

	userID := createTestUser(t, s, "ishchi", model.RoleXodim)
	id := createTestTask(t, s, "Belgili", &userID, &deadline)

	if err := s.MarkReminderSent(ctx, id, reminder.Threshold30M); err != nil {
		t.Fatalf("MarkReminderSent: %v", err)
	}

	got, err := s.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if !got.Reminder30MSent {
		t.Error("30m flag must be set")
	}
	if got.Reminder2HSent || got.Reminder5MSent {
		t.Error("only the targeted flag may change")
	}

	// A vanished task is a no-op, never an error.
	if err := s.MarkReminderSent(ctx, 999, reminder.Threshold5M); err != nil {
		t.Errorf("MarkReminderSent(missing) = %v, want nil", err)
	}

	if err := s.MarkReminderSent(ctx, id, reminder.Threshold("1h")); err == nil {
		t.Error("unknown threshold must be rejected")
	}
}
