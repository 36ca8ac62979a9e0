package model

import "time"

// Task status values. A task is created pending and becomes completed
// exactly once; completed is terminal.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Task is a unit of work the boss assigns to a staff member.
type Task struct {
	// ID is the internal unique identifier for this task.
	ID int64 `db:"id" json:"id"`

	// Title is the short human-readable summary.
	Title string `db:"title" json:"title"`

	// Description is the optional long-form body.
	Description string `db:"description" json:"description"`

	// AssignedTo is the ID of the user responsible for this task.
	// Nil if the assignee was deleted.
	AssignedTo *int64 `db:"assigned_to" json:"assigned_to"`

	// Deadline is the optional due instant. Tasks without a deadline
	// are never eligible for reminders.
	Deadline *time.Time `db:"deadline" json:"deadline"`

	// Status is StatusPending or StatusCompleted.
	Status string `db:"status" json:"status"`

	// CompletionNote is the assignee's optional note left on completion.
	CompletionNote string `db:"completion_note" json:"completion_note"`

	// CompletedAt is when the task was marked completed.
	CompletedAt *time.Time `db:"completed_at" json:"completed_at"`

	// CreatedAt is when the boss created the task.
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Reminder sent-flags. Each records that the reminder for its
	// deadline threshold was confirmed delivered at least once. They
	// are independent and monotonic: once set they are never cleared
	// for the lifetime of the task row.
	Reminder2HSent  bool `db:"reminder_2h_sent" json:"reminder_2h_sent"`
	Reminder30MSent bool `db:"reminder_30m_sent" json:"reminder_30m_sent"`
	Reminder5MSent  bool `db:"reminder_5m_sent" json:"reminder_5m_sent"`
}

// Stats is the dashboard counters block, scoped to one user or to the
// whole system depending on who asks.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
}
