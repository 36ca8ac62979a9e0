package reminder

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jalolov/crm-tizimi/internal/clock"
)

// TaskSource is the task-store surface the engine consumes. Each
// method is independently atomic at the store level; the engine does
// not assume cross-call transactions.
type TaskSource interface {
	// PendingReminders lists pending tasks that have a deadline,
	// including the assignee chat ID and the three sent-flags.
	PendingReminders(ctx context.Context) ([]Task, error)

	// MarkReminderSent sets exactly one sent-flag for a task. It must
	// be a no-op, not an error, if the task no longer exists.
	MarkReminderSent(ctx context.Context, taskID int64, th Threshold) error
}

// Notifier is the outbound delivery channel. A nil error means the
// message was confirmed delivered.
type Notifier interface {
	Send(ctx context.Context, chatID, text string) error
}

// Options tunes the scan loop. The zero value selects production
// behavior; tests inject a short interval and a fixed clock.
type Options struct {
	// Interval is the sleep between the end of one scan and the start
	// of the next. Defaults to one minute.
	Interval time.Duration

	// Windows are the threshold windows in evaluation order.
	// Defaults to DefaultWindows.
	Windows []Window

	// Now supplies the current instant. Defaults to clock.Now.
	Now func() time.Time
}

// Scheduler owns the reminder scan loop. Exactly one loop runs per
// Scheduler regardless of how many goroutines call Start.
type Scheduler struct {
	source   TaskSource
	notifier Notifier
	log      *zap.Logger
	interval time.Duration
	windows  []Window
	now      func() time.Time

	mu      sync.Mutex
	running bool
}

// New creates a Scheduler. Missing options get production defaults.
func New(source TaskSource, notifier Notifier, log *zap.Logger, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if len(opts.Windows) == 0 {
		opts.Windows = DefaultWindows()
	}
	if opts.Now == nil {
		opts.Now = clock.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		source:   source,
		notifier: notifier,
		log:      log,
		interval: opts.Interval,
		windows:  opts.Windows,
		now:      opts.Now,
	}
}

// Start launches the scan loop in its own goroutine. It is safe to
// call from any number of concurrent callers: the first call wins and
// returns true, every later call is a no-op returning false. The loop
// runs until ctx is cancelled; cancellation is checked at the top of
// each cycle and during the inter-cycle sleep.
func (s *Scheduler) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	go s.loop(ctx)
	return true
}

// Running reports whether the scan loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) setStopped() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// loop scans, sleeps, and repeats. The sleep is measured from the end
// of one scan to the start of the next, so a slow cycle simply drifts
// rather than stacking up.
func (s *Scheduler) loop(ctx context.Context) {
	defer s.setStopped()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.runCycle(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.interval):
		}
	}
}

// runCycle performs a single scan over all pending deadlined tasks.
// Failures are logged and never abort the cycle or the loop.
func (s *Scheduler) runCycle(ctx context.Context) {
	tasks, err := s.source.PendingReminders(ctx)
	if err != nil {
		s.log.Error("listing pending reminders", zap.Error(err))
		return
	}

	now := s.now()
	for _, t := range tasks {
		s.processTask(ctx, t, now)
	}
}

// processTask classifies one task against the threshold windows and
// fires at most one notification. The sent-flag is persisted only
// after delivery succeeds; a failed delivery is retried on the next
// cycle for as long as the task remains inside the window.
func (s *Scheduler) processTask(ctx context.Context, t Task, now time.Time) {
	if t.ChatID == "" {
		// No destination is an expected condition, not an error.
		return
	}

	minutesLeft := t.Deadline.Sub(now).Minutes()

	w, ok := Candidate(t, minutesLeft, s.windows)
	if !ok {
		return
	}

	if err := s.notifier.Send(ctx, t.ChatID, Message(w.Threshold, t.Title)); err != nil {
		s.log.Warn("reminder delivery failed",
			zap.Int64("task_id", t.ID),
			zap.String("threshold", string(w.Threshold)),
			zap.Error(err))
		return
	}

	if err := s.source.MarkReminderSent(ctx, t.ID, w.Threshold); err != nil {
		// The message went out but the flag write failed; the worst
		// case on the next cycle is one duplicate, which the
		// at-most-once contract tolerates over exactly-once.
		s.log.Error("marking reminder sent",
			zap.Int64("task_id", t.ID),
			zap.String("threshold", string(w.Threshold)),
			zap.Error(err))
	}
}
