// Package reminder implements the deadline reminder engine: a
// background scan loop that watches pending tasks and sends at most
// one Telegram notification per deadline threshold per task.
//
// The engine consumes two collaborators it does not implement: a
// TaskSource for reading pending tasks and persisting sent-flags, and
// a Notifier for outbound delivery. A sent-flag is only persisted
// after the notifier confirms delivery, which makes the loop
// idempotent across restarts and across overlapping scan cycles.
package reminder

import (
	"fmt"
	"time"
)

// Threshold names one of the three fixed reminder categories.
type Threshold string

const (
	Threshold2H  Threshold = "2h"
	Threshold30M Threshold = "30m"
	Threshold5M  Threshold = "5m"
)

// Window is a closed interval of minutes-remaining-until-deadline that
// triggers one reminder category. Windows are wider than a single
// minute so that a 60-second polling loop cannot step over a
// threshold without landing inside it.
type Window struct {
	Threshold Threshold
	Min       float64
	Max       float64
}

// Contains reports whether minutesLeft falls inside the window.
func (w Window) Contains(minutesLeft float64) bool {
	return minutesLeft >= w.Min && minutesLeft <= w.Max
}

// DefaultWindows returns the three fixed threshold windows in
// descending order of remaining time. The evaluation order is
// significant: the first unsent match wins and nothing else fires in
// the same cycle.
func DefaultWindows() []Window {
	return []Window{
		{Threshold: Threshold2H, Min: 115, Max: 125},
		{Threshold: Threshold30M, Min: 25, Max: 35},
		{Threshold: Threshold5M, Min: 3, Max: 7},
	}
}

// Task is the snapshot of a pending task the engine reads each cycle:
// identity, title for the message text, the deadline, the assignee's
// notification destination, and the three sent-flags.
type Task struct {
	ID       int64
	Title    string
	Deadline time.Time
	ChatID   string
	Sent2H   bool
	Sent30M  bool
	Sent5M   bool
}

// Sent reports whether the flag for the given threshold is set.
func (t Task) Sent(th Threshold) bool {
	switch th {
	case Threshold2H:
		return t.Sent2H
	case Threshold30M:
		return t.Sent30M
	case Threshold5M:
		return t.Sent5M
	}
	return false
}

// Candidate returns the first window, in the given order, that
// contains minutesLeft and whose flag on the task is still unset.
// At most one window is ever returned per call, so a task gets at
// most one notification per cycle even if the windows were
// misconfigured to overlap.
func Candidate(t Task, minutesLeft float64, windows []Window) (Window, bool) {
	for _, w := range windows {
		if w.Contains(minutesLeft) && !t.Sent(w.Threshold) {
			return w, true
		}
	}
	return Window{}, false
}

// messages maps each threshold to its fixed message template. The
// texts mirror the production Telegram messages (HTML parse mode).
var messages = map[Threshold]string{
	Threshold2H:  "⏰ <b>Eslatma!</b>\n\n📋 %s\n⏳ Muddat: 2 soatdan kam qoldi!",
	Threshold30M: "⚠️ <b>Shoshiling!</b>\n\n📋 %s\n⏳ Muddat: 30 daqiqadan kam qoldi!",
	Threshold5M:  "🚨 <b>DIQQAT!</b>\n\n📋 %s\n⏳ Muddat: 5 daqiqadan kam qoldi!",
}

// Message renders the notification text for a threshold and task title.
func Message(th Threshold, title string) string {
	return fmt.Sprintf(messages[th], title)
}
