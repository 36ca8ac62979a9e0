package notify

import (
	"fmt"
	"time"

	"github.com/jalolov/crm-tizimi/internal/clock"
)

// NewTaskMessage is the text sent to an assignee when the boss
// creates a task for them.
func NewTaskMessage(title string, deadline *time.Time) string {
	msg := fmt.Sprintf("📋 <b>Yangi topshiriq!</b>\n\n%s", title)
	if deadline != nil {
		msg += fmt.Sprintf("\n📅 Muddat: %s", clock.Format(deadline))
	}
	return msg
}

// TaskCompletedMessage is the text sent to the boss chat when an
// assignee marks a task done.
func TaskCompletedMessage(title, doneBy, note string) string {
	if doneBy == "" {
		doneBy = "Noma'lum"
	}
	msg := fmt.Sprintf("✅ <b>Topshiriq bajarildi!</b>\n\n📋 %s\n👤 Bajardi: %s", title, doneBy)
	if note != "" {
		msg += fmt.Sprintf("\n💬 Izoh: %s", note)
	}
	return msg
}
