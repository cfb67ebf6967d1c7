// Package notify synthesizes user notifications from freshly arrived
// submissions. Derivation is idempotent: ids are deterministic per source
// submission, so re-running over the same set changes nothing.
package notify

import (
	"fmt"
	"sort"
	"time"

	"github.com/shrimpsizemoose/lussekatt/internal/metrics"
	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

// DefaultRecencyWindow is how far back a submission still counts as
// newly-arrived.
const DefaultRecencyWindow = time.Hour

// Derive scans the submission set for items inside the recency window that
// have no notification yet and appends synthesized entries. Existing
// notifications are never mutated or deleted here; read-state toggles go
// through MarkRead. The changed flag is false when the result is
// value-identical to existing, so callers can skip the state write.
func Derive(existing []models.Notification, subs []models.Submission, window time.Duration, now time.Time) (notifications []models.Notification, unread int, changed bool) {
	seen := make(map[string]bool, len(existing))
	for _, n := range existing {
		seen[n.ID] = true
	}

	notifications = make([]models.Notification, len(existing))
	copy(notifications, existing)

	type entry struct {
		subID int64
		note  models.Notification
	}
	var fresh []entry
	for i := range subs {
		sub := &subs[i]
		if sub.SubmittedAt == nil {
			continue
		}
		age := now.Sub(*sub.SubmittedAt)
		if age < 0 || age > window {
			continue
		}
		id := models.NotificationID(sub.ID)
		if seen[id] {
			continue
		}
		seen[id] = true
		fresh = append(fresh, entry{subID: sub.ID, note: synthesize(sub, now)})
	}

	if len(fresh) > 0 {
		// newest first, stable across runs
		sort.Slice(fresh, func(i, j int) bool { return fresh[i].subID > fresh[j].subID })
		prepended := make([]models.Notification, 0, len(fresh)+len(notifications))
		for _, e := range fresh {
			prepended = append(prepended, e.note)
		}
		notifications = append(prepended, notifications...)
		metrics.NotificationsDerived.Add(float64(len(fresh)))
		changed = true
	}

	for _, n := range notifications {
		if !n.Read {
			unread++
		}
	}
	return notifications, unread, changed
}

// MarkRead flips one notification to read. Monotonic: an already-read
// entry stays read, and the changed flag reports whether anything moved.
func MarkRead(notifications []models.Notification, id string) (out []models.Notification, changed bool) {
	out = make([]models.Notification, len(notifications))
	copy(out, notifications)
	for i := range out {
		if out[i].ID == id && !out[i].Read {
			out[i].Read = true
			changed = true
		}
	}
	return out, changed
}

// UnreadCount is used when the set itself did not change.
func UnreadCount(notifications []models.Notification) int {
	count := 0
	for _, n := range notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

func synthesize(sub *models.Submission, now time.Time) models.Notification {
	who := sub.StudentName
	if who == "" {
		who = "a student"
	}
	what := sub.Title
	if what == "" {
		what = "an assignment"
	}
	return models.Notification{
		ID:        models.NotificationID(sub.ID),
		Title:     "New submission",
		Message:   fmt.Sprintf("%s submitted %s", who, what),
		Type:      "submission",
		Read:      false,
		CreatedAt: now,
	}
}
