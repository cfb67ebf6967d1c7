package models

import (
	"fmt"
	"time"
)

// Notification ids are deterministic: derived from the source submission id
// so that re-deriving over the same submission set is idempotent.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func NotificationID(submissionID int64) string {
	return fmt.Sprintf("sub_%d", submissionID)
}
