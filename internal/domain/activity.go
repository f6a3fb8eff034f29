package domain

import (
	"time"

	"github.com/google/uuid"
)

// Level classifies an activity log entry.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// ActivityRecord is one timestamped entry in the engine's activity log.
// Records are immutable once appended; the log is append-only and all
// aggregate statistics are computed as a fold over it.
type ActivityRecord struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Level     Level     `json:"level"`
}

// NewActivityRecord creates a record stamped with the current time.
func NewActivityRecord(level Level, message string) ActivityRecord {
	return ActivityRecord{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Message:   message,
		Level:     level,
	}
}
