package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActionKind identifies the category of a performed action.
type ActionKind string

const (
	ActionMessage ActionKind = "message"
	ActionComment ActionKind = "comment"
)

// ActionOutcome is the normalized result of one executed action.
// It is a transient value passed from the executors to the reporter and
// the health tracker; it is never persisted.
type ActionOutcome struct {
	ID          uuid.UUID  `json:"id"`
	Success     bool       `json:"success"`
	Kind        ActionKind `json:"action"`
	Target      string     `json:"target"`
	Content     string     `json:"content,omitempty"`
	ErrorDetail string     `json:"error,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
}

// SucceededOutcome builds a successful outcome for the given action.
func SucceededOutcome(kind ActionKind, target, content string) ActionOutcome {
	return ActionOutcome{
		ID:        uuid.New(),
		Success:   true,
		Kind:      kind,
		Target:    target,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// FailedOutcome builds a failed outcome carrying the error detail.
func FailedOutcome(kind ActionKind, target string, err error) ActionOutcome {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return ActionOutcome{
		ID:          uuid.New(),
		Success:     false,
		Kind:        kind,
		Target:      target,
		ErrorDetail: detail,
		Timestamp:   time.Now(),
	}
}
