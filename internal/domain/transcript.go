package domain

// EntryType classifies a transcript entry.
type EntryType string

const (
	EntryUser      EntryType = "user"
	EntryAI        EntryType = "ai"
	EntryAIPending EntryType = "ai-pending"
	EntryHint      EntryType = "hint"
)

// Entry is one message in the session transcript.
type Entry struct {
	Type EntryType `json:"type"`
	Text string    `json:"text"`
	Key  string    `json:"key"`
}

// SessionConfig is the immutable configuration captured when an interview
// starts.
type SessionConfig struct {
	Role            string `json:"role"`
	Level           string `json:"level"`
	DurationMinutes int    `json:"durationMinutes"`
}

// Evaluation is the classification of an in-progress answer.
type Evaluation struct {
	Message string `json:"message"`
	Action  string `json:"action"`
}

// Partial-answer classification values.
const (
	ActionContinue = "continue"
	ActionHint     = "hint"
	ActionStop     = "stop"
)
