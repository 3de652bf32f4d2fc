// Package domain defines the core types for an interview session.
package domain

import (
	"encoding/json"
	"fmt"
)

// DefaultQuestionTime is the per-question time in seconds used when the
// backend does not suggest one.
const DefaultQuestionTime = 60

// SentinelNoAnswer is submitted in place of an empty answer.
const SentinelNoAnswer = "[No answer]"

// QuestionPayload is the wire shape shared by the backend endpoints and the
// question mailbox. A zero QuestionNumber with an empty Question means the
// payload carries no question.
type QuestionPayload struct {
	Question        string          `json:"question,omitempty"`
	Acknowledgement string          `json:"acknowledgement,omitempty"`
	QuestionNumber  int             `json:"questionNumber,omitempty"`
	EstimatedTime   int             `json:"estimatedTime,omitempty"`
	IsComplete      bool            `json:"isComplete"`
	Feedback        json.RawMessage `json:"feedback,omitempty"`
}

// Empty reports whether the payload carries neither a question nor a
// completion signal.
func (p *QuestionPayload) Empty() bool {
	return p == nil || (p.Question == "" && !p.IsComplete)
}

// Identity returns the de-duplication key for the payload's question.
func (p *QuestionPayload) Identity() TurnIdentity {
	return TurnIdentity{Question: p.Question, QuestionNumber: p.QuestionNumber}
}

// TimeSeconds returns the suggested per-question time, falling back to
// DefaultQuestionTime when the backend did not set one.
func (p *QuestionPayload) TimeSeconds() int {
	if p.EstimatedTime <= 0 {
		return DefaultQuestionTime
	}
	return p.EstimatedTime
}

// TurnIdentity identifies one question turn. Two deliveries of the same
// question compare equal regardless of the path they arrived by.
type TurnIdentity struct {
	Question       string
	QuestionNumber int
}

// IsZero reports whether the identity is unset.
func (id TurnIdentity) IsZero() bool {
	return id.Question == "" && id.QuestionNumber == 0
}

func (id TurnIdentity) String() string {
	return fmt.Sprintf("q%d:%s", id.QuestionNumber, truncate(id.Question, 32))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Feedback is the structured interview result supplied on completion.
type Feedback struct {
	Strengths     string `json:"strengths"`
	Communication string `json:"communication"`
	Suggestions   string `json:"suggestions"`
}

// ParseFeedback decodes feedback that may arrive either as a JSON object or
// as a JSON string wrapping a serialized object. It returns nil when the
// payload cannot be decoded; completion handling treats that as "feedback
// unavailable" rather than an error.
func ParseFeedback(raw json.RawMessage) *Feedback {
	if len(raw) == 0 {
		return nil
	}

	var fb Feedback
	if err := json.Unmarshal(raw, &fb); err == nil && fb != (Feedback{}) {
		return &fb
	}

	// Some backends double-encode: a JSON string holding the object.
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(inner), &fb); err != nil || fb == (Feedback{}) {
		return nil
	}
	return &fb
}
