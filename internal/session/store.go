// Package session implements the live interview session engine: the state
// store, per-question countdown, session clock, mailbox poller,
// partial-answer evaluator, and the commands that drive them.
package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/talentpulse/interview-engine/internal/domain"
)

// State is the session lifecycle state.
type State int

const (
	StateNotStarted State = iota
	StateActive
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	default:
		return "not-started"
	}
}

// ApplyOutcome describes what applying a question payload did.
type ApplyOutcome int

const (
	// OutcomeIgnored: the session is not active or the payload was empty.
	OutcomeIgnored ApplyOutcome = iota
	// OutcomeDuplicate: the payload re-delivered the current question turn.
	OutcomeDuplicate
	// OutcomeNewTurn: a new question turn was applied.
	OutcomeNewTurn
	// OutcomeCompleted: the payload completed the session.
	OutcomeCompleted
)

// ApplyResult is the outcome of a payload application, with the data the
// caller needs to arm the countdown for a new turn.
type ApplyResult struct {
	Outcome  ApplyOutcome
	Identity domain.TurnIdentity
	Seconds  int
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	State      State
	SessionID  string
	Config     domain.SessionConfig
	Elapsed    int
	Current    domain.TurnIdentity
	Transcript []domain.Entry
	Feedback   *domain.Feedback
}

// Store is the single authoritative session state container. All mutation
// goes through its transition methods; the other engine components only
// read from it.
type Store struct {
	mu  sync.Mutex
	log zerolog.Logger

	state        State
	sessionID    string
	config       domain.SessionConfig
	elapsed      int
	current      domain.TurnIdentity
	lastReceived string
	transcript   []domain.Entry
	pendingKey   string
	feedback     *domain.Feedback

	// onEntry, when set, is invoked for every appended or resolved entry.
	// It runs on the mutating goroutine and must not call back into the
	// store.
	onEntry func(domain.Entry)
}

// NewStore creates an empty store.
func NewStore(log zerolog.Logger) *Store {
	return &Store{log: log}
}

// SetEntryHook installs the transcript render hook. Must be called before
// the session starts.
func (s *Store) SetEntryHook(fn func(domain.Entry)) {
	s.onEntry = fn
}

// Begin resets the store for a new session and marks it active. Seed
// messages from the start response become AI transcript entries.
func (s *Store) Begin(sessionID string, cfg domain.SessionConfig, messages []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateActive
	s.sessionID = sessionID
	s.config = cfg
	s.elapsed = 0
	s.current = domain.TurnIdentity{}
	s.lastReceived = ""
	s.transcript = nil
	s.pendingKey = ""
	s.feedback = nil

	for _, msg := range messages {
		s.appendLocked(domain.EntryAI, msg)
	}

	s.log.Info().
		Str("sessionId", sessionID).
		Str("role", cfg.Role).
		Str("level", cfg.Level).
		Int("durationMinutes", cfg.DurationMinutes).
		Msg("session started")
}

// Apply applies a question payload to the session. It is idempotent on the
// question turn identity: re-delivery of the current turn (for example via
// both the submit response and the poller) is a no-op. Once the session is
// completed every further application is ignored.
func (s *Store) Apply(p *domain.QuestionPayload) ApplyResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive || p.Empty() {
		return ApplyResult{Outcome: OutcomeIgnored}
	}

	if p.IsComplete {
		s.state = StateCompleted
		if fb := domain.ParseFeedback(p.Feedback); fb != nil {
			s.feedback = fb
		}

		text := strings.TrimSpace(p.Acknowledgement)
		if text == "" {
			text = "The interview is complete."
		}
		if s.pendingKey != "" {
			s.resolvePendingLocked(text)
		} else {
			s.appendLocked(domain.EntryAI, text)
		}

		s.log.Info().
			Str("sessionId", s.sessionID).
			Bool("hasFeedback", s.feedback != nil).
			Msg("session completed")
		return ApplyResult{Outcome: OutcomeCompleted}
	}

	id := p.Identity()
	if id == s.current {
		return ApplyResult{Outcome: OutcomeDuplicate, Identity: id}
	}

	text := formatQuestion(p)
	if s.pendingKey != "" {
		s.resolvePendingLocked(text)
	} else {
		s.appendLocked(domain.EntryAI, text)
	}

	s.current = id
	s.lastReceived = p.Question

	s.log.Debug().
		Str("identity", id.String()).
		Int("seconds", p.TimeSeconds()).
		Msg("question turn applied")
	return ApplyResult{Outcome: OutcomeNewTurn, Identity: id, Seconds: p.TimeSeconds()}
}

// AppendUser appends a user answer entry.
func (s *Store) AppendUser(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}
	s.appendLocked(domain.EntryUser, text)
}

// AppendPending appends the placeholder for the AI reply being produced.
// At most one placeholder is outstanding; the engine serializes submissions
// so a second call before resolution replaces nothing and keeps the first.
func (s *Store) AppendPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive || s.pendingKey != "" {
		return
	}
	key := uuid.New().String()
	s.pendingKey = key
	entry := domain.Entry{Type: domain.EntryAIPending, Text: "...", Key: key}
	s.transcript = append(s.transcript, entry)
	if s.onEntry != nil {
		s.onEntry(entry)
	}
}

// RemovePending drops an unresolved placeholder, if any. Called when a
// submission fails or when the response payload carried no AI message.
func (s *Store) RemovePending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingKey == "" {
		return
	}
	for i, entry := range s.transcript {
		if entry.Key == s.pendingKey {
			s.transcript = append(s.transcript[:i], s.transcript[i+1:]...)
			break
		}
	}
	s.pendingKey = ""
}

// AppendHint appends a hint entry from timeout handling.
func (s *Store) AppendHint(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}
	s.appendLocked(domain.EntryHint, text)
}

// SetElapsed records the session clock value.
func (s *Store) SetElapsed(seconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateActive && seconds > s.elapsed {
		s.elapsed = seconds
	}
}

// resolvePendingLocked replaces the outstanding placeholder with a real AI
// entry, keeping its position and key.
func (s *Store) resolvePendingLocked(text string) {
	for i, entry := range s.transcript {
		if entry.Key == s.pendingKey {
			s.transcript[i].Type = domain.EntryAI
			s.transcript[i].Text = text
			if s.onEntry != nil {
				s.onEntry(s.transcript[i])
			}
			break
		}
	}
	s.pendingKey = ""
}

func (s *Store) appendLocked(t domain.EntryType, text string) {
	entry := domain.Entry{Type: t, Text: text, Key: uuid.New().String()}
	s.transcript = append(s.transcript, entry)
	if s.onEntry != nil {
		s.onEntry(entry)
	}
}

// State returns the lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active reports whether the session is active.
func (s *Store) Active() bool {
	return s.State() == StateActive
}

// SessionID returns the backend-assigned session identifier.
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// CurrentIdentity returns the identity of the current question turn.
func (s *Store) CurrentIdentity() domain.TurnIdentity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// LastReceived returns the question text of the last applied delivery, the
// independent marker the poller checks alongside the turn identity.
func (s *Store) LastReceived() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReceived
}

// HasPending reports whether an AI placeholder is outstanding.
func (s *Store) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingKey != ""
}

// Feedback returns the structured feedback, or nil.
func (s *Store) Feedback() *domain.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedback
}

// Elapsed returns the session clock value in seconds.
func (s *Store) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Snapshot returns a consistent copy of the session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	transcript := make([]domain.Entry, len(s.transcript))
	copy(transcript, s.transcript)

	var fb *domain.Feedback
	if s.feedback != nil {
		v := *s.feedback
		fb = &v
	}

	return Snapshot{
		State:      s.state,
		SessionID:  s.sessionID,
		Config:     s.config,
		Elapsed:    s.elapsed,
		Current:    s.current,
		Transcript: transcript,
		Feedback:   fb,
	}
}

// formatQuestion renders the AI transcript entry for a question payload,
// combining the acknowledgement with the numbered question.
func formatQuestion(p *domain.QuestionPayload) string {
	ack := strings.TrimSpace(p.Acknowledgement)
	q := fmt.Sprintf("Q%d: %s", p.QuestionNumber, p.Question)
	if ack == "" {
		return q
	}
	return ack + " " + q
}
