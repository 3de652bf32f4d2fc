package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/talentpulse/interview-engine/internal/archive"
	"github.com/talentpulse/interview-engine/internal/backend"
	"github.com/talentpulse/interview-engine/internal/config"
	"github.com/talentpulse/interview-engine/internal/domain"
	"github.com/talentpulse/interview-engine/internal/metrics"
)

var (
	// ErrSubmissionInFlight is returned when an answer submission overlaps
	// a previous one that has not resolved yet.
	ErrSubmissionInFlight = errors.New("an answer submission is already in flight")

	// ErrSessionNotActive is returned by commands that need an active
	// session.
	ErrSessionNotActive = errors.New("session is not active")

	// ErrSessionActive is returned by Start while a session is running.
	ErrSessionActive = errors.New("a session is already active")
)

// Archiver persists completed sessions.
type Archiver interface {
	Save(ctx context.Context, rec *archive.Record) error
}

// Options configures the engine. Zero intervals fall back to production
// defaults.
type Options struct {
	PollInterval      time.Duration
	EvalQuietPeriod   time.Duration
	CountdownInterval time.Duration
	ClockInterval     time.Duration

	// TimeoutPolicy selects the countdown-expiry reaction:
	// config.PolicyForcedSubmit or config.PolicyLiveEvaluation.
	TimeoutPolicy string

	// Candidate identity forwarded to the partial-answer endpoint.
	UserID string
	TestID string
}

// Engine coordinates the session store, the timers, the poller, and the
// evaluator, and exposes the three user commands: Start, SubmitAnswer, and
// EndInterview. It is the only writer into the store besides the poller,
// and the poller funnels through the engine's apply path.
type Engine struct {
	opts      Options
	client    *backend.Client
	store     *Store
	countdown *Countdown
	clock     *Clock
	poller    *Poller
	evaluator *Evaluator
	archiver  Archiver
	log       zerolog.Logger

	mu         sync.Mutex
	submitting bool
	pollCancel context.CancelFunc

	// notify surfaces transient failures to the UI. Optional.
	notify func(msg string)
}

// NewEngine wires up an engine. The archiver may be nil; completed sessions
// are then not persisted.
func NewEngine(opts Options, client *backend.Client, source Source, archiver Archiver, log zerolog.Logger) *Engine {
	if opts.TimeoutPolicy == "" {
		opts.TimeoutPolicy = config.PolicyForcedSubmit
	}

	e := &Engine{
		opts:     opts,
		client:   client,
		archiver: archiver,
		log:      log,
	}
	e.store = NewStore(log)
	e.countdown = NewCountdown(opts.CountdownInterval, e.onCountdownExpired, log)
	e.clock = NewClock(opts.ClockInterval, e.store.SetElapsed)
	e.poller = NewPoller(source, e.store, e.applyPayload, opts.PollInterval, log)
	e.evaluator = NewEvaluator(client, e.store, opts.EvalQuietPeriod, opts.UserID, opts.TestID, log)
	return e
}

// Store exposes the session store for read access.
func (e *Engine) Store() *Store { return e.store }

// Countdown exposes the per-question countdown for read access.
func (e *Engine) Countdown() *Countdown { return e.countdown }

// Evaluator exposes the partial-answer evaluator.
func (e *Engine) Evaluator() *Evaluator { return e.evaluator }

// SetNotifyHook installs the transient-failure notification hook. Must be
// set before the session starts.
func (e *Engine) SetNotifyHook(fn func(msg string)) {
	e.notify = fn
}

// Start begins a new interview session. On success the transcript is reset,
// the clock and poller are running, and any initial question payload from
// the start response has been applied.
func (e *Engine) Start(ctx context.Context, role, level string, durationMinutes int) error {
	if e.store.Active() {
		return ErrSessionActive
	}

	resp, err := e.client.StartInterview(ctx, &backend.StartRequest{
		Role:            role,
		Level:           level,
		DurationMinutes: durationMinutes,
	})
	if err != nil {
		e.notifyUser("Failed to start interview")
		return fmt.Errorf("failed to start interview: %w", err)
	}

	cfg := domain.SessionConfig{Role: role, Level: level, DurationMinutes: durationMinutes}
	e.store.Begin(resp.SessionID, cfg, resp.Messages)
	metrics.Default.SessionsStarted.Inc()

	e.clock.Start()

	pollCtx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.pollCancel = cancel
	e.mu.Unlock()
	go e.poller.Run(pollCtx)

	if resp.QuestionPayload != nil {
		e.applyPayload(resp.QuestionPayload)
	}
	return nil
}

// SubmitAnswer submits an answer for the current question. Empty or
// whitespace-only text is coerced to the no-answer sentinel. Submissions
// are serialized; a call while another is in flight fails with
// ErrSubmissionInFlight.
func (e *Engine) SubmitAnswer(ctx context.Context, text string) error {
	return e.submit(ctx, text)
}

// EndInterview ends the session manually. Timers stop before the network
// call so no timeout can fire after the user ends the interview.
func (e *Engine) EndInterview(ctx context.Context) error {
	if !e.store.Active() {
		return ErrSessionNotActive
	}

	e.countdown.Disarm()
	e.clock.Stop()

	payload, err := e.client.EndInterview(ctx, e.store.SessionID())
	if err != nil {
		e.notifyUser("Failed to end interview")
		return fmt.Errorf("failed to end interview: %w", err)
	}
	if payload != nil {
		e.applyPayload(payload)
	}
	return nil
}

// AnswerChanged feeds the in-progress answer text to the evaluator.
func (e *Engine) AnswerChanged(text string) {
	e.evaluator.OnAnswerTextChanged(text)
}

// applyPayload is the single apply path for question payloads, whichever
// channel delivered them.
func (e *Engine) applyPayload(p *domain.QuestionPayload) ApplyResult {
	res := e.store.Apply(p)

	switch res.Outcome {
	case OutcomeNewTurn:
		metrics.Default.QuestionsApplied.Inc()
		e.evaluator.Reset()
		e.countdown.Arm(res.Seconds, res.Identity)
	case OutcomeDuplicate:
		metrics.Default.DuplicateDrops.Inc()
		e.log.Debug().Str("identity", res.Identity.String()).Msg("duplicate question delivery absorbed")
	case OutcomeCompleted:
		e.finish()
	}
	return res
}

// finish shuts down timers and the poller and archives the session.
func (e *Engine) finish() {
	e.countdown.Disarm()
	e.clock.Stop()
	e.evaluator.Stop()

	e.mu.Lock()
	if e.pollCancel != nil {
		e.pollCancel()
		e.pollCancel = nil
	}
	e.mu.Unlock()

	metrics.Default.SessionsCompleted.Inc()

	if e.archiver == nil {
		return
	}
	snap := e.store.Snapshot()
	rec := &archive.Record{
		SessionID:       snap.SessionID,
		Role:            snap.Config.Role,
		Level:           snap.Config.Level,
		DurationMinutes: snap.Config.DurationMinutes,
		ElapsedSeconds:  snap.Elapsed,
		Transcript:      snap.Transcript,
		Feedback:        snap.Feedback,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.archiver.Save(ctx, rec); err != nil {
		e.log.Error().Err(err).Str("sessionId", snap.SessionID).Msg("failed to archive session")
	}
}

func (e *Engine) submit(ctx context.Context, text string) error {
	// Empty answers are coerced to the sentinel exactly once; the sentinel
	// itself is non-empty, so this cannot loop.
	if strings.TrimSpace(text) == "" {
		text = domain.SentinelNoAnswer
	}

	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		return ErrSubmissionInFlight
	}
	if !e.store.Active() {
		e.mu.Unlock()
		return ErrSessionNotActive
	}
	e.submitting = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.submitting = false
		e.mu.Unlock()
	}()

	e.store.AppendUser(text)
	e.store.AppendPending()

	payload, err := e.client.SubmitAnswer(ctx, e.store.SessionID(), text)
	if err != nil {
		e.store.RemovePending()
		metrics.Default.SubmitErrors.Inc()
		e.notifyUser("Error submitting answer")
		return fmt.Errorf("failed to submit answer: %w", err)
	}

	metrics.Default.AnswersSubmitted.Inc()
	e.evaluator.Reset()

	if payload != nil {
		e.applyPayload(payload)
	}
	// The placeholder resolves when the payload carries an AI message;
	// drop it when nothing did.
	e.store.RemovePending()
	return nil
}

// onCountdownExpired runs when the per-question countdown reaches zero. Its
// effect is selected by the timeout policy.
func (e *Engine) onCountdownExpired() {
	metrics.Default.TimeoutsFired.Inc()

	if e.opts.TimeoutPolicy == config.PolicyLiveEvaluation {
		// The evaluator carries the load; expiry changes nothing.
		return
	}
	if !e.store.Active() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	partial := e.evaluator.CurrentText()
	decision, err := e.client.HandleTimeout(ctx, e.store.SessionID(), partial)
	if err != nil {
		e.log.Warn().Err(err).Msg("failed to handle timeout")
		return
	}

	if decision.Hint != "" {
		e.store.AppendHint(decision.Hint)
	}
	if decision.Decision == backend.DecisionStopAnswering {
		if err := e.submit(ctx, partial); err != nil {
			e.log.Warn().Err(err).Msg("forced submission after timeout failed")
		}
	}
}

func (e *Engine) notifyUser(msg string) {
	if e.notify != nil {
		e.notify(msg)
	}
}
