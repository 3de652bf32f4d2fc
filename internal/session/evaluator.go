package session

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/talentpulse/interview-engine/internal/backend"
	"github.com/talentpulse/interview-engine/internal/domain"
	"github.com/talentpulse/interview-engine/internal/metrics"
)

const evaluationTimeout = 10 * time.Second

// Evaluator gives live feedback on the in-progress answer without blocking
// typing. Text changes are debounced; a request is issued only after the
// quiet period and only when the text differs from the last text sent.
// Results are applied in issuance order: a slow early request never
// overwrites the result of a later one, and results that are no longer
// relevant (session over, question changed, text cleared) are dropped.
type Evaluator struct {
	mu     sync.Mutex
	client *backend.Client
	store  *Store
	quiet  time.Duration
	userID string
	testID string
	log    zerolog.Logger

	timer    *time.Timer
	text     string
	lastSent string
	seq      uint64
	applied  uint64
	current  *domain.Evaluation

	// onResult runs off the mutating goroutine and must not call back
	// into the evaluator.
	onResult func(domain.Evaluation)
}

// NewEvaluator creates a partial-answer evaluator.
func NewEvaluator(client *backend.Client, store *Store, quiet time.Duration, userID, testID string, log zerolog.Logger) *Evaluator {
	if quiet <= 0 {
		quiet = time.Second
	}
	return &Evaluator{
		client: client,
		store:  store,
		quiet:  quiet,
		userID: userID,
		testID: testID,
		log:    log,
	}
}

// SetResultHook installs the classification observer. Must be set before
// the session starts.
func (e *Evaluator) SetResultHook(fn func(domain.Evaluation)) {
	e.onResult = fn
}

// OnAnswerTextChanged records the latest in-progress text and restarts the
// debounce window.
func (e *Evaluator) OnAnswerTextChanged(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.text = text
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.quiet, e.fire)
}

// CurrentText returns the latest in-progress answer text, trimmed.
func (e *Evaluator) CurrentText() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return strings.TrimSpace(e.text)
}

// Classification returns the current classification, or nil when none is
// pending.
func (e *Evaluator) Classification() *domain.Evaluation {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	v := *e.current
	return &v
}

// Reset clears the debounce window, the in-progress text, and the
// classification. Called when a new question turn arrives or an answer is
// submitted.
func (e *Evaluator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.text = ""
	e.lastSent = ""
	e.current = nil
}

// Stop cancels any pending debounce without clearing state.
func (e *Evaluator) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// fire runs when the quiet period elapses without further changes.
func (e *Evaluator) fire() {
	e.mu.Lock()
	text := strings.TrimSpace(e.text)
	if text == "" || text == e.lastSent || !e.store.Active() {
		e.mu.Unlock()
		return
	}
	id := e.store.CurrentIdentity()
	if id.IsZero() {
		e.mu.Unlock()
		return
	}
	e.lastSent = text
	e.seq++
	seq := e.seq
	e.mu.Unlock()

	metrics.Default.EvaluationsIssued.Inc()
	go e.evaluate(seq, id, text)
}

func (e *Evaluator) evaluate(seq uint64, id domain.TurnIdentity, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), evaluationTimeout)
	defer cancel()

	eval, err := e.client.EvaluatePartialAnswer(ctx, e.userID, e.testID, strconv.Itoa(id.QuestionNumber), text)

	e.mu.Lock()
	// Last request wins by issuance order: drop the result when a newer
	// request has been issued or applied.
	if seq < e.seq || seq <= e.applied {
		e.mu.Unlock()
		metrics.Default.EvaluationsStale.Inc()
		return
	}
	// Relevance at apply time: the question may have changed, the session
	// may be over, or the text may have been cleared while in flight.
	if !e.store.Active() || e.store.CurrentIdentity() != id || strings.TrimSpace(e.text) == "" {
		e.mu.Unlock()
		metrics.Default.EvaluationsStale.Inc()
		return
	}

	e.applied = seq
	if err != nil {
		// Best effort: errors clear the pending classification silently.
		e.current = nil
		e.mu.Unlock()
		metrics.Default.EvaluationsFailed.Inc()
		e.log.Debug().Err(err).Msg("partial-answer evaluation failed")
		return
	}

	e.current = eval
	hook := e.onResult
	e.mu.Unlock()

	metrics.Default.EvaluationsByClass.WithLabelValues(eval.Action).Inc()
	if hook != nil {
		hook(*eval)
	}
}
