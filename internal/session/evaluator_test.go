package session

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentpulse/interview-engine/internal/backend"
	"github.com/talentpulse/interview-engine/internal/domain"
)

const testQuiet = 20 * time.Millisecond

// evalServer records partial-answer requests and echoes the text back in
// the message so tests can tell which request produced a classification.
type evalServer struct {
	mu       sync.Mutex
	requests []string
	delays   map[string]time.Duration
	action   string
	server   *httptest.Server
}

func newEvalServer(t *testing.T) *evalServer {
	t.Helper()
	es := &evalServer{delays: make(map[string]time.Duration), action: domain.ActionContinue}
	es.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		text, _ := req["partial_answer"].(string)

		es.mu.Lock()
		es.requests = append(es.requests, text)
		delay := es.delays[text]
		action := es.action
		es.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		fmt.Fprintf(w, `{"data":{"message":%q,"action":%q}}`, text, action)
	}))
	t.Cleanup(es.server.Close)
	return es
}

func (es *evalServer) requestCount() int {
	es.mu.Lock()
	defer es.mu.Unlock()
	return len(es.requests)
}

func (es *evalServer) lastRequest() string {
	es.mu.Lock()
	defer es.mu.Unlock()
	if len(es.requests) == 0 {
		return ""
	}
	return es.requests[len(es.requests)-1]
}

func newTestEvaluator(t *testing.T, es *evalServer) (*Evaluator, *Store) {
	t.Helper()
	store := newActiveStore(t)
	store.Apply(&domain.QuestionPayload{Question: "Q1", QuestionNumber: 1})
	client := backend.NewClient(es.server.URL, 5*time.Second)
	return NewEvaluator(client, store, testQuiet, "u1", "t1", zerolog.Nop()), store
}

func TestDebounceCollapsesRapidChanges(t *testing.T) {
	es := newEvalServer(t)
	ev, _ := newTestEvaluator(t, es)

	// All changes land inside the quiet period; only the final text goes
	// out.
	ev.OnAnswerTextChanged("a")
	ev.OnAnswerTextChanged("ab")
	ev.OnAnswerTextChanged("abc")

	assert.Eventually(t, func() bool {
		return es.requestCount() == 1
	}, time.Second, testQuiet)
	assert.Equal(t, "abc", es.lastRequest())

	time.Sleep(5 * testQuiet)
	assert.Equal(t, 1, es.requestCount())
}

func TestIdenticalTextNotResent(t *testing.T) {
	es := newEvalServer(t)
	ev, _ := newTestEvaluator(t, es)

	ev.OnAnswerTextChanged("abc")
	assert.Eventually(t, func() bool {
		return es.requestCount() == 1
	}, time.Second, testQuiet)

	ev.OnAnswerTextChanged("abc")
	time.Sleep(5 * testQuiet)
	assert.Equal(t, 1, es.requestCount())
}

func TestEmptyTextNotEvaluated(t *testing.T) {
	es := newEvalServer(t)
	ev, _ := newTestEvaluator(t, es)

	ev.OnAnswerTextChanged("   ")
	time.Sleep(5 * testQuiet)
	assert.Equal(t, 0, es.requestCount())
}

func TestStaleResultOrdering(t *testing.T) {
	es := newEvalServer(t)
	es.mu.Lock()
	es.delays["ab"] = 200 * time.Millisecond
	es.mu.Unlock()
	ev, _ := newTestEvaluator(t, es)

	// Request A ("ab") is issued first but resolves slowly.
	ev.OnAnswerTextChanged("ab")
	assert.Eventually(t, func() bool {
		return es.requestCount() == 1
	}, time.Second, testQuiet)

	// Request B ("abc") is issued second and resolves immediately.
	ev.OnAnswerTextChanged("abc")
	assert.Eventually(t, func() bool {
		c := ev.Classification()
		return c != nil && c.Message == "abc"
	}, time.Second, testQuiet)

	// When A finally resolves it must not overwrite B's classification.
	time.Sleep(300 * time.Millisecond)
	c := ev.Classification()
	require.NotNil(t, c)
	assert.Equal(t, "abc", c.Message)
}

func TestResultIgnoredAfterCompletion(t *testing.T) {
	es := newEvalServer(t)
	es.mu.Lock()
	es.delays["slow answer"] = 100 * time.Millisecond
	es.mu.Unlock()
	ev, store := newTestEvaluator(t, es)

	ev.OnAnswerTextChanged("slow answer")
	assert.Eventually(t, func() bool {
		return es.requestCount() == 1
	}, time.Second, testQuiet)

	// The session completes while the request is in flight.
	store.Apply(&domain.QuestionPayload{IsComplete: true})

	time.Sleep(200 * time.Millisecond)
	assert.Nil(t, ev.Classification())
}

func TestResultIgnoredAfterQuestionChange(t *testing.T) {
	es := newEvalServer(t)
	es.mu.Lock()
	es.delays["slow answer"] = 100 * time.Millisecond
	es.mu.Unlock()
	ev, store := newTestEvaluator(t, es)

	ev.OnAnswerTextChanged("slow answer")
	assert.Eventually(t, func() bool {
		return es.requestCount() == 1
	}, time.Second, testQuiet)

	store.Apply(&domain.QuestionPayload{Question: "Q2", QuestionNumber: 2})

	time.Sleep(200 * time.Millisecond)
	assert.Nil(t, ev.Classification())
}

func TestEvaluationErrorClearsSilently(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := newActiveStore(t)
	store.Apply(&domain.QuestionPayload{Question: "Q1", QuestionNumber: 1})
	client := backend.NewClient(server.URL, 5*time.Second)
	ev := NewEvaluator(client, store, testQuiet, "u1", "t1", zerolog.Nop())

	ev.OnAnswerTextChanged("some answer")
	time.Sleep(10 * testQuiet)
	assert.Nil(t, ev.Classification())
	assert.Equal(t, StateActive, store.State())
}

func TestResetClearsLastSent(t *testing.T) {
	es := newEvalServer(t)
	ev, _ := newTestEvaluator(t, es)

	ev.OnAnswerTextChanged("abc")
	assert.Eventually(t, func() bool {
		return es.requestCount() == 1
	}, time.Second, testQuiet)

	// After submitting, the same text on the next question evaluates
	// again.
	ev.Reset()
	ev.OnAnswerTextChanged("abc")
	assert.Eventually(t, func() bool {
		return es.requestCount() == 2
	}, time.Second, testQuiet)
}

func TestResultHook(t *testing.T) {
	es := newEvalServer(t)
	es.mu.Lock()
	es.action = domain.ActionHint
	es.mu.Unlock()
	ev, _ := newTestEvaluator(t, es)

	results := make(chan domain.Evaluation, 1)
	ev.SetResultHook(func(e domain.Evaluation) { results <- e })

	ev.OnAnswerTextChanged("way off track")

	select {
	case r := <-results:
		assert.Equal(t, domain.ActionHint, r.Action)
		assert.Equal(t, "way off track", r.Message)
	case <-time.After(time.Second):
		t.Fatal("result hook was not invoked")
	}
}
