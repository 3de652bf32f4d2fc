package session

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentpulse/interview-engine/internal/domain"
)

func newActiveStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(zerolog.Nop())
	s.Begin("s1", domain.SessionConfig{Role: "Data Analyst", Level: "Entry", DurationMinutes: 10}, nil)
	return s
}

func TestApplyNewTurn(t *testing.T) {
	s := newActiveStore(t)

	res := s.Apply(&domain.QuestionPayload{
		Question:        "What is a join?",
		Acknowledgement: "Let's begin.",
		QuestionNumber:  1,
		EstimatedTime:   30,
	})

	assert.Equal(t, OutcomeNewTurn, res.Outcome)
	assert.Equal(t, 30, res.Seconds)
	assert.Equal(t, domain.TurnIdentity{Question: "What is a join?", QuestionNumber: 1}, res.Identity)

	snap := s.Snapshot()
	require.Len(t, snap.Transcript, 1)
	assert.Equal(t, domain.EntryAI, snap.Transcript[0].Type)
	assert.Equal(t, "Let's begin. Q1: What is a join?", snap.Transcript[0].Text)
	assert.Equal(t, res.Identity, snap.Current)
	assert.Equal(t, "What is a join?", s.LastReceived())
}

func TestApplyIdempotent(t *testing.T) {
	s := newActiveStore(t)
	payload := &domain.QuestionPayload{Question: "Q1", QuestionNumber: 1, EstimatedTime: 30}

	res := s.Apply(payload)
	assert.Equal(t, OutcomeNewTurn, res.Outcome)

	// Same identity delivered again, e.g. once via the submit response and
	// once via the poller.
	res = s.Apply(&domain.QuestionPayload{Question: "Q1", QuestionNumber: 1})
	assert.Equal(t, OutcomeDuplicate, res.Outcome)

	snap := s.Snapshot()
	assert.Len(t, snap.Transcript, 1)
	assert.Equal(t, domain.TurnIdentity{Question: "Q1", QuestionNumber: 1}, snap.Current)
}

func TestApplyDefaultQuestionTime(t *testing.T) {
	s := newActiveStore(t)

	res := s.Apply(&domain.QuestionPayload{Question: "Q1", QuestionNumber: 1})
	assert.Equal(t, OutcomeNewTurn, res.Outcome)
	assert.Equal(t, domain.DefaultQuestionTime, res.Seconds)
}

func TestApplyCompletionParsesFeedback(t *testing.T) {
	s := newActiveStore(t)
	s.Apply(&domain.QuestionPayload{Question: "Q1", QuestionNumber: 1})

	raw, _ := json.Marshal(`{"strengths":"x","communication":"y","suggestions":"z"}`)
	res := s.Apply(&domain.QuestionPayload{
		IsComplete:      true,
		Acknowledgement: "Thanks for your time.",
		Feedback:        raw,
	})

	assert.Equal(t, OutcomeCompleted, res.Outcome)
	assert.Equal(t, StateCompleted, s.State())

	fb := s.Feedback()
	require.NotNil(t, fb)
	assert.Equal(t, "x", fb.Strengths)

	snap := s.Snapshot()
	assert.Equal(t, "Thanks for your time.", snap.Transcript[len(snap.Transcript)-1].Text)
}

func TestApplyCompletionMalformedFeedback(t *testing.T) {
	s := newActiveStore(t)

	res := s.Apply(&domain.QuestionPayload{
		IsComplete: true,
		Feedback:   json.RawMessage(`"not a json object"`),
	})

	// Unparseable feedback degrades to absent; the session still completes.
	assert.Equal(t, OutcomeCompleted, res.Outcome)
	assert.Nil(t, s.Feedback())
}

func TestCompletionTerminality(t *testing.T) {
	s := newActiveStore(t)
	s.Apply(&domain.QuestionPayload{IsComplete: true})

	before := s.Snapshot()

	res := s.Apply(&domain.QuestionPayload{Question: "Q9", QuestionNumber: 9})
	assert.Equal(t, OutcomeIgnored, res.Outcome)

	s.AppendUser("late answer")
	s.AppendHint("late hint")
	s.SetElapsed(999)

	after := s.Snapshot()
	assert.Equal(t, StateCompleted, after.State)
	assert.Len(t, after.Transcript, len(before.Transcript))
	assert.Equal(t, before.Elapsed, after.Elapsed)
}

func TestPendingResolvedByApply(t *testing.T) {
	s := newActiveStore(t)
	s.Apply(&domain.QuestionPayload{Question: "Q1", QuestionNumber: 1})

	s.AppendUser("my answer")
	s.AppendPending()
	assert.True(t, s.HasPending())

	s.Apply(&domain.QuestionPayload{Question: "Q2", QuestionNumber: 2, Acknowledgement: "Good."})

	assert.False(t, s.HasPending())
	snap := s.Snapshot()
	require.Len(t, snap.Transcript, 3)
	assert.Equal(t, domain.EntryAI, snap.Transcript[2].Type)
	assert.Equal(t, "Good. Q2: Q2", snap.Transcript[2].Text)
}

func TestAppendPendingSingleInstance(t *testing.T) {
	s := newActiveStore(t)
	s.AppendPending()
	s.AppendPending()

	snap := s.Snapshot()
	assert.Len(t, snap.Transcript, 1)
}

func TestRemovePending(t *testing.T) {
	s := newActiveStore(t)
	s.AppendUser("answer")
	s.AppendPending()

	s.RemovePending()

	assert.False(t, s.HasPending())
	snap := s.Snapshot()
	require.Len(t, snap.Transcript, 1)
	assert.Equal(t, domain.EntryUser, snap.Transcript[0].Type)

	// A second removal is a no-op.
	s.RemovePending()
	assert.Len(t, s.Snapshot().Transcript, 1)
}

func TestBeginResetsState(t *testing.T) {
	s := newActiveStore(t)
	s.Apply(&domain.QuestionPayload{Question: "Q1", QuestionNumber: 1})
	s.AppendUser("answer")
	s.Apply(&domain.QuestionPayload{IsComplete: true})

	s.Begin("s2", domain.SessionConfig{Role: "SRE", Level: "Senior", DurationMinutes: 20},
		[]string{"Welcome back."})

	snap := s.Snapshot()
	assert.Equal(t, StateActive, snap.State)
	assert.Equal(t, "s2", snap.SessionID)
	assert.True(t, snap.Current.IsZero())
	assert.Nil(t, snap.Feedback)
	require.Len(t, snap.Transcript, 1)
	assert.Equal(t, "Welcome back.", snap.Transcript[0].Text)
	assert.Empty(t, s.LastReceived())
}

func TestEntryHook(t *testing.T) {
	s := NewStore(zerolog.Nop())
	var seen []domain.Entry
	s.SetEntryHook(func(e domain.Entry) { seen = append(seen, e) })

	s.Begin("s1", domain.SessionConfig{}, nil)
	s.Apply(&domain.QuestionPayload{Question: "Q1", QuestionNumber: 1})
	s.AppendUser("answer")

	require.Len(t, seen, 2)
	assert.Equal(t, domain.EntryAI, seen[0].Type)
	assert.Equal(t, domain.EntryUser, seen[1].Type)
}
