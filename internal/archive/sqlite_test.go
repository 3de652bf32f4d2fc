package archive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentpulse/interview-engine/internal/domain"
)

func newTestArchive(t *testing.T) *SQLiteArchive {
	t.Helper()

	a, err := NewSQLiteArchive(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite archive: %v", err)
	}

	t.Cleanup(func() {
		_ = a.Close()
	})

	return a
}

func TestSaveAndList(t *testing.T) {
	ctx := context.Background()
	a := newTestArchive(t)

	rec := &Record{
		SessionID:       "s1",
		Role:            "Data Analyst",
		Level:           "Entry",
		DurationMinutes: 10,
		ElapsedSeconds:  421,
		Transcript: []domain.Entry{
			{Type: domain.EntryAI, Text: "Q1: What is a join?", Key: "k1"},
			{Type: domain.EntryUser, Text: "A way to combine tables.", Key: "k2"},
		},
		Feedback: &domain.Feedback{
			Strengths:     "clear",
			Communication: "good",
			Suggestions:   "more depth",
		},
	}
	require.NoError(t, a.Save(ctx, rec))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CompletedAt.IsZero())

	records, err := a.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, "Data Analyst", got.Role)
	assert.Equal(t, 421, got.ElapsedSeconds)
	require.Len(t, got.Transcript, 2)
	assert.Equal(t, domain.EntryUser, got.Transcript[1].Type)
	require.NotNil(t, got.Feedback)
	assert.Equal(t, "clear", got.Feedback.Strengths)
}

func TestSaveWithoutFeedback(t *testing.T) {
	ctx := context.Background()
	a := newTestArchive(t)

	require.NoError(t, a.Save(ctx, &Record{SessionID: "s2", Role: "x", Level: "y"}))

	records, err := a.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Feedback)
}

func TestListOrder(t *testing.T) {
	ctx := context.Background()
	a := newTestArchive(t)

	for _, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, a.Save(ctx, &Record{SessionID: id, Role: "r", Level: "l"}))
	}

	records, err := a.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
