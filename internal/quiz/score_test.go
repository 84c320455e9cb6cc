package quiz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/patternlab/structmark/internal/llm"
)

type mockLLM struct {
	Response string
	Err      error
}

func (m *mockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func mcqSingleItem() Item {
	return Item{
		ID: "q1", Type: MCQSingle,
		Prompt: "Factory Method is a ___ pattern.",
		Options: []Option{
			{Key: "A", Text: "creational"},
			{Key: "B", Text: "structural"},
		},
		Answer: "A", Marks: 2, LOIDs: []int{1},
		ErrorClassOnMiss: "intent-or-classification-misunderstood",
	}
}

func TestScoreMCQSingle(t *testing.T) {
	scorer := NewScorer(nil)
	item := mcqSingleItem()

	res := scorer.ScoreItem(context.Background(), item, "A")
	assert.True(t, res.Correct)
	assert.Equal(t, 2, res.MarksAwarded)
	assert.Empty(t, res.ErrorClass)
	assert.Empty(t, res.Feedback)

	res = scorer.ScoreItem(context.Background(), item, "B")
	assert.False(t, res.Correct)
	assert.Equal(t, 0, res.MarksAwarded)
	assert.Equal(t, "intent-or-classification-misunderstood", res.ErrorClass)
	assert.Contains(t, res.Feedback, "intent or classification misunderstood")
}

func TestScoreMCQMultiIsOrderInsensitive(t *testing.T) {
	scorer := NewScorer(nil)
	item := Item{
		ID: "q1", Type: MCQMulti,
		Answer: []string{"A", "B"}, Marks: 2,
		ErrorClassOnMiss: "role-cues-misidentified",
	}

	// JSON payloads arrive as []any.
	res := scorer.ScoreItem(context.Background(), item, []any{"B", "A"})
	assert.True(t, res.Correct)
	assert.Equal(t, 2, res.MarksAwarded)

	res = scorer.ScoreItem(context.Background(), item, []any{"A"})
	assert.False(t, res.Correct)

	res = scorer.ScoreItem(context.Background(), item, []any{"A", "B", "C"})
	assert.False(t, res.Correct)
}

func TestScoreFITBOfflineFallback(t *testing.T) {
	scorer := NewScorer(nil)
	item := Item{
		ID: "q2", Type: FITB,
		Answer: "virtual", Marks: 2,
		ErrorClassOnMiss: "missing-virtual-destructor",
	}

	// Case and surrounding whitespace are forgiven offline.
	res := scorer.ScoreItem(context.Background(), item, "  Virtual ")
	assert.True(t, res.Correct)
	assert.Equal(t, 2, res.MarksAwarded)

	res = scorer.ScoreItem(context.Background(), item, "static")
	assert.False(t, res.Correct)
	assert.Equal(t, "missing-virtual-destructor", res.ErrorClass)
	assert.Contains(t, res.Feedback, "offline")
}

func TestScoreFITBWithLLM(t *testing.T) {
	grader := llm.NewGrader(&mockLLM{
		Response: `{"score": 2, "reasons": "Same idea as the memo.", "advice": ""}`,
	}, 0, 1)
	scorer := NewScorer(grader)

	item := Item{ID: "q2", Type: FITB, Answer: "virtual", Marks: 2, ErrorClassOnMiss: "missing-virtual-destructor"}
	res := scorer.ScoreItem(context.Background(), item, "it must be virtual so the derived dtor runs")

	assert.True(t, res.Correct)
	assert.Equal(t, 2, res.MarksAwarded)
	assert.Contains(t, res.Feedback, "Same idea as the memo.")
}

func TestScoreFITBPartialCreditIsNotCorrect(t *testing.T) {
	grader := llm.NewGrader(&mockLLM{
		Response: `{"score": 1, "reasons": "Half right.", "advice": "Name the keyword."}`,
	}, 0, 1)
	scorer := NewScorer(grader)

	item := Item{ID: "q2", Type: FITB, Answer: "virtual", Marks: 2, ErrorClassOnMiss: "missing-virtual-destructor"}
	res := scorer.ScoreItem(context.Background(), item, "something about destructors")

	assert.False(t, res.Correct)
	assert.Equal(t, 1, res.MarksAwarded)
	assert.Equal(t, "missing-virtual-destructor", res.ErrorClass)
}

func TestScoreFITBLLMFailureFallsBackOffline(t *testing.T) {
	grader := llm.NewGrader(&mockLLM{Err: assert.AnError}, 0, 1)
	scorer := NewScorer(grader)

	item := Item{ID: "q2", Type: FITB, Answer: "virtual", Marks: 2}
	res := scorer.ScoreItem(context.Background(), item, "virtual")

	assert.True(t, res.Correct)
	assert.Equal(t, 2, res.MarksAwarded)
}

func TestScoreFITBLLMFailureFallsBackWithinDeadline(t *testing.T) {
	grader := llm.NewGrader(&mockLLM{Err: assert.AnError}, 0, 1)
	scorer := NewScorer(grader)

	start := time.Now()
	item := Item{ID: "q2", Type: FITB, Answer: "virtual", Marks: 1}
	scorer.ScoreItem(context.Background(), item, "wrong")
	// A single attempt means no backoff sleeps on the fallback path.
	assert.Less(t, time.Since(start), time.Second)
}
