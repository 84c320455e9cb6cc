package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockClient struct {
	Response      string
	ResponseQueue []string
	Err           error
	Prompts       []string
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.ResponseQueue) > 0 {
		resp := m.ResponseQueue[0]
		m.ResponseQueue = m.ResponseQueue[1:]
		return resp, nil
	}
	return m.Response, nil
}

type MockVisionClient struct {
	MockClient
	Parts [][]Part
}

func (m *MockVisionClient) GenerateParts(ctx context.Context, parts []Part) (string, error) {
	m.Parts = append(m.Parts, parts)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.ResponseQueue) > 0 {
		resp := m.ResponseQueue[0]
		m.ResponseQueue = m.ResponseQueue[1:]
		return resp, nil
	}
	return m.Response, nil
}

func TestGrade(t *testing.T) {
	mock := &MockClient{Response: `{"score": 2, "reasons": "Names the pattern.", "advice": "Mention the virtual factory method."}`}
	grader := NewGrader(mock, 0, 1)

	result, err := grader.Grade(context.Background(), GradeRequest{
		Rubric:      "Explains why Creator delegates instantiation.",
		StudentText: "The creator defers construction to subclasses.",
		MaxPoints:   2,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Score)
	assert.Equal(t, "Names the pattern.", result.Reasons)

	// The prompt carries the rubric, the ceiling and the student text.
	require.Len(t, mock.Prompts, 1)
	assert.Contains(t, mock.Prompts[0], "max_points=2")
	assert.Contains(t, mock.Prompts[0], "Explains why Creator delegates instantiation.")
	assert.Contains(t, mock.Prompts[0], "defers construction")
}

func TestGradeClampsScore(t *testing.T) {
	grader := NewGrader(&MockClient{Response: `{"score": 99, "reasons": "", "advice": ""}`}, 0, 1)
	result, err := grader.Grade(context.Background(), GradeRequest{Rubric: "r", StudentText: "s", MaxPoints: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Score)

	grader = NewGrader(&MockClient{Response: `{"score": -1, "reasons": "", "advice": ""}`}, 0, 1)
	result, err = grader.Grade(context.Background(), GradeRequest{Rubric: "r", StudentText: "s", MaxPoints: 3})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
}

func TestGradeRoundsFractionalScores(t *testing.T) {
	grader := NewGrader(&MockClient{Response: `{"score": 1.6, "reasons": "", "advice": ""}`}, 0, 1)
	result, err := grader.Grade(context.Background(), GradeRequest{Rubric: "r", StudentText: "s", MaxPoints: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Score)
}

func TestGradeBlankSubmissionIsMarked(t *testing.T) {
	mock := &MockClient{Response: `{"score": 0, "reasons": "Blank.", "advice": "Attempt the question."}`}
	grader := NewGrader(mock, 0, 1)

	result, err := grader.Grade(context.Background(), GradeRequest{Rubric: "r", StudentText: "   ", MaxPoints: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.Contains(t, mock.Prompts[0], "[BLANK]")
}

func TestGradeParsesFencedResponses(t *testing.T) {
	mock := &MockClient{Response: "```json\n{\"score\": 1, \"reasons\": \"ok\", \"advice\": \"\"}\n```"}
	grader := NewGrader(mock, 0, 1)

	result, err := grader.Grade(context.Background(), GradeRequest{Rubric: "r", StudentText: "s", MaxPoints: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score)
}

func TestGradeRetriesMalformedResponses(t *testing.T) {
	mock := &MockClient{ResponseQueue: []string{
		"I cannot answer in JSON.",
		`{"score": 1, "reasons": "second try", "advice": ""}`,
	}}
	grader := NewGrader(mock, 0, 3)

	result, err := grader.Grade(context.Background(), GradeRequest{Rubric: "r", StudentText: "s", MaxPoints: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score)
	assert.Len(t, mock.Prompts, 2)
}

func TestGradeReturnsLastErrorWhenExhausted(t *testing.T) {
	grader := NewGrader(&MockClient{Err: assert.AnError}, 0, 1)
	_, err := grader.Grade(context.Background(), GradeRequest{Rubric: "r", StudentText: "s", MaxPoints: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grading call failed")
}

func TestGradeHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	grader := NewGrader(&MockClient{Err: assert.AnError}, 0, 3)
	_, err := grader.Grade(ctx, GradeRequest{Rubric: "r", StudentText: "s", MaxPoints: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGradeImageSubmission(t *testing.T) {
	mock := &MockVisionClient{MockClient: MockClient{
		Response: `{"score": 1, "reasons": "Diagram matches the rubric.", "advice": ""}`,
	}}
	grader := NewGrader(mock, 0, 1)

	result, err := grader.Grade(context.Background(), GradeRequest{
		Rubric:          "Shows Dog inheriting Animal.",
		StudentImageB64: "aGVsbG8=",
		MaxPoints:       1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score)

	// One multimodal call: the grading prompt first, then the image.
	require.Len(t, mock.Parts, 1)
	require.Len(t, mock.Parts[0], 2)
	assert.Contains(t, mock.Parts[0][0].Text, "Shows Dog inheriting Animal.")
	assert.Equal(t, "aGVsbG8=", mock.Parts[0][1].ImageB64)
	// An image-only submission is not treated as blank.
	assert.NotContains(t, mock.Parts[0][0].Text, "[BLANK]")
	assert.Empty(t, mock.Prompts)
}

func TestGradeImageSubmissionNeedsVisionProvider(t *testing.T) {
	mock := &MockClient{Response: `{"score": 1, "reasons": "", "advice": ""}`}
	grader := NewGrader(mock, 0, 3)

	_, err := grader.Grade(context.Background(), GradeRequest{
		Rubric:          "r",
		StudentImageURL: "https://example.com/diagram.png",
		MaxPoints:       1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multimodal")
	// Rejected up front, before any upstream call or backoff sleep.
	assert.Empty(t, mock.Prompts)
}

func TestGenerate(t *testing.T) {
	mock := &MockClient{Response: "The Factory Method defers instantiation to subclasses."}
	grader := NewGrader(mock, 0, 1)

	text, err := grader.Generate(context.Background(), "Answer in one sentence.", []Part{
		{Text: "What does the Factory Method pattern do?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "The Factory Method defers instantiation to subclasses.", text)

	// Instruction and text parts fold into one prompt for text providers.
	require.Len(t, mock.Prompts, 1)
	assert.Contains(t, mock.Prompts[0], "Answer in one sentence.")
	assert.Contains(t, mock.Prompts[0], "What does the Factory Method pattern do?")
}

func TestGenerateWithImageParts(t *testing.T) {
	mock := &MockVisionClient{MockClient: MockClient{Response: "A class diagram."}}
	grader := NewGrader(mock, 0, 1)

	text, err := grader.Generate(context.Background(), "Describe the image.", []Part{
		{ImageURL: "https://example.com/diagram.png", MIME: "image/png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "A class diagram.", text)

	require.Len(t, mock.Parts, 1)
	require.Len(t, mock.Parts[0], 2)
	assert.Equal(t, "Describe the image.", mock.Parts[0][0].Text)
	assert.Equal(t, "https://example.com/diagram.png", mock.Parts[0][1].ImageURL)
}

func TestGenerateImagePartsNeedVisionProvider(t *testing.T) {
	mock := &MockClient{Response: "x"}
	grader := NewGrader(mock, 0, 3)

	_, err := grader.Generate(context.Background(), "Describe the image.", []Part{{ImageB64: "aGk="}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multimodal")
	assert.Empty(t, mock.Prompts)
}

func TestGenerateReturnsLastErrorWhenExhausted(t *testing.T) {
	grader := NewGrader(&MockClient{Err: assert.AnError}, 0, 1)
	_, err := grader.Generate(context.Background(), "i", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation call failed")
}

func TestGradeThrottlesRequests(t *testing.T) {
	mock := &MockClient{Response: `{"score": 1, "reasons": "", "advice": ""}`}
	grader := NewGrader(mock, 30*time.Millisecond, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := grader.Grade(context.Background(), GradeRequest{Rubric: "r", StudentText: "s", MaxPoints: 1})
		require.NoError(t, err)
	}
	// Burst of one, so the second and third calls each wait an interval.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}
