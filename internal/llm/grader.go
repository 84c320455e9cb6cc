package llm

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// GradeRequest asks for a submission to be marked against a rubric. The
// submission is free text, an image (by URL or inline base64), or both.
// MaxPoints is the ceiling the model may award.
type GradeRequest struct {
	Rubric          string
	StudentText     string
	StudentImageURL string
	StudentImageB64 string
	MaxPoints       int
}

func (req GradeRequest) imageParts() []Part {
	var parts []Part
	if req.StudentImageURL != "" {
		parts = append(parts, Part{ImageURL: req.StudentImageURL})
	}
	if req.StudentImageB64 != "" {
		parts = append(parts, Part{ImageB64: req.StudentImageB64})
	}
	return parts
}

// GradeResult is the model's verdict. Score is already clamped to
// [0, MaxPoints] by the time callers see it.
type GradeResult struct {
	Score   int    `json:"score"`
	Reasons string `json:"reasons"`
	Advice  string `json:"advice"`
}

// gradeWire tolerates fractional scores; models routinely emit 2.0.
type gradeWire struct {
	Score   float64 `json:"score"`
	Reasons string  `json:"reasons"`
	Advice  string  `json:"advice"`
}

// Grader wraps a Client with the grading prompt, a request-interval rate
// limit and bounded retry. It is an injected, stateless capability: callers
// hold one instance, there is no process-global client or throttle.
type Grader struct {
	client     Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewGrader builds a Grader. requestInterval is the minimum gap between
// upstream calls (the provider quota is shared by every route that grades);
// zero disables throttling.
func NewGrader(client Client, requestInterval time.Duration, maxRetries int) *Grader {
	limit := rate.Inf
	if requestInterval > 0 {
		limit = rate.Every(requestInterval)
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Grader{
		client:     client,
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: maxRetries,
	}
}

const gradeInstruction = `You are a strict but fair teaching assistant for a software design course (C++, UML, Factory Method pattern).
Read the rubric and the student's submission. Treat the rubric as the gold standard.
Award full marks when the student's answer captures the same idea even if the wording differs.
Award partial marks only for partially correct understanding, and 0 for irrelevant, fundamentally incorrect, or blank answers.
Never exceed the stated maximum mark.
Respond ONLY with a compact JSON object of the form {"score": number, "reasons": string, "advice": string} with no extra keys or prose.`

// Grade marks the submission against Rubric. Transient upstream failures and
// malformed responses are retried with exponential backoff; the error from
// the final attempt is returned if every attempt fails. Image submissions
// need a provider that implements VisionClient.
func (g *Grader) Grade(ctx context.Context, req GradeRequest) (GradeResult, error) {
	maxPoints := req.MaxPoints
	if maxPoints < 1 {
		maxPoints = 1
	}

	images := req.imageParts()
	if len(images) > 0 {
		if _, ok := g.client.(VisionClient); !ok {
			return GradeResult{}, fmt.Errorf("image submissions require a multimodal provider")
		}
	}

	prompt := fmt.Sprintf("%s\n\nRUBRIC (max_points=%d):\n%s",
		gradeInstruction, maxPoints, req.Rubric)
	student := strings.TrimSpace(req.StudentText)
	if student == "" && len(images) == 0 {
		student = "[BLANK]"
	}
	if student != "" {
		prompt += fmt.Sprintf("\n\nSTUDENT:\n%s", student)
	}

	var lastErr error
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return GradeResult{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := g.limiter.Wait(ctx); err != nil {
			return GradeResult{}, err
		}

		response, err := g.complete(ctx, prompt, images)
		if err != nil {
			lastErr = fmt.Errorf("grading call failed: %w", err)
			continue
		}

		wire, err := ParseJSON[gradeWire](response)
		if err != nil {
			lastErr = fmt.Errorf("grading response was not the expected JSON: %w", err)
			continue
		}

		score := int(math.Round(wire.Score))
		if score < 0 {
			score = 0
		}
		if score > maxPoints {
			score = maxPoints
		}

		return GradeResult{
			Score:   score,
			Reasons: strings.TrimSpace(wire.Reasons),
			Advice:  strings.TrimSpace(wire.Advice),
		}, nil
	}

	return GradeResult{}, lastErr
}

// Generate is the open-ended passthrough behind the /ai/generate route: the
// same throttle and retry policy as Grade, but the response text is returned
// untouched. Text parts are folded into the prompt after the instruction;
// image parts need a provider that implements VisionClient.
func (g *Grader) Generate(ctx context.Context, instruction string, parts []Part) (string, error) {
	texts := make([]string, 0, len(parts)+1)
	if instruction != "" {
		texts = append(texts, instruction)
	}
	var images []Part
	for _, p := range parts {
		if p.IsImage() {
			images = append(images, p)
			continue
		}
		texts = append(texts, p.Text)
	}
	prompt := strings.Join(texts, "\n\n")

	if len(images) > 0 {
		if _, ok := g.client.(VisionClient); !ok {
			return "", fmt.Errorf("image parts require a multimodal provider")
		}
	}

	var lastErr error
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}

		response, err := g.complete(ctx, prompt, images)
		if err != nil {
			lastErr = fmt.Errorf("generation call failed: %w", err)
			continue
		}
		return response, nil
	}

	return "", lastErr
}

// complete issues one upstream call, routing through the multimodal
// capability when image parts are present.
func (g *Grader) complete(ctx context.Context, prompt string, images []Part) (string, error) {
	if len(images) == 0 {
		return g.client.Generate(ctx, prompt)
	}
	vc, ok := g.client.(VisionClient)
	if !ok {
		return "", fmt.Errorf("provider does not accept image parts")
	}
	parts := make([]Part, 0, len(images)+1)
	if prompt != "" {
		parts = append(parts, Part{Text: prompt})
	}
	return vc.GenerateParts(ctx, append(parts, images...))
}
