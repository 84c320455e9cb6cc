package quiz

import (
	"context"
	"fmt"
	"strings"

	"github.com/patternlab/structmark/internal/llm"
)

// Scorer grades individual items. MCQ items are always deterministic;
// free-response items use the grader when one is configured and fall back
// to a normalized exact match so the server still works offline.
type Scorer struct {
	Grader *llm.Grader // nil disables LLM grading
}

func NewScorer(grader *llm.Grader) *Scorer {
	return &Scorer{Grader: grader}
}

func (s *Scorer) ScoreItem(ctx context.Context, item Item, response any) ItemResult {
	switch item.Type {
	case MCQSingle, MCQMulti:
		return scoreMCQ(item, response)
	default:
		if s.Grader != nil {
			if res, err := s.gradeWithLLM(ctx, item, response); err == nil {
				return res
			}
			// Any API or parse failure falls through to the offline path.
		}
		return scoreOffline(item, response)
	}
}

func scoreMCQ(item Item, response any) ItemResult {
	var correct bool
	switch item.Type {
	case MCQSingle:
		correct = fmt.Sprint(response) == fmt.Sprint(item.Answer)
	case MCQMulti:
		// Order-insensitive comparison.
		correct = stringSet(response).equal(stringSet(item.Answer))
	}

	awarded := 0
	if correct {
		awarded = item.Marks
	}

	feedback := ""
	if !correct && item.ErrorClassOnMiss != "" {
		feedback = fmt.Sprintf("Hint: %s.", strings.ReplaceAll(item.ErrorClassOnMiss, "-", " "))
	}

	return ItemResult{
		ItemID:       item.ID,
		Correct:      correct,
		MarksAwarded: awarded,
		Expected:     item.Answer,
		Feedback:     feedback,
		LOIDs:        item.LOIDs,
		ErrorClass:   errorClassUnless(correct, item),
	}
}

func (s *Scorer) gradeWithLLM(ctx context.Context, item Item, response any) (ItemResult, error) {
	student := ""
	if response != nil {
		student = fmt.Sprint(response)
	}

	rubric := fmt.Sprintf("Question: %s\nExpected answer or memo snippet: %v", item.Prompt, item.Answer)
	if item.ErrorClassOnMiss != "" {
		rubric += fmt.Sprintf("\nInternal error tag (for your reasoning only, do not echo verbatim): %s", item.ErrorClassOnMiss)
	}

	graded, err := s.Grader.Grade(ctx, llm.GradeRequest{
		Rubric:      rubric,
		StudentText: student,
		MaxPoints:   item.Marks,
	})
	if err != nil {
		return ItemResult{}, err
	}

	pieces := []string{}
	if graded.Reasons != "" {
		pieces = append(pieces, graded.Reasons)
	}
	if graded.Advice != "" {
		pieces = append(pieces, graded.Advice)
	}

	correct := graded.Score == item.Marks
	return ItemResult{
		ItemID:       item.ID,
		Correct:      correct,
		MarksAwarded: graded.Score,
		Expected:     item.Answer,
		Feedback:     strings.Join(pieces, "\n"),
		LOIDs:        item.LOIDs,
		ErrorClass:   errorClassUnless(correct, item),
	}, nil
}

func scoreOffline(item Item, response any) ItemResult {
	correct := norm(fmt.Sprint(response)) == norm(fmt.Sprint(item.Answer))

	awarded := 0
	if correct {
		awarded = item.Marks
	}

	feedback := ""
	if !correct && item.ErrorClassOnMiss != "" {
		feedback = fmt.Sprintf("Hint (offline): %s.", strings.ReplaceAll(item.ErrorClassOnMiss, "-", " "))
	}

	return ItemResult{
		ItemID:       item.ID,
		Correct:      correct,
		MarksAwarded: awarded,
		Expected:     item.Answer,
		Feedback:     feedback,
		LOIDs:        item.LOIDs,
		ErrorClass:   errorClassUnless(correct, item),
	}
}

func errorClassUnless(correct bool, item Item) string {
	if correct {
		return ""
	}
	return item.ErrorClassOnMiss
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type set map[string]struct{}

// stringSet coerces an answer or response value into a set of strings. MCQ
// multi answers arrive as []any from JSON and []string from the seed data.
func stringSet(v any) set {
	out := make(set)
	switch vals := v.(type) {
	case []string:
		for _, s := range vals {
			out[s] = struct{}{}
		}
	case []any:
		for _, s := range vals {
			out[fmt.Sprint(s)] = struct{}{}
		}
	case nil:
	default:
		out[fmt.Sprint(v)] = struct{}{}
	}
	return out
}

func (s set) equal(other set) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}
