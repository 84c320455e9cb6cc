package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/patternlab/structmark/internal/core/diagram"
	"github.com/patternlab/structmark/internal/core/diff"
	"github.com/patternlab/structmark/internal/core/model"
	"github.com/patternlab/structmark/internal/core/source"
	"github.com/patternlab/structmark/internal/driver"
)

// Marker is the grading engine: it canonicalizes a student artifact, diffs
// it against a rubric, and (when a graph store is configured) persists the
// normalized model for lecturer review. Each call is an independent,
// side-effect-free computation apart from that optional persistence.
type Marker struct {
	Driver  driver.GraphDriver // nil disables persistence
	Weights diff.Weights
}

func NewMarker(d driver.GraphDriver, weights diff.Weights) *Marker {
	if weights == (diff.Weights{}) {
		weights = diff.DefaultWeights()
	}
	return &Marker{
		Driver:  d,
		Weights: weights,
	}
}

// Result is what the HTTP layer returns to the caller: the weighted score,
// the structured feedback, and the student's model as the engine saw it.
type Result struct {
	SubmissionID      string               `json:"submissionId"`
	Score             int                  `json:"score"`
	MaxScore          int                  `json:"maxScore"`
	Breakdown         diff.Breakdown       `json:"breakdown"`
	Feedback          diff.Feedback        `json:"feedback"`
	NormalizedStudent model.CanonicalModel `json:"normalizedStudent"`
}

// GradeDiagram scores a raw diagram export against a rubric. The exact
// (kind, from, to) triple is compared: diagram tools carry kind information
// we trust.
func (m *Marker) GradeDiagram(ctx context.Context, raw json.RawMessage, rubric model.CanonicalModel) *Result {
	student := diagram.Canonicalize(raw)
	return m.grade(ctx, "diagram", student, rubric, diff.Options{Weights: m.Weights})
}

// GradeSource scores raw source text against a rubric. The scanner can only
// ever emit Inheritance, so relationship kinds are ignored and endpoints
// alone decide the relationship diff.
func (m *Marker) GradeSource(ctx context.Context, src string, rubric model.CanonicalModel) *Result {
	student := source.Canonicalize(src)
	return m.grade(ctx, "source", student, rubric, diff.Options{
		Weights:                m.Weights,
		IgnoreRelationshipKind: true,
	})
}

func (m *Marker) grade(ctx context.Context, channel string, student, rubric model.CanonicalModel, opts diff.Options) *Result {
	outcome := diff.Compare(student, rubric, opts)

	result := &Result{
		SubmissionID:      uuid.New().String(),
		Score:             outcome.Score,
		MaxScore:          outcome.MaxScore,
		Breakdown:         outcome.Breakdown,
		Feedback:          outcome.Feedback,
		NormalizedStudent: student,
	}

	if m.Driver != nil {
		// Persistence failure never fails a grading request.
		if err := m.SaveSubmission(ctx, result.SubmissionID, channel, student, outcome); err != nil {
			log.Printf("Failed to persist submission %s: %v", result.SubmissionID, err)
		}
	}

	return result
}

// SaveSubmission stores a normalized model in the graph: one Submission
// node, one Class node per class, one RELATES_TO edge per relationship.
func (m *Marker) SaveSubmission(ctx context.Context, id, channel string, student model.CanonicalModel, outcome diff.Result) error {
	if m.Driver == nil {
		return fmt.Errorf("no graph driver configured")
	}

	_, err := m.Driver.ExecuteQuery(ctx, driver.SaveSubmissionQuery, map[string]interface{}{
		"uuid":       id,
		"channel":    channel,
		"score":      outcome.Score,
		"max_score":  outcome.MaxScore,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to save submission node: %w", err)
	}

	for _, name := range student.ClassNames() {
		c := student.Classes[name]
		_, err := m.Driver.ExecuteQuery(ctx, driver.SaveClassNodeQuery, map[string]interface{}{
			"submission_id": id,
			"name":          c.Name,
			"kind":          string(c.Kind),
			"methods":       c.SortedMethods(),
		})
		if err != nil {
			return fmt.Errorf("failed to save class %s: %w", c.Name, err)
		}
	}

	for _, r := range student.SortedRelationships() {
		_, err := m.Driver.ExecuteQuery(ctx, driver.SaveRelationshipEdgeQuery, map[string]interface{}{
			"submission_id": id,
			"kind":          string(r.Kind),
			"from":          r.From,
			"to":            r.To,
		})
		if err != nil {
			// Dangling endpoints simply fail the MATCH; other failures are
			// worth surfacing.
			return fmt.Errorf("failed to save relationship %s->%s: %w", r.From, r.To, err)
		}
	}

	return nil
}

// GetSubmission reads a stored model back out of the graph.
func (m *Marker) GetSubmission(ctx context.Context, id string) (model.CanonicalModel, error) {
	student := model.New()
	if m.Driver == nil {
		return student, fmt.Errorf("no graph driver configured")
	}

	classes, err := m.Driver.ExecuteQuery(ctx, driver.GetSubmissionClassesQuery, map[string]interface{}{
		"submission_id": id,
	})
	if err != nil {
		return student, err
	}
	for _, rec := range classes.Records {
		name, _ := rec.Get("name")
		kind, _ := rec.Get("kind")
		methodsVal, _ := rec.Get("methods")

		decl := model.ClassDecl{
			Name:    asString(name),
			Kind:    model.ClassKind(asString(kind)),
			Methods: make(map[string]struct{}),
		}
		if list, ok := methodsVal.([]interface{}); ok {
			for _, v := range list {
				decl.Methods[asString(v)] = struct{}{}
			}
		}
		if decl.Name != "" {
			student.AddClass(decl)
		}
	}

	rels, err := m.Driver.ExecuteQuery(ctx, driver.GetSubmissionRelationshipsQuery, map[string]interface{}{
		"submission_id": id,
	})
	if err != nil {
		return student, err
	}
	for _, rec := range rels.Records {
		kind, _ := rec.Get("kind")
		from, _ := rec.Get("from")
		to, _ := rec.Get("to")
		student.AddRelationship(model.Relationship{
			Kind: model.RelationshipKind(asString(kind)),
			From: asString(from),
			To:   asString(to),
		})
	}

	return student, nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
