package diff

import (
	"sort"

	"github.com/patternlab/structmark/internal/core/model"
)

// Weights is the scoring policy: how much one matched class, relationship or
// method is worth. The original marking scheme shipped two revisions that
// disagreed on the relationship weight (x1 vs x2); we default to x2 and make
// the whole policy explicit config rather than resolving it silently.
type Weights struct {
	Class        int `toml:"class_weight" json:"classWeight"`
	Relationship int `toml:"relationship_weight" json:"relationshipWeight"`
	Method       int `toml:"method_weight" json:"methodWeight"`
}

func DefaultWeights() Weights {
	return Weights{Class: 1, Relationship: 2, Method: 1}
}

// Options controls one comparison run.
type Options struct {
	Weights Weights

	// IgnoreRelationshipKind degrades relationship comparison to (from, to)
	// pairs. Source-derived student models can only ever emit Inheritance,
	// so holding them to a rubric's Realization/Dependency kinds would be
	// unfair; the pairing decides, not the payload.
	IgnoreRelationshipKind bool
}

// MethodDiff reports the per-class method differences for one rubric class
// that exists in the student model.
type MethodDiff struct {
	MissingMethods []string `json:"missingMethods"`
	ExtraMethods   []string `json:"extraMethods"`
}

// Feedback is the structured, explainable half of a comparison result.
// Every list is sorted so results compare byte-for-byte.
type Feedback struct {
	MissingClasses       []string              `json:"missingClasses"`
	ExtraClasses         []string              `json:"extraClasses"`
	MissingRelationships []model.Relationship  `json:"missingRelationships"`
	ExtraRelationships   []model.Relationship  `json:"extraRelationships"`
	MethodFeedback       map[string]MethodDiff `json:"methodFeedback"`
}

// Breakdown carries the three sub-scores and the rubric cardinalities they
// are bounded by.
type Breakdown struct {
	ClassScore           int `json:"classScore"`
	RelationshipScore    int `json:"relationshipScore"`
	MethodScore          int `json:"methodScore"`
	TotalExpectedMethods int `json:"totalExpectedMethods"`
	MaxScore             int `json:"maxScore"`
}

// Result is the full outcome of comparing a student model against a rubric.
type Result struct {
	Score     int       `json:"score"`
	MaxScore  int       `json:"maxScore"`
	Breakdown Breakdown `json:"breakdown"`
	Feedback  Feedback  `json:"feedback"`
}

// Compare scores a student canonical model against a rubric. It is pure and
// total: for well-formed models it never fails, and for fixed inputs the
// result is deterministic. Extra structure in the student model is reported
// but never penalized.
func Compare(student, rubric model.CanonicalModel, opts Options) Result {
	w := opts.Weights
	if w == (Weights{}) {
		w = DefaultWeights()
	}

	fb := Feedback{
		MissingClasses:       []string{},
		ExtraClasses:         []string{},
		MissingRelationships: []model.Relationship{},
		ExtraRelationships:   []model.Relationship{},
		MethodFeedback:       make(map[string]MethodDiff),
	}

	// Class diff: one point per rubric class name found in the student
	// model, regardless of kind or methods.
	for _, name := range rubric.ClassNames() {
		if _, ok := student.Classes[name]; !ok {
			fb.MissingClasses = append(fb.MissingClasses, name)
		}
	}
	for _, name := range student.ClassNames() {
		if _, ok := rubric.Classes[name]; !ok {
			fb.ExtraClasses = append(fb.ExtraClasses, name)
		}
	}
	classScore := max(0, len(rubric.Classes)-len(fb.MissingClasses))

	// Relationship diff: exact triples, or (from, to) pairs when kind
	// information is unreliable for this pairing.
	studentKeys := relationshipKeys(student, opts.IgnoreRelationshipKind)
	rubricKeys := relationshipKeys(rubric, opts.IgnoreRelationshipKind)
	for r := range rubric.Relationships {
		if _, ok := studentKeys[relationshipKey(r, opts.IgnoreRelationshipKind)]; !ok {
			fb.MissingRelationships = append(fb.MissingRelationships, r)
		}
	}
	for r := range student.Relationships {
		if _, ok := rubricKeys[relationshipKey(r, opts.IgnoreRelationshipKind)]; !ok {
			fb.ExtraRelationships = append(fb.ExtraRelationships, r)
		}
	}
	model.SortRelationships(fb.MissingRelationships)
	model.SortRelationships(fb.ExtraRelationships)
	relationshipScore := max(0, len(rubric.Relationships)-len(fb.MissingRelationships))

	// Method diff: per rubric class present in the student model. Classes
	// the student omitted still count toward the expected total, so they
	// cost full method credit without being double-reported.
	methodScore := 0
	totalExpected := 0
	for _, name := range rubric.ClassNames() {
		expected := rubric.Classes[name].Methods
		totalExpected += len(expected)

		studentClass, ok := student.Classes[name]
		if !ok {
			continue
		}

		missing := []string{}
		extra := []string{}
		for method := range expected {
			if _, got := studentClass.Methods[method]; !got {
				missing = append(missing, method)
			}
		}
		for method := range studentClass.Methods {
			if _, want := expected[method]; !want {
				extra = append(extra, method)
			}
		}
		sort.Strings(missing)
		sort.Strings(extra)

		methodScore += max(0, len(expected)-len(missing))
		if len(missing) > 0 || len(extra) > 0 {
			fb.MethodFeedback[name] = MethodDiff{MissingMethods: missing, ExtraMethods: extra}
		}
	}

	maxScore := w.Class*len(rubric.Classes) + w.Relationship*len(rubric.Relationships) + w.Method*totalExpected
	score := w.Class*classScore + w.Relationship*relationshipScore + w.Method*methodScore

	return Result{
		Score:    score,
		MaxScore: maxScore,
		Breakdown: Breakdown{
			ClassScore:           classScore,
			RelationshipScore:    relationshipScore,
			MethodScore:          methodScore,
			TotalExpectedMethods: totalExpected,
			MaxScore:             maxScore,
		},
		Feedback: fb,
	}
}

// relKey is the comparison key for one relationship; Kind is zeroed in
// pair-only mode so triples collapse onto their endpoints.
type relKey struct {
	Kind     model.RelationshipKind
	From, To string
}

func relationshipKey(r model.Relationship, ignoreKind bool) relKey {
	k := relKey{Kind: r.Kind, From: r.From, To: r.To}
	if ignoreKind {
		k.Kind = ""
	}
	return k
}

func relationshipKeys(m model.CanonicalModel, ignoreKind bool) map[relKey]struct{} {
	keys := make(map[relKey]struct{}, len(m.Relationships))
	for r := range m.Relationships {
		keys[relationshipKey(r, ignoreKind)] = struct{}{}
	}
	return keys
}
