package quiz

import (
	"math/rand"
	"sort"
	"sync"
)

// Bank is the in-memory micro-quiz store, seeded from the course blueprint
// at construction. Reads vastly dominate; the lock exists only because gin
// handlers run concurrently.
type Bank struct {
	mu  sync.RWMutex
	mqs map[string]MicroQuiz
}

func NewBank() *Bank {
	b := &Bank{mqs: make(map[string]MicroQuiz)}
	for _, mq := range seedQuizzes() {
		mq.TotalMarks = totalMarks(mq.Items)
		b.mqs[mq.ID] = mq
	}
	return b
}

func totalMarks(items []Item) int {
	total := 0
	for _, it := range items {
		total += it.Marks
	}
	return total
}

// Metas returns the catalog, sorted by id.
func (b *Bank) Metas() []Meta {
	b.mu.RLock()
	defer b.mu.RUnlock()

	metas := make([]Meta, 0, len(b.mqs))
	for _, mq := range b.mqs {
		metas = append(metas, Meta{
			ID:         mq.ID,
			Title:      mq.Title,
			Desc:       mq.Desc,
			TotalMarks: mq.TotalMarks,
			TargetLOs:  mq.TargetLOs,
		})
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].ID < metas[j].ID })
	return metas
}

func (b *Bank) Get(id string) (MicroQuiz, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	mq, ok := b.mqs[id]
	return mq, ok
}

// Shuffled returns a copy of the quiz with item order shuffled. The same
// seed produces the same order, so a front-end can replay a session.
func (b *Bank) Shuffled(id string, seed int64) (MicroQuiz, bool) {
	mq, ok := b.Get(id)
	if !ok || len(mq.Items) == 0 {
		return mq, ok
	}

	items := make([]Item, len(mq.Items))
	copy(items, mq.Items)
	rnd := rand.New(rand.NewSource(seed))
	rnd.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	mq.Items = items
	return mq, true
}

// IDs returns all quiz ids, sorted.
func (b *Bank) IDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.mqs))
	for id := range b.mqs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NextAfter advances sequentially through the bank; the last quiz repeats.
// An unknown or empty last id restarts from the beginning.
func (b *Bank) NextAfter(lastID string) (string, bool) {
	ids := b.IDs()
	if len(ids) == 0 {
		return "", false
	}
	for i, id := range ids {
		if id == lastID {
			if i+1 < len(ids) {
				return ids[i+1], true
			}
			return ids[i], true
		}
	}
	return ids[0], true
}

// seedQuizzes is the course's six Factory Method micro-quizzes.
func seedQuizzes() []MicroQuiz {
	return []MicroQuiz{
		{
			ID:    "mq1",
			Title: "MQ1: Intent and recognition",
			Desc:  "Why patterns, FM intent, and the rule that clients do not construct concretes.",
			Items: []Item{
				{
					ID: "mq1_q1", Type: MCQSingle,
					Prompt: "Factory Method is a ___ pattern used to ___.",
					Options: []Option{
						{Key: "A", Text: "creational; delegate object creation to subclasses"},
						{Key: "B", Text: "structural; share state across instances"},
						{Key: "C", Text: "behavioral; broadcast events to observers"},
					},
					Answer: "A", Marks: 2, LOIDs: []int{1, 2, 3, 4, 6},
					ErrorClassOnMiss: "intent-or-classification-misunderstood",
				},
				{
					ID: "mq1_q2", Type: FITB,
					Prompt: "In FM, the client must not construct ______ types directly.",
					Answer: "concrete", Marks: 1, LOIDs: []int{4, 9},
					ErrorClassOnMiss: "client-still-constructs",
				},
				{
					ID: "mq1_q3", Type: MCQSingle,
					Prompt: "Which cue best suggests FM over Simple Factory?",
					Options: []Option{
						{Key: "A", Text: "Need to choose families together"},
						{Key: "B", Text: "Creation varies in subclasses via an override"},
						{Key: "C", Text: "No polymorphism is needed"},
					},
					Answer: "B", Marks: 2, LOIDs: []int{6, 9},
					ErrorClassOnMiss: "pattern-triage-confusion",
				},
			},
			TargetLOs: []int{1, 2, 3, 4, 6, 9},
		},
		{
			ID:    "mq2",
			Title: "MQ2: Canonical UML roles",
			Desc:  "Label Creator/Product roles, abstract markers, and factory return types.",
			Items: []Item{
				{
					ID: "mq2_q1", Type: MCQSingle,
					Prompt: "Which role declares the factory operation that returns Product?",
					Options: []Option{
						{Key: "A", Text: "Creator"},
						{Key: "B", Text: "ConcreteProduct"},
						{Key: "C", Text: "Client"},
					},
					Answer: "A", Marks: 2, LOIDs: []int{5, 7, 13},
					ErrorClassOnMiss: "uml-roles-mislabelled",
				},
				{
					ID: "mq2_q2", Type: FITB,
					Prompt: "In the UML, the factory returns the base type ______.",
					Answer: "Product", Marks: 2, LOIDs: []int{5, 13},
					ErrorClassOnMiss: "wrong-factory-return-type",
				},
			},
			TargetLOs: []int{5, 7, 13},
		},
		{
			ID:    "mq3",
			Title: "MQ3: Code-UML mapping",
			Desc:  "Map code cues to UML and back.",
			Items: []Item{
				{
					ID: "mq3_q1", Type: MCQSingle,
					Prompt: "Which UML relationship represents ConcreteCreator inheriting from Creator?",
					Options: []Option{
						{Key: "A", Text: "Association"},
						{Key: "B", Text: "Generalisation (open triangle arrow)"},
						{Key: "C", Text: "Aggregation"},
					},
					Answer: "B", Marks: 2, LOIDs: []int{10, 12, 23},
					ErrorClassOnMiss: "uml-relationship-misused",
				},
				{
					ID: "mq3_q2", Type: FITB,
					Prompt: "The factory operation on Creator should return the base type ______.",
					Answer: "Product", Marks: 1, LOIDs: []int{10, 23},
					ErrorClassOnMiss: "wrong-factory-return-type",
				},
				{
					ID: "mq3_q3", Type: MCQSingle,
					Prompt: "[IMAGE REQUIRED: uml_mq3_q3.png] Which diagram correctly shows the factory op on Creator returning Product?",
					Options: []Option{
						{Key: "A", Text: "Diagram A"},
						{Key: "B", Text: "Diagram B"},
						{Key: "C", Text: "Diagram C"},
					},
					Answer: "A", Marks: 2, LOIDs: []int{10, 12, 23},
					ErrorClassOnMiss: "factory-signature-wrong",
				},
			},
			TargetLOs: []int{10, 12, 23},
		},
		{
			ID:    "mq4",
			Title: "MQ4: Code role cues and lifecycle",
			Desc:  "Recognise roles and required lifecycle contracts.",
			Items: []Item{
				{
					ID: "mq4_q1", Type: MCQMulti,
					Prompt: "Select all cues that a class is a Creator in FM.",
					Options: []Option{
						{Key: "A", Text: "Declares virtual factory returning Product"},
						{Key: "B", Text: "Overrides factory and returns ConcreteProduct"},
						{Key: "C", Text: "Has a public field of ConcreteProduct type"},
					},
					Answer: []string{"A", "B"}, Marks: 2, LOIDs: []int{14, 17, 18},
					ErrorClassOnMiss: "role-cues-misidentified",
				},
				{
					ID: "mq4_q2", Type: FITB,
					Prompt: "To delete via a Product* safely, Product needs a ______ destructor.",
					Answer: "virtual", Marks: 2, LOIDs: []int{19, 20},
					ErrorClassOnMiss: "missing-virtual-destructor",
				},
				{
					ID: "mq4_q3", Type: MCQSingle,
					Prompt: "[IMAGE REQUIRED: code_mq4_q3.png] Which snippet will cause undefined behavior when deleting via Product*?",
					Options: []Option{
						{Key: "A", Text: "Snippet A: Product has virtual ~Product()."},
						{Key: "B", Text: "Snippet B: Product lacks a virtual destructor."},
						{Key: "C", Text: "Snippet C: Product destructor is defaulted and virtual."},
					},
					Answer: "B", Marks: 1, LOIDs: []int{19, 20},
					ErrorClassOnMiss: "lifecycle-contract-missed",
				},
			},
			TargetLOs: []int{14, 17, 18, 19, 20},
		},
		{
			ID:    "mq5",
			Title: "MQ5: Refactor to Factory Method",
			Desc:  "Move creation into the factory and keep client abstract.",
			Items: []Item{
				{
					ID: "mq5_q1", Type: MCQSingle,
					Prompt: "Which change removes client coupling to Concrete?",
					Options: []Option{
						{Key: "A", Text: "Client includes ConcreteA.h directly"},
						{Key: "B", Text: "Client calls Creator::make() and uses Product*"},
						{Key: "C", Text: "Client switches on a type enum to new a concrete"},
					},
					Answer: "B", Marks: 3, LOIDs: []int{21},
					ErrorClassOnMiss: "client-still-constructs",
				},
				{
					ID: "mq5_q2", Type: FITB,
					Prompt: "After refactoring, the client should invoke ________ instead of constructing concretes.",
					Answer: "Creator::make()", Marks: 2, LOIDs: []int{21},
					ErrorClassOnMiss: "wrong-call-site",
				},
			},
			TargetLOs: []int{21},
		},
		{
			ID:    "mq6",
			Title: "MQ6: Extension and pattern discrimination",
			Desc:  "Add variants cleanly and tell FM vs AF vs Simple apart.",
			Items: []Item{
				{
					ID: "mq6_q1", Type: MCQSingle,
					Prompt: "You add a new ConcreteProduct and ConcreteCreator while the client stays unchanged. Which pattern does this cue?",
					Options: []Option{
						{Key: "A", Text: "Factory Method"},
						{Key: "B", Text: "Simple Factory"},
						{Key: "C", Text: "Abstract Factory"},
					},
					Answer: "A", Marks: 2, LOIDs: []int{12, 22},
					ErrorClassOnMiss: "pattern-triage-confusion",
				},
				{
					ID: "mq6_q2", Type: MCQSingle,
					Prompt: "Families chosen together with fixed combinations is a decisive cue for _____.",
					Options: []Option{
						{Key: "A", Text: "Factory Method"},
						{Key: "B", Text: "Abstract Factory"},
						{Key: "C", Text: "Simple Factory"},
					},
					Answer: "B", Marks: 2, LOIDs: []int{12, 15},
					ErrorClassOnMiss: "af-vs-fm-confusion",
				},
				{
					ID: "mq6_q3", Type: FITB,
					Prompt: "In FM, adding ConcreteProductB usually implies adding a matching ________.",
					Answer: "ConcreteCreatorB", Marks: 1, LOIDs: []int{22},
					ErrorClassOnMiss: "extension-mechanics-missed",
				},
			},
			TargetLOs: []int{12, 15, 22},
		},
	}
}
