package model

import (
	"encoding/json"
	"log"
	"sort"
	"strings"
)

// ClassKind marks whether a class-like entity is ordinary or abstract.
type ClassKind string

const (
	KindClass    ClassKind = "class"
	KindAbstract ClassKind = "abstract"
)

// RelationshipKind is the canonical three-way edge classification shared by
// both canonicalizers and the differ.
type RelationshipKind string

const (
	Inheritance RelationshipKind = "Inheritance"
	Realization RelationshipKind = "Realization"
	Dependency  RelationshipKind = "Dependency"
)

// ClassDecl is one class-like entity. Methods is a set: membership only,
// order irrelevant. Constructor names (matching the class name) are never
// stored here; the canonicalizers strip them.
type ClassDecl struct {
	Name    string
	Kind    ClassKind
	Methods map[string]struct{}
}

// Relationship is keyed by the full triple. From and To are class names,
// not ids; dangling references are tolerated and compared as plain strings.
type Relationship struct {
	Kind RelationshipKind `json:"type"`
	From string           `json:"from"`
	To   string           `json:"to"`
}

// CanonicalModel is the shared, tool-agnostic shape produced by the diagram
// and source canonicalizers and consumed by the differ. It is never mutated
// after construction.
type CanonicalModel struct {
	Classes       map[string]ClassDecl
	Relationships map[Relationship]struct{}
}

func New() CanonicalModel {
	return CanonicalModel{
		Classes:       make(map[string]ClassDecl),
		Relationships: make(map[Relationship]struct{}),
	}
}

// AddClass inserts a class declaration. Duplicate names are last-write-wins,
// and the collision is logged: a silent overwrite can hide grading mistakes.
func (m *CanonicalModel) AddClass(c ClassDecl) {
	if c.Methods == nil {
		c.Methods = make(map[string]struct{})
	}
	if _, dup := m.Classes[c.Name]; dup {
		log.Printf("Duplicate class declaration %q, keeping the latest", c.Name)
	}
	m.Classes[c.Name] = c
}

func (m *CanonicalModel) AddRelationship(r Relationship) {
	m.Relationships[r] = struct{}{}
}

// ClassNames returns the class names in lexicographic order.
func (m CanonicalModel) ClassNames() []string {
	names := make([]string, 0, len(m.Classes))
	for name := range m.Classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortedRelationships returns the relationship set ordered by (kind, from, to).
func (m CanonicalModel) SortedRelationships() []Relationship {
	rels := make([]Relationship, 0, len(m.Relationships))
	for r := range m.Relationships {
		rels = append(rels, r)
	}
	SortRelationships(rels)
	return rels
}

func SortRelationships(rels []Relationship) {
	sort.Slice(rels, func(i, j int) bool {
		if rels[i].Kind != rels[j].Kind {
			return rels[i].Kind < rels[j].Kind
		}
		if rels[i].From != rels[j].From {
			return rels[i].From < rels[j].From
		}
		return rels[i].To < rels[j].To
	})
}

// MethodSet builds a method set from a slice, dropping blanks.
func MethodSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

// SortedMethods returns a class's method set as a sorted slice.
func (c ClassDecl) SortedMethods() []string {
	methods := make([]string, 0, len(c.Methods))
	for m := range c.Methods {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

// ParseClassKind normalizes a raw kind tag. Anything that does not clearly
// mark abstractness is an ordinary class.
func ParseClassKind(tag string) ClassKind {
	t := strings.ToLower(tag)
	if strings.Contains(t, "abstract") || strings.Contains(t, "interface") {
		return KindAbstract
	}
	return KindClass
}

// ParseRelationshipKind maps a raw relationship tag onto the canonical
// three-way kind. Unrecognized tags fall through to Dependency; this
// conflates true dependency edges with anything exotic the tool emits,
// which is an accepted approximation.
func ParseRelationshipKind(tag string) RelationshipKind {
	t := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "uml."))
	switch t {
	case "inheritance", "generalization", "generalisation", "extends", "extension":
		return Inheritance
	case "realization", "realisation", "implementation", "implements":
		return Realization
	default:
		return Dependency
	}
}

// ---- wire shape ----
//
// classes:      list<{name, kind, methods: []string}>
// relationships: list<{type, from, to}>
//
// Marshalling is deterministic: classes by name, methods sorted,
// relationships by (kind, from, to). This is what result equality in tests
// relies on.

type classWire struct {
	Name    string    `json:"name"`
	Kind    ClassKind `json:"kind"`
	Methods []string  `json:"methods"`
}

type modelWire struct {
	Classes       []classWire    `json:"classes"`
	Relationships []Relationship `json:"relationships"`
}

func (m CanonicalModel) MarshalJSON() ([]byte, error) {
	wire := modelWire{
		Classes:       make([]classWire, 0, len(m.Classes)),
		Relationships: m.SortedRelationships(),
	}
	for _, name := range m.ClassNames() {
		c := m.Classes[name]
		wire.Classes = append(wire.Classes, classWire{
			Name:    c.Name,
			Kind:    c.Kind,
			Methods: c.SortedMethods(),
		})
	}
	return json.Marshal(wire)
}

func (m *CanonicalModel) UnmarshalJSON(data []byte) error {
	var wire modelWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*m = New()
	for _, c := range wire.Classes {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		kind := c.Kind
		if kind != KindAbstract {
			kind = KindClass
		}
		m.AddClass(ClassDecl{Name: c.Name, Kind: kind, Methods: MethodSet(c.Methods)})
	}
	for _, r := range wire.Relationships {
		if r.From == "" || r.To == "" {
			continue
		}
		kind := r.Kind
		if kind != Inheritance && kind != Realization && kind != Dependency {
			kind = ParseRelationshipKind(string(r.Kind))
		}
		m.AddRelationship(Relationship{Kind: kind, From: r.From, To: r.To})
	}
	return nil
}

// Decode parses a rubric (or any CanonicalModel-shaped JSON value). Unlike
// student input, a rubric that is not valid JSON is an error the caller must
// see: rubrics are operator-authored and their validity is a precondition.
func Decode(data []byte) (CanonicalModel, error) {
	var m CanonicalModel
	if err := json.Unmarshal(data, &m); err != nil {
		return New(), err
	}
	return m, nil
}
