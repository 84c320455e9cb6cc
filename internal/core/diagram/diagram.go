package diagram

import (
	"encoding/json"
	"strings"

	"github.com/patternlab/structmark/internal/core/model"
)

// Export is the raw diagram-tool shape: two mappings keyed by opaque ids.
// Only the fields the canonicalizer reads are declared; everything else in
// the export is ignored.
type Export struct {
	Elements      map[string]Element `json:"elements"`
	Relationships map[string]Link    `json:"relationships"`
}

type Element struct {
	Type    string   `json:"type"`
	Name    string   `json:"name"`
	Methods []string `json:"methods"`
}

type Link struct {
	Type   string   `json:"type"`
	Source Endpoint `json:"source"`
	Target Endpoint `json:"target"`
}

type Endpoint struct {
	Element string `json:"element"`
}

// Canonicalize converts a raw diagram export into the canonical model.
// It is total: malformed JSON, missing top-level keys, or an export full of
// unusable elements all degrade to a smaller or empty model. An empty model
// is a valid, if unhelpful, outcome that simply scores low.
func Canonicalize(raw json.RawMessage) model.CanonicalModel {
	var export Export
	if len(raw) > 0 {
		// Parse errors are deliberately swallowed: student payloads must
		// never block the submission workflow.
		_ = json.Unmarshal(raw, &export)
	}
	return CanonicalizeExport(export)
}

// CanonicalizeExport is the typed entry point for callers that already hold
// a decoded export.
func CanonicalizeExport(export Export) model.CanonicalModel {
	m := model.New()

	// id -> name lookup over retained class elements only. Relationships
	// touching anything outside this lookup are discarded below.
	names := make(map[string]string)

	for id, el := range export.Elements {
		if !isClassLike(el.Type) {
			continue
		}
		name := strings.TrimSpace(el.Name)
		if name == "" {
			// Unnamed classes cannot be referenced or scored.
			continue
		}
		methods := make(map[string]struct{})
		for _, mid := range el.Methods {
			member, ok := export.Elements[mid]
			if !ok {
				continue
			}
			mName := strings.TrimSpace(member.Name)
			if mName == "" || mName == name {
				// Blank entries and constructors are excluded.
				continue
			}
			methods[mName] = struct{}{}
		}
		names[id] = name
		m.AddClass(model.ClassDecl{
			Name:    name,
			Kind:    model.ParseClassKind(el.Type),
			Methods: methods,
		})
	}

	for _, link := range export.Relationships {
		from, okFrom := names[link.Source.Element]
		to, okTo := names[link.Target.Element]
		if !okFrom || !okTo {
			continue
		}
		m.AddRelationship(model.Relationship{
			Kind: model.ParseRelationshipKind(link.Type),
			From: from,
			To:   to,
		})
	}

	return m
}

func isClassLike(tag string) bool {
	t := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "uml."))
	switch t {
	case "class", "abstract", "abstractclass", "abstract_class", "interface":
		return true
	default:
		return false
	}
}
