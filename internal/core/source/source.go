package source

import (
	"regexp"
	"strings"

	"github.com/patternlab/structmark/internal/core/model"
)

// This canonicalizer is a heuristic structural scanner, not a compiler front
// end. It recognizes single-line class headers with at most one base class,
// and inline-defined method signatures inside the class span. There is no
// preprocessor, no symbol table, and no brace counting: declarations without
// inline bodies, templates, nested classes and multiple inheritance are out
// of scope and degrade to fewer extracted facts rather than errors.

// class header: keyword, name, optional single base (access specifier
// optional), opening brace on the same declaration.
var classHeaderRe = regexp.MustCompile(
	`\bclass\s+([A-Za-z_]\w*)\s*(?::\s*(?:(?:public|protected|private)\s+)?([A-Za-z_]\w*)\s*)?\{`)

// method signature: identifier, parameter list, then the opening brace of an
// inline body, with the usual trailing qualifiers tolerated in between. The
// optional ": ..." tail swallows constructor member-initializer lists so
// their initialized members are not mistaken for methods.
var methodRe = regexp.MustCompile(
	`([A-Za-z_]\w*)\s*\(([^()]*)\)\s*(?:const\b\s*)?(?:noexcept\b\s*)?(?:override\b\s*)?(?:final\b\s*)?(?::[^{]*)?\{`)

// Control-flow keywords also look like identifier(...) { to the method
// pattern; they are never methods.
var keywordIdents = map[string]struct{}{
	"if": {}, "for": {}, "while": {}, "switch": {}, "catch": {},
	"return": {}, "sizeof": {}, "alignof": {}, "decltype": {},
}

// Canonicalize extracts class, base-class and inline-method facts from raw
// source text. It is total: pattern-free or empty input yields an empty
// model, which is success, not error.
func Canonicalize(src string) model.CanonicalModel {
	m := model.New()

	for _, match := range classHeaderRe.FindAllStringSubmatch(src, -1) {
		name, base := match[1], match[2]

		methods := make(map[string]struct{})
		for _, sig := range methodRe.FindAllStringSubmatch(classSpan(src, name), -1) {
			ident := sig[1]
			if ident == name {
				// Constructor (and pattern-matched destructor) suppression.
				continue
			}
			if _, kw := keywordIdents[ident]; kw {
				continue
			}
			methods[ident] = struct{}{}
		}

		// Source text cannot mark abstractness for this scanner; only the
		// diagram canonicalizer produces the abstract kind.
		m.AddClass(model.ClassDecl{Name: name, Kind: model.KindClass, Methods: methods})

		if base != "" {
			m.AddRelationship(model.Relationship{
				Kind: model.Inheritance,
				From: name,
				To:   base,
			})
		}
	}

	return m
}

// classSpan isolates the text between a class's opening brace and its
// pattern-matched closing "};". The span match is lazy, not brace-counting:
// nested braces inside method bodies survive only because the method pattern
// is permissive, and multiple top-level classes with the same name defeat it.
func classSpan(src, name string) string {
	re := regexp.MustCompile(
		`(?s)\bclass\s+` + regexp.QuoteMeta(name) + `\b[^{]*\{(.*?)\n?\s*\}\s*;`)
	match := re.FindStringSubmatch(src)
	if match == nil {
		return ""
	}
	return match[1]
}

// HasClassPattern reports whether the text contains at least one
// recognizable class header. Callers use it to distinguish "empty model
// because the input is not class-shaped" from "empty input".
func HasClassPattern(src string) bool {
	return strings.Contains(src, "class") && classHeaderRe.MatchString(src)
}
