// Package request models loaded request files and their dependency
// references, and dispatches parsing by file extension.
package request

import (
	"regexp"
	"strings"

	"github.com/agentic-research/fhttp/internal/includes"
	"github.com/agentic-research/fhttp/internal/parser"
	"github.com/agentic-research/fhttp/internal/pathutil"
)

// Source is a loaded, include-expanded request file. Identity is the
// canonical path alone; the text is rewritten in place by the template
// engine before parsing.
type Source struct {
	Path       pathutil.CanonicalPath
	Text       string
	Dependency bool
}

// FromFile canonicalizes path and loads it with includes expanded.
func FromFile(path string, dependency bool) (*Source, error) {
	canonical, text, err := includes.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return &Source{Path: canonical, Text: text, Dependency: dependency}, nil
}

// New wraps literal text as a source, mostly for tests.
func New(path pathutil.CanonicalPath, text string, dependency bool) *Source {
	return &Source{Path: path, Text: text, Dependency: dependency}
}

var requestRe = regexp.MustCompile(`(\\*)(\$\{request\("([^"]+)"\)\})`)

// Ref is one ${request("…")} occurrence. Span covers the marker itself;
// the preceding backslash run sits at [BsStart, Start).
type Ref struct {
	Path    string
	Start   int
	End     int
	BsStart int
}

// Escaped reports whether the occurrence is escaped (odd backslash run)
// and therefore not a dependency.
func (r Ref) Escaped() bool {
	return (r.Start-r.BsStart)%2 == 1
}

// Refs returns every request reference in text in reverse order of
// occurrence, so callers can splice without invalidating later spans.
func Refs(text string) []Ref {
	matches := requestRe.FindAllStringSubmatchIndex(text, -1)
	refs := make([]Ref, 0, len(matches))
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		refs = append(refs, Ref{
			Path:    text[m[6]:m[7]],
			Start:   m[4],
			End:     m[5],
			BsStart: m[2],
		})
	}
	return refs
}

// Dependencies resolves the unescaped request references of s to
// canonical paths, relative to s's own location.
func (s *Source) Dependencies() ([]pathutil.CanonicalPath, error) {
	var deps []pathutil.CanonicalPath
	for _, ref := range Refs(s.Text) {
		if ref.Escaped() {
			continue
		}
		dep, err := s.Path.Resolve(ref.Path)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// Parse consumes the source and produces the executable request. The
// front-end is chosen by extension: .gql.http/.graphql.http, .json,
// .yaml/.yml, and classic .http for everything else.
func (s *Source) Parse() (*parser.ParsedRequest, error) {
	path := strings.ToLower(s.Path.String())
	switch {
	case strings.HasSuffix(path, ".gql.http") || strings.HasSuffix(path, ".graphql.http"):
		return parser.ParseGraphQL(s.Path, s.Text)
	case strings.HasSuffix(path, ".json"):
		return parser.ParseStructuredJSON(s.Path, s.Text)
	case strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml"):
		return parser.ParseStructuredYAML(s.Path, s.Text)
	default:
		return parser.ParseClassic(s.Path, s.Text)
	}
}
