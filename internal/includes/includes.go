// Package includes expands ${include("…")} markers in request files,
// recursively and with cycle detection. Substitution happens right to left
// so earlier byte ranges stay valid while splicing, the same strategy the
// template engine uses.
package includes

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/agentic-research/fhttp/internal/pathutil"
)

var includeRe = regexp.MustCompile(`(\\*)(\$\{include\("([^"]*)"\)\})`)

// ReadError reports a file that exists but could not be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("error reading file %s", e.Path)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// CyclicIncludeError names the two files closing an include cycle.
type CyclicIncludeError struct {
	A pathutil.CanonicalPath
	B pathutil.CanonicalPath
}

func (e *CyclicIncludeError) Error() string {
	return fmt.Sprintf("cyclic include detected between '%s' and '%s'", e.A, e.B)
}

// Load returns the contents of path with every unescaped include marker
// replaced by the recursively loaded contents of its target.
func Load(path pathutil.CanonicalPath) (string, error) {
	l := &loader{resolved: map[pathutil.CanonicalPath]string{}}
	return l.load(path)
}

// LoadFile canonicalizes path first, then loads it.
func LoadFile(path string) (pathutil.CanonicalPath, string, error) {
	canonical, err := pathutil.Canonicalize(path)
	if err != nil {
		return "", "", err
	}
	text, err := Load(canonical)
	return canonical, text, err
}

type loader struct {
	resolved map[pathutil.CanonicalPath]string
	stack    []pathutil.CanonicalPath
}

func (l *loader) load(path pathutil.CanonicalPath) (string, error) {
	if text, ok := l.resolved[path]; ok {
		return text, nil
	}
	for _, onStack := range l.stack {
		if onStack == path {
			return "", &CyclicIncludeError{A: l.stack[len(l.stack)-1], B: path}
		}
	}
	l.stack = append(l.stack, path)

	raw, err := os.ReadFile(path.String())
	if err != nil {
		return "", &ReadError{Path: path.String(), Err: err}
	}
	text := string(raw)

	// reverse match order keeps earlier spans valid while splicing
	matches := includeRe.FindAllStringSubmatchIndex(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		bsStart, bsEnd := m[2], m[3]
		markerStart, markerEnd := m[4], m[5]
		rel := text[m[6]:m[7]]

		backslashes := bsEnd - bsStart
		if backslashes%2 == 0 {
			target, err := path.Resolve(rel)
			if err != nil {
				return "", err
			}
			included, err := l.load(target)
			if err != nil {
				return "", err
			}
			included = strings.TrimSuffix(included, "\n")
			text = text[:markerStart] + included + text[markerEnd:]
		}
		if backslashes > 0 {
			text = text[:bsStart] + strings.Repeat(`\`, backslashes/2) + text[bsEnd:]
		}
	}

	l.resolved[path] = text
	l.stack = l.stack[:len(l.stack)-1]
	return text, nil
}
