// Package profile reads named variable sets from a profile file and
// resolves variable lookups against them, falling through to the process
// environment and, optionally, an interactive prompt.
package profile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentic-research/fhttp/internal/config"
	"github.com/agentic-research/fhttp/internal/pathutil"
)

// MissingEnvVarError is an env var that resolved nowhere: not in the
// profile, not in the environment, no call-site default, and prompting
// either off or failed to read an answer.
type MissingEnvVarError struct {
	Name string
}

func (e *MissingEnvVarError) Error() string {
	return fmt.Sprintf("missing environment variable %s", e.Name)
}

// Variable is one profile entry: a literal, a secret-store lookup, or a
// reference to another request file whose response supplies the value.
type Variable interface {
	isVariable()
}

// Literal is a plain string value.
type Literal string

func (Literal) isVariable() {}

// Secret is backed by the external `pass` store. The fetched value is
// cached for the process lifetime; the cache is write-once.
type Secret struct {
	Path  string
	cache *string
}

func (*Secret) isVariable() {}

// RequestRef points at a request file, relative to the profile file,
// whose stored response is the variable's value.
type RequestRef struct {
	Request string
}

func (RequestRef) isVariable() {}

// Resolution is the outcome of a lookup: either a concrete value or an
// instruction to read the response stored for a request path. The caller
// resolves FromRequest against the profile's source path via
// DependencyPath.
type Resolution struct {
	Value       string
	FromRequest string
	IsRequest   bool
}

// Profile is a named bundle of variables plus the path of the file that
// defined it, which anchors RequestRef resolution.
type Profile struct {
	sourcePath string
	variables  map[string]Variable
}

// Empty returns a profile with no variables. Lookups fall through to the
// process environment.
func Empty(sourcePath string) *Profile {
	return &Profile{sourcePath: sourcePath, variables: map[string]Variable{}}
}

// New builds a profile from an explicit variable map.
func New(sourcePath string, variables map[string]Variable) *Profile {
	if variables == nil {
		variables = map[string]Variable{}
	}
	return &Profile{sourcePath: sourcePath, variables: variables}
}

// SourcePath is the profile file this profile was read from.
func (p *Profile) SourcePath() string {
	return p.sourcePath
}

// Override overlays other on top of p: entries in other win per key.
func (p *Profile) Override(other *Profile) {
	for key, value := range other.variables {
		p.variables[key] = value
	}
}

// DefinedThroughRequest reports whether key is a RequestRef and returns
// its raw (unresolved) request path.
func (p *Profile) DefinedThroughRequest(key string) (string, bool) {
	ref, ok := p.variables[key].(RequestRef)
	if !ok {
		return "", false
	}
	return ref.Request, true
}

// DependencyPath resolves a request path named by this profile against
// the profile file's directory.
func (p *Profile) DependencyPath(rel string) (pathutil.CanonicalPath, error) {
	if filepath.IsAbs(rel) {
		return pathutil.Canonicalize(rel)
	}
	return pathutil.Canonicalize(filepath.Join(filepath.Dir(p.sourcePath), rel))
}

// Get resolves key. Profile entries win; otherwise the process
// environment; otherwise the call-site default; otherwise an interactive
// prompt when the config allows it. Prompt answers are written back into
// the environment so later lookups in the same run reuse them.
//
// forDependency matters to secrets in curl mode: a user request keeps the
// `$(pass …)` idiom for the emitted shell command, while dependencies
// execute for real and need the actual value.
func (p *Profile) Get(key string, cfg config.Config, def *string, forDependency bool) (Resolution, error) {
	if variable, ok := p.variables[key]; ok {
		switch v := variable.(type) {
		case Literal:
			return Resolution{Value: string(v)}, nil
		case *Secret:
			value, err := v.resolve(cfg, forDependency)
			if err != nil {
				return Resolution{}, err
			}
			return Resolution{Value: value}, nil
		case RequestRef:
			return Resolution{FromRequest: v.Request, IsRequest: true}, nil
		}
	}

	if value, ok := os.LookupEnv(key); ok {
		return Resolution{Value: value}, nil
	}
	if def != nil {
		return Resolution{Value: *def}, nil
	}
	if cfg.PromptMissingEnvVars() {
		value, err := promptFn(key)
		if err != nil {
			return Resolution{}, &MissingEnvVarError{Name: key}
		}
		if err := os.Setenv(key, value); err != nil {
			return Resolution{}, fmt.Errorf("caching prompt answer for %s: %w", key, err)
		}
		return Resolution{Value: value}, nil
	}
	return Resolution{}, &MissingEnvVarError{Name: key}
}
