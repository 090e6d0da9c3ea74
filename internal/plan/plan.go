// Package plan orders request sources so every dependency executes before
// its dependants. The planner only orders; it never executes.
package plan

import (
	"fmt"

	"github.com/agentic-research/fhttp/internal/pathutil"
	"github.com/agentic-research/fhttp/internal/profile"
	"github.com/agentic-research/fhttp/internal/request"
	"github.com/agentic-research/fhttp/internal/template"
)

// CyclicDependencyError is a request graph that is not a DAG.
type CyclicDependencyError struct {
	Path pathutil.CanonicalPath
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency detected involving '%s'", e.Path)
}

// Order produces the execution plan for the user-requested sources: a
// duplicate-free sequence in which every dependency precedes its
// dependants. Dependencies come from unescaped ${request(…)} references
// and from profile variables defined through requests.
func Order(initial []*request.Source, prof *profile.Profile) ([]*request.Source, error) {
	p := &planner{}

	for _, req := range initial {
		paths, err := envVarRequestDependencies(prof, req)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			dep, err := request.FromFile(path.String(), true)
			if err != nil {
				return nil, err
			}
			if err := p.visit(dep); err != nil {
				return nil, err
			}
		}
	}

	for _, req := range initial {
		if err := p.visit(req); err != nil {
			return nil, err
		}
	}

	return p.ordered, nil
}

type planner struct {
	ordered []*request.Source
	stack   []pathutil.CanonicalPath
}

func (p *planner) visit(req *request.Source) error {
	for _, planned := range p.ordered {
		if planned.Path == req.Path {
			return nil
		}
	}
	for _, onStack := range p.stack {
		if onStack == req.Path {
			return &CyclicDependencyError{Path: req.Path}
		}
	}
	p.stack = append(p.stack, req.Path)

	deps, err := req.Dependencies()
	if err != nil {
		return err
	}
	for _, depPath := range deps {
		dep, err := request.FromFile(depPath.String(), true)
		if err != nil {
			return err
		}
		if err := p.visit(dep); err != nil {
			return err
		}
	}

	p.stack = p.stack[:len(p.stack)-1]
	p.ordered = append(p.ordered, req)
	return nil
}

// envVarRequestDependencies finds env vars of req whose profile entry is
// a RequestRef and resolves those request paths against the profile file.
func envVarRequestDependencies(prof *profile.Profile, req *request.Source) ([]pathutil.CanonicalPath, error) {
	var paths []pathutil.CanonicalPath
	for _, occurrence := range template.EnvVars(req.Text) {
		rel, ok := prof.DefinedThroughRequest(occurrence.Name)
		if !ok {
			continue
		}
		path, err := prof.DependencyPath(rel)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
