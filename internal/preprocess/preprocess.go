// Package preprocess drives the request pipeline lazily: requests come
// out one at a time in plan order, fully substituted and parsed, and the
// caller feeds executed responses back in before asking for the next one.
package preprocess

import (
	"github.com/agentic-research/fhttp/internal/config"
	"github.com/agentic-research/fhttp/internal/parser"
	"github.com/agentic-research/fhttp/internal/pathutil"
	"github.com/agentic-research/fhttp/internal/plan"
	"github.com/agentic-research/fhttp/internal/profile"
	"github.com/agentic-research/fhttp/internal/request"
	"github.com/agentic-research/fhttp/internal/response"
	"github.com/agentic-research/fhttp/internal/template"
)

// Preprocessed is one ready-to-execute request.
type Preprocessed struct {
	Path       pathutil.CanonicalPath
	Dependency bool
	Request    *parser.ParsedRequest
}

// Preprocessor yields requests in dependency order. The driver contract
// is strict one-at-a-time: call Next, execute, NotifyResponse, repeat —
// for dependencies and user requests alike.
type Preprocessor struct {
	profile *profile.Profile
	cfg     config.Config
	queue   []*request.Source
	store   *response.Store
}

// New plans the execution order for the user-requested sources and
// prepares a fresh response store.
func New(prof *profile.Profile, requests []*request.Source, cfg config.Config) (*Preprocessor, error) {
	ordered, err := plan.Order(requests, prof)
	if err != nil {
		return nil, err
	}
	return &Preprocessor{
		profile: prof,
		cfg:     cfg,
		queue:   ordered,
		store:   response.NewStore(),
	}, nil
}

// HasNext reports whether another request remains in the plan.
func (p *Preprocessor) HasNext() bool {
	return len(p.queue) > 0
}

// Next removes the head of the plan, substitutes its markers against the
// current profile, config and response store, and parses the result.
// Parsing happens after substitution so generated URLs, headers and
// bodies are all templated.
func (p *Preprocessor) Next() (*Preprocessed, error) {
	src := p.queue[0]
	p.queue = p.queue[1:]

	text, err := template.Render(src.Text, src.Path, src.Dependency, p.profile, p.cfg, p.store)
	if err != nil {
		return nil, err
	}
	src.Text = text

	parsed, err := src.Parse()
	if err != nil {
		return nil, err
	}

	return &Preprocessed{
		Path:       src.Path,
		Dependency: src.Dependency,
		Request:    parsed,
	}, nil
}

// NotifyResponse records the executed body for path so later requests
// can substitute it.
func (p *Preprocessor) NotifyResponse(path pathutil.CanonicalPath, body string) {
	p.store.Put(path, body)
}
