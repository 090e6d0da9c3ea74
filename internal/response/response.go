// Package response holds executed-request results for downstream
// substitution.
package response

import (
	"fmt"

	"github.com/agentic-research/fhttp/internal/pathutil"
)

// Response is the outcome of one executed request, after any response
// handler ran.
type Response struct {
	Status int
	Body   string
}

// Success reports whether the status is 2xx.
func (r Response) Success() bool {
	return r.Status >= 200 && r.Status < 300
}

// Store maps canonical request paths to their (possibly post-processed)
// response bodies. Writes come only from the preprocessor's notification
// API.
type Store struct {
	data map[pathutil.CanonicalPath]string
}

func NewStore() *Store {
	return &Store{data: map[pathutil.CanonicalPath]string{}}
}

// Put records the body for path, replacing any earlier value.
func (s *Store) Put(path pathutil.CanonicalPath, body string) {
	s.data[path] = body
}

// Has reports whether a body was recorded for path.
func (s *Store) Has(path pathutil.CanonicalPath) bool {
	_, ok := s.data[path]
	return ok
}

// Get returns the recorded body for path. Reading a path the planner did
// not order before the current request is a programmer error, so Get
// panics instead of returning a zero value.
func (s *Store) Get(path pathutil.CanonicalPath) string {
	body, ok := s.data[path]
	if !ok {
		panic(fmt.Sprintf("no response recorded for %s", path))
	}
	return body
}
