// Package handler evaluates response handlers against an executed
// request's status and body. The parser only produces the kind tag and
// payload; this package is the evaluator side of that split.
package handler

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/agentic-research/fhttp/internal/parser"
)

// Error reports a handler that failed to evaluate, including the legacy
// kinds that are rejected outright.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return e.Detail
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Evaluate runs h against the response and returns the replacement body.
func Evaluate(h *parser.Handler, status int, body string) (string, error) {
	switch h.Kind {
	case parser.HandlerJSON:
		return evaluateJSONPath(h.Payload, body)
	case parser.HandlerScript:
		return evaluateScript(h.Payload, status, body)
	case parser.HandlerDeno:
		return "", &Error{Detail: "deno response handlers are no longer supported."}
	case parser.HandlerRhai:
		return "", &Error{Detail: "rhai response handlers are no longer supported."}
	default:
		return "", &Error{Detail: fmt.Sprintf("unknown response handler kind '%s'", h.Kind)}
	}
}

// evaluateJSONPath selects from the JSON response body. No match yields
// the empty string; a string result is returned verbatim; anything else is
// serialized back to JSON.
func evaluateJSONPath(expr, body string) (string, error) {
	value, err := oj.ParseString(body)
	if err != nil {
		return "", &Error{
			Detail: fmt.Sprintf("failed to parse response body as json\nBody was '%s'", body),
			Err:    err,
		}
	}

	x, err := jp.ParseString(expr)
	if err != nil {
		return "", &Error{Detail: fmt.Sprintf("invalid jsonpath '%s'", expr), Err: err}
	}

	results := x.Get(value)
	if len(results) == 0 {
		return "", nil
	}
	if s, ok := results[0].(string); ok {
		return s, nil
	}
	return oj.JSON(results[0], &ojg.Options{Sort: true}), nil
}

// evaluateScript interprets a Go snippet in a sandboxed interpreter. The
// snippet must define
//
//	func Process(status int, body string) (string, error)
//
// whose return value becomes the new body. Only standard-library symbols
// are available to the snippet.
func evaluateScript(program string, status int, body string) (string, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return "", &Error{Detail: "failed to initialize script interpreter", Err: err}
	}

	code := program
	if !strings.Contains(code, "package ") {
		code = "package handler\n\n" + code
	}
	if _, err := i.Eval(code); err != nil {
		return "", &Error{Detail: fmt.Sprintf("script handler failed to compile: %v", err), Err: err}
	}

	v, err := i.Eval("handler.Process")
	if err != nil {
		return "", &Error{Detail: "script handler does not define Process", Err: err}
	}
	process, ok := v.Interface().(func(int, string) (string, error))
	if !ok {
		return "", &Error{Detail: "Process must have signature func(status int, body string) (string, error)"}
	}

	result, err := process(status, body)
	if err != nil {
		return "", &Error{Detail: fmt.Sprintf("script handler failed: %v", err), Err: err}
	}
	return result, nil
}
