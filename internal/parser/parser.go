// Package parser turns include-expanded request text into executable
// requests. Three front-ends share one output shape: the classic .http
// grammar, the GraphQL-flavored .gql.http variant, and structured
// JSON/YAML request files.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agentic-research/fhttp/internal/pathutil"
)

// ParsedRequest is the executable form of a request file. It is pure data
// and carries no source path.
type ParsedRequest struct {
	Method  string
	URL     string
	Headers Headers
	Body    Body
	Handler *Handler
}

// Header is a single name/value pair.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered multimap. Names compare case-insensitively but
// insertion order and the original spelling are preserved.
type Headers []Header

// Add appends a header, keeping insertion order.
func (h *Headers) Add(name, value string) {
	*h = append(*h, Header{Name: name, Value: value})
}

// Get returns the first value for name, matching case-insensitively.
func (h Headers) Get(name string) (string, bool) {
	for _, header := range h {
		if strings.EqualFold(header.Name, name) {
			return header.Value, true
		}
	}
	return "", false
}

// Part is one multipart form entry: either inline text or a file on disk.
type Part struct {
	Name     string
	Text     string
	FilePath pathutil.CanonicalPath
	Mime     string
}

// IsFile reports whether the part streams a file rather than inline text.
func (p Part) IsFile() bool {
	return p.FilePath != ""
}

// Body is either plain text or a list of multipart parts; the two never
// mix.
type Body struct {
	Text  string
	Parts []Part
}

// IsMultipart reports whether the body was promoted to multipart form.
func (b Body) IsMultipart() bool {
	return len(b.Parts) > 0
}

// HandlerKind identifies a response-handler variant.
type HandlerKind string

const (
	// HandlerJSON applies a JSONPath expression to the response body.
	HandlerJSON HandlerKind = "json"
	// HandlerScript runs an interpreted Go snippet over status and body.
	HandlerScript HandlerKind = "script"
	// HandlerDeno and HandlerRhai parse but are rejected at evaluation
	// time; files that used them get a clear message instead of a grammar
	// error.
	HandlerDeno HandlerKind = "deno"
	HandlerRhai HandlerKind = "rhai"
)

// Handler is a parsed response handler: the kind tag plus its payload.
// Evaluation lives outside the parser.
type Handler struct {
	Kind    HandlerKind
	Payload string
}

// ParseError reports a grammar violation in any of the three parsers.
type ParseError struct {
	Path   pathutil.CanonicalPath
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse file %s: %s", e.Path, e.Detail)
}

// FileUploadInGraphQLError rejects ${file(…)} markers inside a GraphQL
// query.
type FileUploadInGraphQLError struct {
	Path pathutil.CanonicalPath
}

func (e *FileUploadInGraphQLError) Error() string {
	return "file uploads are not allowed in graphql requests"
}

var methods = map[string]bool{
	"GET":     true,
	"HEAD":    true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"CONNECT": true,
	"OPTIONS": true,
	"TRACE":   true,
	"PATCH":   true,
}

func validMethod(m string) bool {
	return methods[m]
}

func validHandlerKind(kind string) bool {
	switch HandlerKind(kind) {
	case HandlerJSON, HandlerScript, HandlerDeno, HandlerRhai:
		return true
	}
	return false
}

var fileUploadRe = regexp.MustCompile(`(?m)\$\{\s*file\s*\(\s*"([^"]+)"\s*,\s*"([^"]+)"\s*\)\s*\}`)

// promoteFileUploads turns a plain body containing ${file(…)} markers into
// a multipart body; bodies without markers stay plain. Marker text and
// plain text never mix: once a marker appears the body is wholly multipart.
func promoteFileUploads(sourcePath pathutil.CanonicalPath, body string) (Body, error) {
	matches := fileUploadRe.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return Body{Text: body}, nil
	}

	parts := make([]Part, 0, len(matches))
	for _, m := range matches {
		filePath, err := sourcePath.Resolve(m[2])
		if err != nil {
			return Body{}, err
		}
		parts = append(parts, Part{Name: m[1], FilePath: filePath})
	}
	return Body{Parts: parts}, nil
}

func hasFileUploads(text string) bool {
	return fileUploadRe.MatchString(text)
}
