package parser

import (
	"fmt"
	"sort"

	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"

	"github.com/agentic-research/fhttp/internal/pathutil"
)

// ParseStructuredJSON parses a .json request file into the common request
// shape. Relative file paths in multipart parts resolve against the
// request file's location.
func ParseStructuredJSON(path pathutil.CanonicalPath, text string) (*ParsedRequest, error) {
	doc, err := oj.ParseString(text)
	if err != nil {
		return nil, &ParseError{Path: path, Detail: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return requestFromDoc(path, doc)
}

// ParseStructuredYAML parses a .yaml / .yml request file.
func ParseStructuredYAML(path pathutil.CanonicalPath, text string) (*ParsedRequest, error) {
	var doc any
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &ParseError{Path: path, Detail: fmt.Sprintf("invalid YAML: %v", err)}
	}
	return requestFromDoc(path, doc)
}

func requestFromDoc(path pathutil.CanonicalPath, doc any) (*ParsedRequest, error) {
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, &ParseError{Path: path, Detail: "expected a mapping at the top level"}
	}

	method, err := stringField(path, m, "method", true)
	if err != nil {
		return nil, err
	}
	if !validMethod(method) {
		return nil, &ParseError{Path: path, Detail: fmt.Sprintf("invalid method '%s'", method)}
	}

	url, err := stringField(path, m, "url", true)
	if err != nil {
		return nil, err
	}

	headers, err := headersFromDoc(path, m["headers"])
	if err != nil {
		return nil, err
	}

	body, err := bodyFromDoc(path, m["body"])
	if err != nil {
		return nil, err
	}

	handler, err := handlerFromDoc(path, m["response_handler"])
	if err != nil {
		return nil, err
	}

	return &ParsedRequest{
		Method:  method,
		URL:     url,
		Headers: headers,
		Body:    body,
		Handler: handler,
	}, nil
}

func stringField(path pathutil.CanonicalPath, m map[string]any, key string, required bool) (string, error) {
	value, present := m[key]
	if !present {
		if required {
			return "", &ParseError{Path: path, Detail: fmt.Sprintf("missing field '%s'", key)}
		}
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", &ParseError{Path: path, Detail: fmt.Sprintf("field '%s' must be a string", key)}
	}
	return s, nil
}

// headersFromDoc maps a string-to-string mapping onto the ordered header
// list. JSON and YAML mappings carry no order, so keys are sorted for a
// deterministic result.
func headersFromDoc(path pathutil.CanonicalPath, doc any) (Headers, error) {
	if doc == nil {
		return nil, nil
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, &ParseError{Path: path, Detail: "field 'headers' must be a mapping"}
	}

	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	var headers Headers
	for _, name := range names {
		value, ok := m[name].(string)
		if !ok {
			return nil, &ParseError{Path: path, Detail: fmt.Sprintf("header '%s' must be a string", name)}
		}
		headers.Add(name, value)
	}
	return headers, nil
}

func bodyFromDoc(path pathutil.CanonicalPath, doc any) (Body, error) {
	switch v := doc.(type) {
	case nil:
		return Body{}, nil
	case string:
		return Body{Text: v}, nil
	case []any:
		parts := make([]Part, 0, len(v))
		for _, entry := range v {
			part, err := partFromDoc(path, entry)
			if err != nil {
				return Body{}, err
			}
			parts = append(parts, part)
		}
		return Body{Parts: parts}, nil
	default:
		return Body{}, &ParseError{Path: path, Detail: "field 'body' must be a string or a list of parts"}
	}
}

func partFromDoc(path pathutil.CanonicalPath, doc any) (Part, error) {
	m, ok := doc.(map[string]any)
	if !ok {
		return Part{}, &ParseError{Path: path, Detail: "multipart entries must be mappings"}
	}

	name, err := stringField(path, m, "name", true)
	if err != nil {
		return Part{}, err
	}
	mime, err := stringField(path, m, "mime", false)
	if err != nil {
		return Part{}, err
	}

	text, hasText := m["text"]
	filePath, hasFile := m["filepath"]
	switch {
	case hasText && hasFile:
		return Part{}, &ParseError{Path: path, Detail: fmt.Sprintf("part '%s' sets both 'text' and 'filepath'", name)}
	case hasText:
		s, ok := text.(string)
		if !ok {
			return Part{}, &ParseError{Path: path, Detail: fmt.Sprintf("part '%s' field 'text' must be a string", name)}
		}
		return Part{Name: name, Text: s, Mime: mime}, nil
	case hasFile:
		s, ok := filePath.(string)
		if !ok {
			return Part{}, &ParseError{Path: path, Detail: fmt.Sprintf("part '%s' field 'filepath' must be a string", name)}
		}
		resolved, err := path.Resolve(s)
		if err != nil {
			return Part{}, err
		}
		return Part{Name: name, FilePath: resolved, Mime: mime}, nil
	default:
		return Part{}, &ParseError{Path: path, Detail: fmt.Sprintf("part '%s' needs either 'text' or 'filepath'", name)}
	}
}

func handlerFromDoc(path pathutil.CanonicalPath, doc any) (*Handler, error) {
	if doc == nil {
		return nil, nil
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, &ParseError{Path: path, Detail: "field 'response_handler' must be a mapping"}
	}

	for _, kind := range []HandlerKind{HandlerJSON, HandlerScript, HandlerDeno, HandlerRhai} {
		payload, present := m[string(kind)]
		if !present {
			continue
		}
		s, ok := payload.(string)
		if !ok {
			return nil, &ParseError{Path: path, Detail: fmt.Sprintf("response handler '%s' must be a string", kind)}
		}
		return &Handler{Kind: kind, Payload: s}, nil
	}
	return nil, &ParseError{Path: path, Detail: "response handler needs one of 'json' or 'script'"}
}
