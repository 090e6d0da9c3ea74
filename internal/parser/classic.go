package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/agentic-research/fhttp/internal/pathutil"
)

var handlerStartRe = regexp.MustCompile(`(?m)^>\s*\{%`)

// ParseClassic parses the classic .http grammar:
//
//	METHOD URL
//	Header-Name: value
//
//	body lines
//
//	> {% kind payload %}
//
// Leading '#' lines in the header block are comments; blank lines separate
// the sections; trailing blank lines are tolerated everywhere.
func ParseClassic(path pathutil.CanonicalPath, text string) (*ParsedRequest, error) {
	method, url, headers, tail, err := parseHead(path, text)
	if err != nil {
		return nil, err
	}

	bodyText, handler, err := splitBodyAndHandler(path, tail)
	if err != nil {
		return nil, err
	}

	body, err := promoteFileUploads(path, bodyText)
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

// parseHead scans the first line and the header block shared by the
// classic and GraphQL grammars and returns the remaining text.
func parseHead(path pathutil.CanonicalPath, text string) (method, url string, headers Headers, tail string, err error) {
	lines := strings.Split(text, "\n")

	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i == len(lines) {
		return "", "", nil, "", &ParseError{Path: path, Detail: "file contains no request"}
	}

	method, url, err = parseFirstLine(path, lines[i])
	if err != nil {
		return "", "", nil, "", err
	}
	i++

	for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
		line := lines[i]
		i++
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		name, value, headerErr := parseHeaderLine(path, line)
		if headerErr != nil {
			return "", "", nil, "", headerErr
		}
		headers.Add(name, value)
	}

	return method, url, headers, strings.Join(lines[i:], "\n"), nil
}

func parseFirstLine(path pathutil.CanonicalPath, line string) (method, url string, err error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", "", &ParseError{Path: path, Detail: fmt.Sprintf("malformed first line '%s', expected 'METHOD URL'", strings.TrimSpace(line))}
	}
	if !validMethod(fields[0]) {
		return "", "", &ParseError{Path: path, Detail: fmt.Sprintf("invalid method '%s'", fields[0])}
	}
	return fields[0], fields[1], nil
}

func parseHeaderLine(path pathutil.CanonicalPath, line string) (name, value string, err error) {
	colon := strings.Index(line, ":")
	if colon < 0 {
		return "", "", &ParseError{Path: path, Detail: fmt.Sprintf("malformed header line '%s'", strings.TrimSpace(line))}
	}
	name = strings.TrimSpace(line[:colon])
	value = strings.TrimSpace(line[colon+1:])
	if name == "" || strings.ContainsAny(name, " \t") {
		return "", "", &ParseError{Path: path, Detail: fmt.Sprintf("invalid header name: '%s'", name)}
	}
	return name, value, nil
}

// splitBodyAndHandler separates the request body from the trailing
// response-handler block. The body is everything up to the handler marker
// or EOF, trimmed; the grammar tolerates any amount of blank space around
// both.
func splitBodyAndHandler(path pathutil.CanonicalPath, tail string) (string, *Handler, error) {
	loc := handlerStartRe.FindStringIndex(tail)
	if loc == nil {
		return strings.TrimSpace(tail), nil, nil
	}

	body := strings.TrimSpace(tail[:loc[0]])
	handler, err := parseHandlerBlock(path, tail[loc[0]:])
	if err != nil {
		return "", nil, err
	}
	return body, handler, nil
}

func parseHandlerBlock(path pathutil.CanonicalPath, block string) (*Handler, error) {
	trimmed := strings.TrimSpace(block)
	trimmed = strings.TrimPrefix(trimmed, ">")
	trimmed = strings.TrimSpace(trimmed)
	if !strings.HasPrefix(trimmed, "{%") || !strings.HasSuffix(trimmed, "%}") {
		return nil, &ParseError{Path: path, Detail: "malformed response handler, expected '> {% kind … %}'"}
	}
	inner := strings.TrimSpace(trimmed[2 : len(trimmed)-2])

	kind, payload := inner, ""
	if idx := strings.IndexFunc(inner, unicode.IsSpace); idx >= 0 {
		kind, payload = inner[:idx], strings.TrimSpace(inner[idx:])
	}
	if !validHandlerKind(kind) {
		return nil, &ParseError{Path: path, Detail: fmt.Sprintf("invalid response handler kind '%s'", kind)}
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, &ParseError{Path: path, Detail: fmt.Sprintf("empty %s response handler", kind)}
	}

	return &Handler{Kind: HandlerKind(kind), Payload: payload}, nil
}
