package parser

import (
	"regexp"
	"strings"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/fhttp/internal/pathutil"
)

var blankLineRe = regexp.MustCompile(`\n[ \t]*\n`)

// ParseGraphQL parses the .gql.http / .graphql.http variant. The body is
// split on a blank line into the query and an optional JSON variables
// section, and reassembled as {"query": …, "variables": …}. A
// content-type header is injected when the file sets none. File-upload
// markers are rejected.
func ParseGraphQL(path pathutil.CanonicalPath, text string) (*ParsedRequest, error) {
	method, url, headers, tail, err := parseHead(path, text)
	if err != nil {
		return nil, err
	}

	bodyText, handler, err := splitBodyAndHandler(path, tail)
	if err != nil {
		return nil, err
	}

	query, variables, err := splitQueryAndVariables(path, bodyText)
	if err != nil {
		return nil, err
	}
	if hasFileUploads(query) {
		return nil, &FileUploadInGraphQLError{Path: path}
	}

	assembled := oj.JSON(map[string]any{
		"query":     query,
		"variables": variables,
	}, &ojg.Options{Sort: true})

	if _, ok := headers.Get("content-type"); !ok {
		headers.Add("content-type", "application/json")
	}

	return &ParsedRequest{
		Method:  method,
		URL:     url,
		Headers: headers,
		Body:    Body{Text: assembled},
		Handler: handler,
	}, nil
}

func splitQueryAndVariables(path pathutil.CanonicalPath, body string) (string, any, error) {
	body = strings.TrimSpace(body)

	var variables any = map[string]any{}
	query := body
	if loc := blankLineRe.FindStringIndex(body); loc != nil {
		query = strings.TrimSpace(body[:loc[0]])
		varsText := strings.TrimSpace(body[loc[1]:])
		if varsText != "" {
			parsed, err := oj.ParseString(varsText)
			if err != nil {
				return "", nil, &ParseError{Path: path, Detail: "Error parsing variables section, seems to be invalid JSON?"}
			}
			variables = parsed
		}
	}
	return query, variables, nil
}
