// Package curl renders parsed requests as shell-ready curl commands, one
// flag per continuation line.
package curl

import (
	"fmt"
	"strings"

	"github.com/agentic-research/fhttp/internal/parser"
)

// Command renders req as a curl invocation. Double quotes are escaped;
// body newlines become escaped newlines so the command stays one shell
// word per flag.
func Command(req *parser.ParsedRequest) string {
	parts := []string{fmt.Sprintf("curl -X %s", req.Method)}

	for _, h := range req.Headers {
		parts = append(parts, fmt.Sprintf("-H \"%s: %s\"",
			escapeQuotes(h.Name), escapeQuotes(h.Value)))
	}

	if req.Body.IsMultipart() {
		for _, part := range req.Body.Parts {
			parts = append(parts, formPart(part))
		}
	} else if req.Body.Text != "" {
		parts = append(parts, fmt.Sprintf("-d \"%s\"", escapeBody(req.Body.Text)))
	}

	parts = append(parts, fmt.Sprintf("--url \"%s\"", escapeQuotes(req.URL)))

	return strings.Join(parts, " \\\n")
}

func formPart(part parser.Part) string {
	typeAndEnd := "\""
	if part.Mime != "" {
		typeAndEnd = fmt.Sprintf("; type=%s\"", part.Mime)
	}
	if part.IsFile() {
		return fmt.Sprintf("-F %s=\"@%s%s", part.Name, part.FilePath, typeAndEnd)
	}
	return fmt.Sprintf("-F %s=\"%s%s", part.Name, escapeQuotes(part.Text), typeAndEnd)
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

func escapeBody(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\\n")
	return strings.ReplaceAll(s, `"`, `\"`)
}
