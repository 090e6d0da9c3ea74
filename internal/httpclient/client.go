// Package httpclient executes parsed requests against real servers,
// blocking, one at a time. Response handlers run here because whether
// they run depends on the status code.
package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentic-research/fhttp/internal/handler"
	"github.com/agentic-research/fhttp/internal/parser"
	"github.com/agentic-research/fhttp/internal/response"
)

// Error wraps a transport-level failure: invalid URL, connect failure,
// timeout, TLS.
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

// Client is the blocking HTTP executor.
type Client struct{}

func New() *Client {
	return &Client{}
}

// Exec sends the request and returns its response. For 2xx responses the
// handler, if any, is applied to the body first. Non-2xx responses keep
// their raw body, except that script handlers always run; they are
// expected to raise on failure themselves.
func (c *Client) Exec(req *parser.ParsedRequest, timeout time.Duration) (*response.Response, error) {
	parsedURL, err := url.Parse(req.URL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{Detail: fmt.Sprintf("Invalid URL: '%s'", req.URL), Err: err}
	}

	body, contentType, err := buildBody(req.Body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(req.Method, parsedURL.String(), body)
	if err != nil {
		return nil, &Error{Detail: fmt.Sprintf("building request for '%s'", req.URL), Err: err}
	}
	for _, h := range req.Headers {
		httpReq.Header.Add(h.Name, h.Value)
	}
	if contentType != "" {
		// the multipart boundary wins over any declared content type
		httpReq.Header.Set("Content-Type", contentType)
	}

	httpClient := &http.Client{Timeout: timeout}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, &Error{Detail: fmt.Sprintf("request to '%s' failed: %v", req.URL, err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Detail: fmt.Sprintf("reading response from '%s'", req.URL), Err: err}
	}

	result := response.Response{Status: resp.StatusCode, Body: string(raw)}
	if req.Handler != nil && (result.Success() || req.Handler.Kind == parser.HandlerScript) {
		processed, err := handler.Evaluate(req.Handler, result.Status, result.Body)
		if err != nil {
			return nil, err
		}
		result.Body = processed
	}
	return &result, nil
}

// buildBody assembles the request body reader and, for multipart bodies,
// the content type carrying the boundary.
func buildBody(body parser.Body) (io.Reader, string, error) {
	if !body.IsMultipart() {
		if body.Text == "" {
			return nil, "", nil
		}
		return strings.NewReader(body.Text), "", nil
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, part := range body.Parts {
		if err := writePart(writer, part); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalizing multipart body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

func writePart(writer *multipart.Writer, part parser.Part) error {
	header := textproto.MIMEHeader{}
	if part.IsFile() {
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(part.Name), escapeQuotes(filepath.Base(part.FilePath.String()))))
	} else {
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, escapeQuotes(part.Name)))
	}
	if part.Mime != "" {
		header.Set("Content-Type", part.Mime)
	}

	w, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("creating multipart part '%s': %w", part.Name, err)
	}

	if part.IsFile() {
		file, err := os.Open(part.FilePath.String())
		if err != nil {
			return fmt.Errorf("Error opening file %s", part.FilePath)
		}
		defer file.Close()
		if _, err := io.Copy(w, file); err != nil {
			return fmt.Errorf("reading file %s: %w", part.FilePath, err)
		}
		return nil
	}

	_, err = io.WriteString(w, part.Text)
	return err
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}
