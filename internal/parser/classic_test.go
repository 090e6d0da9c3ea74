package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/fhttp/internal/pathutil"
)

// sourceFile writes a request file and returns its canonical path so
// relative references inside the text resolve against the temp dir.
func sourceFile(t *testing.T, dir, name, content string) pathutil.CanonicalPath {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	path, err := pathutil.Canonicalize(filepath.Join(dir, name))
	require.NoError(t, err)
	return path
}

func classicSource(t *testing.T, content string) pathutil.CanonicalPath {
	t.Helper()
	return sourceFile(t, t.TempDir(), "req.http", content)
}

func TestParseClassic_SimpleDelete(t *testing.T) {
	path := classicSource(t, "DELETE http://localhost:9000/foo\n")

	req, err := ParseClassic(path, "DELETE http://localhost:9000/foo\n")
	require.NoError(t, err)
	assert.Equal(t, "DELETE", req.Method)
	assert.Equal(t, "http://localhost:9000/foo", req.URL)
	assert.Empty(t, req.Headers)
	assert.Equal(t, "", req.Body.Text)
	assert.False(t, req.Body.IsMultipart())
	assert.Nil(t, req.Handler)
}

func TestParseClassic_Headers(t *testing.T) {
	text := "GET http://localhost:9000/foo\n" +
		"content-type: application/json; charset=UTF-8\n" +
		"accept: application/xml\n"
	req, err := ParseClassic(classicSource(t, text), text)
	require.NoError(t, err)

	assert.Equal(t, Headers{
		{Name: "content-type", Value: "application/json; charset=UTF-8"},
		{Name: "accept", Value: "application/xml"},
	}, req.Headers)
}

func TestParseClassic_HeaderLookupIsCaseInsensitive(t *testing.T) {
	text := "GET http://localhost:9000/foo\nContent-Type: text/plain\n"
	req, err := ParseClassic(classicSource(t, text), text)
	require.NoError(t, err)

	value, ok := req.Headers.Get("content-type")
	assert.True(t, ok)
	assert.Equal(t, "text/plain", value)
	// original spelling survives
	assert.Equal(t, "Content-Type", req.Headers[0].Name)
}

func TestParseClassic_Body(t *testing.T) {
	text := "DELETE http://localhost:9000/foo\n\nbody\n"
	req, err := ParseClassic(classicSource(t, text), text)
	require.NoError(t, err)
	assert.Equal(t, "body", req.Body.Text)
}

func TestParseClassic_ResponseHandler(t *testing.T) {
	text := "DELETE http://localhost:9000/foo\n\n> {%\n    json $.data\n%}\n"
	req, err := ParseClassic(classicSource(t, text), text)
	require.NoError(t, err)
	require.NotNil(t, req.Handler)
	assert.Equal(t, HandlerJSON, req.Handler.Kind)
	assert.Equal(t, "$.data", req.Handler.Payload)
	assert.Equal(t, "", req.Body.Text)
}

func TestParseClassic_BodyAndResponseHandler(t *testing.T) {
	text := "DELETE http://localhost:9000/foo\n\nbody\nbody\n\n> {%\n    json $.data\n%}\n"
	req, err := ParseClassic(classicSource(t, text), text)
	require.NoError(t, err)
	assert.Equal(t, "body\nbody", req.Body.Text)
	require.NotNil(t, req.Handler)
	assert.Equal(t, "$.data", req.Handler.Payload)
}

func TestParseClassic_ScriptHandler(t *testing.T) {
	text := "GET http://localhost:9000/foo\n\n> {% script\nfunc Process(status int, body string) (string, error) { return body, nil }\n%}\n"
	req, err := ParseClassic(classicSource(t, text), text)
	require.NoError(t, err)
	require.NotNil(t, req.Handler)
	assert.Equal(t, HandlerScript, req.Handler.Kind)
	assert.Contains(t, req.Handler.Payload, "func Process")
}

func TestParseClassic_ToleratesExtraSpaceBetweenHeadersAndBody(t *testing.T) {
	text := "DELETE http://localhost:9000/foo\nfoo: bar\n\n\n\nbody\n"
	req, err := ParseClassic(classicSource(t, text), text)
	require.NoError(t, err)
	assert.Equal(t, Headers{{Name: "foo", Value: "bar"}}, req.Headers)
	assert.Equal(t, "body", req.Body.Text)
}

func TestParseClassic_ToleratesExtraSpaceBeforeHandler(t *testing.T) {
	text := "DELETE http://localhost:9000/foo\nfoo: bar\n\n\n\n> {% json foo %}\n"
	req, err := ParseClassic(classicSource(t, text), text)
	require.NoError(t, err)
	assert.Equal(t, "", req.Body.Text)
	require.NotNil(t, req.Handler)
	assert.Equal(t, "foo", req.Handler.Payload)
}

func TestParseClassic_ToleratesTrailingNewlines(t *testing.T) {
	for name, text := range map[string]string{
		"first line only": "DELETE http://localhost:9000/foo\n\n\n\n",
		"with headers":    "GET http://localhost:9000/foo\naccept: application/xml\n\n\n\n",
		"with body":       "GET http://localhost:9000/foo\n\nbody\n\n\n",
		"with handler":    "GET http://localhost:9000/foo\n\n> {% json handler %}\n\n\n\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseClassic(classicSource(t, text), text)
			assert.NoError(t, err)
		})
	}
}

func TestParseClassic_BodyAndHandlerWithTrailingNewlines(t *testing.T) {
	text := "GET http://localhost:9000/foo\n\nbody\n\n> {% json handler %}\n\n\n"
	req, err := ParseClassic(classicSource(t, text), text)
	require.NoError(t, err)
	assert.Equal(t, "body", req.Body.Text)
	require.NotNil(t, req.Handler)
	assert.Equal(t, HandlerJSON, req.Handler.Kind)
	assert.Equal(t, "handler", req.Handler.Payload)
}

func TestParseClassic_CommentedOutHeaders(t *testing.T) {
	text := "GET http://localhost:9000/foo\n" +
		"# content-type: application/json; charset=UTF-8\n" +
		"accept: application/xml\n"
	req, err := ParseClassic(classicSource(t, text), text)
	require.NoError(t, err)
	assert.Equal(t, Headers{{Name: "accept", Value: "application/xml"}}, req.Headers)
}

func TestParseClassic_InvalidMethod(t *testing.T) {
	text := "FROB http://localhost:9000/foo\n"
	_, err := ParseClassic(classicSource(t, text), text)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Detail, "invalid method 'FROB'")
}

func TestParseClassic_MalformedFirstLine(t *testing.T) {
	text := "GET\n"
	_, err := ParseClassic(classicSource(t, text), text)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Detail, "malformed first line")
}

func TestParseClassic_MalformedHeaderLine(t *testing.T) {
	text := "GET http://localhost:9000/foo\nnot a header\n"
	_, err := ParseClassic(classicSource(t, text), text)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseClassic_InvalidHandlerKind(t *testing.T) {
	text := "GET http://localhost:9000/foo\n\n> {% python print(body) %}\n"
	_, err := ParseClassic(classicSource(t, text), text)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Detail, "invalid response handler kind")
}

func TestParseClassic_LegacyHandlerKindsStillParse(t *testing.T) {
	for _, kind := range []HandlerKind{HandlerDeno, HandlerRhai} {
		text := "GET http://localhost:9000/foo\n\n> {% " + string(kind) + " 1 + 1 %}\n"
		req, err := ParseClassic(classicSource(t, text), text)
		require.NoError(t, err)
		require.NotNil(t, req.Handler)
		assert.Equal(t, kind, req.Handler.Kind)
	}
}

func TestParseClassic_EmptyFile(t *testing.T) {
	_, err := ParseClassic(classicSource(t, "\n\n"), "\n\n")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseClassic_FileUploadPromotion(t *testing.T) {
	dir := t.TempDir()
	upload := sourceFile(t, dir, "x.bin", "data")
	text := "POST http://localhost:9000/upload\n\n${file(\"f\", \"./x.bin\")}\n"
	path := sourceFile(t, dir, "req.http", text)

	req, err := ParseClassic(path, text)
	require.NoError(t, err)
	require.True(t, req.Body.IsMultipart())
	require.Len(t, req.Body.Parts, 1)
	part := req.Body.Parts[0]
	assert.Equal(t, "f", part.Name)
	assert.Equal(t, upload, part.FilePath)
	assert.Empty(t, part.Mime)
	assert.True(t, part.IsFile())
}

func TestParseClassic_MultipleFileUploads(t *testing.T) {
	dir := t.TempDir()
	one := sourceFile(t, dir, "one.bin", "1")
	two := sourceFile(t, dir, "two.bin", "2")
	text := "POST http://localhost:9000/upload\n\n" +
		"${file(\"a\", \"one.bin\")}\n${file(\"b\", \"two.bin\")}\n"
	path := sourceFile(t, dir, "req.http", text)

	req, err := ParseClassic(path, text)
	require.NoError(t, err)
	require.Len(t, req.Body.Parts, 2)
	assert.Equal(t, one, req.Body.Parts[0].FilePath)
	assert.Equal(t, two, req.Body.Parts[1].FilePath)
}

func TestParseClassic_FileUploadTargetMustExist(t *testing.T) {
	dir := t.TempDir()
	text := "POST http://localhost:9000/upload\n\n${file(\"f\", \"missing.bin\")}\n"
	path := sourceFile(t, dir, "req.http", text)

	_, err := ParseClassic(path, text)
	var pathErr *pathutil.PathError
	require.ErrorAs(t, err, &pathErr)
}

func TestParseClassic_Deterministic(t *testing.T) {
	text := "POST http://localhost:9000/foo\naccept: application/json\n\nbody\n\n> {% json $.id %}\n"
	path := classicSource(t, text)

	first, err := ParseClassic(path, text)
	require.NoError(t, err)
	second, err := ParseClassic(path, text)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
