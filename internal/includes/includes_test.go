package includes

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/fhttp/internal/pathutil"
)

func write(t *testing.T, dir, name, content string) pathutil.CanonicalPath {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	canonical, err := pathutil.Canonicalize(filepath.Join(dir, name))
	require.NoError(t, err)
	return canonical
}

func TestLoad_NoMarkersIsIdentity(t *testing.T) {
	dir := t.TempDir()
	content := "GET http://localhost/foo\naccept: application/json\n\nbody\n"
	path := write(t, dir, "plain.http", content)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoad_NestedIncludes(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "level-3.txt", "LEVEL-3\n")
	write(t, dir, "level-2.txt", "LEVEL-2\n${include(\"level-3.txt\")}\n")
	write(t, dir, "level-1.txt", "LEVEL-1\n${include(\"level-2.txt\")}\n${include(\"level-3.txt\")}\n")
	start := write(t, dir, "start.txt", "START\n${include(\"level-1.txt\")}\n")

	got, err := Load(start)
	require.NoError(t, err)
	assert.Equal(t, "START\nLEVEL-1\nLEVEL-2\nLEVEL-3\nLEVEL-3\n", got)
}

func TestLoad_StripsSingleTrailingNewlineOnly(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "two.txt", "inner\n\n")
	start := write(t, dir, "start.txt", "A${include(\"two.txt\")}B\n")

	got, err := Load(start)
	require.NoError(t, err)
	assert.Equal(t, "Ainner\nB\n", got)
}

func TestLoad_SameFileIncludedTwice(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "part.txt", "X\n")
	start := write(t, dir, "start.txt", "${include(\"part.txt\")} ${include(\"part.txt\")}\n")

	got, err := Load(start)
	require.NoError(t, err)
	assert.Equal(t, "X X\n", got)
}

func TestLoad_CycleDetection(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "level-1.txt", "${include(\"level-2.txt\")}\n")
	write(t, dir, "level-2.txt", "${include(\"level-3.txt\")}\n")
	three := write(t, dir, "level-3.txt", "${include(\"level-1.txt\")}\n")
	start := write(t, dir, "start.txt", "${include(\"level-1.txt\")}\n")
	one, err := pathutil.Canonicalize(filepath.Join(dir, "level-1.txt"))
	require.NoError(t, err)

	_, loadErr := Load(start)
	require.Error(t, loadErr)

	var cyclic *CyclicIncludeError
	require.ErrorAs(t, loadErr, &cyclic)
	assert.Equal(t, three, cyclic.A)
	assert.Equal(t, one, cyclic.B)
	assert.Equal(t,
		fmt.Sprintf("cyclic include detected between '%s' and '%s'", three, one),
		loadErr.Error())
}

func TestLoad_SelfInclude(t *testing.T) {
	dir := t.TempDir()
	start := write(t, dir, "start.txt", "${include(\"start.txt\")}\n")

	_, err := Load(start)
	var cyclic *CyclicIncludeError
	require.ErrorAs(t, err, &cyclic)
}

func TestLoad_EscapedMarkerStaysLiteral(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "part.txt", "INCLUDED\n")
	start := write(t, dir, "start.txt",
		"${include(\"part.txt\")}\n"+
			`\${include("part.txt")}`+"\n"+
			`\\${include("part.txt")}`+"\n"+
			`\\\${include("part.txt")}`+"\n")

	got, err := Load(start)
	require.NoError(t, err)
	assert.Equal(t,
		"INCLUDED\n"+
			`${include("part.txt")}`+"\n"+
			`\INCLUDED`+"\n"+
			`\${include("part.txt")}`+"\n",
		got)
}

func TestLoad_EscapedMarkerDoesNotTouchDisk(t *testing.T) {
	dir := t.TempDir()
	// the escaped target does not exist; loading must still succeed
	start := write(t, dir, "start.txt", `\${include("missing.txt")}`+"\n")

	got, err := Load(start)
	require.NoError(t, err)
	assert.Equal(t, `${include("missing.txt")}`+"\n", got)
}

func TestLoad_MissingIncludeTarget(t *testing.T) {
	dir := t.TempDir()
	start := write(t, dir, "start.txt", "${include(\"missing.txt\")}\n")

	_, err := Load(start)
	require.Error(t, err)

	var pathErr *pathutil.PathError
	assert.ErrorAs(t, err, &pathErr)
}

func TestLoadFile_CanonicalizesFirst(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "plain.http", "GET http://localhost\n")

	path, text, err := LoadFile(filepath.Join(dir, ".", "plain.http"))
	require.NoError(t, err)
	assert.Equal(t, "GET http://localhost\n", text)
	assert.True(t, filepath.IsAbs(path.String()))
}
