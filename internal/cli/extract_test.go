package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runExtractCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewExtractCommand(testRootOptions())
	cmd.SetOut(out)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errBuf.String(), err
}

func TestExtractRawToStdout(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "doc.txt", "The vendor {--must--}{++shall++} deliver.")

	stdout, _, err := runExtractCommand(t, doc)
	require.NoError(t, err)
	assert.Equal(t, "The vendor {--must--}{++shall++} deliver.\n", stdout)
}

func TestExtractCleanToStdout(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "doc.txt", "The vendor {--must--}{++shall++} deliver.")

	stdout, _, err := runExtractCommand(t, doc, "--clean")
	require.NoError(t, err)
	assert.Equal(t, "The vendor shall deliver.\n", stdout)
}

func TestExtractToFile(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "doc.txt", "Plain text body.")
	out := filepath.Join(dir, "extracted.txt")

	stdout, stderr, err := runExtractCommand(t, doc, "-o", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Extracted text to")

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Plain text body.", string(got))
}

func TestExtractMissingFile(t *testing.T) {
	_, _, err := runExtractCommand(t, filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
