package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/redmark/internal/redline"
)

func writeEdits(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "edits.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEdits(t *testing.T) {
	path := writeEdits(t, `[
		{"target_text": "old", "new_text": "new", "comment": "why"},
		{"original": "legacy target", "replace": "legacy replacement"},
		{"target_text": "gone", "new_text": ""}
	]`)

	edits, err := LoadEdits(path)
	require.NoError(t, err)
	require.Len(t, edits, 3)

	assert.Equal(t, redline.Edit{TargetText: "old", NewText: "new", Comment: "why"}, edits[0])
	assert.Equal(t, redline.Edit{TargetText: "legacy target", NewText: "legacy replacement"}, edits[1])
	assert.Equal(t, redline.Edit{TargetText: "gone"}, edits[2])
}

func TestLoadEditsCanonicalKeysWin(t *testing.T) {
	path := writeEdits(t, `[{"target_text": "canonical", "original": "alias", "new_text": "x", "replace": "y"}]`)

	edits, err := LoadEdits(path)
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, "canonical", edits[0].TargetText)
	assert.Equal(t, "x", edits[0].NewText)
}

func TestLoadEditsRejectsMalformedJSON(t *testing.T) {
	path := writeEdits(t, `{"not": "a list"}`)

	_, err := LoadEdits(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse edits")
}

func TestLoadEditsMissingFile(t *testing.T) {
	_, err := LoadEdits(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
