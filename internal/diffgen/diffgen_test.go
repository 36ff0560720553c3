package diffgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/redmark/internal/redline"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		original string
		modified string
		want     []redline.Edit
	}{
		{
			name:     "replacement",
			original: "The quick brown fox jumps",
			modified: "The quick red fox jumps",
			want: []redline.Edit{
				{TargetText: "brown", NewText: "red", Comment: "Diff: Replacement"},
			},
		},
		{
			name:     "deletion",
			original: "one two three",
			modified: "one three",
			want: []redline.Edit{
				{TargetText: "two ", Comment: "Diff: Text deleted"},
			},
		},
		{
			name:     "trailing deletion",
			original: "alpha beta",
			modified: "alpha",
			want: []redline.Edit{
				{TargetText: " beta", Comment: "Diff: Text deleted"},
			},
		},
		{
			name:     "insertion anchors on preceding context",
			original: "alpha beta",
			modified: "alpha new beta",
			want: []redline.Edit{
				{TargetText: "alpha ", NewText: "alpha new ", Comment: "Diff: Text inserted"},
			},
		},
		{
			name:     "start of document insertion anchors forward",
			original: "Contract terms apply",
			modified: "Big Contract terms apply",
			want: []redline.Edit{
				{TargetText: "Contract", NewText: "Big Contract", Comment: "Diff: Start-of-doc insertion"},
			},
		},
		{
			name:     "multiple replacements",
			original: "The fee is 5 percent per annum",
			modified: "The fee is 10 percent per month",
			want: []redline.Edit{
				{TargetText: "5", NewText: "10", Comment: "Diff: Replacement"},
				{TargetText: "annum", NewText: "month", Comment: "Diff: Replacement"},
			},
		},
		{
			name:     "identical documents",
			original: "nothing changed here",
			modified: "nothing changed here",
			want:     nil,
		},
		{
			name:     "both empty",
			original: "",
			modified: "",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.original, tt.modified)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateEditsReconstructModified(t *testing.T) {
	original := "Clause 1. Payment is due within thirty days of the invoice date, " +
		"and all sums are payable in dollars. Clause 2. Either party may " +
		"terminate this agreement with ninety days of written notice. " +
		"Clause 3. This agreement is governed by the laws of Delaware."
	modified := "Clause 1. Payment is due within sixty days of the invoice date, " +
		"and all sums are payable in dollars. Clause 2. Either party may " +
		"terminate this agreement with thirty days of written notice. " +
		"Clause 3. This agreement is governed by the laws of Delaware, as amended."

	edits := Generate(original, modified)
	require.NotEmpty(t, edits)
	for _, e := range edits {
		require.True(t, strings.HasPrefix(e.Comment, "Diff: "), "comment %q", e.Comment)
	}

	require.Equal(t, modified, applyInOrder(t, original, edits))
}

func TestGenerateWordLevelKeepsWordsWhole(t *testing.T) {
	// A character diff of comply/complying would split the shared stem;
	// word tokens force the whole word to be replaced.
	edits := Generate("parties must comply fully", "parties must complying fully")
	require.Equal(t, []redline.Edit{
		{TargetText: "comply", NewText: "complying", Comment: "Diff: Replacement"},
	}, edits)
}

// applyInOrder replays edits left to right against original, requiring
// each target to match ahead of the previous one.
func applyInOrder(t *testing.T, original string, edits []redline.Edit) string {
	t.Helper()

	var b strings.Builder
	last := 0
	for _, e := range edits {
		at := strings.Index(original[last:], e.TargetText)
		require.GreaterOrEqual(t, at, 0, "target %q not found after offset %d", e.TargetText, last)
		at += last
		b.WriteString(original[last:at])
		b.WriteString(e.NewText)
		last = at + len(e.TargetText)
	}
	b.WriteString(original[last:])
	return b.String()
}
