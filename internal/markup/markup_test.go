package markup

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/redmark/internal/redline"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		edits []redline.Edit
		opts  Options
		want  string
	}{
		{
			name: "replacement with comment",
			text: "The fee is 5 percent.",
			edits: []redline.Edit{
				{TargetText: "5", NewText: "10", Comment: "rate change"},
			},
			want: "The fee is {--5--}{++10++}{>>rate change<<} percent.",
		},
		{
			name: "deletion",
			text: "remove old text here",
			edits: []redline.Edit{
				{TargetText: "old ", NewText: ""},
			},
			want: "remove {--old --}text here",
		},
		{
			name: "empty target is dropped",
			text: "unchanged",
			edits: []redline.Edit{
				{TargetText: "", NewText: "something"},
			},
			want: "unchanged",
		},
		{
			name: "unmatched target is dropped",
			text: "alpha beta",
			edits: []redline.Edit{
				{TargetText: "gamma", NewText: "delta"},
			},
			want: "alpha beta",
		},
		{
			name: "overlap first in list wins",
			text: "alpha beta gamma",
			edits: []redline.Edit{
				{TargetText: "beta", NewText: "B"},
				{TargetText: "beta gamma", NewText: "X"},
			},
			want: "alpha {--beta--}{++B++} gamma",
		},
		{
			name: "edits splice from the end so offsets hold",
			text: "alpha beta gamma",
			edits: []redline.Edit{
				{TargetText: "gamma", NewText: "G"},
				{TargetText: "alpha", NewText: "A"},
			},
			want: "{--alpha--}{++A++} beta {--gamma--}{++G++}",
		},
		{
			name: "highlight mode",
			text: "alpha beta gamma",
			edits: []redline.Edit{
				{TargetText: "beta", Comment: "check"},
			},
			opts: Options{HighlightOnly: true},
			want: "alpha {==beta==}{>>check<<} gamma",
		},
		{
			name: "edit index in metadata",
			text: "alpha beta",
			edits: []redline.Edit{
				{TargetText: "beta", NewText: "B"},
			},
			opts: Options{IncludeIndex: true},
			want: "alpha {--beta--}{++B++}{>>[Edit:0]<<}",
		},
		{
			name:  "no edits",
			text:  "anything",
			edits: nil,
			want:  "anything",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(tt.text, tt.edits, tt.opts)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestApplyMatchesThroughSmartQuotes(t *testing.T) {
	text := "He said “yes” loudly"
	edits := []redline.Edit{
		{TargetText: `said "yes"`, NewText: `said "no"`},
	}

	got := Apply(text, edits, Options{})
	want := "He {--said “yes”--}{++said \"no\"++} loudly"
	require.Equal(t, want, got)
}

func TestApplyMatchesThroughMarkdownFormatting(t *testing.T) {
	text := "The **Effective** Date applies"
	edits := []redline.Edit{
		{TargetText: "Effective Date", NewText: "Commencement Date"},
	}

	got := Apply(text, edits, Options{})
	want := "The {--**Effective** Date--}{++Commencement Date++} applies"
	require.Equal(t, want, got)
}

func TestFindMatch(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		target string
		want   string // expected matched substring, "" for no match
	}{
		{
			name:   "exact",
			text:   "one two three",
			target: "two",
			want:   "two",
		},
		{
			name:   "underscore run variance",
			text:   "config effective__date here",
			target: "effective_date",
			want:   "effective__date",
		},
		{
			name:   "whitespace variance",
			text:   "due  within  thirty days",
			target: "due within thirty",
			want:   "due  within  thirty",
		},
		{
			name:   "leading formatting absorbed",
			text:   "**Late** fees apply",
			target: "Late fees",
			want:   "**Late** fees",
		},
		{
			name:   "no match",
			text:   "alpha",
			target: "omega",
			want:   "",
		},
		{
			name:   "empty target",
			text:   "alpha",
			target: "",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := findMatch(tt.text, tt.target)
			if tt.want == "" {
				require.Equal(t, -1, start)
				require.Equal(t, -1, end)
				return
			}
			require.GreaterOrEqual(t, start, 0)
			require.Equal(t, tt.want, tt.text[start:end])
		})
	}
}

func TestNormalizeQuotesOffsets(t *testing.T) {
	text := "a“b”c" // a“b”c
	norm, offsets := normalizeQuotes(text)

	require.Equal(t, `a"b"c`, norm)
	// Every normalized byte maps back to the byte that produced it.
	require.Equal(t, []int{0, 1, 4, 5, 8, 9}, offsets)
	require.Equal(t, len(norm)+1, len(offsets))
}
