// Package markup renders structured edits as CriticMarkup annotations
// over plain or markdown text, without involving the document engine.
// Targets are located with progressively looser matching: exact,
// typographic-quote normalized, then a fuzzy pattern that tolerates
// markdown formatting and variable whitespace between the words.
package markup

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dshills/redmark/internal/redline"
)

// Options controls how edits are rendered.
type Options struct {
	// IncludeIndex appends each edit's position in the input list to
	// its metadata block, e.g. {>>[Edit:2]<<}.
	IncludeIndex bool

	// HighlightOnly marks targets with {==...==} instead of rewriting
	// them, leaving the document text untouched.
	HighlightOnly bool
}

// Apply annotates text with one CriticMarkup block per matched edit.
// Edits whose targets cannot be located are dropped, as are edits whose
// match overlaps an earlier edit's match: first in the list wins. The
// surviving edits are spliced in from the end of the document so earlier
// offsets stay valid.
func Apply(text string, edits []redline.Edit, opts Options) string {
	if len(edits) == 0 {
		return text
	}

	type match struct {
		start, end int
		actual     string
		edit       redline.Edit
		index      int
	}

	var matches []match
	for i, e := range edits {
		if e.TargetText == "" {
			// A bare position cannot be located in flat text; the diff
			// generator encodes insertions as anchored replacements.
			continue
		}
		start, end := findMatch(text, e.TargetText)
		if start < 0 {
			continue
		}
		matches = append(matches, match{
			start:  start,
			end:    end,
			actual: text[start:end],
			edit:   e,
			index:  i,
		})
	}

	kept := matches[:0]
	for _, m := range matches {
		claimed := false
		for _, k := range kept {
			if m.start < k.end && m.end > k.start {
				claimed = true
				break
			}
		}
		if !claimed {
			kept = append(kept, m)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].start > kept[j].start })

	result := text
	for _, m := range kept {
		block := buildMarkup(m.actual, m.edit.NewText, m.edit.Comment, m.index, opts)
		result = result[:m.start] + block + result[m.end:]
	}
	return result
}

// buildMarkup renders one edit. The target passed in is the text as it
// actually appears in the document, which may differ from the edit's
// target when a looser matching stage located it.
func buildMarkup(target, newText, comment string, index int, opts Options) string {
	var b strings.Builder

	switch {
	case opts.HighlightOnly:
		b.WriteString("{==")
		b.WriteString(target)
		b.WriteString("==}")
	case target != "" && newText == "":
		b.WriteString("{--")
		b.WriteString(target)
		b.WriteString("--}")
	case target == "" && newText != "":
		b.WriteString("{++")
		b.WriteString(newText)
		b.WriteString("++}")
	case target != "" && newText != "":
		b.WriteString("{--")
		b.WriteString(target)
		b.WriteString("--}{++")
		b.WriteString(newText)
		b.WriteString("++}")
	}

	var meta []string
	if comment != "" {
		meta = append(meta, comment)
	}
	if opts.IncludeIndex {
		meta = append(meta, fmt.Sprintf("[Edit:%d]", index))
	}
	if len(meta) > 0 {
		b.WriteString("{>>")
		b.WriteString(strings.Join(meta, " "))
		b.WriteString("<<}")
	}
	return b.String()
}

// findMatch locates target in text and returns the matched byte range,
// or (-1, -1). Matching stages, in order: exact substring, substring
// with typographic quotes normalized on both sides, fuzzy pattern.
func findMatch(text, target string) (int, int) {
	if target == "" {
		return -1, -1
	}

	if idx := strings.Index(text, target); idx >= 0 {
		return idx, idx + len(target)
	}

	normText, offsets := normalizeQuotes(text)
	normTarget, _ := normalizeQuotes(target)
	if idx := strings.Index(normText, normTarget); idx >= 0 {
		return offsets[idx], offsets[idx+len(normTarget)]
	}

	if re, err := regexp.Compile(fuzzyPattern(target)); err == nil {
		if loc := re.FindStringIndex(text); loc != nil {
			return loc[0], loc[1]
		}
	}
	return -1, -1
}

// quote normalization table: typographic to ASCII.
var typographicQuotes = map[rune]byte{
	'“': '"',
	'”': '"',
	'‘': '\'',
	'’': '\'',
}

// normalizeQuotes maps typographic quotes to their ASCII forms. The
// second return value maps every byte offset of the normalized string
// (plus one past the end) back to the offset it came from, so match
// positions can be translated to the original text.
func normalizeQuotes(text string) (string, []int) {
	var b strings.Builder
	b.Grow(len(text))
	offsets := make([]int, 0, len(text)+1)

	for i := 0; i < len(text); {
		r, n := utf8.DecodeRuneInString(text[i:])
		if ascii, ok := typographicQuotes[r]; ok {
			b.WriteByte(ascii)
			offsets = append(offsets, i)
		} else {
			b.WriteString(text[i : i+n])
			for j := 0; j < n; j++ {
				offsets = append(offsets, i+j)
			}
		}
		i += n
	}
	offsets = append(offsets, len(text))
	return b.String(), offsets
}

// fuzzySeparators tokenizes a target into the runs that commonly vary
// between an edit and the document: underscores, whitespace, quotes.
var fuzzySeparators = regexp.MustCompile(`(_+)|(\s+)|(['"])`)

// markdownNoise matches runs of markdown formatting, each optionally
// followed by spacing so header markers like "## " are absorbed whole.
const markdownNoise = "(?:[\\*_#`]+[ \t]*)*"

// fuzzyPattern builds a regular expression that matches target while
// tolerating markdown formatting around and between its words, variable
// whitespace and underscore runs, and either quote style.
func fuzzyPattern(target string) string {
	target, _ = normalizeQuotes(target)

	var b strings.Builder
	b.WriteString(markdownNoise)

	last := 0
	for _, loc := range fuzzySeparators.FindAllStringSubmatchIndex(target, -1) {
		if lit := target[last:loc[0]]; lit != "" {
			b.WriteString(regexp.QuoteMeta(lit))
		}
		b.WriteString(markdownNoise)
		switch {
		case loc[2] >= 0:
			b.WriteString("_+")
		case loc[4] >= 0:
			b.WriteString(`\s+`)
		case target[loc[0]:loc[1]] == "'":
			b.WriteString("['‘’]")
		default:
			b.WriteString("[\"“”]")
		}
		b.WriteString(markdownNoise)
		last = loc[1]
	}
	if rest := target[last:]; rest != "" {
		b.WriteString(regexp.QuoteMeta(rest))
		b.WriteString(markdownNoise)
	}
	return b.String()
}
