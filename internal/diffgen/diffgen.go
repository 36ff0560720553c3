// Package diffgen derives structured edits from two versions of a
// document. The result is a list of search-and-replace instructions
// that, applied to the original, reproduce the modified text.
//
// Diffing is word-level: both texts are tokenized and each distinct
// token is encoded as one rune, so the character-based diff engine
// compares whole words and never splits one mid-letter. Adjacent
// delete/insert pairs collapse into a single replacement, and pure
// insertions are rewritten as replacements of nearby context because a
// bare position cannot be found again by text search.
package diffgen

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/dshills/redmark/internal/redline"
)

const (
	// anchorWindow is how much preceding context a pure insertion
	// carries as its match target.
	anchorWindow = 50

	// forwardAnchorMax caps the borrowed context when an insertion at
	// the start of the document anchors on the text that follows it.
	forwardAnchorMax = 20
)

// tokenPattern splits text into whitespace runs, word runs, and single
// punctuation marks. The three classes are disjoint and cover every
// rune, so joining the tokens reproduces the input exactly.
var tokenPattern = regexp.MustCompile(`\s+|[\p{L}\p{N}_]+|[^\p{L}\p{N}_\s]`)

// Generate compares original and modified and returns the edits that
// turn one into the other. Edits come back in document order; targets
// are verbatim substrings of original so a later matcher can locate
// them without positional hints.
func Generate(original, modified string) []redline.Edit {
	enc := newTokenEncoder()
	chars1 := enc.encode(original)
	chars2 := enc.encode(modified)

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	diffs = enc.decode(diffs)

	var edits []redline.Edit
	idx := 0 // byte offset into original
	pending := ""
	hasPending := false

	flush := func() {
		if !hasPending {
			return
		}
		edits = append(edits, redline.Edit{
			TargetText: pending,
			Comment:    "Diff: Text deleted",
		})
		pending, hasPending = "", false
	}

	for i, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			idx += len(d.Text)

		case diffmatchpatch.DiffDelete:
			// Held back in case the next hunk is an insertion, which
			// makes the pair a replacement.
			pending, hasPending = d.Text, true
			idx += len(d.Text)

		case diffmatchpatch.DiffInsert:
			if hasPending {
				edits = append(edits, redline.Edit{
					TargetText: pending,
					NewText:    d.Text,
					Comment:    "Diff: Replacement",
				})
				pending, hasPending = "", false
				continue
			}
			edits = append(edits, insertionEdit(original, diffs, i, idx))
		}
	}
	flush()
	return edits
}

// insertionEdit encodes the pure insertion at diffs[i] as a replacement
// of surrounding context: the anchor text before the insertion point
// becomes the target and anchor+insertion the replacement. An insertion
// at the very start of the document has no anchor, so it borrows the
// first word of the unchanged text that follows instead.
func insertionEdit(original string, diffs []diffmatchpatch.Diff, i, idx int) redline.Edit {
	text := diffs[i].Text

	start := idx - anchorWindow
	if start < 0 {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(original[start]) {
		start--
	}
	anchor := original[start:idx]

	if anchor == "" && idx == 0 && i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffEqual {
		follow := diffs[i+1].Text
		target := follow
		if cut := strings.IndexByte(follow, ' '); cut >= 0 {
			target = follow[:cut]
		} else if len(follow) > forwardAnchorMax {
			target = clipToRune(follow, forwardAnchorMax)
		}
		if target != "" {
			return redline.Edit{
				TargetText: target,
				NewText:    text + target,
				Comment:    "Diff: Start-of-doc insertion",
			}
		}
	}

	return redline.Edit{
		TargetText: anchor,
		NewText:    anchor + text,
		Comment:    "Diff: Text inserted",
	}
}

// clipToRune shortens s to at most n bytes without splitting a rune.
func clipToRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// tokenEncoder maps distinct tokens to runes so the diff engine
// compares whole words. Codes start at 1 and skip the surrogate block,
// which cannot round-trip through a UTF-8 string.
type tokenEncoder struct {
	codes  map[string]rune
	tokens map[rune]string
}

func newTokenEncoder() *tokenEncoder {
	return &tokenEncoder{
		codes:  make(map[string]rune),
		tokens: make(map[rune]string),
	}
}

func (te *tokenEncoder) encode(text string) string {
	var b strings.Builder
	for _, tok := range tokenPattern.FindAllString(text, -1) {
		code, ok := te.codes[tok]
		if !ok {
			code = tokenRune(len(te.codes) + 1)
			te.codes[tok] = code
			te.tokens[code] = tok
		}
		b.WriteRune(code)
	}
	return b.String()
}

func (te *tokenEncoder) decode(diffs []diffmatchpatch.Diff) []diffmatchpatch.Diff {
	out := make([]diffmatchpatch.Diff, 0, len(diffs))
	for _, d := range diffs {
		var b strings.Builder
		for _, r := range d.Text {
			b.WriteString(te.tokens[r])
		}
		d.Text = b.String()
		out = append(out, d)
	}
	return out
}

func tokenRune(i int) rune {
	if i >= 0xD800 {
		i += 0x800
	}
	return rune(i)
}
