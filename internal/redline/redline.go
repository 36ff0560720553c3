// Package redline defines the edit, outcome, and planning types shared by
// every layer that touches tracked changes: the diff generator that produces
// edits, the protocol that carries them, and the engine host that applies
// them to a document.
package redline

// Edit is a single search-and-replace instruction against a document.
// TargetText is matched verbatim against the document's accepted text;
// NewText is the proposed replacement. An empty NewText proposes a pure
// deletion. Comment is free-form annotation carried along for review
// surfaces and never affects matching.
type Edit struct {
	TargetText string `json:"target_text"`
	NewText    string `json:"new_text"`
	Comment    string `json:"comment,omitempty"`
}

// IsDeletion reports whether the edit removes text without replacement.
func (e Edit) IsDeletion() bool {
	return e.NewText == ""
}

// Outcome records whether one edit was applied to the document.
// A skipped edit is not an error; its target simply no longer matched.
type Outcome struct {
	Applied bool `json:"applied"`
}

// Report aggregates the outcomes of one apply batch. Outcomes is indexed
// by the caller's original edit order regardless of the order edits were
// attempted in, so Outcomes[i] always answers "what happened to edits[i]".
type Report struct {
	Applied  int       `json:"applied"`
	Skipped  int       `json:"skipped"`
	Outcomes []Outcome `json:"outcomes"`
}

// NewReport returns a Report sized for n edits, all initially skipped.
func NewReport(n int) *Report {
	return &Report{
		Skipped:  n,
		Outcomes: make([]Outcome, n),
	}
}

// Record stores the outcome for the edit at its original index.
// Recording the same index twice is a caller bug; the last write wins
// and the counters are adjusted accordingly.
func (r *Report) Record(index int, applied bool) {
	if index < 0 || index >= len(r.Outcomes) {
		return
	}
	prev := r.Outcomes[index].Applied
	if prev == applied {
		return
	}
	r.Outcomes[index].Applied = applied
	if applied {
		r.Applied++
		r.Skipped--
	} else {
		r.Applied--
		r.Skipped++
	}
}

// Total returns the number of edits the report covers.
func (r *Report) Total() int {
	return len(r.Outcomes)
}
