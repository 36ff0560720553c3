package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dshills/redmark/internal/redline"
)

// editItem is the on-disk shape of one edit. Alias keys produced by
// older tooling ("original", "replace") are accepted alongside the
// canonical names.
type editItem struct {
	TargetText string `json:"target_text"`
	Original   string `json:"original"`
	NewText    string `json:"new_text"`
	Replace    string `json:"replace"`
	Comment    string `json:"comment"`
}

// LoadEdits reads a JSON edit list. Missing fields default to empty
// strings; an edit with an empty target comes back from apply as a
// skip, not an error.
func LoadEdits(path string) ([]redline.Edit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []editItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse edits: %w", err)
	}

	edits := make([]redline.Edit, 0, len(items))
	for _, item := range items {
		target := item.TargetText
		if target == "" {
			target = item.Original
		}
		newText := item.NewText
		if newText == "" {
			newText = item.Replace
		}
		edits = append(edits, redline.Edit{
			TargetText: target,
			NewText:    newText,
			Comment:    item.Comment,
		})
	}
	return edits, nil
}
