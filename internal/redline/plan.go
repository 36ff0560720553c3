package redline

import "sort"

// PlanStep pairs an edit with its position in the caller-supplied order.
// Index is the slot the step's outcome must be recorded under.
type PlanStep struct {
	Index int
	Edit  Edit
}

// BuildPlan orders edits for application: longest target first, so an edit
// whose target contains another edit's target is attempted before the
// shorter one can consume the shared text. Ties keep their original
// relative order. The input slice is not modified.
func BuildPlan(edits []Edit) []PlanStep {
	plan := make([]PlanStep, len(edits))
	for i, e := range edits {
		plan[i] = PlanStep{Index: i, Edit: e}
	}
	sort.SliceStable(plan, func(a, b int) bool {
		return len(plan[a].Edit.TargetText) > len(plan[b].Edit.TargetText)
	})
	return plan
}
