package insights

import (
	"insight/internal/core"
)

// SummarizeGoals maps saved savings goals to their completion ratio. Goals
// are read-only: nothing here writes them back. Stored order is preserved.
func SummarizeGoals(goals []core.Goal) []core.GoalProgress {
	out := make([]core.GoalProgress, 0, len(goals))
	for _, g := range goals {
		progress := 0.0
		if g.Target.IsPositive() {
			progress, _ = g.Saved.Div(g.Target).Float64()
			if progress < 0 {
				progress = 0
			}
		}
		out = append(out, core.GoalProgress{
			Name:     g.Name,
			Target:   g.Target,
			Saved:    g.Saved,
			Progress: progress,
		})
	}
	return out
}
