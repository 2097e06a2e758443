package insights

import (
	"testing"

	"github.com/shopspring/decimal"

	"insight/internal/core"
)

func TestSummarizeGoals(t *testing.T) {
	goals := []core.Goal{
		{Name: "Holiday", Target: decimal.NewFromInt(1000), Saved: decimal.NewFromInt(250)},
		{Name: "Emergency fund", Target: decimal.NewFromInt(5000), Saved: decimal.NewFromInt(5000)},
		{Name: "New laptop", Target: decimal.NewFromInt(1500), Saved: decimal.NewFromInt(1800)},
	}

	got := SummarizeGoals(goals)
	if len(got) != 3 {
		t.Fatalf("SummarizeGoals() returned %d goals, want 3", len(got))
	}

	if got[0].Name != "Holiday" || got[0].Progress != 0.25 {
		t.Errorf("Holiday progress = %v, want 0.25", got[0].Progress)
	}
	if got[1].Progress != 1.0 {
		t.Errorf("completed goal progress = %v, want 1.0", got[1].Progress)
	}
	if got[2].Progress != 1.2 {
		t.Errorf("overfunded goal progress = %v, want 1.2", got[2].Progress)
	}
	if !got[0].Target.Equal(decimal.NewFromInt(1000)) || !got[0].Saved.Equal(decimal.NewFromInt(250)) {
		t.Errorf("goal amounts not carried: %+v", got[0])
	}
}

func TestSummarizeGoals_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		goal core.Goal
		want float64
	}{
		{name: "zero target", goal: core.Goal{Name: "a"}, want: 0},
		{name: "negative saved", goal: core.Goal{Name: "b", Target: decimal.NewFromInt(100), Saved: decimal.NewFromInt(-20)}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SummarizeGoals([]core.Goal{tt.goal})
			if len(got) != 1 || got[0].Progress != tt.want {
				t.Errorf("progress = %v, want %v", got[0].Progress, tt.want)
			}
		})
	}
}

func TestSummarizeGoals_Empty(t *testing.T) {
	if got := SummarizeGoals(nil); len(got) != 0 {
		t.Errorf("SummarizeGoals(nil) = %v, want empty", got)
	}
}
