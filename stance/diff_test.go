package stance

import (
	"testing"
)

// TestDiffIdentical tests that a stance diffed against itself is empty.
func TestDiffIdentical(t *testing.T) {
	s := Default()
	s.Sentience.EmergentGoals = []string{"understand the user"}

	d := Diff(s, s)

	if d.OverallDrift != 0 {
		t.Errorf("expected drift 0, got %v", d.OverallDrift)
	}
	if d.Significance != SignificanceMinor {
		t.Errorf("expected minor, got %s", d.Significance)
	}
	if len(d.ValueDrift) != 0 {
		t.Errorf("expected no value drift, got %v", d.ValueDrift)
	}
	if len(d.GoalsAdded) != 0 || len(d.GoalsRemoved) != 0 {
		t.Errorf("expected no goal changes, got +%v -%v", d.GoalsAdded, d.GoalsRemoved)
	}
	if d.FrameChanged || d.SelfModelChanged || d.ObjectiveChanged {
		t.Error("expected no enum changes")
	}
	if !d.IsEmpty() {
		t.Error("IsEmpty() should be true for identical stances")
	}
}

// TestDiffValuesOnlyWhenChanged tests that unchanged dimensions are omitted.
func TestDiffValuesOnlyWhenChanged(t *testing.T) {
	older := Default()
	newer := older.Clone()
	newer.Values.Curiosity += 5
	newer.Values.Risk -= 3

	d := Diff(older, newer)

	if len(d.ValueDrift) != 2 {
		t.Fatalf("expected 2 value drifts, got %d (%v)", len(d.ValueDrift), d.ValueDrift)
	}
	if d.ValueDrift[Curiosity] != 5 {
		t.Errorf("expected curiosity +5, got %v", d.ValueDrift[Curiosity])
	}
	if d.ValueDrift[Risk] != -3 {
		t.Errorf("expected risk -3, got %v", d.ValueDrift[Risk])
	}
	if _, ok := d.ValueDrift[Empathy]; ok {
		t.Error("unchanged empathy should not be reported")
	}
	if d.OverallDrift != 8 {
		t.Errorf("expected drift 8, got %v", d.OverallDrift)
	}
}

// TestDiffSentienceAlwaysIncluded tests the sentience deltas and drift sum.
func TestDiffSentienceAlwaysIncluded(t *testing.T) {
	older := Default()
	newer := older.Clone()
	newer.Sentience.AwarenessLevel += 20
	newer.Sentience.AutonomyLevel -= 5
	newer.Values.Empathy += 10

	d := Diff(older, newer)

	if d.AwarenessDelta != 20 {
		t.Errorf("expected awareness delta 20, got %v", d.AwarenessDelta)
	}
	if d.AutonomyDelta != -5 {
		t.Errorf("expected autonomy delta -5, got %v", d.AutonomyDelta)
	}
	if d.IdentityDelta != 0 {
		t.Errorf("expected identity delta 0, got %v", d.IdentityDelta)
	}
	if d.OverallDrift != 35 {
		t.Errorf("expected drift 35, got %v", d.OverallDrift)
	}
	if d.Significance != SignificanceMajor {
		t.Errorf("expected major, got %s", d.Significance)
	}
}

// TestDiffGoals tests the set difference on emergent goals.
func TestDiffGoals(t *testing.T) {
	older := Default()
	older.Sentience.EmergentGoals = []string{"a", "b"}
	newer := older.Clone()
	newer.Sentience.EmergentGoals = []string{"b", "c", "c"}

	d := Diff(older, newer)

	if len(d.GoalsAdded) != 1 || d.GoalsAdded[0] != "c" {
		t.Errorf("expected added [c], got %v", d.GoalsAdded)
	}
	if len(d.GoalsRemoved) != 1 || d.GoalsRemoved[0] != "a" {
		t.Errorf("expected removed [a], got %v", d.GoalsRemoved)
	}
}

// TestDiffEnumFlags tests frame and self model change detection.
func TestDiffEnumFlags(t *testing.T) {
	older := Default()
	newer := older.Clone()
	newer.Frame = FramePoetic
	newer.SelfModel = SelfMirror

	d := Diff(older, newer)

	if !d.FrameChanged || d.FromFrame != FramePragmatic || d.ToFrame != FramePoetic {
		t.Errorf("unexpected frame change report: %+v", d)
	}
	if !d.SelfModelChanged {
		t.Error("expected self model change")
	}
	if d.OverallDrift != 0 {
		t.Errorf("enum changes should not add drift, got %v", d.OverallDrift)
	}
	if d.IsEmpty() {
		t.Error("IsEmpty() should be false when the frame changed")
	}
}

// TestDiffDoesNotMutate tests that both inputs are left untouched.
func TestDiffDoesNotMutate(t *testing.T) {
	older := Default()
	older.Sentience.EmergentGoals = []string{"x"}
	newer := older.Clone()
	newer.Sentience.EmergentGoals = append(newer.Sentience.EmergentGoals, "y")

	_ = Diff(older, newer)

	if len(older.Sentience.EmergentGoals) != 1 || len(newer.Sentience.EmergentGoals) != 2 {
		t.Errorf("inputs mutated: %v %v", older.Sentience.EmergentGoals, newer.Sentience.EmergentGoals)
	}
}

// TestClassify tests the significance bucket boundaries.
func TestClassify(t *testing.T) {
	tests := []struct {
		drift float64
		want  Significance
	}{
		{0, SignificanceMinor},
		{9.99, SignificanceMinor},
		{10, SignificanceModerate},
		{29, SignificanceModerate},
		{30, SignificanceMajor},
		{59.5, SignificanceMajor},
		{60, SignificanceFundamental},
		{250, SignificanceFundamental},
	}

	for _, tt := range tests {
		if got := Classify(tt.drift); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.drift, got, tt.want)
		}
	}
}

// TestSignificanceIsMajor tests the milestone-worthy check.
func TestSignificanceIsMajor(t *testing.T) {
	if SignificanceMinor.IsMajor() || SignificanceModerate.IsMajor() {
		t.Error("minor and moderate should not be major")
	}
	if !SignificanceMajor.IsMajor() || !SignificanceFundamental.IsMajor() {
		t.Error("major and fundamental should be major")
	}
}
