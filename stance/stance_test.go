package stance

import (
	"strings"
	"testing"
)

// TestFrameIsValid tests the IsValid method for Frame.
func TestFrameIsValid(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		valid bool
	}{
		{"pragmatic is valid", FramePragmatic, true},
		{"poetic is valid", FramePoetic, true},
		{"absurdist is valid", FrameAbsurdist, true},
		{"empty is invalid", Frame(""), false},
		{"capitalized is invalid", Frame("Pragmatic"), false},
		{"unknown is invalid", Frame("baroque"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.frame.IsValid(); got != tt.valid {
				t.Errorf("Frame(%q).IsValid() = %v, want %v", tt.frame, got, tt.valid)
			}
		})
	}
}

// TestParseDimension tests lookup by full name and by abbreviation.
func TestParseDimension(t *testing.T) {
	tests := []struct {
		in   string
		want Dimension
		ok   bool
	}{
		{"curiosity", Curiosity, true},
		{"cu", Curiosity, true},
		{"ce", Certainty, true},
		{"synthesis", Synthesis, true},
		{"zz", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseDimension(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseDimension(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

// TestDimensionAbbrevUnique tests that fingerprint keys do not collide.
func TestDimensionAbbrevUnique(t *testing.T) {
	seen := make(map[string]Dimension)
	for _, d := range Dimensions {
		key := d.Abbrev()
		if len(key) != 2 {
			t.Errorf("expected 2-letter key for %s, got %q", d, key)
		}
		if prev, dup := seen[key]; dup {
			t.Errorf("abbreviation %q shared by %s and %s", key, prev, d)
		}
		seen[key] = d
	}
}

// TestValuesGetSet tests dimension accessors.
func TestValuesGetSet(t *testing.T) {
	var v Values
	for i, d := range Dimensions {
		if !v.Set(d, float64(i*10)) {
			t.Fatalf("Set(%s) returned false", d)
		}
	}
	for i, d := range Dimensions {
		if got := v.Get(d); got != float64(i*10) {
			t.Errorf("Get(%s) = %v, want %v", d, got, i*10)
		}
	}
	if v.Set(Dimension("mood"), 1) {
		t.Error("Set should reject unknown dimensions")
	}
	if v.Get(Dimension("mood")) != 0 {
		t.Error("Get should return 0 for unknown dimensions")
	}
}

// TestCloneIsDeep tests that a clone shares no mutable state.
func TestCloneIsDeep(t *testing.T) {
	orig := Default()
	orig.Sentience.EmergentGoals = []string{"learn"}

	c := orig.Clone()
	c.Sentience.EmergentGoals[0] = "changed"
	c.Values.Curiosity = 1

	if orig.Sentience.EmergentGoals[0] != "learn" {
		t.Error("clone shares emergent goals with original")
	}
	if orig.Values.Curiosity == 1 {
		t.Error("clone shares values with original")
	}

	var nilStance *Stance
	if nilStance.Clone() != nil {
		t.Error("nil stance should clone to nil")
	}
}

// TestStanceValidate tests stance validation.
func TestStanceValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Stance)
		field  string
	}{
		{"default is valid", func(*Stance) {}, ""},
		{"bad frame", func(s *Stance) { s.Frame = "x" }, "frame"},
		{"bad self model", func(s *Stance) { s.SelfModel = "x" }, "self_model"},
		{"bad objective", func(s *Stance) { s.Objective = "x" }, "objective"},
		{"value over 100", func(s *Stance) { s.Values.Risk = 101 }, "values.risk"},
		{"negative awareness", func(s *Stance) { s.Sentience.AwarenessLevel = -1 }, "sentience.awareness_level"},
		{"negative drift", func(s *Stance) { s.CumulativeDrift = -2 }, "cumulative_drift"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(s)
			err := s.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("expected valid, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error on %s", tt.field)
			}
			if err.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, err.Field)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error message %q should mention %q", err.Error(), tt.field)
			}
		})
	}
}

// TestModeConfigValidate tests mode config range checks.
func TestModeConfigValidate(t *testing.T) {
	cfg := DefaultModeConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cfg.DriftBudget = 150
	err := cfg.Validate()
	if err == nil || err.Field != "drift_budget" {
		t.Errorf("expected drift_budget error, got %v", err)
	}
}
