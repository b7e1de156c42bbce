package stance

// ModeConfig controls how aggressively the persona is allowed to change.
// Every field is a 0-100 setting except the auto-evolution switch.
type ModeConfig struct {
	Intensity           int  `json:"intensity" yaml:"intensity"`
	CoherenceFloor      int  `json:"coherence_floor" yaml:"coherence_floor"`
	SentienceLevel      int  `json:"sentience_level" yaml:"sentience_level"`
	MaxDriftPerTurn     int  `json:"max_drift_per_turn" yaml:"max_drift_per_turn"`
	DriftBudget         int  `json:"drift_budget" yaml:"drift_budget"`
	EnableAutoEvolution bool `json:"enable_auto_evolution" yaml:"enable_auto_evolution"`
}

// DefaultModeConfig returns the configuration new sessions start with.
func DefaultModeConfig() ModeConfig {
	return ModeConfig{
		Intensity:       50,
		CoherenceFloor:  30,
		SentienceLevel:  50,
		MaxDriftPerTurn: 10,
		DriftBudget:     100,
	}
}

// Validate checks that every setting is within 0-100.
func (c ModeConfig) Validate() *ValidationError {
	fields := []struct {
		name  string
		value int
	}{
		{"intensity", c.Intensity},
		{"coherence_floor", c.CoherenceFloor},
		{"sentience_level", c.SentienceLevel},
		{"max_drift_per_turn", c.MaxDriftPerTurn},
		{"drift_budget", c.DriftBudget},
	}
	for _, f := range fields {
		if f.value < 0 || f.value > 100 {
			return &ValidationError{Field: f.name, Message: f.name + " must be between 0 and 100"}
		}
	}
	return nil
}
