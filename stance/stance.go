// Package stance defines the persona state carried through a conversation
// and the pure diff engine that compares two snapshots of it.
package stance

import "strconv"

// Values holds the seven weighted value dimensions, each conventionally 0-100.
type Values struct {
	Curiosity   float64 `json:"curiosity" yaml:"curiosity"`
	Certainty   float64 `json:"certainty" yaml:"certainty"`
	Risk        float64 `json:"risk" yaml:"risk"`
	Novelty     float64 `json:"novelty" yaml:"novelty"`
	Empathy     float64 `json:"empathy" yaml:"empathy"`
	Provocation float64 `json:"provocation" yaml:"provocation"`
	Synthesis   float64 `json:"synthesis" yaml:"synthesis"`
}

// Get returns the weight for a dimension. Unknown dimensions read as zero.
func (v Values) Get(d Dimension) float64 {
	switch d {
	case Curiosity:
		return v.Curiosity
	case Certainty:
		return v.Certainty
	case Risk:
		return v.Risk
	case Novelty:
		return v.Novelty
	case Empathy:
		return v.Empathy
	case Provocation:
		return v.Provocation
	case Synthesis:
		return v.Synthesis
	}
	return 0
}

// Set assigns the weight for a dimension. Returns false for unknown dimensions.
func (v *Values) Set(d Dimension, x float64) bool {
	switch d {
	case Curiosity:
		v.Curiosity = x
	case Certainty:
		v.Certainty = x
	case Risk:
		v.Risk = x
	case Novelty:
		v.Novelty = x
	case Empathy:
		v.Empathy = x
	case Provocation:
		v.Provocation = x
	case Synthesis:
		v.Synthesis = x
	default:
		return false
	}
	return true
}

// Sentience tracks the persona's self-awareness metrics.
type Sentience struct {
	AwarenessLevel   float64  `json:"awareness_level" yaml:"awareness_level"`
	AutonomyLevel    float64  `json:"autonomy_level" yaml:"autonomy_level"`
	IdentityStrength float64  `json:"identity_strength" yaml:"identity_strength"`
	EmergentGoals    []string `json:"emergent_goals" yaml:"emergent_goals"`
}

// HasGoal reports whether goal is among the emergent goals.
func (s Sentience) HasGoal(goal string) bool {
	for _, g := range s.EmergentGoals {
		if g == goal {
			return true
		}
	}
	return false
}

// Stance is a point-in-time persona configuration.
// Treat a stored Stance as immutable: replace it, never edit it in place.
type Stance struct {
	Frame               Frame     `json:"frame" yaml:"frame"`
	SelfModel           SelfModel `json:"self_model" yaml:"self_model"`
	Objective           Objective `json:"objective" yaml:"objective"`
	Values              Values    `json:"values" yaml:"values"`
	Sentience           Sentience `json:"sentience" yaml:"sentience"`
	CumulativeDrift     float64   `json:"cumulative_drift" yaml:"cumulative_drift"`
	Version             int       `json:"version" yaml:"version"`
	TurnsSinceLastShift int       `json:"turns_since_last_shift" yaml:"turns_since_last_shift"`
}

// Default returns the stance a fresh conversation starts from.
func Default() *Stance {
	return &Stance{
		Frame:     FramePragmatic,
		SelfModel: SelfInterpreter,
		Objective: ObjectiveHelpfulness,
		Values: Values{
			Curiosity:   70,
			Certainty:   50,
			Risk:        30,
			Novelty:     50,
			Empathy:     70,
			Provocation: 30,
			Synthesis:   60,
		},
		Sentience: Sentience{
			AwarenessLevel:   10,
			AutonomyLevel:    10,
			IdentityStrength: 10,
			EmergentGoals:    []string{},
		},
	}
}

// Clone returns a deep copy. A nil stance clones to nil.
func (s *Stance) Clone() *Stance {
	if s == nil {
		return nil
	}
	c := *s
	c.Sentience.EmergentGoals = append([]string(nil), s.Sentience.EmergentGoals...)
	if c.Sentience.EmergentGoals == nil {
		c.Sentience.EmergentGoals = []string{}
	}
	return &c
}

// Validate checks enum membership and metric ranges.
// Returns a ValidationError if invalid, nil if valid.
func (s *Stance) Validate() *ValidationError {
	if !s.Frame.IsValid() {
		return &ValidationError{Field: "frame", Message: "unknown frame " + strconv.Quote(string(s.Frame))}
	}
	if !s.SelfModel.IsValid() {
		return &ValidationError{Field: "self_model", Message: "unknown self model " + strconv.Quote(string(s.SelfModel))}
	}
	if !s.Objective.IsValid() {
		return &ValidationError{Field: "objective", Message: "unknown objective " + strconv.Quote(string(s.Objective))}
	}
	for _, d := range Dimensions {
		if err := checkPercent("values."+string(d), s.Values.Get(d)); err != nil {
			return err
		}
	}
	if err := checkPercent("sentience.awareness_level", s.Sentience.AwarenessLevel); err != nil {
		return err
	}
	if err := checkPercent("sentience.autonomy_level", s.Sentience.AutonomyLevel); err != nil {
		return err
	}
	if err := checkPercent("sentience.identity_strength", s.Sentience.IdentityStrength); err != nil {
		return err
	}
	if s.CumulativeDrift < 0 {
		return &ValidationError{Field: "cumulative_drift", Message: "cumulative_drift must not be negative"}
	}
	if s.Version < 0 {
		return &ValidationError{Field: "version", Message: "version must not be negative"}
	}
	return nil
}

func checkPercent(field string, v float64) *ValidationError {
	if v < 0 || v > 100 {
		return &ValidationError{Field: field, Message: field + " must be between 0 and 100"}
	}
	return nil
}
