package stance

import "math"

// Significance classifies how far a stance moved between two snapshots.
type Significance string

const (
	SignificanceMinor       Significance = "minor"
	SignificanceModerate    Significance = "moderate"
	SignificanceMajor       Significance = "major"
	SignificanceFundamental Significance = "fundamental"
)

// Drift thresholds separating the significance buckets.
const (
	moderateThreshold    = 10
	majorThreshold       = 30
	fundamentalThreshold = 60
)

// Classify buckets an overall drift magnitude.
func Classify(drift float64) Significance {
	switch {
	case drift < moderateThreshold:
		return SignificanceMinor
	case drift < majorThreshold:
		return SignificanceModerate
	case drift < fundamentalThreshold:
		return SignificanceMajor
	default:
		return SignificanceFundamental
	}
}

// IsMajor reports whether the significance is major or fundamental.
func (s Significance) IsMajor() bool {
	return s == SignificanceMajor || s == SignificanceFundamental
}

// String returns the string representation of the significance.
func (s Significance) String() string {
	return string(s)
}

// Delta is the structured difference between an older and a newer stance.
type Delta struct {
	FrameChanged     bool  `json:"frame_changed"`
	FromFrame        Frame `json:"from_frame"`
	ToFrame          Frame `json:"to_frame"`
	SelfModelChanged bool  `json:"self_model_changed"`
	ObjectiveChanged bool  `json:"objective_changed"`

	// ValueDrift only holds dimensions whose weight changed.
	ValueDrift map[Dimension]float64 `json:"value_drift"`

	AwarenessDelta float64 `json:"awareness_delta"`
	AutonomyDelta  float64 `json:"autonomy_delta"`
	IdentityDelta  float64 `json:"identity_delta"`

	GoalsAdded   []string `json:"goals_added"`
	GoalsRemoved []string `json:"goals_removed"`

	OverallDrift float64      `json:"overall_drift"`
	Significance Significance `json:"significance"`
}

// Diff compares two stances. It is pure: neither argument is modified.
func Diff(older, newer *Stance) Delta {
	d := Delta{
		FrameChanged:     older.Frame != newer.Frame,
		FromFrame:        older.Frame,
		ToFrame:          newer.Frame,
		SelfModelChanged: older.SelfModel != newer.SelfModel,
		ObjectiveChanged: older.Objective != newer.Objective,
		ValueDrift:       make(map[Dimension]float64),
		AwarenessDelta:   newer.Sentience.AwarenessLevel - older.Sentience.AwarenessLevel,
		AutonomyDelta:    newer.Sentience.AutonomyLevel - older.Sentience.AutonomyLevel,
		IdentityDelta:    newer.Sentience.IdentityStrength - older.Sentience.IdentityStrength,
		GoalsAdded:       goalDifference(newer.Sentience.EmergentGoals, older.Sentience.EmergentGoals),
		GoalsRemoved:     goalDifference(older.Sentience.EmergentGoals, newer.Sentience.EmergentGoals),
	}

	drift := math.Abs(d.AwarenessDelta) + math.Abs(d.AutonomyDelta) + math.Abs(d.IdentityDelta)
	for _, dim := range Dimensions {
		delta := newer.Values.Get(dim) - older.Values.Get(dim)
		if delta != 0 {
			d.ValueDrift[dim] = delta
			drift += math.Abs(delta)
		}
	}

	d.OverallDrift = drift
	d.Significance = Classify(drift)
	return d
}

// IsEmpty reports whether nothing at all changed.
func (d Delta) IsEmpty() bool {
	return d.OverallDrift == 0 && !d.FrameChanged && !d.SelfModelChanged &&
		!d.ObjectiveChanged && len(d.GoalsAdded) == 0 && len(d.GoalsRemoved) == 0
}

// goalDifference returns the goals in a that are not in b, in a's order.
func goalDifference(a, b []string) []string {
	exclude := make(map[string]struct{}, len(b))
	for _, g := range b {
		exclude[g] = struct{}{}
	}
	out := []string{}
	seen := make(map[string]struct{}, len(a))
	for _, g := range a {
		if _, skip := exclude[g]; skip {
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}
