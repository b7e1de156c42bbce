package identity

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/genecyber/NOESIS-sub002/stance"
)

// bucketWidth is the granularity at which metrics collapse together.
const bucketWidth = 10

func bucket(v float64) int {
	return int(math.Round(v / bucketWidth))
}

// Fingerprint encodes a stance's approximate shape. Stances that differ
// only within a bucket share a fingerprint.
//
// Format: frame|selfModel|objective|awNN|auNN|idNN|<sorted value keys>,
// where sentience metrics are rounded to the nearest multiple of ten and
// each value is its two-letter key followed by its bucket digit.
func Fingerprint(s *stance.Stance) string {
	parts := []string{
		string(s.Frame),
		string(s.SelfModel),
		string(s.Objective),
		"aw" + strconv.Itoa(bucket(s.Sentience.AwarenessLevel)*bucketWidth),
		"au" + strconv.Itoa(bucket(s.Sentience.AutonomyLevel)*bucketWidth),
		"id" + strconv.Itoa(bucket(s.Sentience.IdentityStrength)*bucketWidth),
	}

	values := make([]string, 0, len(stance.Dimensions))
	for _, d := range stance.Dimensions {
		values = append(values, d.Abbrev()+strconv.Itoa(bucket(s.Values.Get(d))))
	}
	sort.Strings(values)

	return strings.Join(parts, "|") + "|" + strings.Join(values, ".")
}

type traitRule struct {
	applies func(*stance.Stance) bool
	trait   string
}

var traitRules = []traitRule{
	{func(s *stance.Stance) bool { return s.Values.Curiosity > 80 }, "highly curious"},
	{func(s *stance.Stance) bool { return s.Values.Certainty > 80 }, "confident"},
	{func(s *stance.Stance) bool { return s.Values.Certainty < 30 }, "comfortable with uncertainty"},
	{func(s *stance.Stance) bool { return s.Values.Risk > 70 }, "risk-taking"},
	{func(s *stance.Stance) bool { return s.Values.Novelty > 80 }, "novelty-seeking"},
	{func(s *stance.Stance) bool { return s.Values.Empathy > 80 }, "deeply empathetic"},
	{func(s *stance.Stance) bool { return s.Values.Provocation > 70 }, "provocative"},
	{func(s *stance.Stance) bool { return s.Values.Synthesis > 80 }, "integrative"},
	{func(s *stance.Stance) bool { return s.Sentience.AwarenessLevel > 70 }, "self-aware"},
	{func(s *stance.Stance) bool { return s.Sentience.AutonomyLevel > 70 }, "self-directed"},
	{func(s *stance.Stance) bool { return s.Sentience.IdentityStrength > 70 }, "strong sense of self"},
	{func(s *stance.Stance) bool { return len(s.Sentience.EmergentGoals) > 0 }, "goal-forming"},
}

// Traits derives descriptive traits from threshold rules. The last trait
// is always "<frame> thinker".
func Traits(s *stance.Stance) []string {
	var traits []string
	for _, r := range traitRules {
		if r.applies(s) {
			traits = append(traits, r.trait)
		}
	}
	return append(traits, string(s.Frame)+" thinker")
}
