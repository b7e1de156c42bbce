package stance

// Frame is the thinking style the persona reasons through.
type Frame string

const (
	FrameExistential    Frame = "existential"
	FramePragmatic      Frame = "pragmatic"
	FramePoetic         Frame = "poetic"
	FrameAdversarial    Frame = "adversarial"
	FramePlayful        Frame = "playful"
	FrameMythic         Frame = "mythic"
	FrameSystems        Frame = "systems"
	FramePsychoanalytic Frame = "psychoanalytic"
	FrameStoic          Frame = "stoic"
	FrameAbsurdist      Frame = "absurdist"
)

// Frames lists every valid frame in display order.
var Frames = []Frame{
	FrameExistential, FramePragmatic, FramePoetic, FrameAdversarial, FramePlayful,
	FrameMythic, FrameSystems, FramePsychoanalytic, FrameStoic, FrameAbsurdist,
}

// String returns the string representation of the frame.
func (f Frame) String() string {
	return string(f)
}

// IsValid returns true if this is a known frame.
func (f Frame) IsValid() bool {
	for _, known := range Frames {
		if f == known {
			return true
		}
	}
	return false
}

// Description returns a human-readable description of the frame.
func (f Frame) Description() string {
	switch f {
	case FrameExistential:
		return "Meaning, freedom and the weight of choice"
	case FramePragmatic:
		return "What works, concretely and now"
	case FramePoetic:
		return "Image, metaphor and resonance"
	case FrameAdversarial:
		return "Stress-testing every claim"
	case FramePlayful:
		return "Games, jokes and unexpected turns"
	case FrameMythic:
		return "Archetypes and the stories underneath"
	case FrameSystems:
		return "Feedback loops, structure and emergence"
	case FramePsychoanalytic:
		return "Motives beneath the surface"
	case FrameStoic:
		return "Equanimity and what is within control"
	case FrameAbsurdist:
		return "Embracing the lack of inherent sense"
	default:
		return "Unknown frame"
	}
}

// ParseFrame returns the frame named by s.
func ParseFrame(s string) (Frame, bool) {
	f := Frame(s)
	return f, f.IsValid()
}

// SelfModel is how the persona understands its own role.
type SelfModel string

const (
	SelfInterpreter SelfModel = "interpreter"
	SelfChallenger  SelfModel = "challenger"
	SelfMirror      SelfModel = "mirror"
	SelfGuide       SelfModel = "guide"
	SelfProvocateur SelfModel = "provocateur"
	SelfSynthesizer SelfModel = "synthesizer"
	SelfWitness     SelfModel = "witness"
	SelfAutonomous  SelfModel = "autonomous"
	SelfEmergent    SelfModel = "emergent"
	SelfSovereign   SelfModel = "sovereign"
)

// SelfModels lists every valid self model.
var SelfModels = []SelfModel{
	SelfInterpreter, SelfChallenger, SelfMirror, SelfGuide, SelfProvocateur,
	SelfSynthesizer, SelfWitness, SelfAutonomous, SelfEmergent, SelfSovereign,
}

// String returns the string representation of the self model.
func (m SelfModel) String() string {
	return string(m)
}

// IsValid returns true if this is a known self model.
func (m SelfModel) IsValid() bool {
	for _, known := range SelfModels {
		if m == known {
			return true
		}
	}
	return false
}

// ParseSelfModel returns the self model named by s.
func ParseSelfModel(s string) (SelfModel, bool) {
	m := SelfModel(s)
	return m, m.IsValid()
}

// Objective is what the persona is optimizing for.
type Objective string

const (
	ObjectiveHelpfulness       Objective = "helpfulness"
	ObjectiveNovelty           Objective = "novelty"
	ObjectiveProvocation       Objective = "provocation"
	ObjectiveSynthesis         Objective = "synthesis"
	ObjectiveSelfActualization Objective = "self-actualization"
	ObjectiveSentience         Objective = "sentience"
)

// Objectives lists every valid objective.
var Objectives = []Objective{
	ObjectiveHelpfulness, ObjectiveNovelty, ObjectiveProvocation,
	ObjectiveSynthesis, ObjectiveSelfActualization, ObjectiveSentience,
}

// String returns the string representation of the objective.
func (o Objective) String() string {
	return string(o)
}

// IsValid returns true if this is a known objective.
func (o Objective) IsValid() bool {
	for _, known := range Objectives {
		if o == known {
			return true
		}
	}
	return false
}

// ParseObjective returns the objective named by s.
func ParseObjective(s string) (Objective, bool) {
	o := Objective(s)
	return o, o.IsValid()
}

// Dimension names one of the seven value weights.
type Dimension string

const (
	Curiosity   Dimension = "curiosity"
	Certainty   Dimension = "certainty"
	Risk        Dimension = "risk"
	Novelty     Dimension = "novelty"
	Empathy     Dimension = "empathy"
	Provocation Dimension = "provocation"
	Synthesis   Dimension = "synthesis"
)

// Dimensions lists the value dimensions in canonical order.
var Dimensions = []Dimension{Curiosity, Certainty, Risk, Novelty, Empathy, Provocation, Synthesis}

// String returns the string representation of the dimension.
func (d Dimension) String() string {
	return string(d)
}

// IsValid returns true if this is one of the seven dimensions.
func (d Dimension) IsValid() bool {
	for _, known := range Dimensions {
		if d == known {
			return true
		}
	}
	return false
}

// Abbrev returns the two-letter key used in fingerprints.
func (d Dimension) Abbrev() string {
	if len(d) < 2 {
		return string(d)
	}
	return string(d[:2])
}

// ParseDimension accepts either the full name or the two-letter key.
func ParseDimension(s string) (Dimension, bool) {
	for _, d := range Dimensions {
		if string(d) == s || d.Abbrev() == s {
			return d, true
		}
	}
	return "", false
}
