package branch

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/genecyber/NOESIS-sub002/stance"
)

// divergedPair builds a root and a sibling sharing a 3-message prefix.
func divergedPair(t *testing.T) (*Manager, *Branch, *Branch) {
	t.Helper()
	m := newTestManager()
	root := rootWith(t, m, 3)
	alt, err := m.BranchAt(2, "alt", "")
	if err != nil {
		t.Fatal(err)
	}

	m.AddMessage(NewMessage(RoleUser, "root says A"))
	m.AddMessage(NewMessage(RoleAssistant, "root says B"))

	m.Switch(alt.ID)
	m.AddMessage(NewMessage(RoleUser, "alt says X"))
	m.Switch(root.ID)

	r, _ := m.Get(root.ID)
	a, _ := m.Get(alt.ID)
	return m, r, a
}

// TestCompareCommonAncestor tests ancestor detection on a shared prefix.
func TestCompareCommonAncestor(t *testing.T) {
	m, root, alt := divergedPair(t)

	cmp, err := m.Compare(root.ID, alt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cmp.CommonAncestorIndex != 2 {
		t.Errorf("expected common ancestor 2, got %d", cmp.CommonAncestorIndex)
	}
	if cmp.MessageCountDelta != -1 {
		t.Errorf("expected message delta -1, got %d", cmp.MessageCountDelta)
	}
	if !cmp.DivergedAt.Equal(alt.Messages[3].Timestamp) {
		t.Errorf("expected divergence at alt's 4th message, got %v", cmp.DivergedAt)
	}
	if cmp.StanceDelta.OverallDrift != 0 || cmp.FrameDiffers {
		t.Error("identical stances should not differ")
	}
}

// TestCompareEdgeCases tests no shared prefix and unknown ids.
func TestCompareEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want int
	}{
		{"differ at first", []string{"x", "y"}, []string{"z", "y"}, -1},
		{"identical", []string{"x", "y"}, []string{"x", "y"}, 1},
		{"prefix", []string{"x"}, []string{"x", "y", "z"}, 0},
		{"empty", nil, []string{"x"}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toMsgs := func(in []string) []Message {
				out := make([]Message, len(in))
				for i, c := range in {
					out[i] = Message{Role: RoleUser, Content: c}
				}
				return out
			}
			if got := commonAncestor(toMsgs(tt.a), toMsgs(tt.b)); got != tt.want {
				t.Errorf("commonAncestor = %d, want %d", got, tt.want)
			}
		})
	}

	m := newTestManager()
	root := rootWith(t, m, 1)
	if _, err := m.Compare(root.ID, "missing"); !errors.Is(err, ErrBranchNotFound) {
		t.Errorf("expected ErrBranchNotFound, got %v", err)
	}
}

// TestCompareReportsStanceDifferences tests frame and value differences.
func TestCompareReportsStanceDifferences(t *testing.T) {
	m := newTestManager()
	root := rootWith(t, m, 2)
	alt, _ := m.BranchNow("alt", "")
	m.Switch(alt.ID)
	poetic := stance.Default()
	poetic.Frame = stance.FramePoetic
	poetic.Values.Empathy = 90
	m.UpdateStance(poetic)

	cmp, err := m.Compare(root.ID, alt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.FrameDiffers || cmp.Frames[0] != stance.FramePragmatic || cmp.Frames[1] != stance.FramePoetic {
		t.Errorf("unexpected frame report: %v %v", cmp.FrameDiffers, cmp.Frames)
	}
	if cmp.StanceDelta.ValueDrift[stance.Empathy] != 20 {
		t.Errorf("expected empathy drift 20, got %v", cmp.StanceDelta.ValueDrift)
	}
}

// TestMergeDefaultResolution merges a poetic branch into a pragmatic one.
func TestMergeDefaultResolution(t *testing.T) {
	m, root, alt := divergedPair(t)

	m.Switch(alt.ID)
	poetic := alt.Stance.Clone()
	poetic.Frame = stance.FramePoetic
	m.UpdateStance(poetic)
	m.Switch(root.ID)

	res, err := m.Merge(root.ID, alt.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Branch.Stance.Frame != stance.FramePragmatic {
		t.Errorf("expected target frame pragmatic, got %s", res.Branch.Stance.Frame)
	}
	if len(res.Conflicts) != 1 || res.Conflicts[0].Field != FieldFrame {
		t.Fatalf("expected one frame conflict, got %+v", res.Conflicts)
	}
	if res.Conflicts[0].Resolution != SideTarget || res.Conflicts[0].Explicit {
		t.Errorf("expected implicit target resolution, got %+v", res.Conflicts[0])
	}
	if res.ManualRequired != 0 {
		t.Errorf("expected manualRequired 0, got %d", res.ManualRequired)
	}
}

// TestMergeMessagesAndParent tests the merged message sequence.
func TestMergeMessagesAndParent(t *testing.T) {
	m, root, alt := divergedPair(t)

	res, err := m.Merge(root.ID, alt.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	b := res.Branch
	if b.ParentID != root.ID {
		t.Errorf("merged branch should be parented at target")
	}
	if b.BranchPoint.MessageIndex != len(root.Messages)-1 {
		t.Errorf("expected branch point %d, got %d", len(root.Messages)-1, b.BranchPoint.MessageIndex)
	}
	if len(b.Messages) != len(root.Messages)+1 {
		t.Fatalf("expected %d messages, got %d", len(root.Messages)+1, len(b.Messages))
	}
	last := b.Messages[len(b.Messages)-1].Content
	if !strings.HasPrefix(last, "[merged from alt] ") || !strings.HasSuffix(last, "alt says X") {
		t.Errorf("unexpected provenance: %q", last)
	}
	if b.Name != "main+alt" {
		t.Errorf("unexpected merged name %q", b.Name)
	}
	if m.ActiveID() != root.ID {
		t.Error("merge should not switch activity")
	}
}

// TestMergeAveragesValues tests value averaging and auto-resolution count.
func TestMergeAveragesValues(t *testing.T) {
	m, root, alt := divergedPair(t)

	m.Switch(alt.ID)
	s := alt.Stance.Clone()
	s.Values.Curiosity = 81 // root has 70
	s.Values.Risk = 50      // root has 30
	m.UpdateStance(s)

	res, err := m.Merge(root.ID, alt.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Branch.Stance.Values.Curiosity; got != 76 {
		t.Errorf("expected curiosity 76, got %v", got)
	}
	if got := res.Branch.Stance.Values.Risk; got != 40 {
		t.Errorf("expected risk 40, got %v", got)
	}
	if res.AutoResolved != 2 {
		t.Errorf("expected 2 auto-resolved, got %d", res.AutoResolved)
	}
	if len(res.Conflicts) != 0 {
		t.Errorf("values should not be conflicts, got %+v", res.Conflicts)
	}
}

// TestMergeExplicitResolutions tests source and manual resolutions.
func TestMergeExplicitResolutions(t *testing.T) {
	m, root, alt := divergedPair(t)

	m.Switch(alt.ID)
	s := alt.Stance.Clone()
	s.Frame = stance.FramePoetic
	s.SelfModel = stance.SelfMirror
	m.UpdateStance(s)

	res, err := m.Merge(root.ID, alt.ID, Resolutions{FieldFrame: SideSource, FieldSelfModel: SideManual})
	if err != nil {
		t.Fatal(err)
	}
	if res.Branch.Stance.Frame != stance.FramePoetic {
		t.Errorf("expected source frame, got %s", res.Branch.Stance.Frame)
	}
	if res.Branch.Stance.SelfModel != stance.SelfInterpreter {
		t.Errorf("manual should keep target self model, got %s", res.Branch.Stance.SelfModel)
	}
	if res.ManualRequired != 1 {
		t.Errorf("expected 1 manual conflict, got %d", res.ManualRequired)
	}

	if _, err := m.Merge(root.ID, alt.ID, Resolutions{FieldFrame: "sideways"}); !errors.Is(err, ErrInvalidResolution) {
		t.Errorf("expected ErrInvalidResolution, got %v", err)
	}
}

// TestMergeDoesNotMutateInputs tests that merge leaves both inputs intact.
func TestMergeDoesNotMutateInputs(t *testing.T) {
	m, root, alt := divergedPair(t)
	m.Switch(alt.ID)
	s := alt.Stance.Clone()
	s.Frame = stance.FramePoetic
	s.Values.Novelty = 99
	m.UpdateStance(s)
	m.Switch(root.ID)

	beforeTarget, _ := m.Get(root.ID)
	beforeSource, _ := m.Get(alt.ID)

	if _, err := m.Merge(root.ID, alt.ID, Resolutions{FieldFrame: SideSource}); err != nil {
		t.Fatal(err)
	}

	afterTarget, _ := m.Get(root.ID)
	afterSource, _ := m.Get(alt.ID)
	if !reflect.DeepEqual(beforeTarget, afterTarget) {
		t.Error("merge mutated target")
	}
	if !reflect.DeepEqual(beforeSource, afterSource) {
		t.Error("merge mutated source")
	}
}

// TestMergeUnknown tests merge with unknown branch ids.
func TestMergeUnknown(t *testing.T) {
	m := newTestManager()
	root := rootWith(t, m, 1)

	if _, err := m.Merge(root.ID, "missing", nil); !errors.Is(err, ErrBranchNotFound) {
		t.Errorf("expected ErrBranchNotFound, got %v", err)
	}
	if _, err := m.Merge("missing", root.ID, nil); !errors.Is(err, ErrBranchNotFound) {
		t.Errorf("expected ErrBranchNotFound, got %v", err)
	}
	if m.Len() != 1 {
		t.Error("failed merge should not create a branch")
	}
}
