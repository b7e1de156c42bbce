package branch

import (
	"errors"
	"testing"

	"github.com/genecyber/NOESIS-sub002/stance"
)

// TestTravelTo tests snapshot capture.
func TestTravelTo(t *testing.T) {
	m := newTestManager()
	msgs := messages(4)
	recorded := stance.Default()
	recorded.Frame = stance.FrameStoic
	msgs[1].Stance = recorded
	root, err := m.InitializeRoot(msgs, stance.Default(), stance.DefaultModeConfig(), "main")
	if err != nil {
		t.Fatal(err)
	}
	tt := NewTimeTravel(m, 0)

	snap, err := tt.TravelTo(root.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Stance.Frame != stance.FrameStoic || snap.StanceInferred {
		t.Errorf("expected recorded stoic stance, got %s", snap.Stance.Frame)
	}
	if snap.Config != root.Config {
		t.Error("snapshot should carry the branch's current config")
	}

	inferred, err := tt.TravelTo(root.ID, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !inferred.StanceInferred || inferred.Stance.Frame != stance.FramePragmatic {
		t.Errorf("expected inferred current stance, got %s", inferred.Stance.Frame)
	}

	if _, err := tt.TravelTo(root.ID, 4); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := tt.TravelTo("missing", 0); !errors.Is(err, ErrBranchNotFound) {
		t.Errorf("expected ErrBranchNotFound, got %v", err)
	}
}

// TestTimeTravelRestore tests that restoring forks without rewriting history.
func TestTimeTravelRestore(t *testing.T) {
	m := newTestManager()
	root := rootWith(t, m, 5)
	tt := NewTimeTravel(m, 0)

	snap, err := tt.TravelTo(root.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := tt.Restore(snap.ID, "rewind")
	if err != nil {
		t.Fatal(err)
	}

	if len(b.Messages) != 2 || b.ParentID != root.ID || b.BranchPoint.MessageIndex != 1 {
		t.Errorf("unexpected restored branch: %d messages, parent %s", len(b.Messages), b.ParentID)
	}
	if b.Name != "rewind" {
		t.Errorf("expected name rewind, got %s", b.Name)
	}
	if m.ActiveID() != root.ID {
		t.Error("restore should not switch activity")
	}
	if r := m.Root(); len(r.Messages) != 5 {
		t.Errorf("root should keep 5 messages, got %d", len(r.Messages))
	}

	if _, err := tt.Restore("missing", "x"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("expected ErrSnapshotNotFound, got %v", err)
	}
}

// TestTimeTravelRestoreFromInactiveBranch tests restoring a snapshot taken on another branch.
func TestTimeTravelRestoreFromInactiveBranch(t *testing.T) {
	m := newTestManager()
	root := rootWith(t, m, 3)
	side, _ := m.BranchNow("side", "")
	tt := NewTimeTravel(m, 0)

	snap, _ := tt.TravelTo(side.ID, 0)
	b, err := tt.Restore(snap.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if b.ParentID != side.ID {
		t.Errorf("expected parent %s, got %s", side.ID, b.ParentID)
	}
	if m.ActiveID() != root.ID {
		t.Error("active branch changed")
	}
}

// TestTimeTravelEviction tests the snapshot cap.
func TestTimeTravelEviction(t *testing.T) {
	m := newTestManager()
	root := rootWith(t, m, 3)
	tt := NewTimeTravel(m, 2)

	first, _ := tt.TravelTo(root.ID, 0)
	second, _ := tt.TravelTo(root.ID, 1)
	third, _ := tt.TravelTo(root.ID, 2)

	if _, ok := tt.Snapshot(first.ID); ok {
		t.Error("oldest snapshot should be evicted")
	}
	all := tt.Snapshots()
	if len(all) != 2 || all[0].ID != second.ID || all[1].ID != third.ID {
		t.Errorf("unexpected snapshots: %v", all)
	}

	if !tt.Forget(second.ID) || tt.Forget(second.ID) {
		t.Error("Forget should succeed once")
	}
	if len(tt.Snapshots()) != 1 {
		t.Error("expected one snapshot left")
	}
}
