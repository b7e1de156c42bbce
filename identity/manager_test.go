package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/genecyber/NOESIS-sub002/stance"
)

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tick, seq := 0, 0
	m, err := NewManager(cfg,
		WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Minute)
		}),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("cp-%d", seq)
		}),
	)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

// TestNewManagerRejectsBadConfig tests config validation.
func TestNewManagerRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCheckpoints = 0
	if _, err := NewManager(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	cfg = DefaultConfig()
	cfg.Interval = 0
	if _, err := NewManager(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

// TestCreate tests checkpoint creation and derived fields.
func TestCreate(t *testing.T) {
	m := newTestManager(t, DefaultConfig())
	s := stance.Default()
	m.RecordTurn()
	m.RecordTurn()

	first, err := m.Create(s, "start", CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if first.Diff != nil || first.IsMilestone {
		t.Error("first entry should have no diff and not be a milestone")
	}
	if first.Checkpoint.Fingerprint != Fingerprint(s) || m.CurrentFingerprint() != Fingerprint(s) {
		t.Error("fingerprint not recorded")
	}
	if m.TurnsSinceCheckpoint() != 0 {
		t.Error("turn counter should reset")
	}
	traits := first.Checkpoint.EmergentTraits
	if traits[len(traits)-1] != "pragmatic thinker" {
		t.Errorf("unexpected traits %v", traits)
	}

	s.Values.Curiosity = 1
	if first.Checkpoint.Stance.Values.Curiosity == 1 {
		t.Error("checkpoint aliases caller's stance")
	}

	next := stance.Default()
	next.Values.Empathy += 5
	second, err := m.Create(next, "small step", CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if second.Diff == nil || second.Diff.OverallDrift != 5 {
		t.Fatalf("expected diff with drift 5, got %+v", second.Diff)
	}
	if second.IsMilestone {
		t.Error("a minor change should not be a milestone")
	}
	if second.Checkpoint.ParentID != first.Checkpoint.ID {
		t.Errorf("expected parent %s, got %s", first.Checkpoint.ID, second.Checkpoint.ParentID)
	}

	if _, err := m.Create(nil, "x", CreateOptions{}); !errors.Is(err, ErrNilStance) {
		t.Errorf("expected ErrNilStance, got %v", err)
	}
}

// TestCreateMilestones tests explicit and significance-driven milestones.
func TestCreateMilestones(t *testing.T) {
	m := newTestManager(t, DefaultConfig())
	m.Create(stance.Default(), "base", CreateOptions{})

	labeled, _ := m.Create(stance.Default(), "named", CreateOptions{Milestone: "first contact"})
	if !labeled.IsMilestone || labeled.Checkpoint.Milestone != "first contact" {
		t.Error("labeled checkpoint should be a milestone")
	}

	big := stance.Default()
	big.Sentience.AwarenessLevel += 40
	shift, _ := m.Create(big, "awakening", CreateOptions{})
	if !shift.IsMilestone || shift.Diff.Significance != stance.SignificanceMajor {
		t.Errorf("major drift should be a milestone, got %v %s", shift.IsMilestone, shift.Diff.Significance)
	}

	if got := len(m.Milestones()); got != 2 {
		t.Errorf("expected 2 milestones, got %d", got)
	}
}

// TestPruneKeepsMilestones tests retention never drops a milestone.
func TestPruneKeepsMilestones(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCheckpoints = 3
	m := newTestManager(t, cfg)

	var milestoneIDs []string
	for i := 0; i < 5; i++ {
		e, err := m.Create(stance.Default(), fmt.Sprintf("m%d", i), CreateOptions{Milestone: fmt.Sprintf("mark %d", i)})
		if err != nil {
			t.Fatal(err)
		}
		milestoneIDs = append(milestoneIDs, e.Checkpoint.ID)
	}
	for i := 0; i < 3; i++ {
		m.Create(stance.Default(), fmt.Sprintf("plain%d", i), CreateOptions{})
	}

	if m.Len() != 6 {
		t.Errorf("expected the 5 milestones and the newest entry, got %d", m.Len())
	}
	if latest, ok := m.Latest(); !ok || latest.Name != "plain2" {
		t.Errorf("newest entry not kept: %+v", latest)
	}
	for _, id := range milestoneIDs {
		if _, ok := m.Get(id); !ok {
			t.Errorf("milestone %s was pruned", id)
		}
	}
}

// TestCreateKeepsNewestWhenMilestonesFillCap tests that a checkpoint created
// while milestones fill the cap is stored and matches the current fingerprint.
func TestCreateKeepsNewestWhenMilestonesFillCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCheckpoints = 2
	m := newTestManager(t, cfg)

	m.Create(stance.Default(), "a", CreateOptions{Milestone: "one"})
	m.Create(stance.Default(), "b", CreateOptions{Milestone: "two"})

	st := stance.Default()
	st.Values.Curiosity = 55
	e, err := m.Create(st, "c", CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Get(e.Checkpoint.ID); !ok {
		t.Fatal("new checkpoint was pruned on creation")
	}
	if m.CurrentFingerprint() != e.Checkpoint.Fingerprint {
		t.Error("current fingerprint does not match the stored checkpoint")
	}
	if m.Len() != 3 {
		t.Errorf("expected 3 checkpoints, got %d", m.Len())
	}

	m.Create(stance.Default(), "d", CreateOptions{})
	if _, ok := m.Get(e.Checkpoint.ID); ok {
		t.Error("older non-milestone should give way to the newest")
	}
	if m.Len() != 3 {
		t.Errorf("expected 3 checkpoints, got %d", m.Len())
	}
}

// TestPruneKeepsNewest tests that older non-milestones go first.
func TestPruneKeepsNewest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCheckpoints = 4
	m := newTestManager(t, cfg)

	m.Create(stance.Default(), "plain0", CreateOptions{})
	m.Create(stance.Default(), "keep", CreateOptions{Milestone: "pin"})
	for i := 1; i <= 5; i++ {
		m.Create(stance.Default(), fmt.Sprintf("plain%d", i), CreateOptions{})
	}

	var names []string
	for _, e := range m.Timeline() {
		names = append(names, e.Checkpoint.Name)
	}
	want := []string{"keep", "plain3", "plain4", "plain5"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Errorf("timeline = %v, want %v", names, want)
	}

	if removed := m.Prune(); removed != 0 {
		t.Errorf("second prune removed %d", removed)
	}
}

// TestSetConfigPrunes tests that shrinking the cap prunes immediately.
func TestSetConfigPrunes(t *testing.T) {
	m := newTestManager(t, DefaultConfig())
	for i := 0; i < 6; i++ {
		m.Create(stance.Default(), fmt.Sprintf("c%d", i), CreateOptions{})
	}
	cfg := DefaultConfig()
	cfg.MaxCheckpoints = 2
	if err := m.SetConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 checkpoints, got %d", m.Len())
	}
}

// TestGetDiffFromLast tests ephemeral diffing.
func TestGetDiffFromLast(t *testing.T) {
	m := newTestManager(t, DefaultConfig())
	if _, ok := m.GetDiffFromLast(stance.Default()); ok {
		t.Error("expected no diff on empty timeline")
	}

	m.Create(stance.Default(), "base", CreateOptions{})
	now := stance.Default()
	now.Values.Risk += 12
	d, ok := m.GetDiffFromLast(now)
	if !ok || d.OverallDrift != 12 || d.Significance != stance.SignificanceModerate {
		t.Errorf("unexpected diff %+v (%v)", d, ok)
	}
	if m.Len() != 1 {
		t.Error("GetDiffFromLast should not store anything")
	}
}

// TestShouldAutoCheckpoint tests the interval trigger.
func TestShouldAutoCheckpoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Interval = 3
	m := newTestManager(t, cfg)

	for i := 0; i < 2; i++ {
		m.RecordTurn()
	}
	if m.ShouldAutoCheckpoint() {
		t.Error("should not trigger before the interval")
	}
	m.RecordTurn()
	if !m.ShouldAutoCheckpoint() {
		t.Error("should trigger at the interval")
	}

	cfg.Enabled = false
	m.SetConfig(cfg)
	if m.ShouldAutoCheckpoint() {
		t.Error("disabled manager should never trigger")
	}
}

// TestFingerprintLookup tests FindByFingerprint and FingerprintMatches.
func TestFingerprintLookup(t *testing.T) {
	m := newTestManager(t, DefaultConfig())
	if m.FingerprintMatches(stance.Default()) {
		t.Error("no checkpoint yet, nothing should match")
	}

	m.Create(stance.Default(), "a", CreateOptions{})
	other := stance.Default()
	other.Frame = stance.FrameMythic
	m.Create(other, "b", CreateOptions{})
	m.Create(stance.Default(), "c", CreateOptions{})

	found := m.FindByFingerprint(Fingerprint(stance.Default()))
	if len(found) != 2 || found[0].Name != "a" || found[1].Name != "c" {
		t.Errorf("unexpected matches %v", found)
	}
	if len(m.FindByFingerprint("nope")) != 0 {
		t.Error("unknown fingerprint should not match")
	}

	near := stance.Default()
	near.Values.Curiosity += 2
	if !m.FingerprintMatches(near) {
		t.Error("a within-bucket change should match the current fingerprint")
	}
	if m.FingerprintMatches(other) {
		t.Error("mythic stance should not match the current fingerprint")
	}
}

// TestStanceAt tests rollback lookup.
func TestStanceAt(t *testing.T) {
	m := newTestManager(t, DefaultConfig())
	s := stance.Default()
	s.Frame = stance.FrameStoic
	e, _ := m.Create(s, "stoic", CreateOptions{})

	got, err := m.StanceAt(e.Checkpoint.ID)
	if err != nil || got.Frame != stance.FrameStoic {
		t.Errorf("StanceAt = %v, %v", got, err)
	}
	if _, err := m.StanceAt("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	latest, ok := m.Latest()
	if !ok || latest.ID != e.Checkpoint.ID {
		t.Error("Latest should return the stoic checkpoint")
	}
}

// TestExportImport tests state round trip.
func TestExportImport(t *testing.T) {
	m := newTestManager(t, DefaultConfig())
	m.AddCoreValue("honesty", "say what is true")
	m.Create(stance.Default(), "a", CreateOptions{Milestone: "origin"})
	m.RecordTurn()

	data, err := json.Marshal(m.Export())
	if err != nil {
		t.Fatal(err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatal(err)
	}

	restored := newTestManager(t, DefaultConfig())
	if err := restored.Import(st); err != nil {
		t.Fatal(err)
	}
	if restored.Len() != 1 || len(restored.CoreValues()) != 1 || restored.TurnsSinceCheckpoint() != 1 {
		t.Error("state not fully restored")
	}
	if restored.CurrentFingerprint() != m.CurrentFingerprint() {
		t.Error("fingerprint lost")
	}
	if len(restored.Milestones()) != 1 {
		t.Error("milestone flag lost")
	}

	if err := restored.Import(State{Timeline: []*TimelineEntry{{}}}); err == nil {
		t.Error("expected error for incomplete entry")
	}
}

// TestCheckpointsReturnsCopies tests that callers cannot reach stored checkpoints.
func TestCheckpointsReturnsCopies(t *testing.T) {
	m := newTestManager(t, DefaultConfig())
	m.Create(stance.Default(), "first", CreateOptions{})
	m.Create(stance.Default(), "second", CreateOptions{})

	cps := m.Checkpoints()
	if len(cps) != 2 || cps[0].Name != "first" || cps[1].Name != "second" {
		t.Fatalf("unexpected checkpoints: %+v", cps)
	}
	cps[0].Name = "changed"
	cps[0].Stance.Frame = stance.FrameMythic

	again := m.Checkpoints()
	if again[0].Name != "first" || again[0].Stance.Frame == stance.FrameMythic {
		t.Error("stored checkpoint was mutated through a copy")
	}
}
