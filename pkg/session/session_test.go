package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genecyber/NOESIS-sub002/branch"
	"github.com/genecyber/NOESIS-sub002/identity"
	"github.com/genecyber/NOESIS-sub002/pkg/config"
	nerrors "github.com/genecyber/NOESIS-sub002/pkg/errors"
	"github.com/genecyber/NOESIS-sub002/pkg/metrics"
	"github.com/genecyber/NOESIS-sub002/stance"
)

func testOptions() []Option {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	seq := 0
	return []Option{
		WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%03d", seq)
		}),
	}
}

func newTestSession(t *testing.T, mutate func(*config.Config), opts ...Option) *Session {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	s, err := New("test", cfg, append(testOptions(), opts...)...)
	require.NoError(t, err)
	return s
}

func userTurn(content string) branch.Message {
	return branch.NewMessage(branch.RoleUser, content)
}

func TestNew(t *testing.T) {
	s := newTestSession(t, nil)

	root := s.Branches.Root()
	require.NotNil(t, root)
	assert.Equal(t, "main", root.Name)
	assert.Equal(t, root.ID, s.Branches.ActiveID())
	assert.Equal(t, stance.FramePragmatic, root.Stance.Frame)
	assert.NotEmpty(t, s.ID)

	status := s.Status()
	assert.Equal(t, "main", status.ActiveBranch)
	assert.Equal(t, 0, status.Messages)
	assert.Equal(t, 1, status.Branches)
}

func TestRecordTurn(t *testing.T) {
	s := newTestSession(t, nil)

	st := stance.Default()
	st.Frame = stance.FramePoetic
	st.Values.Curiosity = 90

	auto, err := s.RecordTurn(userTurn("hello"), st)
	require.NoError(t, err)
	assert.Nil(t, auto)

	active := s.Branches.Active()
	require.Len(t, active.Messages, 1)
	require.NotNil(t, active.Messages[0].Stance, "stance should be recorded on the message")
	assert.Equal(t, stance.FramePoetic, active.Stance.Frame)
	assert.Equal(t, 1, active.Metadata.FrameChanges)
	assert.Equal(t, 1, s.Identity.TurnsSinceCheckpoint())

	_, err = s.RecordTurn(userTurn("plain"), nil)
	require.NoError(t, err)
	assert.Equal(t, stance.FramePoetic, s.Branches.Active().Stance.Frame)
}

func TestRecordTurn_InvalidMessage(t *testing.T) {
	s := newTestSession(t, nil)

	_, err := s.RecordTurn(branch.Message{Role: "narrator", Content: "x"}, nil)
	require.Error(t, err)
	assert.True(t, nerrors.IsCode(nerrors.FromCore(err), nerrors.ErrValidationFailed))
	assert.Equal(t, 0, s.Identity.TurnsSinceCheckpoint())
}

func TestRecordTurn_InvalidStanceLeavesBranchUntouched(t *testing.T) {
	s := newTestSession(t, nil)

	bad := stance.Default()
	bad.Values.Curiosity = 500

	_, err := s.RecordTurn(userTurn("hello").WithStance(stance.Default()), bad)
	require.Error(t, err)
	assert.True(t, nerrors.IsCode(nerrors.FromCore(err), nerrors.ErrValidationFailed))

	active := s.Branches.Active()
	assert.Empty(t, active.Messages)
	assert.Equal(t, stance.Default().Values.Curiosity, active.Stance.Values.Curiosity)
	assert.Equal(t, 0, s.Identity.TurnsSinceCheckpoint())
}

func TestRecordTurn_StanceReplacesMessageStance(t *testing.T) {
	s := newTestSession(t, nil)

	st := stance.Default()
	st.Frame = stance.FrameMythic

	_, err := s.RecordTurn(userTurn("hello").WithStance(stance.Default()), st)
	require.NoError(t, err)

	active := s.Branches.Active()
	require.Len(t, active.Messages, 1)
	require.NotNil(t, active.Messages[0].Stance)
	assert.Equal(t, stance.FrameMythic, active.Messages[0].Stance.Frame)

	fork, err := s.Fork("alt", 0, "")
	require.NoError(t, err)
	assert.Equal(t, stance.FrameMythic, fork.Stance.Frame)
	assert.False(t, fork.BranchPoint.StanceInferred)
}

func TestRecordTurn_AutoCheckpoint(t *testing.T) {
	s := newTestSession(t, func(c *config.Config) { c.Identity.Interval = 2 })

	auto, err := s.RecordTurn(userTurn("one"), nil)
	require.NoError(t, err)
	assert.Nil(t, auto)

	auto, err = s.RecordTurn(userTurn("two"), nil)
	require.NoError(t, err)
	require.NotNil(t, auto)
	assert.Equal(t, "auto-1", auto.Checkpoint.Name)
	assert.Equal(t, 1, s.Identity.Len())
	assert.Equal(t, 0, s.Identity.TurnsSinceCheckpoint())
}

func TestRecordTurn_AutoCheckpointDisabled(t *testing.T) {
	s := newTestSession(t, func(c *config.Config) {
		c.Identity.Interval = 1
		c.Identity.Enabled = false
	})

	for i := 0; i < 3; i++ {
		auto, err := s.RecordTurn(userTurn("turn"), nil)
		require.NoError(t, err)
		assert.Nil(t, auto)
	}
	assert.Equal(t, 0, s.Identity.Len())
}

func TestBranchOperations(t *testing.T) {
	var events []Event
	s := newTestSession(t, nil, WithListener(func(e Event) { events = append(events, e) }))

	for _, text := range []string{"a", "b", "c"} {
		_, err := s.RecordTurn(userTurn(text), nil)
		require.NoError(t, err)
	}

	alt, err := s.Fork("alt", 1, "try another angle")
	require.NoError(t, err)
	assert.Len(t, alt.Messages, 2)
	assert.Equal(t, "try another angle", alt.BranchPoint.Reason)

	now, err := s.Fork("", -1, "")
	require.NoError(t, err)
	assert.Equal(t, "main@2", now.Name)

	switched, err := s.Switch("alt")
	require.NoError(t, err)
	assert.Equal(t, alt.ID, switched.ID)
	assert.Equal(t, alt.ID, s.Branches.ActiveID())

	_, err = s.Archive("alt")
	require.NoError(t, err)
	assert.Equal(t, s.Branches.RootID(), s.Branches.ActiveID(), "activity should fall back to the parent")

	_, err = s.Switch("alt")
	assert.True(t, errors.Is(err, branch.ErrBranchArchived))

	_, err = s.Restore(alt.ID)
	require.NoError(t, err)

	_, err = s.Delete("alt")
	assert.True(t, errors.Is(err, branch.ErrNotArchived))

	_, err = s.Archive("alt")
	require.NoError(t, err)
	deleted, err := s.Delete("alt")
	require.NoError(t, err)
	assert.Equal(t, alt.ID, deleted.ID)

	_, err = s.Resolve("alt")
	assert.True(t, errors.Is(err, branch.ErrBranchNotFound))

	var types []string
	for _, e := range events {
		if e.Type != EventTurnRecorded {
			types = append(types, e.Type)
		}
		assert.Equal(t, s.ID, e.SessionID)
	}
	assert.Equal(t, []string{
		EventBranchCreated,
		EventBranchCreated,
		EventBranchSwitched,
		EventBranchArchived,
		EventBranchRestored,
		EventBranchArchived,
		EventBranchDeleted,
	}, types)
}

func TestMergeAndCompare(t *testing.T) {
	s := newTestSession(t, nil)

	for _, text := range []string{"a", "b"} {
		_, err := s.RecordTurn(userTurn(text), nil)
		require.NoError(t, err)
	}
	_, err := s.Fork("alt", 1, "")
	require.NoError(t, err)
	_, err = s.Switch("alt")
	require.NoError(t, err)

	st := stance.Default()
	st.Frame = stance.FrameMythic
	_, err = s.RecordTurn(userTurn("c"), st)
	require.NoError(t, err)

	cmp, err := s.Compare("main", "alt")
	require.NoError(t, err)
	assert.Equal(t, 1, cmp.CommonAncestorIndex)
	assert.True(t, cmp.FrameDiffers)

	result, err := s.Merge("main", "alt", branch.Resolutions{branch.FieldFrame: branch.SideSource})
	require.NoError(t, err)
	assert.Equal(t, "main+alt", result.Branch.Name)
	assert.Equal(t, stance.FrameMythic, result.Branch.Stance.Frame)
	assert.Len(t, result.Branch.Messages, 3)
	assert.Equal(t, "[merged from alt] c", result.Branch.Messages[2].Content)
	assert.Equal(t, 0, result.ManualRequired)
}

func TestTravelAndRewind(t *testing.T) {
	s := newTestSession(t, nil)

	st := stance.Default()
	st.Objective = stance.ObjectiveSynthesis
	_, err := s.RecordTurn(userTurn("first"), st)
	require.NoError(t, err)
	_, err = s.RecordTurn(userTurn("second"), stance.Default())
	require.NoError(t, err)

	snap, err := s.Travel("main", 0)
	require.NoError(t, err)
	assert.Equal(t, stance.ObjectiveSynthesis, snap.Stance.Objective)
	assert.False(t, snap.StanceInferred)

	b, err := s.Rewind(snap.ID, "past")
	require.NoError(t, err)
	assert.Equal(t, "past", b.Name)
	assert.Len(t, b.Messages, 1)
	assert.Equal(t, stance.ObjectiveSynthesis, b.Stance.Objective)
	assert.Equal(t, s.Branches.RootID(), s.Branches.ActiveID(), "rewind must not switch branches")

	_, err = s.Travel("main", 5)
	assert.True(t, errors.Is(err, branch.ErrIndexOutOfRange))
}

func TestForgetSnapshot(t *testing.T) {
	s := newTestSession(t, nil)
	_, err := s.RecordTurn(userTurn("first"), nil)
	require.NoError(t, err)

	snap, err := s.Travel("main", 0)
	require.NoError(t, err)
	require.NoError(t, s.ForgetSnapshot(snap.ID))
	assert.Empty(t, s.TimeTravel().Snapshots())

	err = s.ForgetSnapshot(snap.ID)
	assert.True(t, errors.Is(err, branch.ErrSnapshotNotFound))
	_, err = s.Rewind(snap.ID, "late")
	assert.True(t, errors.Is(err, branch.ErrSnapshotNotFound))
}

func TestDecayCoreValues(t *testing.T) {
	s := newTestSession(t, nil)
	_, _, err := s.Identity.AddCoreValueWithStrength("anchor", "hold steady", 90)
	require.NoError(t, err)
	_, _, err = s.Identity.AddCoreValueWithStrength("whim", "passing fancy", 40)
	require.NoError(t, err)

	dropped, err := s.DecayCoreValues(20)
	require.NoError(t, err)
	assert.Equal(t, []string{"whim"}, dropped)

	values := s.Identity.CoreValues()
	require.Len(t, values, 1)
	assert.Equal(t, "anchor", values[0].Name)
	assert.InDelta(t, 70, values[0].Strength, 0.001)

	_, err = s.DecayCoreValues(-5)
	require.Error(t, err)
	assert.True(t, nerrors.IsCode(nerrors.FromCore(err), nerrors.ErrValidationFailed))
}

func TestCheckpoint(t *testing.T) {
	m := metrics.New()
	s := newTestSession(t, nil, WithMetrics(m))

	entry, err := s.Checkpoint("start", "")
	require.NoError(t, err)
	assert.False(t, entry.IsMilestone)

	entry, err = s.Checkpoint("named", "first milestone")
	require.NoError(t, err)
	assert.True(t, entry.IsMilestone)
	assert.Equal(t, "first milestone", entry.Checkpoint.Milestone)

	assert.Equal(t, 2, s.Identity.Len())
	assert.Equal(t, entry.Checkpoint.Fingerprint, s.Status().Fingerprint)
}

func TestRollback(t *testing.T) {
	s := newTestSession(t, nil)

	entry, err := s.Checkpoint("before", "")
	require.NoError(t, err)

	shifted := s.Branches.Active().Stance.Clone()
	shifted.Frame = stance.FrameStoic
	require.NoError(t, s.SetStance(shifted))
	assert.Equal(t, stance.FrameStoic, s.Branches.Active().Stance.Frame)

	st, err := s.Rollback(entry.Checkpoint.ID)
	require.NoError(t, err)
	assert.Equal(t, stance.FramePragmatic, st.Frame)
	assert.Equal(t, stance.FramePragmatic, s.Branches.Active().Stance.Frame)
	assert.Equal(t, 2, s.Branches.Active().Metadata.FrameChanges)
	assert.Equal(t, 1, s.Identity.Len(), "rollback leaves the timeline alone")

	_, err = s.Rollback("missing")
	assert.True(t, errors.Is(err, identity.ErrNotFound))
}

func TestRecordRoundTrip(t *testing.T) {
	s := newTestSession(t, func(c *config.Config) { c.Identity.Interval = 2 })

	for _, text := range []string{"a", "b", "c"} {
		_, err := s.RecordTurn(userTurn(text), nil)
		require.NoError(t, err)
	}
	_, err := s.Fork("alt", 0, "")
	require.NoError(t, err)
	_, _, err = s.Identity.AddCoreValue("honesty", "say what is true")
	require.NoError(t, err)

	data, err := s.Record().Marshal()
	require.NoError(t, err)

	rec, err := UnmarshalRecord(data)
	require.NoError(t, err)

	restored, err := FromRecord(rec, config.Default())
	require.NoError(t, err)

	assert.Equal(t, s.ID, restored.ID)
	assert.Equal(t, s.Name, restored.Name)
	assert.Equal(t, s.Branches.ActiveID(), restored.Branches.ActiveID())
	assert.Equal(t, s.Branches.Len(), restored.Branches.Len())
	assert.Equal(t, s.Identity.Len(), restored.Identity.Len())
	assert.Equal(t, 2, restored.Identity.Config().Interval)
	assert.Len(t, restored.Identity.CoreValues(), 1)
	assert.Len(t, restored.Branches.Active().Messages, 3)

	_, err = FromRecord(&Record{}, nil)
	assert.Error(t, err)
}
