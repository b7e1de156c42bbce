package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/genecyber/NOESIS-sub002/branch"
	"github.com/genecyber/NOESIS-sub002/identity"
	nerrors "github.com/genecyber/NOESIS-sub002/pkg/errors"
	"github.com/genecyber/NOESIS-sub002/pkg/export"
	"github.com/genecyber/NOESIS-sub002/pkg/help"
	"github.com/genecyber/NOESIS-sub002/stance"
)

const defaultHistory = 10

// -----------------------------------------------------------------------------
// Conversation & stance
// -----------------------------------------------------------------------------

func (s *Shell) cmdStatus() error {
	st := s.sess.Status()
	box := help.NewBox(52)
	const keyWidth = 14

	s.println(box.Top())
	s.println(box.Row(" " + s.paint(color.Bold, color.FgCyan)("NOESIS session")))
	s.println(box.Mid())
	s.println(box.KeyValue("Session", fmt.Sprintf("%s (%s)", st.Name, shortID(st.ID)), keyWidth))
	s.println(box.KeyValue("Branch", fmt.Sprintf("%s (%s)", st.ActiveBranch, shortID(st.ActiveBranchID)), keyWidth))
	s.println(box.KeyValue("Messages", strconv.Itoa(st.Messages), keyWidth))
	s.println(box.KeyValue("Frame", string(st.Frame), keyWidth))
	s.println(box.KeyValue("Branches", strconv.Itoa(st.Branches), keyWidth))
	s.println(box.KeyValue("Checkpoints", strconv.Itoa(st.Checkpoints), keyWidth))
	s.println(box.KeyValue("Since last", fmt.Sprintf("%d turns", st.TurnsSinceCheckpoint), keyWidth))
	fp := st.Fingerprint
	if fp == "" {
		fp = "none"
	}
	s.println(box.KeyValue("Fingerprint", fp, keyWidth))
	s.println(box.Bottom())
	return nil
}

func (s *Shell) cmdStance() error {
	st := s.sess.Branches.Active().Stance
	bold := s.paint(color.Bold)
	dim := s.paint(color.FgHiBlack)

	s.printf("%s %s %s\n", bold("Frame:     "), st.Frame, dim("("+st.Frame.Description()+")"))
	s.printf("%s %s\n", bold("Self model:"), st.SelfModel)
	s.printf("%s %s\n", bold("Objective: "), st.Objective)
	s.printf("%s\n", bold("Values:"))
	for _, d := range stance.Dimensions {
		v := st.Values.Get(d)
		s.printf("  %-12s %5.1f %s\n", d, v, s.paint(color.FgCyan)(bar(v)))
	}
	s.printf("%s awareness %.0f, autonomy %.0f, identity %.0f\n", bold("Sentience:"),
		st.Sentience.AwarenessLevel, st.Sentience.AutonomyLevel, st.Sentience.IdentityStrength)
	if len(st.Sentience.EmergentGoals) > 0 {
		s.printf("%s %s\n", bold("Goals:    "), strings.Join(st.Sentience.EmergentGoals, ", "))
	}
	s.printf("%s\n", dim(fmt.Sprintf("version %d, cumulative drift %.1f", st.Version, st.CumulativeDrift)))
	return nil
}

func bar(v float64) string {
	n := int(v / 5)
	if n < 0 {
		n = 0
	}
	if n > 20 {
		n = 20
	}
	return strings.Repeat("█", n)
}

func (s *Shell) cmdSet(args []string) error {
	if len(args) < 2 {
		return usageError("/set")
	}
	dim, ok := stance.ParseDimension(args[0])
	if !ok {
		return invalidArg(args[0], "unknown dimension")
	}
	v, err := strconv.ParseFloat(args[1], 64)
	if err != nil || v < 0 || v > 100 {
		return invalidArg(args[1], "value must be a number between 0 and 100")
	}

	next := s.sess.Branches.Active().Stance.Clone()
	old := next.Values.Get(dim)
	next.Values.Set(dim, v)
	next.Version++
	if err := s.sess.SetStance(next); err != nil {
		return err
	}
	s.printf("%s: %.1f → %.1f\n", dim, old, v)
	return nil
}

func (s *Shell) cmdFrame(args []string) error {
	if len(args) < 1 {
		return usageError("/frame")
	}
	f, ok := stance.ParseFrame(args[0])
	if !ok {
		return invalidArg(args[0], "unknown frame").
			WithSuggestion("Frames: " + joinFrames())
	}

	next := s.sess.Branches.Active().Stance.Clone()
	if next.Frame == f {
		s.printf("Already in the %s frame.\n", f)
		return nil
	}
	old := next.Frame
	next.Frame = f
	next.Version++
	next.TurnsSinceLastShift = 0
	if err := s.sess.SetStance(next); err != nil {
		return err
	}
	s.printf("Frame: %s → %s\n", old, f)
	return nil
}

func joinFrames() string {
	names := make([]string, len(stance.Frames))
	for i, f := range stance.Frames {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func (s *Shell) cmdHistory(args []string) error {
	n := defaultHistory
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return invalidArg(args[0], "count must be a positive integer")
		}
		n = v
	}

	active := s.sess.Branches.Active()
	if len(active.Messages) == 0 {
		s.printf("No messages on %s yet.\n", active.Name)
		return nil
	}
	start := len(active.Messages) - n
	if start < 0 {
		start = 0
	}
	dim := s.paint(color.FgHiBlack)
	for i := start; i < len(active.Messages); i++ {
		msg := active.Messages[i]
		s.printf("%s %-9s %s\n", dim(fmt.Sprintf("[%d]", i)), string(msg.Role)+":", help.Truncate(msg.Content, 64))
	}
	return nil
}

func (s *Shell) cmdDiff() error {
	active := s.sess.Branches.Active()
	d, ok := s.sess.Identity.GetDiffFromLast(active.Stance)
	if !ok {
		s.println("No checkpoints yet. Use /checkpoint <name> first.")
		return nil
	}
	s.printDelta(d)
	return nil
}

func (s *Shell) printDelta(d stance.Delta) {
	if d.IsEmpty() {
		s.println("No change.")
		return
	}
	if d.FrameChanged {
		s.printf("  frame       %s → %s\n", d.FromFrame, d.ToFrame)
	}
	if d.SelfModelChanged {
		s.println("  self model changed")
	}
	if d.ObjectiveChanged {
		s.println("  objective changed")
	}
	for _, dim := range stance.Dimensions {
		if v, ok := d.ValueDrift[dim]; ok {
			s.printf("  %-11s %+.1f\n", dim, v)
		}
	}
	for _, m := range []struct {
		name  string
		delta float64
	}{
		{"awareness", d.AwarenessDelta},
		{"autonomy", d.AutonomyDelta},
		{"identity", d.IdentityDelta},
	} {
		if m.delta != 0 {
			s.printf("  %-11s %+.1f\n", m.name, m.delta)
		}
	}
	if len(d.GoalsAdded) > 0 {
		s.printf("  goals +     %s\n", strings.Join(d.GoalsAdded, ", "))
	}
	if len(d.GoalsRemoved) > 0 {
		s.printf("  goals -     %s\n", strings.Join(d.GoalsRemoved, ", "))
	}
	s.printf("  drift       %.2f (%s)\n", d.OverallDrift, s.significance(d.Significance))
}

func (s *Shell) significance(sig stance.Significance) string {
	if sig.IsMajor() {
		return s.paint(color.FgYellow, color.Bold)(sig.String())
	}
	return sig.String()
}

// -----------------------------------------------------------------------------
// Branching
// -----------------------------------------------------------------------------

func (s *Shell) cmdBranch(args []string) error {
	if len(args) < 1 {
		return usageError("/branch")
	}
	name := args[0]
	index := -1
	reason := args[1:]
	if len(reason) > 0 {
		if n, err := strconv.Atoi(reason[0]); err == nil {
			index = n
			reason = reason[1:]
		}
	}

	b, err := s.sess.Fork(name, index, strings.Join(reason, " "))
	if err != nil {
		return err
	}
	s.printf("Created branch %s at message %d. Use /switch %s to continue there.\n",
		b.Name, b.BranchPoint.MessageIndex, b.Name)
	return nil
}

func (s *Shell) cmdBranches() error {
	activeID := s.sess.Branches.ActiveID()
	dim := s.paint(color.FgHiBlack)
	for _, b := range s.sess.Branches.List(true) {
		marker := " "
		name := b.Name
		if b.ID == activeID {
			marker = s.paint(color.FgGreen)("*")
			name = s.paint(color.Bold)(b.Name)
		}
		line := fmt.Sprintf("%s %s %s %3d msgs  %s", marker, help.PadRight(name, 18), dim(shortID(b.ID)), len(b.Messages), b.Stance.Frame)
		if b.Archived {
			line += dim(" (archived)")
		}
		s.println(line)
	}
	return nil
}

func (s *Shell) cmdSwitch(args []string) error {
	if len(args) < 1 {
		return usageError("/switch")
	}
	b, err := s.sess.Switch(args[0])
	if err != nil {
		return err
	}
	s.printf("Switched to %s (%d messages, %s frame).\n", b.Name, len(b.Messages), b.Stance.Frame)
	return nil
}

func (s *Shell) cmdCompare(args []string) error {
	if len(args) < 2 {
		return usageError("/compare")
	}
	cmp, err := s.sess.Compare(args[0], args[1])
	if err != nil {
		return err
	}

	s.printf("Comparing %s ↔ %s\n", args[0], args[1])
	if cmp.CommonAncestorIndex < 0 {
		s.println("  Common ancestor:  none")
	} else {
		s.printf("  Common ancestor:  message %d\n", cmp.CommonAncestorIndex)
	}
	s.printf("  Message delta:    %+d\n", cmp.MessageCountDelta)
	s.printf("  Frame:            %s → %s%s\n", cmp.Frames[0], cmp.Frames[1], differs(cmp.FrameDiffers))
	s.printf("  Self model:       %s → %s%s\n", cmp.SelfModels[0], cmp.SelfModels[1], differs(cmp.SelfModelDiffers))
	s.printf("  Drift:            %.2f (%s)\n", cmp.StanceDelta.OverallDrift, s.significance(cmp.StanceDelta.Significance))
	if !cmp.DivergedAt.IsZero() {
		s.printf("  Diverged at:      %s\n", cmp.DivergedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func differs(d bool) string {
	if d {
		return " (differs)"
	}
	return ""
}

// parseResolutions reads field=side pairs such as frame=source.
func parseResolutions(args []string) (branch.Resolutions, error) {
	res := branch.Resolutions{}
	for _, arg := range args {
		key, val, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, invalidArg(arg, "expected field=side")
		}
		var field branch.ConflictField
		switch strings.ToLower(key) {
		case "frame":
			field = branch.FieldFrame
		case "selfmodel", "self_model", "self-model":
			field = branch.FieldSelfModel
		default:
			return nil, invalidArg(key, "only frame and selfmodel can be resolved")
		}
		side := branch.Side(strings.ToLower(val))
		if !side.IsValid() {
			return nil, invalidArg(val, "side must be target, source or manual")
		}
		res[field] = side
	}
	return res, nil
}

func (s *Shell) cmdMerge(args []string) error {
	if len(args) < 1 {
		return usageError("/merge")
	}
	res, err := parseResolutions(args[1:])
	if err != nil {
		return err
	}

	result, err := s.sess.Merge(s.sess.Branches.ActiveID(), args[0], res)
	if err != nil {
		return err
	}

	s.printf("Merged into new branch %s (%s), %d messages.\n",
		result.Branch.Name, shortID(result.Branch.ID), len(result.Branch.Messages))
	for _, c := range result.Conflicts {
		note := ""
		if c.Resolution == branch.SideManual {
			note = s.paint(color.FgYellow)(" needs review")
		}
		s.printf("  %-10s target=%s source=%s → %s%s\n", c.Field, c.TargetValue, c.SourceValue, c.Resolution, note)
	}
	if result.AutoResolved > 0 {
		s.printf("  averaged %d value weight(s)\n", result.AutoResolved)
	}
	s.printf("Use /switch %s to continue on the merged branch.\n", result.Branch.Name)
	return nil
}

func (s *Shell) cmdArchive(args []string) error {
	if len(args) < 1 {
		return usageError("/archive")
	}
	b, err := s.sess.Archive(args[0])
	if err != nil {
		return err
	}
	s.printf("Archived %s. Active branch: %s.\n", b.Name, s.sess.Branches.Active().Name)
	return nil
}

func (s *Shell) cmdUnarchive(args []string) error {
	if len(args) < 1 {
		return usageError("/unarchive")
	}
	b, err := s.sess.Restore(args[0])
	if err != nil {
		return err
	}
	s.printf("Restored %s.\n", b.Name)
	return nil
}

func (s *Shell) cmdDelete(args []string) error {
	if len(args) < 1 {
		return usageError("/delete")
	}
	b, err := s.sess.Delete(args[0])
	if err != nil {
		return err
	}
	s.printf("Deleted %s.\n", b.Name)
	return nil
}

func (s *Shell) cmdTree() error {
	root := s.sess.Branches.Tree()
	if root == nil {
		s.println("No branches.")
		return nil
	}
	dim := s.paint(color.FgHiBlack)
	root.Walk(func(n *branch.TreeNode) {
		prefix := ""
		if n.Depth > 0 {
			prefix = strings.Repeat("  ", n.Depth-1) + help.BoxTeeLeft + help.BoxHorizontal + " "
		}
		name := n.Name
		if n.IsActive {
			name = s.paint(color.FgGreen, color.Bold)(n.Name + " *")
		}
		detail := fmt.Sprintf("%d msgs, %s", n.MessageCount, n.Frame)
		if n.Depth > 0 {
			detail += fmt.Sprintf(", from #%d", n.BranchIndex)
		}
		s.printf("%s%s %s\n", prefix, name, dim("("+detail+")"))
	})
	return nil
}

// -----------------------------------------------------------------------------
// Time travel
// -----------------------------------------------------------------------------

func (s *Shell) cmdTravel(args []string) error {
	if len(args) < 2 {
		return usageError("/travel")
	}
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		return invalidArg(args[1], "index must be an integer")
	}
	snap, err := s.sess.Travel(args[0], idx)
	if err != nil {
		return err
	}

	s.printf("Snapshot %s of %s at message %d (%s frame).\n",
		shortID(snap.ID), args[0], snap.MessageIndex, snap.Stance.Frame)
	if snap.StanceInferred {
		s.println(s.paint(color.FgHiBlack)("  no stance was recorded on that message; the branch's current stance was used"))
	}
	s.printf("Use /rewind %s <name> to branch from it.\n", shortID(snap.ID))
	return nil
}

func (s *Shell) cmdRewind(args []string) error {
	if len(args) < 2 {
		return usageError("/rewind")
	}
	id, err := s.resolveSnapshot(args[0])
	if err != nil {
		return err
	}
	b, err := s.sess.Rewind(id, args[1])
	if err != nil {
		return err
	}
	s.printf("Created branch %s from message %d. Use /switch %s to continue there.\n",
		b.Name, b.BranchPoint.MessageIndex, b.Name)
	return nil
}

func (s *Shell) cmdForget(args []string) error {
	if len(args) < 1 {
		return usageError("/forget")
	}
	id, err := s.resolveSnapshot(args[0])
	if err != nil {
		return err
	}
	if err := s.sess.ForgetSnapshot(id); err != nil {
		return err
	}
	s.printf("Forgot snapshot %s.\n", shortID(id))
	return nil
}

// resolveSnapshot accepts a full snapshot id or a unique prefix.
func (s *Shell) resolveSnapshot(ref string) (string, error) {
	tt := s.sess.TimeTravel()
	if _, ok := tt.Snapshot(ref); ok {
		return ref, nil
	}
	var ids []string
	for _, snap := range tt.Snapshots() {
		ids = append(ids, snap.ID)
	}
	return matchPrefix(ref, ids, branch.ErrSnapshotNotFound)
}

func matchPrefix(ref string, ids []string, notFound error) (string, error) {
	var match string
	for _, id := range ids {
		if !strings.HasPrefix(id, ref) {
			continue
		}
		if match != "" {
			return "", invalidArg(ref, "prefix matches more than one id")
		}
		match = id
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", notFound, ref)
	}
	return match, nil
}

// -----------------------------------------------------------------------------
// Identity checkpoints
// -----------------------------------------------------------------------------

func (s *Shell) cmdCheckpoint(args []string) error {
	var nameParts, labelParts []string
	milestone := false
	for _, a := range args {
		if a == "--milestone" {
			milestone = true
			continue
		}
		if milestone {
			labelParts = append(labelParts, a)
		} else {
			nameParts = append(nameParts, a)
		}
	}
	if len(nameParts) == 0 || (milestone && len(labelParts) == 0) {
		return usageError("/checkpoint")
	}

	entry, err := s.sess.Checkpoint(strings.Join(nameParts, " "), strings.Join(labelParts, " "))
	if err != nil {
		return err
	}
	cp := entry.Checkpoint
	s.printf("%s checkpoint %s (%s) %s\n",
		s.paint(color.FgGreen)("✓"), cp.Name, shortID(cp.ID), s.paint(color.FgHiBlack)(cp.Fingerprint))
	if entry.Diff != nil {
		s.printf("  drift %.2f (%s)\n", entry.Diff.OverallDrift, s.significance(entry.Diff.Significance))
	}
	if entry.IsMilestone {
		label := cp.Milestone
		if label == "" {
			label = "major shift"
		}
		s.printf("  %s milestone: %s\n", s.paint(color.FgYellow)("★"), label)
	}
	return nil
}

func (s *Shell) cmdTimeline() error {
	entries := s.sess.Identity.Timeline()
	if len(entries) == 0 {
		s.println("No checkpoints yet.")
		return nil
	}
	dim := s.paint(color.FgHiBlack)
	star := s.paint(color.FgYellow)("★")
	for _, e := range entries {
		cp := e.Checkpoint
		drift := "      -"
		if e.Diff != nil {
			drift = fmt.Sprintf("%7.2f %s", e.Diff.OverallDrift, e.Diff.Significance)
		}
		mark := " "
		if e.IsMilestone {
			mark = star
		}
		line := fmt.Sprintf("%s %s %s %s %s", mark, dim(shortID(cp.ID)), cp.Timestamp.Format("15:04:05"),
			help.PadRight(cp.Name, 16), drift)
		if cp.Milestone != "" {
			line += " " + dim("["+cp.Milestone+"]")
		}
		s.println(line)
	}
	return nil
}

func (s *Shell) cmdRollback(args []string) error {
	if len(args) < 1 {
		return usageError("/rollback")
	}
	id, err := s.resolveCheckpoint(args[0])
	if err != nil {
		return err
	}
	st, err := s.sess.Rollback(id)
	if err != nil {
		return err
	}
	cp, _ := s.sess.Identity.Get(id)
	s.printf("Stance restored from checkpoint %s (%s frame).\n", cp.Name, st.Frame)
	return nil
}

// resolveCheckpoint accepts a full checkpoint id or a unique prefix.
func (s *Shell) resolveCheckpoint(ref string) (string, error) {
	if _, ok := s.sess.Identity.Get(ref); ok {
		return ref, nil
	}
	var ids []string
	for _, e := range s.sess.Identity.Timeline() {
		ids = append(ids, e.Checkpoint.ID)
	}
	return matchPrefix(ref, ids, identity.ErrNotFound)
}

func (s *Shell) cmdFingerprint() error {
	live := identity.Fingerprint(s.sess.Branches.Active().Stance)
	current := s.sess.Identity.CurrentFingerprint()

	s.printf("Live:       %s\n", live)
	if current == "" {
		s.println("Checkpoint: none")
		return nil
	}
	s.printf("Checkpoint: %s\n", current)
	if s.sess.Identity.FingerprintMatches(s.sess.Branches.Active().Stance) {
		s.println(s.paint(color.FgGreen)("Identity unchanged since the last checkpoint."))
	} else {
		s.println(s.paint(color.FgYellow)("Identity has shifted since the last checkpoint."))
	}
	if traits := identity.Traits(s.sess.Branches.Active().Stance); len(traits) > 0 {
		s.printf("Traits:     %s\n", strings.Join(traits, ", "))
	}
	return nil
}

func (s *Shell) cmdValues() error {
	values := s.sess.Identity.CoreValues()
	if len(values) == 0 {
		s.println("No core values yet. Use /value <name> <strength> <description> to add one.")
		return nil
	}
	dim := s.paint(color.FgHiBlack)
	for _, cv := range values {
		s.printf("  %s %5.1f %s %s\n", help.PadRight(cv.Name, 14), cv.Strength,
			dim(fmt.Sprintf("×%d", cv.Reinforcements)), cv.Description)
	}
	return nil
}

func (s *Shell) cmdValue(args []string) error {
	if len(args) < 2 {
		return usageError("/value")
	}
	strength, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return invalidArg(args[1], "strength must be a number")
	}
	cv, kept, err := s.sess.Identity.AddCoreValueWithStrength(args[0], strings.Join(args[2:], " "), strength)
	if err != nil {
		return err
	}
	if !kept {
		s.printf("Core value %s fell below the threshold and was dropped.\n", args[0])
		return nil
	}
	s.printf("Core value %s at %.1f (reinforced %d×).\n", cv.Name, cv.Strength, cv.Reinforcements)
	return nil
}

func (s *Shell) cmdDecay(args []string) error {
	if len(args) < 1 {
		return usageError("/decay")
	}
	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil || amount < 0 {
		return invalidArg(args[0], "amount must be a non-negative number")
	}
	dropped, err := s.sess.DecayCoreValues(amount)
	if err != nil {
		return err
	}
	if len(dropped) == 0 {
		s.printf("Core values weakened by %.1f. None dropped.\n", amount)
		return nil
	}
	s.printf("Core values weakened by %.1f. Dropped: %s\n", amount, strings.Join(dropped, ", "))
	return nil
}

// -----------------------------------------------------------------------------
// Session
// -----------------------------------------------------------------------------

func (s *Shell) cmdSave(ctx context.Context) error {
	if s.store == nil {
		return nerrors.New(nerrors.ErrConfigInvalid, nerrors.CategoryConfig, "no session store is configured").
			WithSuggestion("Set storage.backend in the config file")
	}
	if err := s.store.Save(ctx, s.sess.Record()); err != nil {
		return err
	}
	s.printf("Saved session %s (%s).\n", s.sess.Name, s.sess.ID)
	return nil
}

func (s *Shell) cmdExport(args []string) error {
	dir := s.cfg.ExportDir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return usageError("/export")
	}
	files, err := export.WriteFiles(dir, s.sess.Identity.Timeline(), s.sess.Branches.List(true), nil)
	if err != nil {
		return nerrors.Wrap(err, nerrors.ErrStorageWriteFailed, nerrors.CategoryStorage, "export failed").
			WithContext("dir", dir)
	}
	s.printf("Wrote %s\nWrote %s\n", files.Timeline, files.Branches)
	return nil
}
