// Package export writes session data as CSV for offline analysis.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/genecyber/NOESIS-sub002/branch"
	"github.com/genecyber/NOESIS-sub002/identity"
)

// CSVDialect specifies the CSV format variant.
type CSVDialect string

const (
	// DialectStandard uses RFC 4180 compliant CSV.
	DialectStandard CSVDialect = "standard"

	// DialectTSV uses tab-separated values instead of comma.
	DialectTSV CSVDialect = "tsv"
)

// CSVConfig specifies options for CSV export.
type CSVConfig struct {
	Dialect       CSVDialect
	IncludeHeader bool

	// TimestampFormat defaults to time.RFC3339.
	TimestampFormat string

	// Precision is the number of decimal places for drift values.
	Precision int

	// NAString stands in for missing values.
	NAString string
}

// DefaultCSVConfig returns a CSVConfig with sensible defaults.
func DefaultCSVConfig() *CSVConfig {
	return &CSVConfig{
		Dialect:         DialectStandard,
		IncludeHeader:   true,
		TimestampFormat: time.RFC3339,
		Precision:       2,
		NAString:        "NA",
	}
}

// TimelineHeaders are the columns of a timeline export.
var TimelineHeaders = []string{
	"id",
	"name",
	"timestamp",
	"fingerprint",
	"milestone",
	"is_milestone",
	"drift",
	"significance",
	"traits",
	"parent_id",
}

// BranchHeaders are the columns of a branch export.
var BranchHeaders = []string{
	"id",
	"name",
	"parent_id",
	"branch_index",
	"messages",
	"total_drift",
	"frame_changes",
	"frame",
	"archived",
	"created_at",
}

// csvTable writes rows under a fixed header.
type csvTable struct {
	config  *CSVConfig
	writer  *csv.Writer
	headers []string
	rows    int
}

func newTable(w io.Writer, headers []string, config *CSVConfig) *csvTable {
	if config == nil {
		config = DefaultCSVConfig()
	}
	cw := csv.NewWriter(w)
	if config.Dialect == DialectTSV {
		cw.Comma = '\t'
	}
	return &csvTable{config: config, writer: cw, headers: headers}
}

func (t *csvTable) begin() error {
	if !t.config.IncludeHeader {
		return nil
	}
	if err := t.writer.Write(t.headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	return nil
}

func (t *csvTable) write(row []string) error {
	if err := t.writer.Write(row); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	t.rows++
	return nil
}

func (t *csvTable) flush() error {
	t.writer.Flush()
	if err := t.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

func (t *csvTable) str(s string) string {
	if s == "" {
		return t.config.NAString
	}
	return s
}

func (t *csvTable) float(f float64) string {
	return strconv.FormatFloat(f, 'f', t.config.Precision, 64)
}

func (t *csvTable) time(ts time.Time) string {
	if ts.IsZero() {
		return t.config.NAString
	}
	return ts.UTC().Format(t.config.TimestampFormat)
}

// formatBool formats a boolean as "TRUE" or "FALSE" for R/Python compatibility.
func formatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// Timeline writes one row per checkpoint. The first checkpoint has no
// predecessor, so its drift and significance are NA.
func Timeline(w io.Writer, entries []*identity.TimelineEntry, config *CSVConfig) error {
	t := newTable(w, TimelineHeaders, config)
	if err := t.begin(); err != nil {
		return err
	}
	for _, e := range entries {
		if e == nil || e.Checkpoint == nil {
			continue
		}
		cp := e.Checkpoint
		drift, significance := t.config.NAString, t.config.NAString
		if e.Diff != nil {
			drift = t.float(e.Diff.OverallDrift)
			significance = e.Diff.Significance.String()
		}
		row := []string{
			cp.ID,
			t.str(cp.Name),
			t.time(cp.Timestamp),
			t.str(cp.Fingerprint),
			t.str(cp.Milestone),
			formatBool(e.IsMilestone),
			drift,
			significance,
			t.str(strings.Join(cp.EmergentTraits, ";")),
			t.str(cp.ParentID),
		}
		if err := t.write(row); err != nil {
			return err
		}
	}
	return t.flush()
}

// Branches writes one row per branch. The root's branch_index is NA.
func Branches(w io.Writer, branches []*branch.Branch, config *CSVConfig) error {
	t := newTable(w, BranchHeaders, config)
	if err := t.begin(); err != nil {
		return err
	}
	for _, b := range branches {
		if b == nil {
			continue
		}
		index := t.config.NAString
		if b.BranchPoint != nil {
			index = strconv.Itoa(b.BranchPoint.MessageIndex)
		}
		frame := t.config.NAString
		if b.Stance != nil {
			frame = string(b.Stance.Frame)
		}
		row := []string{
			b.ID,
			t.str(b.Name),
			t.str(b.ParentID),
			index,
			strconv.Itoa(len(b.Messages)),
			t.float(b.Metadata.TotalDrift),
			strconv.Itoa(b.Metadata.FrameChanges),
			frame,
			formatBool(b.Archived),
			t.time(b.CreatedAt),
		}
		if err := t.write(row); err != nil {
			return err
		}
	}
	return t.flush()
}

// Files names the CSV files written by WriteFiles.
type Files struct {
	Timeline string `json:"timeline"`
	Branches string `json:"branches"`
}

// WriteFiles writes timeline.csv and branches.csv into dir, creating it if
// needed. Archived branches are included.
func WriteFiles(dir string, entries []*identity.TimelineEntry, branches []*branch.Branch, config *CSVConfig) (Files, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Files{}, fmt.Errorf("create export directory: %w", err)
	}
	files := Files{
		Timeline: filepath.Join(dir, "timeline.csv"),
		Branches: filepath.Join(dir, "branches.csv"),
	}
	if err := writeFile(files.Timeline, func(w io.Writer) error {
		return Timeline(w, entries, config)
	}); err != nil {
		return Files{}, err
	}
	if err := writeFile(files.Branches, func(w io.Writer) error {
		return Branches(w, branches, config)
	}); err != nil {
		return Files{}, err
	}
	return files, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
