package api

import (
	"net/http"

	"github.com/genecyber/NOESIS-sub002/branch"
	"github.com/genecyber/NOESIS-sub002/identity"
	nerrors "github.com/genecyber/NOESIS-sub002/pkg/errors"
	"github.com/genecyber/NOESIS-sub002/pkg/session"
	"github.com/genecyber/NOESIS-sub002/stance"
)

// CheckpointsHandler serves time travel and the identity timeline.
type CheckpointsHandler struct {
	registry *session.Registry
}

// NewCheckpointsHandler creates a CheckpointsHandler.
func NewCheckpointsHandler(registry *session.Registry) *CheckpointsHandler {
	return &CheckpointsHandler{registry: registry}
}

// RegisterRoutes registers the time travel and checkpoint routes.
func (h *CheckpointsHandler) RegisterRoutes(router *Router) {
	router.POST("/api/sessions/:id/travel", h.Travel)
	router.GET("/api/sessions/:id/snapshots", h.ListSnapshots)
	router.POST("/api/sessions/:id/snapshots/:snapshot/restore", h.RestoreSnapshot)
	router.DELETE("/api/sessions/:id/snapshots/:snapshot", h.ForgetSnapshot)

	router.GET("/api/sessions/:id/checkpoints", h.Timeline)
	router.POST("/api/sessions/:id/checkpoints", h.CreateCheckpoint)
	router.GET("/api/sessions/:id/checkpoints/diff", h.DiffFromLast)
	router.GET("/api/sessions/:id/checkpoints/milestones", h.Milestones)
	router.GET("/api/sessions/:id/checkpoints/:checkpoint", h.GetCheckpoint)
	router.POST("/api/sessions/:id/checkpoints/:checkpoint/rollback", h.Rollback)

	router.GET("/api/sessions/:id/core-values", h.ListCoreValues)
	router.POST("/api/sessions/:id/core-values", h.AddCoreValue)
	router.POST("/api/sessions/:id/core-values/decay", h.DecayCoreValues)
}

// TravelRequest is the JSON body for POST /api/sessions/:id/travel.
type TravelRequest struct {
	Branch string `json:"branch"`
	Index  int    `json:"index"`
}

// RestoreSnapshotRequest names the branch created from a snapshot.
type RestoreSnapshotRequest struct {
	Name string `json:"name"`
}

// CheckpointRequest is the JSON body for POST /api/sessions/:id/checkpoints.
// A non-empty Milestone pins the checkpoint.
type CheckpointRequest struct {
	Name      string `json:"name"`
	Milestone string `json:"milestone,omitempty"`
}

// CoreValueRequest is the JSON body for POST /api/sessions/:id/core-values.
type CoreValueRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Strength    float64 `json:"strength"`
}

// DecayRequest is the JSON body for POST /api/sessions/:id/core-values/decay.
type DecayRequest struct {
	Amount float64 `json:"amount"`
}

// DecayResponse lists the values that remain and those that were dropped.
type DecayResponse struct {
	Dropped []string             `json:"dropped"`
	Values  []identity.CoreValue `json:"values"`
}

// CoreValueResponse reports whether the value survived the threshold.
type CoreValueResponse struct {
	Value identity.CoreValue `json:"value"`
	Kept  bool               `json:"kept"`
}

// TimelineResponse is the JSON response for GET /api/sessions/:id/checkpoints.
type TimelineResponse struct {
	Entries     []*identity.TimelineEntry `json:"entries"`
	Fingerprint string                    `json:"fingerprint"`
	Total       int                       `json:"total"`
}

// DiffResponse compares the live stance with the latest checkpoint.
type DiffResponse struct {
	Checkpoint *identity.Checkpoint `json:"checkpoint"`
	Diff       stance.Delta         `json:"diff"`
	Matches    bool                 `json:"fingerprint_matches"`
}

// Travel handles POST /api/sessions/:id/travel. The branch defaults to the
// active one.
func (h *CheckpointsHandler) Travel(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	var req TravelRequest
	if !readBody(w, r, &req) {
		return
	}
	ref := req.Branch
	if ref == "" {
		ref = s.Branches.ActiveID()
	}
	snap, err := s.Travel(ref, req.Index)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, snap)
}

// ListSnapshots handles GET /api/sessions/:id/snapshots.
func (h *CheckpointsHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	snaps := s.TimeTravel().Snapshots()
	if snaps == nil {
		snaps = []*branch.Snapshot{}
	}
	WriteJSON(w, http.StatusOK, snaps)
}

// RestoreSnapshot handles POST /api/sessions/:id/snapshots/:snapshot/restore.
func (h *CheckpointsHandler) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	var req RestoreSnapshotRequest
	if !readBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		WriteFailure(w, validationError("name", "branch name is required"))
		return
	}
	b, err := s.Rewind(PathParam(r, "snapshot"), req.Name)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, b)
}

// ForgetSnapshot handles DELETE /api/sessions/:id/snapshots/:snapshot.
func (h *CheckpointsHandler) ForgetSnapshot(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	id := PathParam(r, "snapshot")
	if err := s.ForgetSnapshot(id); err != nil {
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"forgotten": id})
}

// Timeline handles GET /api/sessions/:id/checkpoints.
func (h *CheckpointsHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	entries := s.Identity.Timeline()
	if entries == nil {
		entries = []*identity.TimelineEntry{}
	}
	WriteJSON(w, http.StatusOK, TimelineResponse{
		Entries:     entries,
		Fingerprint: s.Identity.CurrentFingerprint(),
		Total:       len(entries),
	})
}

// Milestones handles GET /api/sessions/:id/checkpoints/milestones.
func (h *CheckpointsHandler) Milestones(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	entries := s.Identity.Milestones()
	if entries == nil {
		entries = []*identity.TimelineEntry{}
	}
	WriteJSON(w, http.StatusOK, entries)
}

// CreateCheckpoint handles POST /api/sessions/:id/checkpoints.
func (h *CheckpointsHandler) CreateCheckpoint(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	var req CheckpointRequest
	if !readBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		WriteFailure(w, validationError("name", "checkpoint name is required"))
		return
	}
	entry, err := s.Checkpoint(req.Name, req.Milestone)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, entry)
}

// DiffFromLast handles GET /api/sessions/:id/checkpoints/diff.
func (h *CheckpointsHandler) DiffFromLast(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	active := s.Branches.Active().Stance
	d, ok := s.Identity.GetDiffFromLast(active)
	if !ok {
		WriteFailure(w, nerrors.New(nerrors.ErrCheckpointEmpty, nerrors.CategoryCheckpoint, "no checkpoints yet").
			WithSuggestion("Create one with POST /api/sessions/:id/checkpoints"))
		return
	}
	latest, _ := s.Identity.Latest()
	WriteJSON(w, http.StatusOK, DiffResponse{
		Checkpoint: latest,
		Diff:       d,
		Matches:    s.Identity.FingerprintMatches(active),
	})
}

// GetCheckpoint handles GET /api/sessions/:id/checkpoints/:checkpoint.
func (h *CheckpointsHandler) GetCheckpoint(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	cp, ok := s.Identity.Get(PathParam(r, "checkpoint"))
	if !ok {
		WriteFailure(w, identity.ErrNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, cp)
}

// Rollback handles POST /api/sessions/:id/checkpoints/:checkpoint/rollback.
func (h *CheckpointsHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	st, err := s.Rollback(PathParam(r, "checkpoint"))
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

// ListCoreValues handles GET /api/sessions/:id/core-values.
func (h *CheckpointsHandler) ListCoreValues(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	values := s.Identity.CoreValues()
	if values == nil {
		values = []identity.CoreValue{}
	}
	WriteJSON(w, http.StatusOK, values)
}

// AddCoreValue handles POST /api/sessions/:id/core-values. Adding an
// existing name reinforces it.
func (h *CheckpointsHandler) AddCoreValue(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	var req CoreValueRequest
	if !readBody(w, r, &req) {
		return
	}
	cv, kept, err := s.Identity.AddCoreValueWithStrength(req.Name, req.Description, req.Strength)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, CoreValueResponse{Value: cv, Kept: kept})
}

// DecayCoreValues handles POST /api/sessions/:id/core-values/decay.
func (h *CheckpointsHandler) DecayCoreValues(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	var req DecayRequest
	if !readBody(w, r, &req) {
		return
	}
	dropped, err := s.DecayCoreValues(req.Amount)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	if dropped == nil {
		dropped = []string{}
	}
	values := s.Identity.CoreValues()
	if values == nil {
		values = []identity.CoreValue{}
	}
	WriteJSON(w, http.StatusOK, DecayResponse{Dropped: dropped, Values: values})
}
