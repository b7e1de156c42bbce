package api

import (
	"net/http"
	"strconv"

	"github.com/genecyber/NOESIS-sub002/branch"
	nerrors "github.com/genecyber/NOESIS-sub002/pkg/errors"
	"github.com/genecyber/NOESIS-sub002/pkg/session"
	"github.com/genecyber/NOESIS-sub002/stance"
)

// BranchesHandler serves the branch tree of each session.
type BranchesHandler struct {
	registry *session.Registry
}

// NewBranchesHandler creates a BranchesHandler.
func NewBranchesHandler(registry *session.Registry) *BranchesHandler {
	return &BranchesHandler{registry: registry}
}

// RegisterRoutes registers the branch routes on the router.
func (h *BranchesHandler) RegisterRoutes(router *Router) {
	router.GET("/api/sessions/:id/branches", h.ListBranches)
	router.POST("/api/sessions/:id/branches", h.CreateBranch)
	router.GET("/api/sessions/:id/branches/tree", h.GetTree)
	router.GET("/api/sessions/:id/branches/:branch", h.GetBranch)
	router.DELETE("/api/sessions/:id/branches/:branch", h.DeleteBranch)
	router.POST("/api/sessions/:id/branches/:branch/switch", h.SwitchBranch)
	router.POST("/api/sessions/:id/branches/:branch/archive", h.ArchiveBranch)
	router.POST("/api/sessions/:id/branches/:branch/restore", h.RestoreBranch)
	router.GET("/api/sessions/:id/branches/:branch/messages", h.GetMessages)
	router.GET("/api/sessions/:id/branches/:branch/lineage", h.GetLineage)

	router.GET("/api/sessions/:id/compare", h.Compare)
	router.POST("/api/sessions/:id/merge", h.Merge)

	router.POST("/api/sessions/:id/messages", h.RecordTurn)
	router.GET("/api/sessions/:id/stance", h.GetStance)
	router.PUT("/api/sessions/:id/stance", h.SetStance)
}

// CreateBranchRequest is the JSON body for POST /api/sessions/:id/branches.
// A nil Index forks at the latest message.
type CreateBranchRequest struct {
	Name   string `json:"name"`
	Index  *int   `json:"index,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// MergeRequest is the JSON body for POST /api/sessions/:id/merge. An
// empty Target merges into the active branch.
type MergeRequest struct {
	Target      string            `json:"target,omitempty"`
	Source      string            `json:"source"`
	Resolutions map[string]string `json:"resolutions,omitempty"`
}

// RecordTurnRequest is the JSON body for POST /api/sessions/:id/messages.
type RecordTurnRequest struct {
	Role    branch.Role    `json:"role,omitempty"`
	Content string         `json:"content"`
	Stance  *stance.Stance `json:"stance,omitempty"`
}

// RecordTurnResponse reports the updated status and any automatic
// checkpoint the turn triggered.
type RecordTurnResponse struct {
	Status     session.Status `json:"status"`
	Checkpoint interface{}    `json:"checkpoint,omitempty"`
}

// BranchListResponse is the JSON response for GET /api/sessions/:id/branches.
type BranchListResponse struct {
	Branches []*branch.Branch `json:"branches"`
	ActiveID string           `json:"active_id"`
	Total    int              `json:"total"`
}

// MessagesResponse is the JSON response for the messages route.
type MessagesResponse struct {
	Messages []branch.Message `json:"messages"`
	Total    int              `json:"total"`
}

func validationError(field, message string) error {
	return nerrors.New(nerrors.ErrValidationFailed, nerrors.CategoryValidation, message).
		WithContext("field", field)
}

// ListBranches handles GET /api/sessions/:id/branches.
// ?archived=true includes archived branches.
func (h *BranchesHandler) ListBranches(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	includeArchived, _ := strconv.ParseBool(r.URL.Query().Get("archived"))
	list := s.Branches.List(includeArchived)
	WriteJSON(w, http.StatusOK, BranchListResponse{
		Branches: list,
		ActiveID: s.Branches.ActiveID(),
		Total:    len(list),
	})
}

// CreateBranch handles POST /api/sessions/:id/branches.
func (h *BranchesHandler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	var req CreateBranchRequest
	if !readBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		WriteFailure(w, validationError("name", "branch name is required"))
		return
	}
	index := -1
	if req.Index != nil {
		if *req.Index < 0 {
			WriteFailure(w, branch.ErrIndexOutOfRange)
			return
		}
		index = *req.Index
	}
	b, err := s.Fork(req.Name, index, req.Reason)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, b)
}

// GetTree handles GET /api/sessions/:id/branches/tree.
func (h *BranchesHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, s.Branches.Tree())
}

// GetBranch handles GET /api/sessions/:id/branches/:branch. The branch
// may be given by id or name.
func (h *BranchesHandler) GetBranch(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	b, err := s.Resolve(PathParam(r, "branch"))
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, b)
}

func (h *BranchesHandler) branchOp(w http.ResponseWriter, r *http.Request, op func(*session.Session, string) (*branch.Branch, error)) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	b, err := op(s, PathParam(r, "branch"))
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, b)
}

// SwitchBranch handles POST /api/sessions/:id/branches/:branch/switch.
func (h *BranchesHandler) SwitchBranch(w http.ResponseWriter, r *http.Request) {
	h.branchOp(w, r, (*session.Session).Switch)
}

// ArchiveBranch handles POST /api/sessions/:id/branches/:branch/archive.
func (h *BranchesHandler) ArchiveBranch(w http.ResponseWriter, r *http.Request) {
	h.branchOp(w, r, (*session.Session).Archive)
}

// RestoreBranch handles POST /api/sessions/:id/branches/:branch/restore.
func (h *BranchesHandler) RestoreBranch(w http.ResponseWriter, r *http.Request) {
	h.branchOp(w, r, (*session.Session).Restore)
}

// DeleteBranch handles DELETE /api/sessions/:id/branches/:branch.
func (h *BranchesHandler) DeleteBranch(w http.ResponseWriter, r *http.Request) {
	h.branchOp(w, r, (*session.Session).Delete)
}

// GetMessages handles GET /api/sessions/:id/branches/:branch/messages.
func (h *BranchesHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	b, err := s.Resolve(PathParam(r, "branch"))
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessagesResponse{Messages: b.Messages, Total: len(b.Messages)})
}

// GetLineage handles GET /api/sessions/:id/branches/:branch/lineage.
func (h *BranchesHandler) GetLineage(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	b, err := s.Resolve(PathParam(r, "branch"))
	if err != nil {
		WriteFailure(w, err)
		return
	}
	lineage, err := s.Branches.Lineage(b.ID)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, lineage)
}

// Compare handles GET /api/sessions/:id/compare?a=...&b=...
func (h *BranchesHandler) Compare(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	a, b := r.URL.Query().Get("a"), r.URL.Query().Get("b")
	if a == "" || b == "" {
		WriteFailure(w, validationError("a,b", "both a and b query parameters are required"))
		return
	}
	cmp, err := s.Compare(a, b)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, cmp)
}

// Merge handles POST /api/sessions/:id/merge.
func (h *BranchesHandler) Merge(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	var req MergeRequest
	if !readBody(w, r, &req) {
		return
	}
	if req.Source == "" {
		WriteFailure(w, validationError("source", "source branch is required"))
		return
	}
	target := req.Target
	if target == "" {
		target = s.Branches.ActiveID()
	}

	res := branch.Resolutions{}
	for field, side := range req.Resolutions {
		f := branch.ConflictField(field)
		if f != branch.FieldFrame && f != branch.FieldSelfModel {
			WriteFailure(w, validationError("resolutions", "only frame and self_model can be resolved"))
			return
		}
		res[f] = branch.Side(side)
	}

	result, err := s.Merge(target, req.Source, res)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, result)
}

// RecordTurn handles POST /api/sessions/:id/messages. The message goes to
// the active branch; a stance, when given, becomes the branch's stance.
func (h *BranchesHandler) RecordTurn(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	var req RecordTurnRequest
	if !readBody(w, r, &req) {
		return
	}
	if req.Role == "" {
		req.Role = branch.RoleUser
	}
	if !req.Role.IsValid() {
		WriteFailure(w, validationError("role", "role must be system, user or assistant"))
		return
	}
	if req.Stance != nil {
		if verr := req.Stance.Validate(); verr != nil {
			WriteFailure(w, verr)
			return
		}
	}

	auto, err := s.RecordTurn(branch.NewMessage(req.Role, req.Content), req.Stance)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	resp := RecordTurnResponse{Status: s.Status()}
	if auto != nil {
		resp.Checkpoint = auto
	}
	WriteJSON(w, http.StatusCreated, resp)
}

// GetStance handles GET /api/sessions/:id/stance.
func (h *BranchesHandler) GetStance(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, s.Branches.Active().Stance)
}

// SetStance handles PUT /api/sessions/:id/stance without recording a turn.
func (h *BranchesHandler) SetStance(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	var st stance.Stance
	if !readBody(w, r, &st) {
		return
	}
	if verr := st.Validate(); verr != nil {
		WriteFailure(w, verr)
		return
	}
	if err := s.SetStance(&st); err != nil {
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, s.Branches.Active().Stance)
}
