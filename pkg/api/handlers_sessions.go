package api

import (
	"net/http"

	"go.uber.org/zap"

	nerrors "github.com/genecyber/NOESIS-sub002/pkg/errors"
	"github.com/genecyber/NOESIS-sub002/pkg/session"
	"github.com/genecyber/NOESIS-sub002/pkg/store"
)

// SessionsHandler serves session lifecycle routes and persistence.
type SessionsHandler struct {
	registry *session.Registry

	// store is optional; save and load answer 503 without one.
	store  store.Store
	logger *zap.Logger
}

// NewSessionsHandler creates a SessionsHandler.
func NewSessionsHandler(registry *session.Registry, st store.Store, logger *zap.Logger) *SessionsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionsHandler{registry: registry, store: st, logger: logger}
}

// RegisterRoutes registers the session routes on the router.
func (h *SessionsHandler) RegisterRoutes(router *Router) {
	router.GET("/api/sessions", h.ListSessions)
	router.POST("/api/sessions", h.CreateSession)
	router.GET("/api/sessions/:id", h.GetSession)
	router.DELETE("/api/sessions/:id", h.CloseSession)
	router.POST("/api/sessions/:id/save", h.SaveSession)

	router.GET("/api/stored", h.ListStored)
	router.POST("/api/stored/:id/load", h.LoadStored)
	router.DELETE("/api/stored/:id", h.DeleteStored)
}

// CreateSessionRequest is the JSON body for POST /api/sessions.
type CreateSessionRequest struct {
	Name string `json:"name"`
}

// SessionListResponse is the JSON response for GET /api/sessions.
type SessionListResponse struct {
	Sessions []session.Status `json:"sessions"`
	Total    int              `json:"total"`
}

// StoredListResponse is the JSON response for GET /api/stored.
type StoredListResponse struct {
	Sessions []store.Summary `json:"sessions"`
	Total    int             `json:"total"`
}

// lookupSession resolves the :id path parameter and writes a 404 when the
// session is not registered.
func lookupSession(w http.ResponseWriter, r *http.Request, registry *session.Registry) (*session.Session, bool) {
	s, err := registry.Lookup(PathParam(r, "id"))
	if err != nil {
		WriteFailure(w, err)
		return nil, false
	}
	return s, true
}

// ListSessions handles GET /api/sessions.
func (h *SessionsHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.registry.List()
	statuses := make([]session.Status, 0, len(sessions))
	for _, s := range sessions {
		statuses = append(statuses, s.Status())
	}
	WriteJSON(w, http.StatusOK, SessionListResponse{Sessions: statuses, Total: len(statuses)})
}

// CreateSession handles POST /api/sessions. An empty name uses the
// configured default.
func (h *SessionsHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !readBody(w, r, &req) {
		return
	}
	s, err := h.registry.Create(req.Name)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	h.logger.Info("session created via api", zap.String("session", s.ID))
	WriteJSON(w, http.StatusCreated, s.Status())
}

// GetSession handles GET /api/sessions/:id.
func (h *SessionsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, s.Status())
}

// CloseSession handles DELETE /api/sessions/:id. The stored copy, if
// any, is kept.
func (h *SessionsHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Unregister(PathParam(r, "id")); err != nil {
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"closed": PathParam(r, "id")})
}

func (h *SessionsHandler) requireStore(w http.ResponseWriter) bool {
	if h.store == nil {
		WriteFailure(w, nerrors.New(nerrors.ErrConfigInvalid, nerrors.CategoryConfig, "no session store is configured").
			WithSuggestion("Set storage.backend in the config file"))
		return false
	}
	return true
}

// SaveSession handles POST /api/sessions/:id/save.
func (h *SessionsHandler) SaveSession(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	s, ok := lookupSession(w, r, h.registry)
	if !ok {
		return
	}
	rec := s.Record()
	if err := h.store.Save(r.Context(), rec); err != nil {
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, store.Summary{ID: rec.ID, Name: rec.Name, UpdatedAt: rec.UpdatedAt})
}

// ListStored handles GET /api/stored.
func (h *SessionsHandler) ListStored(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	summaries, err := h.store.List(r.Context())
	if err != nil {
		WriteFailure(w, err)
		return
	}
	if summaries == nil {
		summaries = []store.Summary{}
	}
	WriteJSON(w, http.StatusOK, StoredListResponse{Sessions: summaries, Total: len(summaries)})
}

// LoadStored handles POST /api/stored/:id/load. A session that is already
// open is returned as is.
func (h *SessionsHandler) LoadStored(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	id := PathParam(r, "id")
	if s, ok := h.registry.Get(id); ok {
		WriteJSON(w, http.StatusOK, s.Status())
		return
	}
	rec, err := h.store.Load(r.Context(), id)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	s, err := h.registry.Load(rec)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	h.logger.Info("session loaded via api", zap.String("session", s.ID))
	WriteJSON(w, http.StatusOK, s.Status())
}

// DeleteStored handles DELETE /api/stored/:id.
func (h *SessionsHandler) DeleteStored(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	if err := h.store.Delete(r.Context(), PathParam(r, "id")); err != nil {
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"deleted": PathParam(r, "id")})
}
