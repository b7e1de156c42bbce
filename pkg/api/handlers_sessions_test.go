package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nerrors "github.com/genecyber/NOESIS-sub002/pkg/errors"
	"github.com/genecyber/NOESIS-sub002/pkg/session"
	"github.com/genecyber/NOESIS-sub002/pkg/store"
)

func TestSessionsHandler_Lifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list SessionListResponse
	decodeData(t, resp, &list)
	assert.Equal(t, 0, list.Total)
	assert.NotNil(t, list.Sessions)

	id := env.createSession(t, "api")
	assert.Equal(t, 1, env.registry.Len())

	rec, resp = env.do(t, http.MethodGet, sessionPath(id, ""), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st session.Status
	decodeData(t, resp, &st)
	assert.Equal(t, "api", st.Name)
	assert.Equal(t, "main", st.ActiveBranch)
	assert.Equal(t, 1, st.Branches)

	_, resp = env.do(t, http.MethodGet, "/api/sessions", nil)
	decodeData(t, resp, &list)
	assert.Equal(t, 1, list.Total)

	rec, _ = env.do(t, http.MethodDelete, sessionPath(id, ""), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, env.registry.Len())

	rec, resp = env.do(t, http.MethodDelete, sessionPath(id, ""), nil)
	requireError(t, rec, resp, http.StatusNotFound, nerrors.ErrSessionNotFound)
}

func TestSessionsHandler_CreateDefaultName(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var st session.Status
	decodeData(t, resp, &st)
	assert.Equal(t, "default", st.Name)
	assert.NotEmpty(t, st.ID)
}

func TestSessionsHandler_UnknownSession(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{
		"/api/sessions/nope",
		"/api/sessions/nope/branches",
		"/api/sessions/nope/checkpoints",
		"/api/sessions/nope/stance",
	} {
		rec, resp := env.do(t, http.MethodGet, path, nil)
		requireError(t, rec, resp, http.StatusNotFound, nerrors.ErrSessionNotFound)
		assert.Equal(t, "nope", resp.Error.Context["session"], path)
	}
}

func TestSessionsHandler_WithoutStore(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createSession(t, "api")

	rec, resp := env.do(t, http.MethodPost, sessionPath(id, "/save"), nil)
	requireError(t, rec, resp, http.StatusServiceUnavailable, nerrors.ErrConfigInvalid)
	assert.NotEmpty(t, resp.Error.Suggestions)

	rec, resp = env.do(t, http.MethodGet, "/api/stored", nil)
	requireError(t, rec, resp, http.StatusServiceUnavailable, nerrors.ErrConfigInvalid)
}

func TestSessionsHandler_SaveAndLoad(t *testing.T) {
	env := newTestEnv(t, store.NewMemoryStore())
	id := env.createSession(t, "persisted")

	rec, _ := env.do(t, http.MethodPost, sessionPath(id, "/messages"), RecordTurnRequest{Content: "hello"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, resp := env.do(t, http.MethodPost, sessionPath(id, "/save"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary store.Summary
	decodeData(t, resp, &summary)
	assert.Equal(t, id, summary.ID)
	assert.Equal(t, "persisted", summary.Name)

	rec, resp = env.do(t, http.MethodGet, "/api/stored", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stored StoredListResponse
	decodeData(t, resp, &stored)
	require.Equal(t, 1, stored.Total)
	assert.Equal(t, id, stored.Sessions[0].ID)

	t.Run("loading an open session returns it", func(t *testing.T) {
		rec, _ := env.do(t, http.MethodPost, "/api/stored/"+id+"/load", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, env.registry.Len())
	})

	t.Run("closed session is rebuilt from the store", func(t *testing.T) {
		rec, _ := env.do(t, http.MethodDelete, sessionPath(id, ""), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec, resp := env.do(t, http.MethodPost, "/api/stored/"+id+"/load", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var st session.Status
		decodeData(t, resp, &st)
		assert.Equal(t, id, st.ID)
		assert.Equal(t, 1, st.Messages)
		assert.Equal(t, 1, env.registry.Len())
	})

	t.Run("delete stored copy", func(t *testing.T) {
		rec, _ := env.do(t, http.MethodDelete, "/api/stored/"+id, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec, resp := env.do(t, http.MethodDelete, "/api/stored/"+id, nil)
		requireError(t, rec, resp, http.StatusNotFound, nerrors.ErrStorageNotFound)
	})

	t.Run("missing stored session", func(t *testing.T) {
		rec, resp := env.do(t, http.MethodPost, "/api/stored/missing/load", nil)
		requireError(t, rec, resp, http.StatusNotFound, nerrors.ErrStorageNotFound)
	})
}
