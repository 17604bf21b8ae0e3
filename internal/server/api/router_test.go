package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/joekir/ssdeepviz/internal/server/crypto"
	"github.com/joekir/ssdeepviz/internal/server/database"
	"github.com/joekir/ssdeepviz/internal/server/engine"
	"github.com/joekir/ssdeepviz/internal/wire"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	engines, err := engine.NewManager(&engine.SQLStore{DB: db.DB}, 16)
	require.NoError(t, err)
	tokens, err := crypto.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	return NewRouter(Deps{Engines: engines, Tokens: tokens})
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newHash(t *testing.T, r http.Handler, path string, n int, first *byte) wire.NewHashResponse {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, path, "", wire.NewHashRequest{DataLength: n, Byte: first})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp wire.NewHashResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp
}

func TestNewHash(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	legacy := newHash(t, r, "/NewHash", 2, nil)
	require.Equal(t, -1, legacy.Index)
	require.Equal(t, uint32(3), legacy.BlockSize)

	a := byte('A')
	resp := newHash(t, r, "/v1/hashes", 2, &a)
	require.Equal(t, 0, resp.Index)
	require.Equal(t, 2, resp.InputLength)
	require.Equal(t, uint32(65), resp.RollingHash.X)
	require.Equal(t, []uint32{65, 0, 0, 0, 0, 0, 0}, resp.RollingHash.Window)
}

func TestNewHashRejectsLength(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	for _, n := range []int{0, -5} {
		w := doJSON(t, r, http.MethodPost, "/NewHash", "", wire.NewHashRequest{DataLength: n})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/NewHash", strings.NewReader("{"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStepHash(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	a := byte('A')
	created := newHash(t, r, "/v1/hashes", 3, &a)

	w := doJSON(t, r, http.MethodPost, "/StepHash", "", wire.NewStepRequest(1, 'B'))
	require.Equal(t, http.StatusPreconditionRequired, w.Code)

	w = doJSON(t, r, http.MethodPost, "/StepHash", "forged", wire.NewStepRequest(1, 'B'))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// No byte: nothing to report.
	w = doJSON(t, r, http.MethodPost, "/v1/hashes/step", created.Token, wire.StepRequest{})
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/StepHash", created.Token, wire.NewStepRequest(1, 'B'))
	require.Equal(t, http.StatusOK, w.Code)

	var st wire.EngineState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.Equal(t, 1, st.Index)
	require.Equal(t, uint32(131), st.RollingHash.X)
	require.Equal(t, uint32(852), st.RollingHash.Y)
	require.Equal(t, uint32(2146), st.RollingHash.Z)
	require.False(t, st.IsTrigger1)
	require.False(t, st.IsTrigger2)

	// A retried step is answered from the current state.
	w = doJSON(t, r, http.MethodPost, "/v1/hashes/step", created.Token, wire.NewStepRequest(1, 'B'))
	require.Equal(t, http.StatusOK, w.Code)
	var again wire.EngineState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &again))
	require.Equal(t, st, again)

	w = doJSON(t, r, http.MethodPost, "/v1/hashes/step", created.Token, wire.NewStepRequest(5, 'x'))
	require.Equal(t, http.StatusConflict, w.Code)

	// A zero byte is an ordinary byte.
	zero := byte(0)
	w = doJSON(t, r, http.MethodPost, "/StepHash", created.Token, wire.StepRequest{Byte: &zero})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.Equal(t, 2, st.Index)
	require.Equal(t, uint32(131), st.RollingHash.X)

	w = doJSON(t, r, http.MethodGet, "/v1/hashes/current", created.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cur wire.EngineState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cur))
	require.Equal(t, st, cur)

	w = doJSON(t, r, http.MethodDelete, "/v1/hashes/current", created.Token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodPost, "/v1/hashes/step", created.Token, wire.NewStepRequest(3, 'C'))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompare(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/compare", "", wire.CompareRequest{
		A: "12:Fg66666666666666666666666666666666666666G:F1",
		B: "12:Fs66666666666666666666666666666666666666G:FB",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp wire.CompareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Distance)

	w = doJSON(t, r, http.MethodPost, "/v1/compare", "", wire.CompareRequest{A: "3:abc:def", B: "6:abc:def"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/v1/compare", "", wire.CompareRequest{A: "nope", B: "3:a:b"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)
	newHash(t, r, "/NewHash", 4, nil)

	w := doJSON(t, r, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp wire.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, wire.HealthResponse{Status: "ok", Sessions: 1}, resp)
}

func TestStream(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(newTestRouter(t))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/hashes/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	roundTrip := func(req wire.StreamRequest) wire.StreamResponse {
		t.Helper()
		require.NoError(t, conn.WriteJSON(req))
		var resp wire.StreamResponse
		require.NoError(t, conn.ReadJSON(&resp))
		return resp
	}
	b := func(v byte) *byte { return &v }

	resp := roundTrip(wire.StreamRequest{Type: wire.FrameStep, Byte: b('x')})
	require.Equal(t, wire.FrameError, resp.Type)

	resp = roundTrip(wire.StreamRequest{Type: wire.FrameInit, DataLength: 11, Byte: b('h')})
	require.Equal(t, wire.FrameState, resp.Type)
	require.Equal(t, 0, resp.State.Index)

	var primary, secondary []int
	for _, c := range []byte("ello world") {
		resp = roundTrip(wire.StreamRequest{Type: wire.FrameStep, Byte: b(c)})
		require.Equal(t, wire.FrameState, resp.Type, resp.Error)
		if resp.State.IsTrigger1 {
			primary = append(primary, resp.State.Index)
		}
		if resp.State.IsTrigger2 {
			secondary = append(secondary, resp.State.Index)
		}
	}
	require.Equal(t, []int{3, 4, 5, 6, 8, 10}, primary)
	require.Equal(t, []int{5, 8, 10}, secondary)

	resp = roundTrip(wire.StreamRequest{Type: wire.FrameStep})
	require.Equal(t, wire.FrameEmpty, resp.Type)
	require.Nil(t, resp.State)

	at := func(i int) *int { return &i }
	resp = roundTrip(wire.StreamRequest{Type: wire.FrameStep, Byte: b('d'), Index: at(10)})
	require.Equal(t, wire.FrameState, resp.Type, resp.Error)
	require.Equal(t, 10, resp.State.Index)

	resp = roundTrip(wire.StreamRequest{Type: wire.FrameStep, Byte: b('!'), Index: at(4)})
	require.Equal(t, wire.FrameError, resp.Type)

	resp = roundTrip(wire.StreamRequest{Type: "bogus"})
	require.Equal(t, wire.FrameError, resp.Type)
}
