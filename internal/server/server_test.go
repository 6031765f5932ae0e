package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tturner/blecal/internal/config"
	"github.com/tturner/blecal/internal/metrics"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.CreateDefaultConfig().Server
	cfg.Mode = "test"
	cfg.Listen = "127.0.0.1:0"
	return NewServer(cfg, nil, metrics.NewSink(), nil)
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var doc map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc), w.Body.String())
	}
	return w, doc
}

func TestHealthAndCommands(t *testing.T) {
	s := newTestServer(t)

	w, doc := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", doc["status"])

	w, doc = do(t, s, http.MethodGet, "/v1/commands", "")
	assert.Equal(t, http.StatusOK, w.Code)
	cmds := doc["commands"].([]any)
	assert.Len(t, cmds, 9)
	first := cmds[0].(map[string]any)
	assert.Equal(t, "reset", first["name"])
	assert.Contains(t, doc["bauds"], "57600")
}

func TestEncodeEndpoint(t *testing.T) {
	s := newTestServer(t)

	w, doc := do(t, s, http.MethodPost, "/v1/encode", `{"oad":"connect","addr":"AABBCCDDEEFF"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	payload := doc["payload"].(map[string]any)
	assert.Equal(t, "7E7E7E5A0C01FFEEDDCCBBAADC7EA5", payload["payload"])

	w, doc = do(t, s, http.MethodPost, "/v1/encode", `{"oad":"set_baud","baud":1200}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, doc["error"], "baud")
	assert.NotContains(t, doc, "payload")

	w, _ = do(t, s, http.MethodPost, "/v1/encode", `{"oad":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDecodeEndpoint(t *testing.T) {
	s := newTestServer(t)

	w, doc := do(t, s, http.MethodPost, "/v1/decode", `{"frame":"7E7E7E5A0A8500010201677EA5"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	payload := doc["payload"].(map[string]any)
	assert.Equal(t, true, payload["ok"])
	assert.Equal(t, "ver_mcu", payload["oadName"])
	assert.Equal(t, "V1.2", payload["swVer"])

	w, doc = do(t, s, http.MethodPost, "/v1/decode", `{"frame":{"type":"Buffer","data":[126,126,126,90,6,0,218,126,165]}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "reset", doc["payload"].(map[string]any)["oadName"])

	w, doc = do(t, s, http.MethodPost, "/v1/decode", `{"frame":"7E7E"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, doc["error"], "too short")
}

func TestDispatchEndpoint(t *testing.T) {
	s := newTestServer(t)

	body := `{"id":"b1","mode":"encode","payload":[{"oad":"reset"},{"oad":"ver_ble"}]}`
	w, doc := do(t, s, http.MethodPost, "/v1/dispatch", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "b1", doc["id"])
	assert.Len(t, doc["payload"], 2)

	mixed := `{"mode":"encode","payload":[{"oad":"reset"},{"oad":"nope"}]}`
	w, doc = do(t, s, http.MethodPost, "/v1/dispatch", mixed)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, doc["error"], "item 1")
	assert.NotContains(t, doc, "payload")

	w, _ = do(t, s, http.MethodPost, "/v1/dispatch", `{"mode":"decode"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	summary := s.Sink().GetSummary()
	assert.Equal(t, 4, summary.TotalOperations)
	assert.Equal(t, 1, summary.ErrorsByKind["unknown_command"])
}

func TestItemContentEndpoint(t *testing.T) {
	s := newTestServer(t)

	w, doc := do(t, s, http.MethodPost, "/v1/itemcontent", `{"expr":"09D0|0x0102:4@be"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "D00900000102", doc["hex"])
	segs := doc["segments"].([]any)
	require.Len(t, segs, 2)
	assert.Equal(t, "be", segs[1].(map[string]any)["endian"])
	assert.Equal(t, "00000102", segs[1].(map[string]any)["hex"])

	w, doc = do(t, s, http.MethodPost, "/v1/itemcontent", `{"expr":"12|XYZ"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid_parameter", doc["kind"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/v1/encode", `{"oad":"reset"}`)

	w, doc := do(t, s, http.MethodGet, "/v1/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, doc["TotalOperations"])
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	var addr string
	require.Eventually(t, func() bool {
		if a := s.Addr(); a != nil {
			addr = a.String()
			return true
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", addr))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
