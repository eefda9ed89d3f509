package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BetterCallFirewall/techscope/internal/broker"
	"github.com/BetterCallFirewall/techscope/internal/config"
	"github.com/BetterCallFirewall/techscope/internal/detector"
	"github.com/BetterCallFirewall/techscope/internal/host"
	"github.com/BetterCallFirewall/techscope/internal/models"
	"github.com/BetterCallFirewall/techscope/internal/orchestrator"
	"github.com/BetterCallFirewall/techscope/internal/signatures"
	"github.com/BetterCallFirewall/techscope/internal/utils"
	"github.com/BetterCallFirewall/techscope/internal/whois"
)

const whoisPage = `<html><body><div class="whois-data">
Registrar: Example Registrar, Inc.
Creation Date: 1995-08-14
</div></body></html>`

const reactPage = `<!DOCTYPE html><html><head>
<script src="https://unpkg.com/react@18.2.0/umd/react.production.min.js"></script>
</head><body><div id="root" data-reactroot></div><a href="mailto:info@example.com">mail</a></body></html>`

type testEnv struct {
	server  *Server
	http    *httptest.Server
	browser *host.Browser

	mu      sync.Mutex
	lookups []string
}

func (e *testEnv) domains() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string{}, e.lookups...)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{}

	whoisSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.mu.Lock()
		env.lookups = append(env.lookups, strings.TrimPrefix(r.URL.Path, "/whois/"))
		env.mu.Unlock()
		_, _ = w.Write([]byte(whoisPage))
	}))
	t.Cleanup(whoisSrv.Close)

	env.browser = host.NewBrowser(utils.NewAccessFilter(nil), nil)
	events := broker.New[models.Event](64)
	engine := detector.New(signatures.Default(), detector.WithSniffWindow(0))
	client := whois.NewClient(whois.Config{URLTemplate: whoisSrv.URL + "/whois/%s", Timeout: 2 * time.Second})
	orch := orchestrator.New(env.browser, engine.Detect, client, events, nil, orchestrator.Config{WhoisTimeout: 2 * time.Second})

	env.server = NewServer(config.WebConfig{ListenAddr: ":0", AllowedOrigins: []string{"*"}}, orch, env.browser, events)
	env.http = httptest.NewServer(env.server.Handler())
	t.Cleanup(env.http.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.http.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) openTab(t *testing.T, url, html string) host.Tab {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/tabs", map[string]any{
		"url":      url,
		"active":   true,
		"snapshot": map[string]any{"html": html},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[host.Tab](t, resp)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"status": "ok"}, decodeBody[map[string]string](t, resp))
}

func TestDetectFlow(t *testing.T) {
	env := newTestEnv(t)
	tab := env.openTab(t, "https://www.example.com/", reactPage)
	assert.True(t, tab.Active)

	resp := env.do(t, http.MethodPost, "/api/detect", models.StartDetectionRequest{TabID: tab.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.Ack{Success: true}, decodeBody[models.Ack](t, resp))
	assert.Equal(t, []string{"example.com"}, env.domains())

	resp = env.do(t, http.MethodGet, "/api/technologies", nil)
	data := decodeBody[models.TechData](t, resp)
	assert.Equal(t, models.TechDataType, data.Type)
	assert.False(t, data.IsAnalyzing)
	require.NotNil(t, data.Report)

	react, ok := data.Report.Find(models.CategoryFrameworks, "React")
	require.True(t, ok)
	assert.Equal(t, "18.2.0", react.Version)

	registrar, ok := data.Report.Find(models.CategoryWhois, "Registrar")
	require.True(t, ok)
	assert.Equal(t, "Example Registrar, Inc.", registrar.Version)

	resp = env.do(t, http.MethodGet, "/api/tabs/1/state", nil)
	state := decodeBody[models.TabState](t, resp)
	require.NotNil(t, state.Report)
	assert.Equal(t, data.Report.Len(), state.Report.Len())
}

func TestDetectPermissionDenied(t *testing.T) {
	env := newTestEnv(t)
	tab := env.openTab(t, "https://chromewebstore.google.com/detail/abc", "<html></html>")

	resp := env.do(t, http.MethodPost, "/api/detect", models.StartDetectionRequest{TabID: tab.ID})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	ack := decodeBody[models.Ack](t, resp)
	assert.False(t, ack.Success)
	assert.Contains(t, ack.Error, "permission denied")
	assert.Empty(t, env.domains())
}

func TestTabLifecycle(t *testing.T) {
	env := newTestEnv(t)
	first := env.openTab(t, "https://a.example/", "<html></html>")
	second := env.openTab(t, "https://b.example/", "<html></html>")

	resp := env.do(t, http.MethodPut, "/api/tabs/"+strconv.Itoa(first.ID)+"/activate", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/tabs", nil)
	tabs := decodeBody[[]host.Tab](t, resp)
	require.Len(t, tabs, 2)
	assert.True(t, tabs[0].Active)
	assert.False(t, tabs[1].Active)

	resp = env.do(t, http.MethodPut, "/api/tabs/"+strconv.Itoa(second.ID)+"/snapshot", map[string]any{
		"url":  "https://c.example/",
		"html": "<html><body>moved</body></html>",
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/tabs/"+strconv.Itoa(second.ID)+"/requests", map[string]any{
		"urls": []string{"https://c.example/api/items"},
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/tabs/"+strconv.Itoa(second.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = env.do(t, http.MethodDelete, "/api/tabs/"+strconv.Itoa(second.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBadRequests(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/tabs/abc/state", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/tabs", map[string]any{"active": true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/api/tabs/9/activate", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/detect", models.StartDetectionRequest{TabID: 9})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, decodeBody[models.Ack](t, resp).Error)

	resp = env.do(t, http.MethodGet, "/api/technologies", nil)
	assert.Contains(t, decodeBody[models.TechData](t, resp).Error, "no active tab")
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req, err := http.NewRequest(http.MethodOptions, env.http.URL+"/api/detect", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "chrome-extension://abcdef")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestEventsReachWebsocketClients(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go env.server.hub.Run(ctx)
	go env.server.pumpEvents(ctx)

	wsURL := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/ws"
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return env.server.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	tab := env.openTab(t, "https://www.example.com/", reactPage)
	resp := env.do(t, http.MethodPost, "/api/detect", models.StartDetectionRequest{TabID: tab.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var types []string
	var last models.Event
	for len(types) < 3 {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg struct {
			Type string       `json:"type"`
			Data models.Event `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		types = append(types, msg.Type)
		last = msg.Data
	}
	assert.Equal(t, []string{"ANALYSIS_STATUS", "TECH_DETECTED", "TECH_DETECTED"}, types)
	assert.False(t, last.IsAnalyzing)
	assert.Equal(t, tab.ID, last.TabID)
	require.NotNil(t, last.Report)
}

