package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rahul/agentdesk/internal/agent"
	"github.com/rahul/agentdesk/internal/observability"
	"github.com/rahul/agentdesk/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	h, err := store.NewHistoryStore(":memory:", 10)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })

	prompts := agent.MustDefaultPrompts()
	logger := observability.NopLogger()
	desk := &agent.Desk{
		Coordinator: agent.NewCoordinator(logger,
			agent.NewResearchAgent(nil, prompts, logger),
			agent.NewAnalysisAgent(),
			agent.NewWritingAgent(nil, prompts, logger),
		),
		Simple: agent.NewSimpleAgent(nil, prompts, logger),
		Store:  h,
		Logger: logger,
	}

	srv := httptest.NewServer(NewWebServer(":0", desk, false).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postQuery(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/v1/query", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestQueryAPI_Multi(t *testing.T) {
	srv := newTestServer(t)

	resp := postQuery(t, srv, `{"query":"What is machine learning and calculate 10 + 5?"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out agent.Outcome
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, agent.ModeMulti, out.Mode)
	require.NotNil(t, out.State)
	assert.Len(t, out.State.Plan, 2)
	assert.Contains(t, out.Answer, "📊 **Analysis Results:**\n🧮 10 + 5 = 15")
}

func TestQueryAPI_Single(t *testing.T) {
	srv := newTestServer(t)

	resp := postQuery(t, srv, `{"query":"Calculate 100 * 2","mode":"single"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out agent.Outcome
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "The answer is: 🧮 100 * 2 = 200", out.Answer)
	assert.Nil(t, out.State)
}

func TestQueryAPI_BadRequests(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []string{`{"query":"   "}`, `{"query":"hi","mode":"swarm"}`, `not json`} {
		resp := postQuery(t, srv, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}

	resp, err := http.Get(srv.URL + "/api/v1/query")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHistoryAPI(t *testing.T) {
	srv := newTestServer(t)
	postQuery(t, srv, `{"query":"hello","mode":"single"}`)
	postQuery(t, srv, `{"query":"explain blockchain"}`)

	resp, err := http.Get(srv.URL + "/api/v1/history?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var hist HistoryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&hist))
	require.Len(t, hist.Runs, 1)
	assert.Equal(t, "explain blockchain", hist.Runs[0].Query)

	bad, err := http.Get(srv.URL + "/api/v1/history?limit=zero")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/history", nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)

	after, err := http.Get(srv.URL + "/api/v1/history")
	require.NoError(t, err)
	defer after.Body.Close()
	hist = HistoryResponse{}
	require.NoError(t, json.NewDecoder(after.Body).Decode(&hist))
	assert.Empty(t, hist.Runs)
}

func TestIndexPage(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.PostForm(srv.URL+"/", url.Values{"query": {"Calculate 15 * 25 and write a technical summary"}, "mode": {"multi"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	page := body.String()
	assert.Contains(t, page, "Execution Plan")
	assert.Contains(t, page, "15 * 25 = 375")
	assert.Contains(t, page, "📋 Quick summary")

	missing, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestIndexPage_EscapesInput(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.PostForm(srv.URL+"/", url.Values{"query": {"<script>alert(1)</script> explain"}})
	require.NoError(t, err)
	defer resp.Body.Close()

	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, body.String(), "<script>alert(1)</script>")
}

func TestHealthStatusMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "healthy", health.Status)

	resp, err = http.Get(srv.URL + "/api/v1/status")
	require.NoError(t, err)
	var status StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	resp.Body.Close()
	assert.False(t, status.BackendConfigured)
	assert.NotEmpty(t, status.Uptime)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "agentdesk_http_requests_total")
}

func TestWebServer_StartStops(t *testing.T) {
	s := NewWebServer("127.0.0.1:0", nil, false)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}
