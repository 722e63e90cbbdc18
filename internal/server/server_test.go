package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/towerscan/internal/aggregator"
	"github.com/atikulmunna/towerscan/internal/hub"
	"github.com/atikulmunna/towerscan/internal/logging"
	"github.com/atikulmunna/towerscan/internal/model"
)

type fixture struct {
	input chan model.Report
	agg   *aggregator.Aggregator
	srv   *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logging.Discard()

	input := make(chan model.Report, 4)
	h := hub.New(input, log)
	agg := aggregator.New(h.Subscribe(), h.Dropped, func() int { return 1 })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Start(ctx)
	go agg.Start(ctx)

	return &fixture{input: input, agg: agg, srv: New(h, agg, "0", log)}
}

func (f *fixture) publish(t *testing.T, r model.Report) {
	t.Helper()
	f.input <- r
	require.Eventually(t, func() bool {
		latest, ok := f.agg.Latest()
		return ok && latest.RunID == r.RunID
	}, 2*time.Second, 10*time.Millisecond)
}

func (f *fixture) get(t *testing.T, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec.Code, body
}

func testReport(id string) model.Report {
	return model.Report{
		RunID:   id,
		Summary: model.Summary{RecordsLoaded: 3, JumpsFound: 1, PlausibleFound: 1},
		Findings: []model.JumpFinding{
			{FromIndex: 0, ToIndex: 1, Classification: model.Jump},
			{FromIndex: 1, ToIndex: 2, Classification: model.Plausible},
		},
		Windows: []model.StateWindow{{Index: 0, Mixed: true}, {Index: 1}},
	}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	code, body := f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 1, body["files_watched"])
}

func TestReportNotReady(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/api/report", "/api/findings", "/api/windows"} {
		code, body := f.get(t, path)
		assert.Equal(t, http.StatusNotFound, code, path)
		assert.Contains(t, body["error"], "no report")
	}
}

func TestReportEndpoints(t *testing.T) {
	f := newFixture(t)
	f.publish(t, testReport("run-1"))

	code, body := f.get(t, "/api/report")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "run-1", body["run_id"])

	code, body = f.get(t, "/api/findings?class=jump")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])

	code, body = f.get(t, "/api/findings?class=indeterminate")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["count"])
	assert.Equal(t, []any{}, body["findings"])

	code, _ = f.get(t, "/api/findings?class=teleport")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = f.get(t, "/api/windows?mixed=true")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])

	code, _ = f.get(t, "/api/windows?mixed=maybe")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = f.get(t, "/api/stats")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["runs"])
	assert.EqualValues(t, 1, body["mixed_windows"])
}

func TestWebSocketPushesReports(t *testing.T) {
	f := newFixture(t)
	f.publish(t, testReport("run-1"))

	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var got model.Report
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "run-1", got.RunID, "latest report is sent on connect")

	f.input <- testReport("run-2")

	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "run-2", got.RunID)
	assert.Len(t, got.Findings, 2)
}
