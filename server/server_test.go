package server

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/rossdash/section"
	"github.com/arloliu/rossdash/table"
)

func newTestServer(t *testing.T) (*Server, *table.Telemetry) {
	t.Helper()

	b := table.NewBuilder()
	for i := range 4 {
		require.NoError(t, b.Append(section.PERecord{
			PEID: uint32(i % 2), EventsProcessed: uint32(10 * i), EventsRolledBack: uint32(i),
			VirtualTime: float64(i), RealTime: float64(i) / 10,
		}.Sample()))
	}
	require.NoError(t, b.Append(section.KPRecord{PEID: 3, KPID: 1, EventsProcessed: 10, EventsRolledBack: 2,
		TotalRollbacks: 1, NetworkSends: 5, NetworkReads: 4, TimeAheadGVT: 0.01, Efficiency: 0.9,
		VirtualTime: 1.5, RealTime: 0.2}.Sample()))
	tel := b.Build()

	logger, _ := logtest.NewNullLogger()
	srv, err := New(tel, WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	return srv, tel
}

func do(t *testing.T, srv *Server, method, target, body string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}

	return rec.Code, out
}

func columnValuesOf(t *testing.T, resp map[string]any, name string) []any {
	t.Helper()

	for _, c := range resp["columns"].([]any) {
		col := c.(map[string]any)
		if col["name"] == name {
			return col["values"].([]any)
		}
	}
	t.Fatalf("column %s missing", name)

	return nil
}

func TestTables(t *testing.T) {
	srv, _ := newTestServer(t)

	code, resp := do(t, srv, http.MethodGet, "/api/v1/tables", "")
	require.Equal(t, http.StatusOK, code)

	tables := resp["tables"].([]any)
	require.Len(t, tables, 3)
	pe := tables[0].(map[string]any)
	require.Equal(t, "pe", pe["kind"])
	require.InDelta(t, 4, pe["rows"], 0)
	first := pe["columns"].([]any)[0].(map[string]any)
	require.Equal(t, "PE ID", first["title"])
	require.Contains(t, pe["metrics"], "events_processed")
}

func TestRows_KPScenario(t *testing.T) {
	srv, _ := newTestServer(t)

	code, resp := do(t, srv, http.MethodGet, "/api/v1/tables/kp/rows", "")
	require.Equal(t, http.StatusOK, code)
	require.InDelta(t, 1, resp["count"], 0)
	require.Len(t, resp["columns"], 13)
	require.Equal(t, []any{3.0}, columnValuesOf(t, resp, "PE_ID"))
	require.Equal(t, []any{1.0}, columnValuesOf(t, resp, "KP_ID"))
	require.Equal(t, []any{10.0}, columnValuesOf(t, resp, "events_processed"))
	require.Equal(t, []any{2.0}, columnValuesOf(t, resp, "events_rolled_back"))
	require.Equal(t, []any{5.0}, columnValuesOf(t, resp, "network_sends"))
	require.Equal(t, []any{4.0}, columnValuesOf(t, resp, "network_reads"))
	require.Equal(t, []any{1.5}, columnValuesOf(t, resp, "virtual_time"))
	require.Equal(t, []any{0.2}, columnValuesOf(t, resp, "real_time"))
	require.NotContains(t, resp, "min")
}

func TestRows_RangeAndColumns(t *testing.T) {
	srv, _ := newTestServer(t)

	code, resp := do(t, srv, http.MethodGet,
		"/api/v1/tables/pe/rows?columns=PE_ID,events_processed&min=1&max=2", "")
	require.Equal(t, http.StatusOK, code)
	require.InDelta(t, 2, resp["count"], 0)
	require.Len(t, resp["columns"], 2)
	require.Equal(t, []any{10.0, 20.0}, columnValuesOf(t, resp, "events_processed"))
	require.InDelta(t, 1, resp["min"], 0)

	// An open upper bound.
	_, resp = do(t, srv, http.MethodGet, "/api/v1/tables/pe/rows?columns=events_processed&basis=real&min=0.2", "")
	require.Equal(t, []any{20.0, 30.0}, columnValuesOf(t, resp, "events_processed"))
	require.Equal(t, "real_time", resp["basis"])
	require.Nil(t, resp["max"])

	// Empty ranges are fine.
	code, resp = do(t, srv, http.MethodGet, "/api/v1/tables/pe/rows?min=100&max=200", "")
	require.Equal(t, http.StatusOK, code)
	require.InDelta(t, 0, resp["count"], 0)
}

func TestRows_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		target string
		code   int
	}{
		{"/api/v1/tables/gvt/rows", http.StatusNotFound},
		{"/api/v1/tables/pe/rows?columns=nope", http.StatusBadRequest},
		{"/api/v1/tables/pe/rows?min=3&max=1", http.StatusBadRequest},
		{"/api/v1/tables/pe/rows?min=abc", http.StatusBadRequest},
		{"/api/v1/tables/pe/rows?basis=wall", http.StatusBadRequest},
		{"/api/v1/tables/pe/rows?all=maybe", http.StatusBadRequest},
		{"/api/v1/tables/lp/span?basis=wall", http.StatusBadRequest},
		{"/api/v1/tables/xx/span", http.StatusNotFound},
	}
	for _, tc := range cases {
		code, resp := do(t, srv, http.MethodGet, tc.target, "")
		require.Equal(t, tc.code, code, tc.target)
		require.NotEmpty(t, resp["error"], tc.target)
	}
}

func TestSpan(t *testing.T) {
	srv, _ := newTestServer(t)

	code, resp := do(t, srv, http.MethodGet, "/api/v1/tables/pe/span?basis=virtual_time", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, false, resp["empty"])
	require.InDelta(t, 0, resp["min"], 0)
	require.InDelta(t, 3, resp["max"], 0)

	_, resp = do(t, srv, http.MethodGet, "/api/v1/tables/lp/span", "")
	require.Equal(t, true, resp["empty"])
}

func TestWindowLifecycle(t *testing.T) {
	srv, tel := newTestServer(t)

	code, resp := do(t, srv, http.MethodGet, "/api/v1/window", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, false, resp["bounded"])
	require.InDelta(t, 0, resp["generation"], 0)

	code, resp = do(t, srv, http.MethodPut, "/api/v1/window", `{"basis":"virtual","min":1,"max":2}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, resp["bounded"])
	require.InDelta(t, 1, resp["generation"], 0)
	require.True(t, tel.Window().Bounded)

	_, resp = do(t, srv, http.MethodGet, "/api/v1/tables/pe/rows?columns=events_processed", "")
	require.Equal(t, []any{10.0, 20.0}, columnValuesOf(t, resp, "events_processed"))
	require.InDelta(t, 2, resp["max"], 0)

	_, resp = do(t, srv, http.MethodGet, "/api/v1/tables/pe/rows?columns=events_processed&all=true", "")
	require.InDelta(t, 4, resp["count"], 0)

	// Changes made outside the API bump the generation too.
	require.NoError(t, tel.SetTimeRange(0, 0, 0))
	require.Equal(t, uint64(2), srv.Generation())

	code, resp = do(t, srv, http.MethodDelete, "/api/v1/window", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, false, resp["bounded"])
	require.InDelta(t, 3, resp["generation"], 0)

	_, resp = do(t, srv, http.MethodGet, "/api/v1/tables/pe/rows", "")
	require.InDelta(t, 4, resp["count"], 0)
}

func TestSetWindow_BadBodies(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, body := range []string{
		`not json`,
		`{"min":1}`,
		`{"basis":"wall","min":1,"max":2}`,
		`{"min":1,"max":2,"extra":true}`,
		`{"min":3,"max":2}`,
	} {
		code, resp := do(t, srv, http.MethodPut, "/api/v1/window", body)
		require.Equal(t, http.StatusBadRequest, code, body)
		require.NotEmpty(t, resp["error"])
	}
	require.Zero(t, srv.Generation())
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	do(t, srv, http.MethodGet, "/api/v1/tables/pe/rows", "")
	do(t, srv, http.MethodGet, "/api/v1/tables/zz/rows", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, `rossdash_http_requests_total{code="200",route="/api/v1/tables/{kind}/rows"} 1`)
	require.Contains(t, body, `rossdash_http_requests_total{code="404",route="/api/v1/tables/{kind}/rows"} 1`)
	require.Contains(t, body, `rossdash_rows_served_total{kind="pe"} 4`)
	require.Contains(t, body, `rossdash_table_rows{kind="kp"} 1`)
}

func TestFloat_MarshalJSON(t *testing.T) {
	out, err := json.Marshal([]Float{1.5, Float(math.NaN()), Float(math.Inf(1)), 2})
	require.NoError(t, err)
	require.Equal(t, `[1.5,null,null,2]`, string(out))
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
