package console

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"charge-console/internal/config"
	"charge-console/internal/gateway"
	"charge-console/internal/schema"
	"charge-console/internal/session"
)

type testConsole struct {
	app      *fiber.App
	sessions *session.Store
}

func newTestConsole(t *testing.T, upstream http.Handler) *testConsole {
	t.Helper()

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	sessions, err := session.NewStore(context.Background(), config.SessionConfig{
		Path: t.TempDir(), Name: "console-test", TTLHours: 1,
	})
	if err != nil {
		t.Fatalf("open session store: %v", err)
	}
	t.Cleanup(func() { sessions.Close() })

	registry := schema.NewRegistry()
	registry.Load(schema.BuiltinScreens())

	handler, err := NewHandler(gateway.New(srv.URL), sessions, registry, "Test Report")
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterAuthRoutes(app, handler)
	RegisterRoutes(app, handler, handler.RequireSession())

	return &testConsole{app: app, sessions: sessions}
}

func (tc *testConsole) addSession(t *testing.T, id, role, operatorID string) {
	t.Helper()
	user := schema.Record{"role": role}
	if operatorID != "" {
		user["operatorId"] = operatorID
	}
	sess := session.FromLogin(id, "upstream-token", "refresh", "", user)
	sess.ExpiresAt = time.Now().Add(time.Hour)
	if err := tc.sessions.Put(context.Background(), sess); err != nil {
		t.Fatalf("store session: %v", err)
	}
}

func (tc *testConsole) do(t *testing.T, method, path, sessionID string, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, _ := http.NewRequest(method, path, reader)
	if sessionID != "" {
		req.Header.Set("Authorization", "Bearer "+sessionID)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := tc.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("parse response %s: %v", raw, err)
	}
	return out
}

func pagingStub(total int, rows ...schema.Record) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := schema.PagingResponse{Result: rows}
		resp.Pagination.Length = total
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func TestList_UnknownScreenReturns404(t *testing.T) {
	tc := newTestConsole(t, http.NotFoundHandler())
	tc.addSession(t, "sid", "admin", "")

	resp := tc.do(t, "GET", "/api/screens/nonexistent", "sid", "")
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	errObj := body["error"].(map[string]any)
	if errObj["code"] != "UNKNOWN_SCREEN" {
		t.Fatalf("expected UNKNOWN_SCREEN, got %v", errObj["code"])
	}
	if !strings.Contains(errObj["message"].(string), "nonexistent") {
		t.Fatalf("message should name the screen: %v", errObj["message"])
	}
}

func TestList_MissingSessionReturns401(t *testing.T) {
	tc := newTestConsole(t, http.NotFoundHandler())

	resp := tc.do(t, "GET", "/api/screens/stations", "", "")
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestList_ReturnsPageAndMeta(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/Stations/Paging", pagingStub(2,
		schema.Record{"id": 1, "name": "North Plaza"},
		schema.Record{"id": 2, "name": "South Yard"},
	))
	tc := newTestConsole(t, mux)
	tc.addSession(t, "sid", "admin", "")

	resp := tc.do(t, "GET", "/api/screens/stations?page=1&pageSize=10", "sid", "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)

	data := body["data"].([]any)
	if len(data) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(data))
	}
	meta := body["meta"].(map[string]any)
	if meta["totalItems"].(float64) != 2 {
		t.Fatalf("expected totalItems 2, got %v", meta["totalItems"])
	}
	if notices := body["notices"].([]any); len(notices) != 0 {
		t.Fatalf("expected no notices, got %v", notices)
	}
}

func TestList_UpstreamFailureDegradesToEmptyPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Stations/Paging", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(500)
		_, _ = w.Write([]byte(`{"message":"database gone"}`))
	})
	tc := newTestConsole(t, mux)
	tc.addSession(t, "sid", "admin", "")

	resp := tc.do(t, "GET", "/api/screens/stations", "sid", "")
	if resp.StatusCode != 200 {
		t.Fatalf("list failures must not fail the view, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if data := body["data"].([]any); len(data) != 0 {
		t.Fatalf("expected empty page, got %v", data)
	}
	notices := body["notices"].([]any)
	if len(notices) != 1 || !strings.Contains(notices[0].(string), "database gone") {
		t.Fatalf("expected one notice with the server message, got %v", notices)
	}
}

func TestList_OperatorSessionScoped(t *testing.T) {
	var gotFilters []string
	mux := http.NewServeMux()
	mux.HandleFunc("/Stations/Paging", func(w http.ResponseWriter, r *http.Request) {
		var req schema.PagingRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotFilters = req.Filter
		pagingStub(0)(w, r)
	})
	tc := newTestConsole(t, mux)
	tc.addSession(t, "sid-op", "operator", "42")

	resp := tc.do(t, "GET", "/api/screens/stations?filter=city%3DAustin", "sid-op", "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if len(gotFilters) != 2 || gotFilters[0] != "city=Austin" || gotFilters[1] != "operatorId=42" {
		t.Fatalf("expected tenant filter appended after caller filters, got %v", gotFilters)
	}
}

func TestDelete_UpstreamFailureReleasesGuard(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Stations/5", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(404)
		_, _ = w.Write([]byte(`{"message":"Not found"}`))
	})
	tc := newTestConsole(t, mux)
	tc.addSession(t, "sid", "admin", "")

	resp := tc.do(t, "DELETE", "/api/screens/stations/rows/5", "sid", "")
	if resp.StatusCode != 404 {
		t.Fatalf("expected upstream status passed through, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	errObj := body["error"].(map[string]any)
	if !strings.Contains(errObj["message"].(string), "Not found") {
		t.Fatalf("expected server message, got %v", errObj["message"])
	}

	// The in-flight guard must be released: a retry reaches upstream
	// again instead of tripping over OPERATION_IN_FLIGHT.
	resp = tc.do(t, "DELETE", "/api/screens/stations/rows/5", "sid", "")
	if resp.StatusCode == 409 {
		t.Fatal("failed delete left its in-flight guard set")
	}
}

func TestCreate_ValidationFailureDoesNotCallUpstream(t *testing.T) {
	called := false
	mux := http.NewServeMux()
	mux.HandleFunc("/Operators", func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	tc := newTestConsole(t, mux)
	tc.addSession(t, "sid", "admin", "")

	// Missing the required email.
	resp := tc.do(t, "POST", "/api/screens/operators", "sid", `{"name":"VoltCo"}`)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	errObj := body["error"].(map[string]any)
	if errObj["code"] != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %v", errObj["code"])
	}
	if called {
		t.Fatal("validation failures must never reach the network")
	}
}

func TestCreate_ReadOnlyScreenForbidden(t *testing.T) {
	tc := newTestConsole(t, http.NotFoundHandler())
	tc.addSession(t, "sid", "admin", "")

	resp := tc.do(t, "POST", "/api/screens/connectors", "sid", `{"name":"CCS"}`)
	if resp.StatusCode != 403 {
		t.Fatalf("expected 403 for read-only screen, got %d", resp.StatusCode)
	}
}

func TestExpand_ChildFailureCarriesParentContext(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ChargingBays/Paging", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(500)
		_, _ = w.Write([]byte(`{"message":"bays offline"}`))
	})
	tc := newTestConsole(t, mux)
	tc.addSession(t, "sid", "admin", "")

	resp := tc.do(t, "POST", "/api/screens/stations/rows/7/expand", "sid", "")
	if resp.StatusCode != 502 {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	msg := body["error"].(map[string]any)["message"].(string)
	if !strings.Contains(msg, "7") || !strings.Contains(msg, "bays offline") {
		t.Fatalf("expected parent-specific message, got %q", msg)
	}
}

func TestExpand_SecondToggleCollapsesWithoutFetch(t *testing.T) {
	fetches := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/ChargingBays/Paging", func(w http.ResponseWriter, r *http.Request) {
		fetches++
		var req schema.PagingRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Filter) != 1 || req.Filter[0] != "stationId=7" {
			t.Errorf("expected parent filter, got %v", req.Filter)
		}
		pagingStub(1, schema.Record{"id": 10, "code": "B1"})(w, r)
	})
	tc := newTestConsole(t, mux)
	tc.addSession(t, "sid", "admin", "")

	resp := tc.do(t, "POST", "/api/screens/stations/rows/7/expand", "sid", "")
	if resp.StatusCode != 200 {
		t.Fatalf("expand failed: %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["expanded"] != true {
		t.Fatalf("expected expanded true, got %v", body["expanded"])
	}

	// collapse, then re-expand: cached, no extra upstream paging calls
	tc.do(t, "POST", "/api/screens/stations/rows/7/expand", "sid", "")
	tc.do(t, "POST", "/api/screens/stations/rows/7/expand", "sid", "")

	if fetches != 1 {
		t.Fatalf("expected exactly one child fetch, got %d", fetches)
	}
}

func TestFilters_ApplyDrivesListRequests(t *testing.T) {
	var gotFilters []string
	mux := http.NewServeMux()
	mux.HandleFunc("/Stations/Paging", func(w http.ResponseWriter, r *http.Request) {
		var req schema.PagingRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotFilters = req.Filter
		pagingStub(0)(w, r)
	})
	tc := newTestConsole(t, mux)
	tc.addSession(t, "sid", "admin", "")

	resp := tc.do(t, "PUT", "/api/screens/stations/filters", "sid", `{"active":true,"city":"Austin"}`)
	if resp.StatusCode != 200 {
		t.Fatalf("apply filters failed: %d", resp.StatusCode)
	}

	tc.do(t, "GET", "/api/screens/stations", "sid", "")
	// predicates serialize in form field order: city before active
	if len(gotFilters) != 2 || gotFilters[0] != "city=Austin" || gotFilters[1] != "active=true" {
		t.Fatalf("expected applied filters as ordered predicates, got %v", gotFilters)
	}

	// An empty value removes its entry, the rest survives.
	tc.do(t, "PUT", "/api/screens/stations/filters", "sid", `{"city":""}`)
	tc.do(t, "GET", "/api/screens/stations", "sid", "")
	if len(gotFilters) != 1 || gotFilters[0] != "active=true" {
		t.Fatalf("expected cleared city to drop its predicate, got %v", gotFilters)
	}

	tc.do(t, "DELETE", "/api/screens/stations/filters", "sid", "")
	tc.do(t, "GET", "/api/screens/stations", "sid", "")
	if len(gotFilters) != 0 {
		t.Fatalf("expected no predicates after clear, got %v", gotFilters)
	}
}

func TestMenuToggle_ActionsFollowScreenCapabilities(t *testing.T) {
	tc := newTestConsole(t, http.NotFoundHandler())
	tc.addSession(t, "sid", "admin", "")

	actions := func(screen string) []any {
		resp := tc.do(t, "POST", "/api/screens/"+screen+"/menu/r1/toggle", "sid", "")
		return decodeBody(t, resp)["data"].(map[string]any)["actions"].([]any)
	}

	// connectors is read-only with no activation, approval or QR code
	got := actions("connectors")
	if len(got) != 1 || got[0] != "view" {
		t.Fatalf("expected only view on connectors, got %v", got)
	}

	// account requests add the approval pair on top of view
	got = actions("account-requests")
	want := []string{"view", "approve", "reject"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i, name := range want {
		if got[i] != name {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	// stations are writable, activatable and carry a QR code field
	got = actions("stations")
	want = []string{"view", "edit", "delete", "toggle-activate", "qrcode"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestMenuToggle_PlacementFlipsWhenSpaceRunsOut(t *testing.T) {
	tc := newTestConsole(t, http.NotFoundHandler())
	tc.addSession(t, "sid", "admin", "")

	// stations show 5 actions; 5*40 = 200 units needed
	resp := tc.do(t, "POST", "/api/screens/stations/menu/r1/toggle", "sid", "")
	data := decodeBody(t, resp)["data"].(map[string]any)
	if data["placement"] != "below" {
		t.Fatalf("expected below without a space constraint, got %v", data["placement"])
	}

	resp = tc.do(t, "POST", "/api/screens/stations/menu/r1/toggle?spaceBelow=120", "sid", "")
	data = decodeBody(t, resp)["data"].(map[string]any)
	if data["placement"] != "above" {
		t.Fatalf("expected above with 120 units for 5 actions, got %v", data["placement"])
	}

	resp = tc.do(t, "POST", "/api/screens/stations/menu/r1/toggle?spaceBelow=200", "sid", "")
	data = decodeBody(t, resp)["data"].(map[string]any)
	if data["placement"] != "below" {
		t.Fatalf("expected exact fit to stay below, got %v", data["placement"])
	}
}

func TestMenuToggle_SwitchingRows(t *testing.T) {
	tc := newTestConsole(t, http.NotFoundHandler())
	tc.addSession(t, "sid", "admin", "")

	tc.do(t, "POST", "/api/screens/stations/menu/rowA/toggle", "sid", "")
	resp := tc.do(t, "POST", "/api/screens/stations/menu/rowB/toggle", "sid", "")

	body := decodeBody(t, resp)
	data := body["data"].(map[string]any)
	if data["openRow"] != "rowB" {
		t.Fatalf("expected only rowB open, got %v", data["openRow"])
	}
}

func TestApprove_RequiresApprovableScreen(t *testing.T) {
	tc := newTestConsole(t, http.NotFoundHandler())
	tc.addSession(t, "sid", "admin", "")

	resp := tc.do(t, "POST", "/api/screens/stations/rows/1/approve", "sid", `{"adminResponse":"ok"}`)
	if resp.StatusCode != 403 {
		t.Fatalf("expected 403 for non-approvable screen, got %d", resp.StatusCode)
	}
}

func TestExpiredSession_PurgedAndRejected(t *testing.T) {
	tc := newTestConsole(t, http.NotFoundHandler())
	user := schema.Record{"role": "admin"}
	sess := session.FromLogin("sid-old", "tok", "ref", "", user)
	sess.ExpiresAt = time.Now().Add(-time.Minute)
	if err := tc.sessions.Put(context.Background(), sess); err != nil {
		t.Fatal(err)
	}

	resp := tc.do(t, "GET", "/api/screens/stations", "sid-old", "")
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if code := body["error"].(map[string]any)["code"]; code != "SESSION_EXPIRED" {
		t.Fatalf("expected SESSION_EXPIRED, got %v", code)
	}

	if _, err := tc.sessions.Get(context.Background(), "sid-old"); err == nil {
		t.Fatal("expired session must be purged from the store")
	}
}
