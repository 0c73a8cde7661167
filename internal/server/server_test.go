package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"hindsight/internal/config"
	"hindsight/internal/db"
	"hindsight/internal/engine"
	"hindsight/internal/engine/auth"
	"hindsight/internal/insight"
	"hindsight/internal/migrate"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, config.Default())
	e.Now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	handler, err := New(Config{
		Engine:   e,
		Identity: auth.NewService(conn),
		Insight:  insight.Analyzer{},
		BasePath: "/api/v1",
		Auth:     AuthConfig{JWTSecret: "test-secret"},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func registerUser(t *testing.T, srv *testServer, email string) (string, map[string]string) {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/v1/auth/register", map[string]any{
		"email":    email,
		"name":     "Tester",
		"password": "password123",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d: %s", res.StatusCode, string(data))
	}
	var tr TokenResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		t.Fatalf("unmarshal token: %v", err)
	}
	if tr.Token == "" || tr.User.ID == "" {
		t.Fatalf("incomplete token response: %s", string(data))
	}
	return tr.Token, map[string]string{"Authorization": "Bearer " + tr.Token}
}

func sampleDecision() map[string]any {
	return map[string]any{
		"title":   "Change jobs",
		"context": "career",
		"options": []map[string]any{
			{"name": "stay", "pros": []string{"stable"}},
			{"name": "leave", "cons": []string{"risky"}},
		},
		"confidence":  7,
		"assumptions": []map[string]any{{"statement": "New team ships fast"}},
		"target_date": "2026-02-01",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	_, headers := registerUser(t, srv, "alice@example.com")

	// duplicate registration rejected
	dupRes, dupBody := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/auth/register", map[string]any{
		"email":    "alice@example.com",
		"password": "password123",
	}, nil)
	if dupRes.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate register: %d %s", dupRes.StatusCode, string(dupBody))
	}

	loginRes, loginBody := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "password123",
	}, nil)
	if loginRes.StatusCode != http.StatusOK {
		t.Fatalf("login: %d %s", loginRes.StatusCode, string(loginBody))
	}

	badRes, badBody := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "wrong-password",
	}, nil)
	if badRes.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: %d %s", badRes.StatusCode, string(badBody))
	}

	meRes, meBody := doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/me", nil, headers)
	if meRes.StatusCode != http.StatusOK {
		t.Fatalf("me: %d %s", meRes.StatusCode, string(meBody))
	}
	var me UserResponse
	_ = json.Unmarshal(meBody, &me)
	if me.Email != "alice@example.com" {
		t.Fatalf("unexpected me payload: %s", string(meBody))
	}
}

func TestAuthRequired(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, body := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/v1/decisions", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d %s", res.StatusCode, string(body))
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if envelope.Error.Code != "unauthorized" {
		t.Fatalf("unexpected error code: %s", string(body))
	}
}

func TestDecisionLifecycle(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	_, headers := registerUser(t, srv, "bob@example.com")

	createRes, createBody := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/decisions", sampleDecision(), headers)
	if createRes.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %s", createRes.StatusCode, string(createBody))
	}
	var created DecisionResponse
	if err := json.Unmarshal(createBody, &created); err != nil {
		t.Fatalf("unmarshal decision: %v", err)
	}
	if created.Outcome != "pending" || !created.Due {
		t.Fatalf("expected pending and due: %s", string(createBody))
	}
	if created.ChosenOptionID != created.Options[0].ID {
		t.Fatalf("expected default chosen option")
	}

	listRes, listBody := doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/decisions", nil, headers)
	if listRes.StatusCode != http.StatusOK {
		t.Fatalf("list: %d %s", listRes.StatusCode, string(listBody))
	}
	var page paginatedDecisions
	_ = json.Unmarshal(listBody, &page)
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 decision, got %d", len(page.Items))
	}

	dueRes, dueBody := doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/decisions/due", nil, headers)
	if dueRes.StatusCode != http.StatusOK {
		t.Fatalf("due: %d %s", dueRes.StatusCode, string(dueBody))
	}
	var due []DecisionResponse
	_ = json.Unmarshal(dueBody, &due)
	if len(due) != 1 || due[0].ID != created.ID {
		t.Fatalf("expected created decision due: %s", string(dueBody))
	}

	// a review without lessons never closes
	noLessonsRes, noLessonsBody := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/decisions/"+created.ID+"/review", map[string]any{
		"outcome":       "success",
		"what_happened": "New role worked out",
	}, headers)
	if noLessonsRes.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without lessons, got %d %s", noLessonsRes.StatusCode, string(noLessonsBody))
	}

	review := map[string]any{
		"outcome":       "success",
		"what_happened": "New role worked out",
		"lessons":       "Negotiate before accepting",
		"assumptions":   map[string]bool{created.Assumptions[0].ID: true},
	}
	revRes, revBody := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/decisions/"+created.ID+"/review", review, headers)
	if revRes.StatusCode != http.StatusOK {
		t.Fatalf("review: %d %s", revRes.StatusCode, string(revBody))
	}
	var reviewed DecisionResponse
	_ = json.Unmarshal(revBody, &reviewed)
	if reviewed.Review == nil || reviewed.Outcome != "success" || reviewed.Due {
		t.Fatalf("unexpected reviewed state: %s", string(revBody))
	}

	againRes, againBody := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/decisions/"+created.ID+"/review", review, headers)
	if againRes.StatusCode != http.StatusConflict {
		t.Fatalf("expected conflict on second review, got %d %s", againRes.StatusCode, string(againBody))
	}

	delRes, delBody := doJSON(t, client, http.MethodDelete, srv.URL+"/api/v1/decisions/"+created.ID, nil, headers)
	if delRes.StatusCode >= 300 {
		t.Fatalf("delete: %d %s", delRes.StatusCode, string(delBody))
	}
	getRes, getBody := doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/decisions/"+created.ID, nil, headers)
	if getRes.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d %s", getRes.StatusCode, string(getBody))
	}
}

func TestDecisionPaginationWalksEveryItem(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	_, headers := registerUser(t, srv, "hank@example.com")

	want := map[string]bool{}
	for i := 0; i < 3; i++ {
		_, body := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/decisions", sampleDecision(), headers)
		var d DecisionResponse
		if err := json.Unmarshal(body, &d); err != nil {
			t.Fatalf("unmarshal decision: %v", err)
		}
		want[d.ID] = true
	}

	// walking one-item pages must visit every decision exactly once
	got := map[string]bool{}
	cursor := ""
	for pages := 0; ; pages++ {
		if pages > len(want) {
			t.Fatalf("cursor never terminated after %d pages", pages)
		}
		url := srv.URL + "/api/v1/decisions?limit=1"
		if cursor != "" {
			url += "&cursor=" + cursor
		}
		res, body := doJSON(t, client, http.MethodGet, url, nil, headers)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("list page: %d %s", res.StatusCode, string(body))
		}
		var page paginatedDecisions
		if err := json.Unmarshal(body, &page); err != nil {
			t.Fatalf("unmarshal page: %v", err)
		}
		for _, d := range page.Items {
			if got[d.ID] {
				t.Fatalf("decision %s returned twice", d.ID)
			}
			got[d.ID] = true
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	if len(got) != len(want) {
		t.Fatalf("walk returned %d of %d decisions", len(got), len(want))
	}
}

func TestCrossOwnerLookupIsNotFound(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	_, aliceHeaders := registerUser(t, srv, "alice@example.com")
	_, eveHeaders := registerUser(t, srv, "eve@example.com")

	createRes, createBody := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/decisions", sampleDecision(), aliceHeaders)
	if createRes.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %s", createRes.StatusCode, string(createBody))
	}
	var created DecisionResponse
	_ = json.Unmarshal(createBody, &created)

	res, body := doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/decisions/"+created.ID, nil, eveHeaders)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for other owner, got %d %s", res.StatusCode, string(body))
	}
}

func TestStatsAndDashboard(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	_, headers := registerUser(t, srv, "carol@example.com")

	_, createBody := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/decisions", sampleDecision(), headers)
	var created DecisionResponse
	_ = json.Unmarshal(createBody, &created)
	doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/decisions/"+created.ID+"/review", map[string]any{
		"outcome":       "failure",
		"what_happened": "It did not pan out",
		"lessons":       "Check the runway first",
	}, headers)
	doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/decisions", sampleDecision(), headers)

	statsRes, statsBody := doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/stats", nil, headers)
	if statsRes.StatusCode != http.StatusOK {
		t.Fatalf("stats: %d %s", statsRes.StatusCode, string(statsBody))
	}
	var stats StatsResponse
	_ = json.Unmarshal(statsBody, &stats)
	if stats.Total != 2 || stats.ReviewedCount != 1 || stats.FailureRate != 1 {
		t.Fatalf("unexpected stats: %s", string(statsBody))
	}
	if stats.ByOutcome["pending"] != 1 || stats.ByOutcome["failure"] != 1 {
		t.Fatalf("unexpected histogram: %s", string(statsBody))
	}

	dashRes, dashBody := doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/dashboard", nil, headers)
	if dashRes.StatusCode != http.StatusOK {
		t.Fatalf("dashboard: %d %s", dashRes.StatusCode, string(dashBody))
	}
	var dash DashboardResponse
	_ = json.Unmarshal(dashBody, &dash)
	if dash.Stats.Total != 2 || len(dash.Due) != 1 || len(dash.Recent) != 2 {
		t.Fatalf("unexpected dashboard: %s", string(dashBody))
	}
}

func TestInsightsWithoutProvider(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	_, headers := registerUser(t, srv, "dave@example.com")

	res, body := doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/insights", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("insights: %d %s", res.StatusCode, string(body))
	}
	var in InsightResponse
	if err := json.Unmarshal(body, &in); err != nil {
		t.Fatalf("unmarshal insights: %v", err)
	}
	// empty journal still answers with a nudge, never an error
	if len(in.SuggestedReflections) == 0 {
		t.Fatalf("expected placeholder reflections: %s", string(body))
	}
}

func TestAPIKeyAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	_, headers := registerUser(t, srv, "frank@example.com")

	keyRes, keyBody := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/keys", map[string]any{"name": "ci"}, headers)
	if keyRes.StatusCode != http.StatusCreated {
		t.Fatalf("create key: %d %s", keyRes.StatusCode, string(keyBody))
	}
	var created CreateKeyResponse
	if err := json.Unmarshal(keyBody, &created); err != nil {
		t.Fatalf("unmarshal key: %v", err)
	}
	if created.Key == "" {
		t.Fatalf("expected plaintext key on creation")
	}

	keyHeaders := map[string]string{"X-Api-Key": created.Key}
	statsRes, statsBody := doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/stats", nil, keyHeaders)
	if statsRes.StatusCode != http.StatusOK {
		t.Fatalf("stats via key: %d %s", statsRes.StatusCode, string(statsBody))
	}

	listRes, listBody := doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/keys", nil, headers)
	if listRes.StatusCode != http.StatusOK {
		t.Fatalf("list keys: %d %s", listRes.StatusCode, string(listBody))
	}
	var keys []APIKeyResponse
	_ = json.Unmarshal(listBody, &keys)
	if len(keys) != 1 || keys[0].Name != "ci" {
		t.Fatalf("unexpected keys: %s", string(listBody))
	}

	delRes, delBody := doJSON(t, client, http.MethodDelete, srv.URL+"/api/v1/keys/"+keys[0].ID, nil, headers)
	if delRes.StatusCode >= 300 {
		t.Fatalf("delete key: %d %s", delRes.StatusCode, string(delBody))
	}
	revokedRes, _ := doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/stats", nil, keyHeaders)
	if revokedRes.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected revoked key rejected, got %d", revokedRes.StatusCode)
	}
}

func TestEventLog(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	_, headers := registerUser(t, srv, "grace@example.com")

	doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/decisions", sampleDecision(), headers)
	res, body := doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/log", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("log: %d %s", res.StatusCode, string(body))
	}
	var page paginatedEvents
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("unmarshal log: %v", err)
	}
	types := map[string]bool{}
	for _, evt := range page.Items {
		types[evt.Type] = true
	}
	if !types["user.registered"] || !types["decision.created"] {
		t.Fatalf("expected registration and decision events: %s", string(body))
	}
}
