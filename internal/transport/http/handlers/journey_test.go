package handlers_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"evaltool/internal/app/server"
	"evaltool/internal/domain/auth"
	"evaltool/internal/domain/evaluation"
	"evaltool/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Sync    *struct {
		Status string `json:"status"`
	} `json:"sync"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func testConfig() config.Config {
	return config.Config{
		Addr:               ":0",
		Environment:        "test",
		StorageDriver:      config.DriverMemory,
		StorageNamespace:   "test",
		StorageKey:         evaluation.DefaultStorageKey,
		CORSOrigins:        []string{"*"},
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 1000,
		MetricsEnabled:     true,
	}
}

func newTestServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	application, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	ts := httptest.NewServer(application.Router)
	t.Cleanup(func() {
		ts.Close()
		application.Close()
	})
	return ts
}

func doRequest(t *testing.T, client *http.Client, method, url, token string, body []byte) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, body)
	}
}

func createEmployee(t *testing.T, client *http.Client, baseURL, token, name, role string) evaluation.Employee {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"name": name, "role": role})
	resp := doRequest(t, client, http.MethodPost, baseURL+"/api/v1/employees", token, payload)
	expectStatus(t, resp, http.StatusCreated)
	env := decodeEnvelope(t, resp)
	var emp evaluation.Employee
	if err := json.Unmarshal(env.Data, &emp); err != nil {
		t.Fatalf("decode employee: %v", err)
	}
	if emp.ID == "" {
		t.Fatal("expected employee id")
	}
	return emp
}

func TestEvaluationJourney(t *testing.T) {
	ts := newTestServer(t, testConfig())
	client := ts.Client()

	emp := createEmployee(t, client, ts.URL, "", "Ali", "medical")
	if emp.Role != "medical" || len(emp.Evaluations) != 0 {
		t.Fatalf("unexpected employee: %+v", emp)
	}

	input, _ := json.Marshal(map[string]float64{
		"absences": 1, "lateness": 2, "commitment": 6, "attention": 6, "speed": 6, "relations": 6, "managerPoints": 5,
	})
	resp := doRequest(t, client, http.MethodPost, ts.URL+"/api/v1/employees/"+emp.ID+"/evaluations", "", input)
	expectStatus(t, resp, http.StatusCreated)
	env := decodeEnvelope(t, resp)
	if env.Sync == nil || env.Sync.Status != string(evaluation.SyncSkipped) {
		t.Fatalf("expected skipped sync status, got %+v", env.Sync)
	}
	var ev evaluation.Evaluation
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		t.Fatalf("decode evaluation: %v", err)
	}
	if ev.Scores.Discipline != 4 || ev.Subtotal != 28 || ev.PercentValue != 32.67 || ev.PercentRole != 35 {
		t.Fatalf("unexpected evaluation: %+v", ev)
	}

	resp = doRequest(t, client, http.MethodGet, ts.URL+"/api/v1/employees/"+emp.ID+"/evaluations", "", nil)
	expectStatus(t, resp, http.StatusOK)
	var history []evaluation.Evaluation
	if err := json.Unmarshal(decodeEnvelope(t, resp).Data, &history); err != nil || len(history) != 1 {
		t.Fatalf("expected one evaluation in history, got %+v (%v)", history, err)
	}

	resp = doRequest(t, client, http.MethodGet, ts.URL+"/api/v1/history", "", nil)
	expectStatus(t, resp, http.StatusOK)
	var summaries []map[string]any
	if err := json.Unmarshal(decodeEnvelope(t, resp).Data, &summaries); err != nil || len(summaries) != 1 {
		t.Fatalf("expected one summary row, got %+v (%v)", summaries, err)
	}
	if summaries[0]["name"] != "Ali" || summaries[0]["evaluationCount"] != float64(1) {
		t.Fatalf("unexpected summary row: %+v", summaries[0])
	}

	resp = doRequest(t, client, http.MethodGet, ts.URL+"/api/v1/export", "", nil)
	expectStatus(t, resp, http.StatusOK)
	if !strings.Contains(resp.Header.Get("Content-Disposition"), evaluation.ExportFileName) {
		t.Fatalf("unexpected content disposition %q", resp.Header.Get("Content-Disposition"))
	}
	exported, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !bytes.HasPrefix(exported, []byte("[\n  {")) {
		t.Fatalf("expected pretty-printed export, got %s", exported)
	}

	resp = doRequest(t, client, http.MethodGet, ts.URL+"/api/v1/employees/"+emp.ID+"/report.pdf", "", nil)
	expectStatus(t, resp, http.StatusOK)
	pdf, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Fatal("expected pdf body")
	}

	resp = doRequest(t, client, http.MethodGet, ts.URL+"/api/v1/export.xlsx", "", nil)
	expectStatus(t, resp, http.StatusOK)
	xlsx, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !bytes.HasPrefix(xlsx, []byte("PK")) {
		t.Fatal("expected zip-based workbook body")
	}

	resp = doRequest(t, client, http.MethodDelete, ts.URL+"/api/v1/employees/"+emp.ID, "", nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doRequest(t, client, http.MethodGet, ts.URL+"/api/v1/employees/"+emp.ID, "", nil)
	expectStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()

	resp = doRequest(t, client, http.MethodPost, ts.URL+"/api/v1/import", "", exported)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doRequest(t, client, http.MethodGet, ts.URL+"/api/v1/employees/"+emp.ID, "", nil)
	expectStatus(t, resp, http.StatusOK)
	var restored evaluation.Employee
	if err := json.Unmarshal(decodeEnvelope(t, resp).Data, &restored); err != nil || len(restored.Evaluations) != 1 {
		t.Fatalf("expected import to restore the employee, got %+v (%v)", restored, err)
	}
}

func TestPreviewDoesNotPersist(t *testing.T) {
	ts := newTestServer(t, testConfig())
	client := ts.Client()

	payload, _ := json.Marshal(map[string]any{
		"role": "psych", "commitment": 6, "attention": 6, "speed": 6, "relations": 6,
	})
	resp := doRequest(t, client, http.MethodPost, ts.URL+"/api/v1/evaluations/preview", "", payload)
	expectStatus(t, resp, http.StatusOK)
	var result struct {
		PercentValue float64 `json:"percentValue"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, resp).Data, &result); err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if result.PercentValue != 45 {
		t.Fatalf("expected 45 for psych full marks, got %v", result.PercentValue)
	}

	resp = doRequest(t, client, http.MethodGet, ts.URL+"/api/v1/employees", "", nil)
	expectStatus(t, resp, http.StatusOK)
	var list []evaluation.Employee
	if err := json.Unmarshal(decodeEnvelope(t, resp).Data, &list); err != nil || len(list) != 0 {
		t.Fatalf("expected no employees after preview, got %+v (%v)", list, err)
	}
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t, testConfig())
	client := ts.Client()

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"blank name", http.MethodPost, "/api/v1/employees", `{"name":"   "}`, http.StatusBadRequest, "validation_error"},
		{"bad json", http.MethodPost, "/api/v1/employees", `{"name":`, http.StatusBadRequest, "invalid_payload"},
		{"unknown employee", http.MethodPost, "/api/v1/employees/missing/evaluations", `{}`, http.StatusNotFound, "not_found"},
		{"unknown history", http.MethodGet, "/api/v1/employees/missing/evaluations", "", http.StatusNotFound, "not_found"},
		{"import object", http.MethodPost, "/api/v1/import", `{"id":"x"}`, http.StatusBadRequest, "malformed_import"},
	}
	for _, tc := range cases {
		var body []byte
		if tc.body != "" {
			body = []byte(tc.body)
		}
		resp := doRequest(t, client, tc.method, ts.URL+tc.path, "", body)
		expectStatus(t, resp, tc.status)
		env := decodeEnvelope(t, resp)
		if env.Success || env.Error == nil || env.Error.Code != tc.code {
			t.Fatalf("%s: expected error code %s, got %+v", tc.name, tc.code, env.Error)
		}
	}

	resp := doRequest(t, client, http.MethodDelete, ts.URL+"/api/v1/employees/missing", "", nil)
	expectStatus(t, resp, http.StatusOK)
	if env := decodeEnvelope(t, resp); env.Sync == nil || env.Sync.Status != string(evaluation.SyncSkipped) {
		t.Fatalf("expected removing a missing id to be a no-op, got %+v", env.Sync)
	}
}

func TestRawCollectionContract(t *testing.T) {
	ts := newTestServer(t, testConfig())
	client := ts.Client()

	resp := doRequest(t, client, http.MethodGet, ts.URL+"/api/employees", "", nil)
	expectStatus(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if strings.TrimSpace(string(body)) != "[]" {
		t.Fatalf("expected empty array, got %s", body)
	}

	payload := []byte(`[{"id":"e1","name":"Sara","matricule":"","role":"psych"}]`)
	resp = doRequest(t, client, http.MethodPut, ts.URL+"/api/employees", "", payload)
	expectStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = doRequest(t, client, http.MethodGet, ts.URL+"/api/employees", "", nil)
	expectStatus(t, resp, http.StatusOK)
	var list []evaluation.Employee
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode collection: %v", err)
	}
	resp.Body.Close()
	if len(list) != 1 || list[0].Name != "Sara" || list[0].Evaluations == nil {
		t.Fatalf("unexpected collection: %+v", list)
	}

	resp = doRequest(t, client, http.MethodPut, ts.URL+"/api/employees", "", []byte(`{"not":"an array"}`))
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestInstanceSyncsToRemoteInstance(t *testing.T) {
	upstream := newTestServer(t, testConfig())

	cfg := testConfig()
	cfg.RemoteURL = upstream.URL
	downstream := newTestServer(t, cfg)

	payload, _ := json.Marshal(map[string]string{"name": "Nadia", "role": "paramedical"})
	resp := doRequest(t, downstream.Client(), http.MethodPost, downstream.URL+"/api/v1/employees", "", payload)
	expectStatus(t, resp, http.StatusCreated)
	env := decodeEnvelope(t, resp)
	if env.Sync == nil || env.Sync.Status != string(evaluation.SyncOK) {
		t.Fatalf("expected ok sync status, got %+v", env.Sync)
	}

	resp = doRequest(t, upstream.Client(), http.MethodGet, upstream.URL+"/api/employees", "", nil)
	expectStatus(t, resp, http.StatusOK)
	var list []evaluation.Employee
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode upstream collection: %v", err)
	}
	resp.Body.Close()
	if len(list) != 1 || list[0].Name != "Nadia" {
		t.Fatalf("expected upstream to receive the employee, got %+v", list)
	}
}

func TestAuthRequiredWhenSecretSet(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "test-secret"
	ts := newTestServer(t, cfg)
	client := ts.Client()

	resp := doRequest(t, client, http.MethodGet, ts.URL+"/api/v1/employees", "", nil)
	expectStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = doRequest(t, client, http.MethodGet, ts.URL+"/api/employees", "", nil)
	expectStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	token, err := auth.GenerateToken(cfg.JWTSecret, "tester", time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	resp = doRequest(t, client, http.MethodGet, ts.URL+"/api/v1/employees", token, nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doRequest(t, client, http.MethodGet, ts.URL+"/healthz", "", nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestOperationalEndpoints(t *testing.T) {
	ts := newTestServer(t, testConfig())
	client := ts.Client()

	for _, path := range []string{"/healthz", "/readyz"} {
		resp := doRequest(t, client, http.MethodGet, ts.URL+path, "", nil)
		expectStatus(t, resp, http.StatusOK)
		resp.Body.Close()
	}

	resp := doRequest(t, client, http.MethodGet, ts.URL+"/metrics", "", nil)
	expectStatus(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "evaltool_http_requests_total") {
		t.Fatalf("expected request counter in metrics output")
	}
}

func TestListPaginationAndHistorySince(t *testing.T) {
	ts := newTestServer(t, testConfig())
	client := ts.Client()

	first := createEmployee(t, client, ts.URL, "", "A", "common")
	createEmployee(t, client, ts.URL, "", "B", "common")
	createEmployee(t, client, ts.URL, "", "C", "common")

	resp := doRequest(t, client, http.MethodGet, ts.URL+"/api/v1/employees?limit=1&offset=1", "", nil)
	expectStatus(t, resp, http.StatusOK)
	var page []evaluation.Employee
	if err := json.Unmarshal(decodeEnvelope(t, resp).Data, &page); err != nil || len(page) != 1 || page[0].Name != "B" {
		t.Fatalf("expected second employee only, got %+v (%v)", page, err)
	}

	resp = doRequest(t, client, http.MethodPost, ts.URL+"/api/v1/employees/"+first.ID+"/evaluations", "", []byte(`{"commitment":3}`))
	expectStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	future := time.Now().UTC().Add(48 * time.Hour).Format("2006-01-02")
	resp = doRequest(t, client, http.MethodGet, ts.URL+"/api/v1/employees/"+first.ID+"/evaluations?since="+future, "", nil)
	expectStatus(t, resp, http.StatusOK)
	var history []evaluation.Evaluation
	if err := json.Unmarshal(decodeEnvelope(t, resp).Data, &history); err != nil || len(history) != 0 {
		t.Fatalf("expected no evaluations after a future date, got %+v (%v)", history, err)
	}

	resp = doRequest(t, client, http.MethodGet, ts.URL+"/api/v1/employees/"+first.ID+"/evaluations?since=yesterday", "", nil)
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}
