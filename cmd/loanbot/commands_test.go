package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kalambet/loanbot/internal/catalog"
	"github.com/kalambet/loanbot/internal/config"
	"github.com/kalambet/loanbot/internal/eligibility"
	"github.com/kalambet/loanbot/internal/profile"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Body:   body.String(),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		httpClient: ts.server.Client(),
	}
}

// useClient points newAPIClient at ts for the duration of the test.
func useClient(t *testing.T, ts *testServer) {
	t.Helper()
	old := newAPIClient
	newAPIClient = func() (*apiClient, error) { return ts.client(), nil }
	t.Cleanup(func() { newAPIClient = old })
}

var ctx = context.Background()

func TestLoansCommand_List(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/v1/loans": `[{"type":"Home","description":"Buy a home.","max_amount":10000000,"interest_rate":8.5,"tenure_years":20,"min_age":21,"max_age":65,"min_income":30000,"min_cibil":650}]`,
	})

	resp, err := ts.client().get(ctx, "/api/v1/loans")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var loans []catalog.LoanPolicy
	if err := decodeJSON(resp, &loans); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(loans) != 1 || loans[0].Type != "Home" || loans[0].MinCIBIL != 650 {
		t.Errorf("loans = %+v", loans)
	}
}

func TestFetchLoan_EscapesType(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/v1/loans/Gold Loan": `{"type":"Gold Loan"}`,
	})

	var p catalog.LoanPolicy
	if err := fetchLoan(ctx, ts.client(), "Gold Loan", &p); err != nil {
		t.Fatalf("fetchLoan: %v", err)
	}
	if p.Type != "Gold Loan" {
		t.Errorf("type = %q", p.Type)
	}
	if ts.requests[0].Path != "/api/v1/loans/Gold%20Loan" {
		t.Errorf("path = %q, want escaped type", ts.requests[0].Path)
	}
}

func TestFetchLoan_NotFound(t *testing.T) {
	ts := newTestServer(t, map[string]string{})

	var p catalog.LoanPolicy
	err := fetchLoan(ctx, ts.client(), "Spaceship", &p)
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %q, want status and server message", err.Error())
	}
}

func TestEligibilityCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/v1/eligibility": `{"is_eligible":true,"message":"Congratulations! You are eligible for this loan.","max_amount":510000}`,
	})
	useClient(t, ts)

	defer rootCmd.SetArgs(nil)
	rootCmd.SetArgs([]string{"eligibility", "--type", "Home", "--age", "32", "--income", "85000", "--cibil", "760"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["loan_type"] != "Home" || body["age"] != 32.0 || body["cibil_score"] != 760.0 {
		t.Errorf("body = %v", body)
	}
	if body["employment_status"] != "salaried" {
		t.Errorf("employment_status = %v, want default salaried", body["employment_status"])
	}
}

func TestEligibilityCommand_RequiresType(t *testing.T) {
	defer rootCmd.SetArgs(nil)
	rootCmd.SetArgs([]string{"eligibility", "--type", "", "--age", "30"})
	err := rootCmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "--type") {
		t.Fatalf("err = %v, want --type error", err)
	}
}

func TestVerdictDecoding(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/v1/eligibility": `{"is_eligible":false,"message":"CIBIL score is too low.","max_amount":null}`,
	})

	resp, err := ts.client().post(ctx, "/api/v1/eligibility", eligibility.Request{LoanType: "Personal"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var v eligibility.Verdict
	if err := decodeJSON(resp, &v); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if v.Eligible || v.MaxAmount != nil || v.Message != "CIBIL score is too low." {
		t.Errorf("verdict = %+v", v)
	}
}

func TestEMICommand_Local(t *testing.T) {
	useClient(t, &testServer{}) // must not be dialed

	defer rootCmd.SetArgs(nil)
	rootCmd.SetArgs([]string{"emi", "--principal", "100000", "--rate", "10", "--years", "1"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
}

func TestValidateEMIArgs(t *testing.T) {
	tests := []struct {
		principal, rate float64
		years           int
		wantErr         string
	}{
		{100000, 10, 1, ""},
		{0, 10, 1, "--principal"},
		{100000, 0, 1, "--rate"},
		{100000, 10, 0, "--years"},
		{-5, 10, 1, "--principal"},
	}
	for _, tt := range tests {
		err := validateEMIArgs(tt.principal, tt.rate, tt.years)
		if tt.wantErr == "" {
			if err != nil {
				t.Errorf("validateEMIArgs(%v, %v, %d) = %v, want nil", tt.principal, tt.rate, tt.years, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("validateEMIArgs(%v, %v, %d) = %v, want %s error", tt.principal, tt.rate, tt.years, err, tt.wantErr)
		}
	}
}

func TestChatSendCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/v1/chat": `{"reply":"We offer Home loans.","session_id":"abc"}`,
	})
	useClient(t, ts)

	defer rootCmd.SetArgs(nil)
	rootCmd.SetArgs([]string{"chat", "send", "what", "loans?", "--session", "abc"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["message"] != "what loans?" || body["session_id"] != "abc" {
		t.Errorf("body = %v", body)
	}
}

func TestChatHistoryAndClear(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/v1/chat/s-1":    `{"session_id":"s-1","history":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`,
		"DELETE /api/v1/chat/s-1": `{"status":"cleared"}`,
	})

	resp, err := ts.client().get(ctx, "/api/v1/chat/s-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var h chatHistory
	if err := decodeJSON(resp, &h); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(h.History) != 2 || h.History[1].Content != "hello" {
		t.Errorf("history = %+v", h.History)
	}

	useClient(t, ts)
	defer rootCmd.SetArgs(nil)
	rootCmd.SetArgs([]string{"chat", "clear", "s-1"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	last := ts.requests[len(ts.requests)-1]
	if last.Method != http.MethodDelete || last.Path != "/api/v1/chat/s-1" {
		t.Errorf("last request = %+v", last)
	}
}

func TestDNACommand(t *testing.T) {
	report, err := json.Marshal(profile.Fallback())
	if err != nil {
		t.Fatal(err)
	}
	ts := newTestServer(t, map[string]string{
		"POST /api/v1/dna": string(report),
	})
	useClient(t, ts)

	defer rootCmd.SetArgs(nil)
	rootCmd.SetArgs([]string{"dna", "--income", "90000", "--expenses", "40000", "--cibil", "780", "--savings", "300000", "--goal", "buy a home"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["goal"] != "buy a home" || body["existing_emi"] != 0.0 || body["cibil_score"] != 780.0 {
		t.Errorf("body = %v", body)
	}
}

func TestStatusCommand_Stopped(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	ts.server.Close()

	_, err := ts.client().get(ctx, "/health")
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestLocalAddr(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"0.0.0.0", "127.0.0.1:8000"},
		{"", "127.0.0.1:8000"},
		{"::", "127.0.0.1:8000"},
		{"10.0.0.5", "10.0.0.5:8000"},
	}
	for _, tt := range tests {
		got := localAddr(config.ServerConfig{Host: tt.host, Port: 8000})
		if got != tt.want {
			t.Errorf("localAddr(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestDecodeJSON_ErrorEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(422)
		w.Write([]byte(`{"error":{"message":"age: must be <= 120","type":"validation_error"}}`))
	}))
	defer ts.Close()

	client := &apiClient{baseURL: ts.URL, httpClient: ts.Client()}
	resp, err := client.post(ctx, "/api/v1/eligibility", map[string]int{"age": 200})
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var result any
	err = decodeJSON(resp, &result)
	if err == nil {
		t.Fatal("expected error for 422 response")
	}
	if err.Error() != "server returned 422: age: must be <= 120" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestConfigShowAll(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.Port = 4000
	cfg.Chat.Model = "llama-3.1-8b-instant"

	keys := config.ShowAll(cfg)
	if len(keys) == 0 {
		t.Fatal("expected non-empty keys from ShowAll")
	}

	found := 0
	for _, k := range keys {
		if (k.Key == "server.port" && k.Value == "4000") || (k.Key == "chat.model" && k.Value == "llama-3.1-8b-instant") {
			found++
		}
	}
	if found != 2 {
		t.Error("expected server.port and chat.model in ShowAll output")
	}
}
