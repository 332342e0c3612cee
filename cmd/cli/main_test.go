package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read stdout: %v", err)
	}
	return buf.String()
}

func TestJobPath(t *testing.T) {
	if got := jobPath("cancel-expired"); got != "/api/v1/jobs/cancel-expired" {
		t.Fatalf("unexpected path: %s", got)
	}
	if got := jobPath("/flag-stalled"); got != "/api/v1/jobs/flag-stalled" {
		t.Fatalf("unexpected path: %s", got)
	}
}

func TestRunJobPrintsProcessedCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/v1/jobs/process-refunds" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"processed": 3}`))
	}))
	defer server.Close()

	origURL := baseURL
	baseURL = server.URL
	defer func() { baseURL = origURL }()

	out := captureOutput(t, func() { runJob("process-refunds") })
	if !strings.Contains(out, "processed 3") {
		t.Fatalf("expected processed count in output, got %q", out)
	}
}

func TestCheckConsistencyPrintsStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ledger/consistency" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "consistent"}`))
	}))
	defer server.Close()

	origURL := baseURL
	baseURL = server.URL
	defer func() { baseURL = origURL }()

	out := captureOutput(t, func() { checkConsistency() })
	if !strings.Contains(out, "PASSED") || !strings.Contains(out, "consistent") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestShowBalancePrintsAmount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ledger/accounts/1930/balance" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"account_number": 1930, "balance": "1250.50"}`))
	}))
	defer server.Close()

	origURL := baseURL
	baseURL = server.URL
	defer func() { baseURL = origURL }()

	out := captureOutput(t, func() { showBalance("1930") })
	if !strings.Contains(out, "Account 1930 balance: 1250.50") {
		t.Fatalf("unexpected output: %q", out)
	}
}
