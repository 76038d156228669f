package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// fastRetries keeps the backoff short enough for tests.
var fastRetries = RetryOptions{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     5 * time.Millisecond,
	Multiplier:   2.0,
}

func TestWithRetryRecoversFromTransientFailure(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	resp, err := WithRetry(context.Background(), req, server.Client(), fastRetries)
	if err != nil {
		t.Fatalf("WithRetry failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if calls.Load() != 2 {
		t.Errorf("server saw %d requests, want 2", calls.Load())
	}
}

func TestWithRetryAcceptsNonOK2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	resp, err := WithRetry(context.Background(), req, server.Client(), fastRetries)
	if err != nil {
		t.Fatalf("WithRetry failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d, want 202", resp.StatusCode)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	if _, err := WithRetry(context.Background(), req, server.Client(), fastRetries); err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if calls.Load() != int64(fastRetries.MaxAttempts) {
		t.Errorf("server saw %d requests, want %d", calls.Load(), fastRetries.MaxAttempts)
	}
}

func TestWithRetryRejectsRequestBody(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, "http://127.0.0.1:1/", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	_, err = WithRetry(context.Background(), req, http.DefaultClient, fastRetries)
	if err == nil {
		t.Fatal("expected an error for a request with a body")
	}
	mcpErr, ok := err.(*MCPError)
	if !ok {
		t.Fatalf("expected *MCPError, got %T", err)
	}
	if mcpErr.Code != string(ErrInternalError) {
		t.Errorf("error code = %q, want %q", mcpErr.Code, ErrInternalError)
	}
}

func TestRetryOptionsBackoffCap(t *testing.T) {
	options := RetryOptions{MaxDelay: 4 * time.Millisecond, Multiplier: 2.0}

	if got := options.backoff(time.Millisecond); got != 2*time.Millisecond {
		t.Errorf("backoff(1ms) = %v, want 2ms", got)
	}
	if got := options.backoff(3 * time.Millisecond); got != 4*time.Millisecond {
		t.Errorf("backoff(3ms) = %v, want the 4ms cap", got)
	}
}
