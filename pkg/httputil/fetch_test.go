package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("mermaid"))
		case "/missing":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	body, err := Fetch(ctx, srv.Client(), srv.URL+"/ok")
	if err != nil || string(body) != "mermaid" {
		t.Fatalf("Fetch(/ok) = %q, %v", body, err)
	}

	_, err = Fetch(ctx, srv.Client(), srv.URL+"/missing")
	var serr *StatusError
	if !errors.As(err, &serr) || serr.StatusCode != http.StatusNotFound {
		t.Errorf("Fetch(/missing) err = %v", err)
	}
	if isRetryable(err) {
		t.Error("404 should not be retryable")
	}

	_, err = Fetch(ctx, srv.Client(), srv.URL+"/flaky")
	if !isRetryable(err) {
		t.Errorf("502 should be retryable, got %v", err)
	}
}

func TestRetryRecoversFromTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var body []byte
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		var err error
		body, err = Fetch(context.Background(), srv.Client(), srv.URL)
		return err
	})
	if err != nil || string(body) != "ok" {
		t.Fatalf("Retry = %q, %v", body, err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := errors.New("bad url")
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return permanent
	})
	if err != permanent || calls != 1 {
		t.Errorf("Retry = %v after %d calls", err, calls)
	}
}

func TestFetchRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.Client(), srv.URL)
	var re *RetryableError
	if !errors.As(err, &re) {
		t.Fatalf("429 should be retryable, got %v", err)
	}
	if re.RetryAfter != 2*time.Second {
		t.Errorf("RetryAfter = %v, want 2s", re.RetryAfter)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"5", 5 * time.Second},
		{"-1", 0},
		{"Wed, 21 Oct 2015 07:28:00 GMT", 0},
	}
	for _, tt := range tests {
		h := http.Header{}
		if tt.value != "" {
			h.Set("Retry-After", tt.value)
		}
		if got := parseRetryAfter(h); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 5, time.Hour, func() error {
		calls++
		cancel()
		return &RetryableError{Err: errors.New("down")}
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Errorf("Retry = %v after %d calls", err, calls)
	}
}
