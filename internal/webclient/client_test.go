package webclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetJSONSendsQueryAndUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "Jakarta" {
			t.Errorf("expected query=Jakarta, got %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "prayerwatch" {
			t.Errorf("unexpected user agent %q", got)
		}
		w.Write([]byte(`{"ip":"203.0.113.7"}`))
	}))
	defer srv.Close()

	var payload struct {
		IP string `json:"ip"`
	}
	err := New().GetJSON(context.Background(), srv.URL, map[string]string{"query": "Jakarta"}, &payload)
	if err != nil {
		t.Fatalf("GetJSON returned error: %v", err)
	}
	if payload.IP != "203.0.113.7" {
		t.Fatalf("unexpected ip %q", payload.IP)
	}
}

func TestGetBodyReportsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New().GetBody(context.Background(), srv.URL, nil)
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
}

func TestGetBodyHonorsCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().GetBody(ctx, srv.URL, nil); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
