package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPingHitsEndpoint(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	core, logs := observer.New(zap.ErrorLevel)
	r := NewReporter(srv.URL, zap.New(core))

	r.Ping(context.Background())

	if hits != 1 {
		t.Errorf("endpoint hit %d times, want 1", hits)
	}
	if logs.Len() != 0 {
		t.Errorf("unexpected error logs: %v", logs.All())
	}
}

func TestPingFailureIsLoggedNotPropagated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // force a transport failure

	core, logs := observer.New(zap.ErrorLevel)
	r := NewReporter(srv.URL, zap.New(core))

	// Ping has no error return; the failure must only show up in the log.
	r.Ping(context.Background())

	if logs.Len() == 0 {
		t.Error("transport failure was not logged")
	}
}

func TestPingIgnoresResponseStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	core, logs := observer.New(zap.ErrorLevel)
	r := NewReporter(srv.URL, zap.New(core))

	r.Ping(context.Background())

	if logs.Len() != 0 {
		t.Errorf("non-200 status must not be treated as a failure, got logs: %v", logs.All())
	}
}
