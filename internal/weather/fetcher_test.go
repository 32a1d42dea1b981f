package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"weather-grid-ingest/internal/geo"
)

func newTestFetcher(t *testing.T, handler http.HandlerFunc) (*Fetcher, *observer.ObservedLogs) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	core, logs := observer.New(zap.DebugLevel)
	f := NewFetcher(&http.Client{Timeout: 5 * time.Second}, srv.URL, "test-key", zap.New(core))
	return f, logs
}

func TestFetchReturnsDecodedReading(t *testing.T) {
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"temp": 300}`))
	})

	reading, err := f.Fetch(context.Background(), geo.Coordinate{Lat: 2.1, Lon: 117.6}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Reading{"temp": float64(300)}
	if !reflect.DeepEqual(reading, want) {
		t.Errorf("got %v, want %v", reading, want)
	}
}

func TestFetchNon200ReturnsUpstreamErrorAndLogsMessage(t *testing.T) {
	f, logs := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "city not found"}`))
	})

	reading, err := f.Fetch(context.Background(), geo.Coordinate{Lat: 0, Lon: 0}, nil)
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if reading != nil {
		t.Errorf("expected nil reading on upstream error, got %v", reading)
	}

	found := false
	for _, entry := range logs.All() {
		for _, field := range entry.Context {
			if field.Key == "message" && field.String == "city not found" {
				found = true
			}
		}
	}
	if !found {
		t.Error("upstream error message was not logged")
	}
}

func TestFetchQueryParameters(t *testing.T) {
	var query url.Values
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`{}`))
	})

	extra := url.Values{}
	extra.Set("units", "metric")
	extra.Set("lat", "9.9") // caller override wins

	if _, err := f.Fetch(context.Background(), geo.Coordinate{Lat: 2.133485, Lon: 117.596245}, extra); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := query.Get("appid"); got != "test-key" {
		t.Errorf("appid = %q, want %q", got, "test-key")
	}
	if got := query.Get("lon"); !strings.HasPrefix(got, "117.596245") {
		t.Errorf("lon = %q, want 117.596245", got)
	}
	if got := query.Get("units"); got != "metric" {
		t.Errorf("units = %q, want metric", got)
	}
	if got := query.Get("lat"); got != "9.9" {
		t.Errorf("lat override = %q, want 9.9", got)
	}
}

func TestFetchValidEmptyReadingIsNotAnError(t *testing.T) {
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	reading, err := f.Fetch(context.Background(), geo.Coordinate{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reading == nil {
		t.Fatal("a valid empty body must decode to a non-nil empty reading")
	}
	if len(reading) != 0 {
		t.Errorf("expected empty reading, got %v", reading)
	}
}
