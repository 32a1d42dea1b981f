package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"weather-grid-ingest/internal/ingest"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func TestStatusReturnsLoopStats(t *testing.T) {
	app := fiber.New()
	stats := ingest.Stats{RunID: "run-1", Processed: 42, Skipped: 3, Cycles: 2}
	RegisterRoutes(app, func() ingest.Stats { return stats }, fakePinger{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/status", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got ingest.Stats
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got != stats {
		t.Errorf("got %+v, want %+v", got, stats)
	}
}

func TestHealthReportsStoreReachability(t *testing.T) {
	cases := []struct {
		name    string
		pingErr error
		want    string
	}{
		{"store ok", nil, "ok"},
		{"store down", errors.New("no reachable servers"), "unreachable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			RegisterRoutes(app, func() ingest.Stats { return ingest.Stats{} }, fakePinger{err: tc.pingErr})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			// The process itself is healthy either way; a down store is
			// reported, not escalated.
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}

			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if body["store"] != tc.want {
				t.Errorf("store = %q, want %q", body["store"], tc.want)
			}
		})
	}
}
