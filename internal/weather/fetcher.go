package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"weather-grid-ingest/internal/geo"
)

// DefaultBaseURL is the OpenWeatherMap current-weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

var (
	// ErrUpstream marks a fetch the caller should skip: the API answered
	// with a non-200 status. Distinct from a valid-but-empty reading.
	ErrUpstream = errors.New("upstream weather api error")

	errCircuitOpen = errors.New("upstream circuit open")
)

// Fetcher issues single-shot requests to the upstream weather API. It never
// retries; a failed fetch is the caller's signal to skip the grid point for
// this cycle. A circuit breaker short-circuits calls during a sustained
// upstream outage.
type Fetcher struct {
	baseURL string
	apiKey  string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewFetcher creates a Fetcher. The provided client should carry a bounded
// timeout; requests additionally obey the per-call context.
func NewFetcher(client *http.Client, baseURL, apiKey string, logger *zap.Logger) *Fetcher {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Fetcher{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  client,
		circuit: cb,
		logger:  logger,
	}
}

// Fetch requests the current weather for one coordinate. Required query
// parameters (appid, lat, lon) are merged with extra; extra wins on key
// collision. On HTTP 200 the decoded body is returned unchanged. On any
// other status the upstream message is logged and ErrUpstream is returned.
func (f *Fetcher) Fetch(ctx context.Context, coord geo.Coordinate, extra url.Values) (Reading, error) {
	f.logger.Debug("fetching weather data",
		zap.Float64("lat", coord.Lat),
		zap.Float64("lon", coord.Lon),
	)

	values := url.Values{}
	values.Set("appid", f.apiKey)
	values.Set("lat", strconv.FormatFloat(coord.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(coord.Lon, 'f', -1, 64))
	for key, vals := range extra {
		values.Del(key)
		for _, v := range vals {
			values.Add(key, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", f.baseURL, values.Encode()), nil)
	if err != nil {
		return nil, err
	}

	result, err := f.circuit.Execute(func() (interface{}, error) {
		return f.client.Do(req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}
	resp := result.(*http.Response)
	defer resp.Body.Close()

	var payload Reading
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding upstream response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg, _ := payload["message"].(string)
		f.logger.Error("weather api error",
			zap.String("message", msg),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: %s (status %d)", ErrUpstream, msg, resp.StatusCode)
	}

	f.logger.Debug("weather api call successful", zap.Int("fields", len(payload)))
	return payload, nil
}
