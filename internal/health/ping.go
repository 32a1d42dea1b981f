package health

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Reporter pings an external healthcheck endpoint to signal liveness. The
// response body and status are ignored; only transport-level success
// matters. Failures are logged and never surfaced to the caller.
type Reporter struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewReporter creates a Reporter with a bounded request timeout.
func NewReporter(url string, logger *zap.Logger) *Reporter {
	return &Reporter{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Ping issues a single GET to the healthcheck endpoint.
func (r *Reporter) Ping(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		r.logger.Error("health check ping failure", zap.Error(err))
		return
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("health check ping failure", zap.Error(err))
		return
	}
	resp.Body.Close()
}
