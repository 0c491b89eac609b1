// Package notify pings an external liveness endpoint (healthchecks.io style)
// around each run. Pings are best-effort: a notification failure is logged
// and never fails the run.
package notify

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const pingTimeout = 10 * time.Second

// Pinger hits a base check URL on success, and its /start and /fail
// sub-endpoints around the run. A nil Pinger or empty URL disables pinging.
type Pinger struct {
	url  string
	http *http.Client
}

// New returns a Pinger, or nil when url is empty so call sites can stay
// unconditional.
func New(url string) *Pinger {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if url == "" {
		return nil
	}
	return &Pinger{
		url:  url,
		http: &http.Client{Timeout: pingTimeout},
	}
}

// Start signals that a run began.
func (p *Pinger) Start(ctx context.Context) { p.ping(ctx, "/start") }

// Success signals that a run completed.
func (p *Pinger) Success(ctx context.Context) { p.ping(ctx, "") }

// Fail signals that a run failed.
func (p *Pinger) Fail(ctx context.Context) { p.ping(ctx, "/fail") }

func (p *Pinger) ping(ctx context.Context, suffix string) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+suffix, nil)
	if err != nil {
		slog.WarnContext(ctx, "Healthcheck ping setup failed", "suffix", suffix, "error", err)
		return
	}
	resp, err := p.http.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "Healthcheck ping failed", "suffix", suffix, "error", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		slog.WarnContext(ctx, "Healthcheck ping rejected",
			"suffix", suffix,
			"status_code", resp.StatusCode)
		return
	}
	slog.DebugContext(ctx, "Healthcheck ping delivered", "suffix", suffix)
}
