// Package smt is the Smart Meter Texas adapter for the usage history port.
package smt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"wattbudget/internal/core"
	"wattbudget/internal/meter"
)

const (
	// DefaultBaseURL is the public SMT API root.
	DefaultBaseURL = "https://www.smartmetertexas.com/api"

	// historyMonths is how far back each fetch reaches. One month beyond
	// the 12-month window tolerates provider publication lag.
	historyMonths = 13

	defaultTimeout = 30 * time.Second
)

// Config carries the account credentials and endpoint for one SMT account.
type Config struct {
	BaseURL  string
	Username string
	Password string
	// ESIID pins the meter to read. When empty the account's first meter
	// is used.
	ESIID string
}

// Client talks to the SMT REST API. It authenticates per fetch; tokens are
// short-lived and a run performs a single report request.
type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

var _ meter.UsageHistoryReader = (*Client)(nil)

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: defaultTimeout},
		now:  time.Now,
	}
}

// FetchUsageHistory implements meter.UsageHistoryReader. It authenticates,
// resolves the meter, pulls the monthly billing report for the trailing
// window, and normalizes it into a UsageSeries.
func (c *Client) FetchUsageHistory(ctx context.Context) (core.UsageSeries, error) {
	token, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	esiid := c.cfg.ESIID
	if esiid == "" {
		esiid, err = c.firstMeter(ctx, token)
		if err != nil {
			return nil, err
		}
	}

	report, err := c.monthlyReport(ctx, token, esiid)
	if err != nil {
		return nil, err
	}

	series, err := samplesFromReport(report)
	if err != nil {
		return nil, meter.NewError(meter.ClassUnexpectedResponse, "monthly report", err)
	}

	slog.DebugContext(ctx, "Fetched usage history",
		"esiid", esiid,
		"months", len(series))

	return series, nil
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	const op = "authenticate"
	body := map[string]string{
		"username": c.cfg.Username,
		"password": c.cfg.Password,
	}
	var out tokenResponse
	if err := c.post(ctx, op, "/user/authenticate", "", body, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", meter.NewError(meter.ClassUnexpectedResponse, op, errors.New("empty token in response"))
	}
	return out.Token, nil
}

func (c *Client) firstMeter(ctx context.Context, token string) (string, error) {
	const op = "fetch meters"
	var out meterResponse
	if err := c.post(ctx, op, "/meter", token, map[string]string{}, &out); err != nil {
		return "", err
	}
	if len(out.Data.Meters) == 0 {
		return "", meter.NewError(meter.ClassUnexpectedResponse, op, errors.New("no meters on account"))
	}
	return out.Data.Meters[0].ESIID, nil
}

func (c *Client) monthlyReport(ctx context.Context, token, esiid string) (*monthlyReportResponse, error) {
	const op = "monthly report"
	end := c.now()
	start := end.AddDate(0, -historyMonths, 0)
	body := monthlyReportRequest{
		StartDate:    start.Format(smtDateLayout),
		EndDate:      end.Format(smtDateLayout),
		ReportFormat: "JSON",
		ESIID:        []string{esiid},
	}
	var out monthlyReportResponse
	if err := c.post(ctx, op, "/adhoc/monthlysynch", token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// post performs a JSON POST and classifies every failure mode into a
// ProviderError. Decode failures on a 200 are unexpected-response.
func (c *Client) post(ctx context.Context, op, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return meter.NewError(meter.ClassUnexpectedResponse, op, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return meter.NewError(meter.ClassUnexpectedResponse, op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return meter.NewError(meter.ClassTransientNetwork, op, err)
	}
	defer resp.Body.Close()

	if class, ok := classifyStatus(resp.StatusCode); ok {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return meter.NewError(class, op,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return meter.NewError(meter.ClassUnexpectedResponse, op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func classifyStatus(code int) (meter.ErrorClass, bool) {
	switch {
	case code == http.StatusOK:
		return "", false
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return meter.ClassAuthentication, true
	case code == http.StatusTooManyRequests:
		return meter.ClassRateLimited, true
	case code >= 500:
		return meter.ClassTransientNetwork, true
	default:
		return meter.ClassUnexpectedResponse, true
	}
}
