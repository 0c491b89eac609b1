// Package ynab is the YNAB adapter for the budget target ports.
//
// YNAB stores category goals in milliunits (one thousandth of a currency
// unit); this adapter converts to and from cents at the wire boundary so the
// rest of the program only ever sees minor units.
package ynab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"wattbudget/internal/budget"
	"wattbudget/internal/core"
)

const (
	DefaultBaseURL = "https://api.ynab.com/v1"

	defaultTimeout = 30 * time.Second

	// milliunitsPerCent converts cents to YNAB milliunits: $1.00 = 100
	// cents = 1000 milliunits.
	milliunitsPerCent = 10
)

type Config struct {
	BaseURL     string
	AccessToken string
	BudgetID    string
}

type Client struct {
	cfg  Config
	http *http.Client
}

var (
	_ budget.TargetReader = (*Client)(nil)
	_ budget.TargetWriter = (*Client)(nil)
)

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: defaultTimeout},
	}
}

type (
	categoryPayload struct {
		GoalTarget *int64  `json:"goal_target"`
		Note       *string `json:"note,omitempty"`
	}

	categoryResponse struct {
		Data struct {
			Category categoryPayload `json:"category"`
		} `json:"data"`
	}

	patchCategoryRequest struct {
		Category categoryPayload `json:"category"`
	}
)

// CurrentTarget implements budget.TargetReader. A category with no goal
// configured reports known=false.
func (c *Client) CurrentTarget(ctx context.Context, categoryID string) (core.Money, bool, error) {
	const op = "fetch category"
	var out categoryResponse
	if err := c.do(ctx, op, http.MethodGet, c.categoryPath(categoryID), nil, &out); err != nil {
		return core.Money{}, false, err
	}
	goal := out.Data.Category.GoalTarget
	if goal == nil {
		return core.Money{}, false, nil
	}
	return core.Money{Cents: *goal / milliunitsPerCent}, true, nil
}

// SetTarget implements budget.TargetWriter with a single PATCH of the
// category's goal_target and note.
func (c *Client) SetTarget(ctx context.Context, categoryID string, amount core.Money, note string) error {
	const op = "update category"
	milli := amount.Cents * milliunitsPerCent
	req := patchCategoryRequest{
		Category: categoryPayload{GoalTarget: &milli, Note: &note},
	}
	if err := c.do(ctx, op, http.MethodPatch, c.categoryPath(categoryID), req, nil); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Updated YNAB category goal",
		"category_id", categoryID,
		"goal_target_milliunits", milli)
	return nil
}

func (c *Client) categoryPath(categoryID string) string {
	return fmt.Sprintf("/budgets/%s/categories/%s", c.cfg.BudgetID, categoryID)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return budget.NewError(budget.ClassUnexpectedResponse, op, fmt.Errorf("marshal request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return budget.NewError(budget.ClassUnexpectedResponse, op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return budget.NewError(budget.ClassTransientNetwork, op, err)
	}
	defer resp.Body.Close()

	if class, ok := classifyStatus(resp.StatusCode); ok {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return budget.NewError(class, op,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return budget.NewError(budget.ClassUnexpectedResponse, op, fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

func classifyStatus(code int) (budget.ErrorClass, bool) {
	switch {
	case code >= 200 && code < 300:
		return "", false
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return budget.ClassAuthentication, true
	case code == http.StatusNotFound:
		return budget.ClassNotFound, true
	case code == http.StatusTooManyRequests:
		return budget.ClassRateLimited, true
	case code >= 500:
		return budget.ClassTransientNetwork, true
	default:
		return budget.ClassUnexpectedResponse, true
	}
}
