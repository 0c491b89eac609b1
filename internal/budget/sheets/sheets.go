// Package sheets is a Google Sheets adapter for the budget target ports: the
// category target lives in a spreadsheet cell instead of a budgeting app.
// Useful for households that keep their budget in a shared sheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"wattbudget/internal/budget"
	"wattbudget/internal/core"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// targetRange is an A1 range whose first cell holds the dollar amount
	// and whose second cell (if present in the range) receives the note.
	targetRange string
}

var (
	_ budget.TargetReader = (*Client)(nil)
	_ budget.TargetWriter = (*Client)(nil)
)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Optional: GOOGLE_TARGET_RANGE
// (default "Budget!B2:C2") and service account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	targetRange := strings.TrimSpace(os.Getenv("GOOGLE_TARGET_RANGE"))
	if targetRange == "" {
		targetRange = "Budget!B2:C2"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		targetRange:   targetRange,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials from the environment.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// CurrentTarget reads the amount cell. An empty cell reports known=false; an
// unparseable cell is an unexpected-response, not a silent zero.
func (c *Client) CurrentTarget(ctx context.Context, _ string) (core.Money, bool, error) {
	const op = "read target cell"
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.targetRange).Context(ctx).Do()
	if err != nil {
		return core.Money{}, false, budget.NewError(budget.ClassTransientNetwork, op, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return core.Money{}, false, nil
	}
	raw := strings.TrimSpace(fmt.Sprint(resp.Values[0][0]))
	raw = strings.TrimPrefix(raw, "$")
	if raw == "" {
		return core.Money{}, false, nil
	}
	amount, err := parseDollarsToCents(raw)
	if err != nil {
		return core.Money{}, false, budget.NewError(budget.ClassUnexpectedResponse, op,
			fmt.Errorf("cell %s: %w", c.targetRange, err))
	}
	return amount, true, nil
}

// SetTarget writes the amount (and note, when the range spans two cells)
// with USER_ENTERED so the sheet keeps its currency formatting.
func (c *Client) SetTarget(ctx context.Context, _ string, amount core.Money, note string) error {
	const op = "write target cell"
	vr := &gsheet.ValueRange{
		Values: [][]any{{fmt.Sprintf("%d.%02d", amount.Cents/100, amount.Cents%100), note}},
	}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.targetRange, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return budget.NewError(budget.ClassTransientNetwork, op, err)
	}
	return nil
}

// parseDollarsToCents converts a plain decimal dollar string from the sheet
// into cents, half-up on a third decimal digit.
func parseDollarsToCents(s string) (core.Money, error) {
	s = strings.ReplaceAll(s, ",", "")
	parts := strings.SplitN(s, ".", 3)
	if len(parts) > 2 {
		return core.Money{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, s)
	}
	var whole int64
	for _, r := range parts[0] {
		if r < '0' || r > '9' {
			return core.Money{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, s)
		}
		whole = whole*10 + int64(r-'0')
	}
	var frac int64
	if len(parts) == 2 {
		digits := parts[1]
		for _, r := range digits {
			if r < '0' || r > '9' {
				return core.Money{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, s)
			}
		}
		if len(digits) > 0 {
			frac = int64(digits[0]-'0') * 10
		}
		if len(digits) > 1 {
			frac += int64(digits[1] - '0')
		}
		if len(digits) > 2 && digits[2] >= '5' {
			frac++
		}
	}
	return core.Money{Cents: whole*100 + frac}, nil
}
