package smt

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"wattbudget/internal/core"
)

// smtDateLayout is the MM/DD/YYYY format SMT uses in requests and payloads.
const smtDateLayout = "01/02/2006"

type (
	tokenResponse struct {
		Token string `json:"token"`
	}

	meterResponse struct {
		Data struct {
			Meters []struct {
				ESIID string `json:"esiid"`
			} `json:"meters"`
		} `json:"data"`
	}

	monthlyReportRequest struct {
		StartDate    string   `json:"startDate"`
		EndDate      string   `json:"endDate"`
		ReportFormat string   `json:"reportFormat"`
		ESIID        []string `json:"ESIID"`
	}

	// billingRow is one month of billing data as SMT returns it.
	billingRow struct {
		StartDate    string          `json:"startDate"`
		EndDate      string          `json:"endDate"`
		RevisionDate string          `json:"revisionDate"`
		ActualKWh    decimal.Decimal `json:"actualkWh"`
	}

	monthlyReportResponse struct {
		Data struct {
			TransID     string       `json:"trans_id"`
			ESIID       string       `json:"esiid"`
			BillingData []billingRow `json:"billingData"`
		} `json:"data"`
	}
)

// samplesFromReport validates the report payload row by row and maps each
// billing row to the calendar month of its start date. A row that cannot be
// parsed, or that carries negative usage, fails the whole fetch: a silently
// dropped month would later surface as a confusing window gap, or worse, not
// surface at all.
func samplesFromReport(report *monthlyReportResponse) (core.UsageSeries, error) {
	rows := report.Data.BillingData
	if len(rows) == 0 {
		return nil, fmt.Errorf("report contains no billing data")
	}

	raw := make([]core.UsageSample, 0, len(rows))
	for i, row := range rows {
		start, err := time.Parse(smtDateLayout, row.StartDate)
		if err != nil {
			return nil, fmt.Errorf("billing row %d: bad start date %q: %w", i, row.StartDate, err)
		}
		raw = append(raw, core.UsageSample{
			Period: core.PeriodOf(start),
			KWh:    row.ActualKWh,
		})
	}

	series, err := core.NormalizeSeries(raw)
	if err != nil {
		return nil, err
	}
	return series, nil
}
