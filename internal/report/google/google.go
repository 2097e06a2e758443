package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"insight/internal/report"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ report.Writer = (*Client)(nil)

// New creates a Sheets report writer from explicit settings. Credentials come
// from credJSON when set, otherwise from credFile.
func New(ctx context.Context, spreadsheetID, sheetName, credFile, credJSON string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Insights"
	}

	svc, err := newSheetsService(ctx, credFile, credJSON)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, credFile, credJSON string) (*gsheet.Service, error) {
	credFile = strings.TrimSpace(credFile)
	credJSON = strings.TrimSpace(credJSON)

	var credentialsJSON []byte
	switch {
	case credJSON != "":
		credentialsJSON = []byte(credJSON)
	case credFile != "":
		data, err := os.ReadFile(credFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// WriteMonthly appends the monthly report below any existing content on the
// configured sheet: a period header, the income summary, then one row per
// spending category and recurring expense.
func (c *Client) WriteMonthly(ctx context.Context, r report.Monthly) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if r.Month < 1 || r.Month > 12 {
		return "", fmt.Errorf("invalid month: %d", r.Month)
	}

	// Find the next empty row by getting the sheet dimensions first
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get sheet dimensions for %s: %w", c.sheetName, err)
	}
	nextRow := len(resp.Values) + 1

	rows := buildRows(r)
	dataRange := fmt.Sprintf("%s!A%d:F%d", c.sheetName, nextRow, nextRow+len(rows)-1)
	vr := &gsheet.ValueRange{Values: rows}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update sheet %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Monthly report written to Google Sheets",
		"year", r.Year,
		"month", r.Month,
		"rows", len(rows),
		"sheets_ref", dataRange)

	return dataRange, nil
}

func buildRows(r report.Monthly) [][]any {
	rows := [][]any{
		{fmt.Sprintf("%04d-%02d", r.Year, r.Month), "", "", "", "", ""},
		{"Income", r.Summary.Income.String(), "", "", "", ""},
		{"Expenses", r.Summary.Expenses.String(), "", "", "", ""},
		{"Net", r.Summary.Net.String(), "", "", "", ""},
	}

	for _, cat := range r.Spending {
		rows = append(rows, []any{
			"category",
			cat.Category,
			cat.Amount.String(),
			fmt.Sprintf("%.1f%%", cat.Percentage),
			cat.Count,
			cat.SuggestedBudget.String(),
		})
	}

	for _, rec := range r.Recurring {
		rows = append(rows, []any{
			"recurring",
			rec.Merchant,
			rec.Amount.String(),
			rec.Category,
			rec.Frequency,
			rec.NextDate.Format("2006-01-02"),
		})
	}

	return rows
}
