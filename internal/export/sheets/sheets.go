// Package sheets appends transaction rows to a Google Sheets spreadsheet.
// The spreadsheet is a write-only mirror of the local ledger: the SQLite
// store stays the source of truth and rows are appended by the mirror worker
// as ledger events arrive.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"moneta/internal/config"
	"moneta/internal/core"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewFromConfig builds the client from service account credentials, given as
// either a file path or inline JSON.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return nil, errors.New("missing Google spreadsheet ID")
	}

	var opt goption.ClientOption
	switch {
	case cfg.GoogleCredentialsJSON != "":
		opt = goption.WithCredentialsJSON([]byte(cfg.GoogleCredentialsJSON))
	case cfg.GoogleCredentialsFile != "":
		opt = goption.WithCredentialsFile(cfg.GoogleCredentialsFile)
	default:
		return nil, errors.New("missing Google credentials")
	}

	svc, err := gsheet.NewService(ctx, opt, goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	sheetName := cfg.GoogleSheetName
	if sheetName == "" {
		sheetName = "Transactions"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// AppendTransaction appends one row for the transaction, joined with its
// account. Columns match the CSV export.
func (c *Client) AppendTransaction(ctx context.Context, t core.Transaction, acc core.Account) error {
	row := []any{
		t.Date.Format("2006-01-02"),
		string(t.Type),
		t.Amount.StringFixed(2),
		t.Category,
		t.Description,
		acc.Name,
		string(acc.Type),
		strings.Join(t.Tags, ";"),
	}
	_, err := c.svc.Spreadsheets.Values.Append(
		c.spreadsheetID,
		c.sheetName+"!A:H",
		&gsheet.ValueRange{Values: [][]any{row}},
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append transaction row: %w", err)
	}
	return nil
}
