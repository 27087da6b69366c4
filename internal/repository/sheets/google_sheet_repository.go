package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/sambafall/comptoir/internal/config"
	"github.com/sambafall/comptoir/internal/domain/models"
)

// summaryRange is the tab receiving one appended row per exported day.
const summaryRange = "DailySummaries!A:I"

// Exporter appends end-of-day summary rows to an external spreadsheet.
type Exporter interface {
	AppendDailySummary(ctx context.Context, summary models.DailySummary) error
}

// GoogleSheetRepository implements Exporter using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed exporter instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendDailySummary flattens the summary into one spreadsheet row and
// appends it. Exports are append-only; re-running a day adds a second row
// rather than editing history.
func (r *GoogleSheetRepository) AppendDailySummary(ctx context.Context, summary models.DailySummary) error {
	row := []interface{}{
		summary.Date.Format("2006-01-02"),
		summary.OrderCount,
		summary.SalesTotal,
		summary.CashCollected,
		summary.CreditIssued,
		summary.ExpensesTotal,
		summary.OverdueCount,
		summary.LowStockCount,
		summary.CreatedAt.Format("2006-01-02 15:04:05"),
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{row}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, summaryRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append summary row into range %s: %w", summaryRange, err)
	}

	r.logger.Debug("daily summary appended to sheet", zap.String("date", summary.Date.Format("2006-01-02")))
	return nil
}
