package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/calfai/herd/internal/config"
	"github.com/calfai/herd/internal/domain/models"
)

const (
	historyRange = "History!A:F"
	dateLayout   = "2006-01-02 15:04"
)

// Exporter appends prediction history rows to a configured spreadsheet, the
// "Export Report" feature of the dashboard.
type Exporter struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewExporter builds a Google Sheets backed exporter instance.
func NewExporter(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &Exporter{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendHistory writes one row per record, oldest first, and returns the
// number of rows appended.
func (e *Exporter) AppendHistory(ctx context.Context, snapshot models.Snapshot) (int, error) {
	if len(snapshot) == 0 {
		return 0, nil
	}

	rows := make([][]interface{}, 0, len(snapshot))
	for i := len(snapshot) - 1; i >= 0; i-- {
		rec := snapshot[i]
		var yield, confidence float64
		condition, risk := "N/A", string(models.RiskLow)
		if rec.Outcome != nil {
			yield = rec.Outcome.YieldLiters
			confidence = rec.Outcome.Confidence
			condition = rec.Outcome.Condition
			risk = string(rec.Outcome.Risk)
		}
		rows = append(rows, []interface{}{
			rec.CreatedAt.Format(dateLayout),
			rec.AnimalID,
			yield,
			condition,
			risk,
			confidence,
		})
	}

	payload := &sheetsapi.ValueRange{Values: rows}

	call := e.service.Spreadsheets.Values.Append(e.spreadsheetID, historyRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return 0, fmt.Errorf("append history rows into range %s: %w", historyRange, err)
	}

	e.logger.Debug("history exported to sheet", zap.Int("rows", len(rows)))
	return len(rows), nil
}
