package reporting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/calfai/herd/internal/domain/models"
	"github.com/calfai/herd/internal/service/analytics"
	"github.com/calfai/herd/internal/service/feed"
)

// Store is the slice of the document store the reporting service needs.
type Store interface {
	ListRawRecordsSince(ctx context.Context, since time.Time) ([]map[string]any, error)
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}

// Service condenses a day's prediction records into a stored herd summary.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// GenerateDailyReport aggregates all records written since the given instant
// and persists the summary.
func (s *Service) GenerateDailyReport(ctx context.Context, since time.Time) (models.DailyReport, error) {
	docs, err := s.store.ListRawRecordsSince(ctx, since)
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("load records for report: %w", err)
	}

	snapshot := feed.NormalizeDocs(docs, s.now())
	stats := analytics.Stats(snapshot)

	conditions := map[string]int{}
	for _, slice := range analytics.Distribution(snapshot) {
		conditions[slice.Condition] = slice.Count
	}

	report := models.DailyReport{
		Date:       since,
		Scans:      stats.TotalScans,
		TotalYield: stats.TotalYield,
		AvgYield:   stats.AvgYield,
		HighRisk:   stats.HighRisk,
		Conditions: conditions,
		CreatedAt:  s.now(),
	}

	if err := s.store.SaveDailyReport(ctx, report); err != nil {
		return models.DailyReport{}, fmt.Errorf("save daily report: %w", err)
	}

	s.logger.Info("daily report saved",
		zap.Int("scans", report.Scans),
		zap.Float64("total_yield", report.TotalYield),
		zap.Int("high_risk", report.HighRisk))

	return report, nil
}
