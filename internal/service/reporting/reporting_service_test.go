package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calfai/herd/internal/domain/models"
)

type fakeReportStore struct {
	docs    []map[string]any
	listErr error
	saveErr error
	saved   []models.DailyReport
}

func (f *fakeReportStore) ListRawRecordsSince(ctx context.Context, since time.Time) ([]map[string]any, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.docs, nil
}

func (f *fakeReportStore) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, report)
	return nil
}

func TestGenerateDailyReport(t *testing.T) {
	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	store := &fakeReportStore{docs: []map[string]any{
		{"predictedYield": 20.0, "healthStatus": models.ConditionHealthy, "riskLevel": "Low", "createdAt": now},
		{"predictedYield": 10.0, "healthStatus": models.ConditionMastitis, "riskLevel": "High", "createdAt": now},
	}}
	svc := NewService(store, nil)

	since := now.Add(-24 * time.Hour)
	report, err := svc.GenerateDailyReport(context.Background(), since)

	require.NoError(t, err)
	assert.Equal(t, since, report.Date)
	assert.Equal(t, 2, report.Scans)
	assert.Equal(t, 30.0, report.TotalYield)
	assert.Equal(t, 15.0, report.AvgYield)
	assert.Equal(t, 1, report.HighRisk)
	assert.Equal(t, map[string]int{models.ConditionHealthy: 1, models.ConditionMastitis: 1}, report.Conditions)
	require.Len(t, store.saved, 1)
}

func TestGenerateDailyReportEmptyDay(t *testing.T) {
	store := &fakeReportStore{}
	svc := NewService(store, nil)

	report, err := svc.GenerateDailyReport(context.Background(), time.Now().Add(-24*time.Hour))

	require.NoError(t, err)
	assert.Zero(t, report.Scans)
	assert.Empty(t, report.Conditions)
	require.Len(t, store.saved, 1)
}

func TestGenerateDailyReportListFailure(t *testing.T) {
	store := &fakeReportStore{listErr: errors.New("server selection timeout")}
	svc := NewService(store, nil)

	_, err := svc.GenerateDailyReport(context.Background(), time.Now())

	require.Error(t, err)
	assert.Empty(t, store.saved)
}

func TestGenerateDailyReportSaveFailure(t *testing.T) {
	store := &fakeReportStore{saveErr: errors.New("write concern error")}
	svc := NewService(store, nil)

	_, err := svc.GenerateDailyReport(context.Background(), time.Now())

	require.Error(t, err)
}
