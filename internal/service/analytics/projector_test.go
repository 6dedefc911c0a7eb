package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calfai/herd/internal/domain/models"
)

// newest first, like a real snapshot.
func sampleSnapshot(t *testing.T) models.Snapshot {
	t.Helper()

	conditions := []string{
		models.ConditionMastitis,
		models.ConditionHealthy,
		models.ConditionHealthy,
		models.ConditionHeatStress,
		models.ConditionHealthy,
	}
	yields := []float64{10, 25, 18, 12, 30}
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	snapshot := make(models.Snapshot, len(conditions))
	for i := range conditions {
		risk := models.RiskLow
		if conditions[i] != models.ConditionHealthy {
			risk = models.RiskHigh
		}
		snapshot[i] = models.Record{
			ID:       string(rune('a' + i)),
			AnimalID: "COW-00" + string(rune('1'+i)),
			Outcome: &models.Outcome{
				YieldLiters: yields[i],
				Condition:   conditions[i],
				Risk:        risk,
			},
			CreatedAt: base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return snapshot
}

func TestDistributionCountsFullSnapshot(t *testing.T) {
	got := Distribution(sampleSnapshot(t))

	require.Len(t, got, 3)
	assert.Equal(t, models.ConditionCount{Condition: models.ConditionMastitis, Count: 1}, got[0])
	assert.Equal(t, models.ConditionCount{Condition: models.ConditionHealthy, Count: 3}, got[1])
	assert.Equal(t, models.ConditionCount{Condition: models.ConditionHeatStress, Count: 1}, got[2])

	total := 0
	for _, c := range got {
		total += c.Count
	}
	assert.Equal(t, 5, total)
}

func TestTrendWindowIsAPrefixInChronologicalOrder(t *testing.T) {
	snapshot := sampleSnapshot(t)

	got := Trend(snapshot, 3)

	require.Len(t, got, 3)
	// The three newest records, oldest of them first.
	assert.Equal(t, 18.0, got[0].Yield)
	assert.Equal(t, 25.0, got[1].Yield)
	assert.Equal(t, 10.0, got[2].Yield)
}

func TestTrendWindowLargerThanSnapshot(t *testing.T) {
	snapshot := sampleSnapshot(t)

	got := Trend(snapshot, 50)

	require.Len(t, got, len(snapshot))
	assert.Equal(t, 30.0, got[0].Yield)
	assert.Equal(t, 10.0, got[len(got)-1].Yield)
}

func TestDistributionIgnoresWindow(t *testing.T) {
	snapshot := sampleSnapshot(t)

	narrow := Project(snapshot, 2)
	wide := Project(snapshot, WindowAll)

	assert.Len(t, narrow.Trend, 2)
	assert.Equal(t, wide.Distribution, narrow.Distribution)
	assert.Equal(t, wide.Histogram, narrow.Histogram)
	assert.Equal(t, wide.Stats, narrow.Stats)
}

func TestHistogramBucketBoundaries(t *testing.T) {
	got := Histogram(sampleSnapshot(t))

	require.Len(t, got, 3)
	assert.Equal(t, models.HistogramBucket{Range: "Low (<15L)", Count: 2}, got[0])
	assert.Equal(t, models.HistogramBucket{Range: "Medium (15-25L)", Count: 2}, got[1])
	assert.Equal(t, models.HistogramBucket{Range: "High (>25L)", Count: 1}, got[2])
}

func TestHistogramEdgeValues(t *testing.T) {
	snapshot := models.Snapshot{
		{Outcome: &models.Outcome{YieldLiters: 15}},
		{Outcome: &models.Outcome{YieldLiters: 25}},
		{Outcome: &models.Outcome{YieldLiters: 25.01}},
		{Outcome: &models.Outcome{YieldLiters: 14.99}},
	}

	got := Histogram(snapshot)

	assert.Equal(t, 1, got[0].Count)
	assert.Equal(t, 2, got[1].Count)
	assert.Equal(t, 1, got[2].Count)
}

func TestRadarAlwaysReportsFourLabels(t *testing.T) {
	snapshot := models.Snapshot{
		{Outcome: &models.Outcome{Condition: models.ConditionHealthy}},
	}

	got := Radar(snapshot)

	require.Len(t, got, 4)
	for _, point := range got {
		assert.Equal(t, 1, point.FullMark)
	}
	assert.Equal(t, 0, got[0].Count)
	assert.Equal(t, 1, got[3].Count)
}

func TestStats(t *testing.T) {
	got := Stats(sampleSnapshot(t))

	assert.Equal(t, 5, got.TotalScans)
	assert.Equal(t, 95.0, got.TotalYield)
	assert.Equal(t, 19.0, got.AvgYield)
	assert.Equal(t, 2, got.HighRisk)
}

func TestProjectIsIdempotent(t *testing.T) {
	snapshot := sampleSnapshot(t)

	first := Project(snapshot, 10)
	second := Project(snapshot, 10)

	assert.Equal(t, first, second)
}

func TestProjectEmptySnapshot(t *testing.T) {
	got := Project(nil, WindowAll)

	assert.Empty(t, got.Trend)
	assert.Empty(t, got.Distribution)
	assert.Len(t, got.Radar, 4)
	assert.Equal(t, models.HerdStats{}, got.Stats)
	for _, bucket := range got.Histogram {
		assert.Zero(t, bucket.Count)
	}
}

func TestRecentAlertsNewestFirstCapped(t *testing.T) {
	snapshot := sampleSnapshot(t)

	got := RecentAlerts(snapshot, 1)

	require.Len(t, got, 1)
	assert.Equal(t, models.ConditionMastitis, got[0].Outcome.Condition)
}

func TestParseWindow(t *testing.T) {
	assert.Equal(t, WindowAll, ParseWindow("All"))
	assert.Equal(t, WindowAll, ParseWindow(""))
	assert.Equal(t, WindowAll, ParseWindow("garbage"))
	assert.Equal(t, WindowAll, ParseWindow("-3"))
	assert.Equal(t, Window(15), ParseWindow("15"))
}
