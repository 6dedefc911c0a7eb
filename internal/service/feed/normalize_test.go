package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/calfai/herd/internal/domain/models"
)

func TestNormalizeDocsPrefersCanonicalFieldNames(t *testing.T) {
	now := time.Now()
	docs := []map[string]any{
		{
			"Animal_ID":      "COW-001",
			"predictedYield": 22.5,
			"yield":          9.0,
			"healthStatus":   models.ConditionMastitis,
			"disease":        models.ConditionHealthy,
			"riskLevel":      "High",
			"risk":           "Low",
			"createdAt":      now,
		},
	}

	got := NormalizeDocs(docs, now)

	require.Len(t, got, 1)
	assert.Equal(t, 22.5, got[0].Outcome.YieldLiters)
	assert.Equal(t, models.ConditionMastitis, got[0].Outcome.Condition)
	assert.Equal(t, models.RiskHigh, got[0].Outcome.Risk)
}

func TestNormalizeDocsFallsBackToLegacyFieldNames(t *testing.T) {
	now := time.Now()
	docs := []map[string]any{
		{
			"Animal_ID": "COW-002",
			"yield":     17.0,
			"disease":   models.ConditionHeatStress,
			"risk":      "High",
			"createdAt": now,
		},
	}

	got := NormalizeDocs(docs, now)

	require.Len(t, got, 1)
	assert.Equal(t, 17.0, got[0].Outcome.YieldLiters)
	assert.Equal(t, models.ConditionHeatStress, got[0].Outcome.Condition)
	assert.Equal(t, models.RiskHigh, got[0].Outcome.Risk)
}

func TestNormalizeDocsDefaults(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	got := NormalizeDocs([]map[string]any{{}}, now)

	require.Len(t, got, 1)
	rec := got[0]
	assert.Equal(t, "Unknown", rec.AnimalID)
	assert.Zero(t, rec.Measured.WeightKg)
	assert.Zero(t, rec.Measured.AgeMonths)
	require.NotNil(t, rec.Outcome)
	assert.Zero(t, rec.Outcome.YieldLiters)
	assert.Equal(t, "N/A", rec.Outcome.Condition)
	assert.Equal(t, models.RiskLow, rec.Outcome.Risk)
	assert.Equal(t, now, rec.CreatedAt)
}

func TestNormalizeDocsCoercesNumericVariants(t *testing.T) {
	docs := []map[string]any{
		{
			"Age":            int32(24),
			"Weight":         int64(450),
			"Humidity":       49.6,
			"predictedYield": "18.5",
			"createdAt":      time.Now(),
		},
	}

	got := NormalizeDocs(docs, time.Now())

	require.Len(t, got, 1)
	assert.Equal(t, 24, got[0].Measured.AgeMonths)
	assert.Equal(t, 450.0, got[0].Measured.WeightKg)
	assert.Equal(t, 50, got[0].Measured.Humidity)
	assert.Equal(t, 18.5, got[0].Outcome.YieldLiters)
}

func TestNormalizeDocsSortsNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	docs := []map[string]any{
		{"Animal_ID": "old", "createdAt": base},
		{"Animal_ID": "newest", "createdAt": primitive.NewDateTimeFromTime(base.Add(2 * time.Hour))},
		{"Animal_ID": "middle", "createdAt": base.Add(time.Hour).Format(time.RFC3339)},
	}

	got := NormalizeDocs(docs, base)

	require.Len(t, got, 3)
	assert.Equal(t, "newest", got[0].AnimalID)
	assert.Equal(t, "middle", got[1].AnimalID)
	assert.Equal(t, "old", got[2].AnimalID)
}

func TestNormalizeDocsObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	docs := []map[string]any{{"_id": oid, "createdAt": time.Now()}}

	got := NormalizeDocs(docs, time.Now())

	require.Len(t, got, 1)
	assert.Equal(t, oid.Hex(), got[0].ID)
}
