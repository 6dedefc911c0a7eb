package analytics

import (
	"math"
	"strconv"
	"strings"

	"github.com/calfai/herd/internal/domain/models"
)

// Window selects how many of the most recent records feed the trend series.
// WindowAll means the full snapshot. Only the trend is windowed; every other
// projection always covers the full snapshot.
type Window int

// WindowAll disables trend windowing.
const WindowAll Window = 0

// ParseWindow interprets the user-facing filter value ("10", "15", "All").
// Anything unparseable falls back to WindowAll.
func ParseWindow(value string) Window {
	if strings.EqualFold(value, "all") || value == "" {
		return WindowAll
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return WindowAll
	}
	return Window(n)
}

// Fixed yield buckets of the productivity histogram. A 15 L yield is medium,
// 25 L is medium, anything above 25 is high.
const (
	bucketLow    = "Low (<15L)"
	bucketMedium = "Medium (15-25L)"
	bucketHigh   = "High (>25L)"
)

// radarLabels is the fixed axis set of the disease radar, reported whether
// or not the labels appear in the data.
var radarLabels = []string{
	models.ConditionMastitis,
	models.ConditionHeatStress,
	models.ConditionDigestive,
	models.ConditionHealthy,
}

const trendTimeLayout = "15:04"

// Project derives every chart-ready view from one snapshot. It is pure:
// identical inputs produce identical outputs, an empty snapshot produces
// empty projections, and the snapshot is never mutated.
func Project(snapshot models.Snapshot, window Window) models.Projections {
	return models.Projections{
		Trend:            Trend(snapshot, window),
		Distribution:     Distribution(snapshot),
		YieldByCondition: YieldByCondition(snapshot),
		Radar:            Radar(snapshot),
		Histogram:        Histogram(snapshot),
		Stats:            Stats(snapshot),
	}
}

// Trend returns the windowed yield series in chronological order. The
// snapshot is newest first, so the window is a prefix, reversed for plotting.
func Trend(snapshot models.Snapshot, window Window) []models.TrendPoint {
	limit := len(snapshot)
	if window != WindowAll && int(window) < limit {
		limit = int(window)
	}

	points := make([]models.TrendPoint, 0, limit)
	for i := limit - 1; i >= 0; i-- {
		rec := snapshot[i]
		point := models.TrendPoint{Label: rec.CreatedAt.Format(trendTimeLayout)}
		if rec.Outcome != nil {
			point.Yield = rec.Outcome.YieldLiters
			point.Condition = rec.Outcome.Condition
		}
		points = append(points, point)
	}
	return points
}

// Distribution counts records per condition label over the FULL snapshot.
// The trend is windowed but the distribution is global; the asymmetry is
// intentional. Labels appear in first-seen snapshot order.
func Distribution(snapshot models.Snapshot) []models.ConditionCount {
	counts := map[string]int{}
	order := make([]string, 0)

	for _, rec := range snapshot {
		label := conditionOf(rec)
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		counts[label]++
	}

	out := make([]models.ConditionCount, 0, len(order))
	for _, label := range order {
		out = append(out, models.ConditionCount{Condition: label, Count: counts[label]})
	}
	return out
}

// YieldByCondition returns the arithmetic mean yield per condition label over
// the full snapshot, rounded to one decimal.
func YieldByCondition(snapshot models.Snapshot) []models.ConditionYield {
	sums := map[string]float64{}
	counts := map[string]int{}
	order := make([]string, 0)

	for _, rec := range snapshot {
		label := conditionOf(rec)
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		counts[label]++
		if rec.Outcome != nil {
			sums[label] += rec.Outcome.YieldLiters
		}
	}

	out := make([]models.ConditionYield, 0, len(order))
	for _, label := range order {
		avg := sums[label] / float64(counts[label])
		out = append(out, models.ConditionYield{Condition: label, AvgYield: round1(avg)})
	}
	return out
}

// Radar always reports exactly the four canonical labels, zero when unseen,
// with fullMark set to the snapshot size for radial normalization.
func Radar(snapshot models.Snapshot) []models.RadarPoint {
	counts := map[string]int{}
	for _, rec := range snapshot {
		counts[conditionOf(rec)]++
	}

	out := make([]models.RadarPoint, 0, len(radarLabels))
	for _, label := range radarLabels {
		out = append(out, models.RadarPoint{
			Condition: label,
			Count:     counts[label],
			FullMark:  len(snapshot),
		})
	}
	return out
}

// Histogram buckets every record's yield into the three fixed ranges.
func Histogram(snapshot models.Snapshot) []models.HistogramBucket {
	var low, medium, high int
	for _, rec := range snapshot {
		var yield float64
		if rec.Outcome != nil {
			yield = rec.Outcome.YieldLiters
		}
		switch {
		case yield < 15:
			low++
		case yield <= 25:
			medium++
		default:
			high++
		}
	}

	return []models.HistogramBucket{
		{Range: bucketLow, Count: low},
		{Range: bucketMedium, Count: medium},
		{Range: bucketHigh, Count: high},
	}
}

// Stats computes the headline dashboard figures over the full snapshot.
func Stats(snapshot models.Snapshot) models.HerdStats {
	stats := models.HerdStats{TotalScans: len(snapshot)}
	for _, rec := range snapshot {
		if rec.Outcome != nil {
			stats.TotalYield += rec.Outcome.YieldLiters
		}
		if rec.HighRisk() {
			stats.HighRisk++
		}
	}
	stats.TotalYield = round1(stats.TotalYield)
	if stats.TotalScans > 0 {
		stats.AvgYield = round1(stats.TotalYield / float64(stats.TotalScans))
	}
	return stats
}

// RecentAlerts returns up to n of the newest high-risk records.
func RecentAlerts(snapshot models.Snapshot, n int) []models.Record {
	alerts := make([]models.Record, 0, n)
	for _, rec := range snapshot {
		if !rec.HighRisk() {
			continue
		}
		alerts = append(alerts, rec)
		if len(alerts) == n {
			break
		}
	}
	return alerts
}

func conditionOf(rec models.Record) string {
	if rec.Outcome == nil || rec.Outcome.Condition == "" {
		return "Unknown"
	}
	return rec.Outcome.Condition
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
