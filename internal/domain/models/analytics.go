package models

// TrendPoint is one point of the windowed milk-production trend, in
// chronological order.
type TrendPoint struct {
	Label     string  `json:"label"`
	Yield     float64 `json:"yield"`
	Condition string  `json:"condition"`
}

// ConditionCount is one slice of the condition distribution pie.
type ConditionCount struct {
	Condition string `json:"condition"`
	Count     int    `json:"count"`
}

// ConditionYield is the average yield for one condition label.
type ConditionYield struct {
	Condition string  `json:"condition"`
	AvgYield  float64 `json:"avgYield"`
}

// RadarPoint is one axis of the fixed four-label disease radar. FullMark is
// the snapshot size so renderers can normalize the radial scale.
type RadarPoint struct {
	Condition string `json:"condition"`
	Count     int    `json:"count"`
	FullMark  int    `json:"fullMark"`
}

// HistogramBucket is one fixed yield bucket of the productivity histogram.
type HistogramBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// HerdStats are the headline dashboard figures over the full snapshot.
type HerdStats struct {
	TotalScans int     `json:"totalScans"`
	TotalYield float64 `json:"totalYield"`
	AvgYield   float64 `json:"avgYield"`
	HighRisk   int     `json:"highRisk"`
}

// Projections bundles every chart-ready view derived from one snapshot.
type Projections struct {
	Trend            []TrendPoint      `json:"trend"`
	Distribution     []ConditionCount  `json:"distribution"`
	YieldByCondition []ConditionYield  `json:"yieldByCondition"`
	Radar            []RadarPoint      `json:"radar"`
	Histogram        []HistogramBucket `json:"histogram"`
	Stats            HerdStats         `json:"stats"`
}
