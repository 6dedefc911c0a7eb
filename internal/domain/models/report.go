package models

import "time"

// DailyReport is the aggregated daily herd summary persisted by the nightly
// job.
type DailyReport struct {
	Date       time.Time      `bson:"date" json:"date"`
	Scans      int            `bson:"scans" json:"scans"`
	TotalYield float64        `bson:"total_yield" json:"total_yield"`
	AvgYield   float64        `bson:"avg_yield" json:"avg_yield"`
	HighRisk   int            `bson:"high_risk" json:"high_risk"`
	Conditions map[string]int `bson:"conditions" json:"conditions"`
	CreatedAt  time.Time      `bson:"created_at" json:"created_at"`
}
