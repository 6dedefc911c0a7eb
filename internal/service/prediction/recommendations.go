package prediction

import "github.com/calfai/herd/internal/domain/models"

// recommendations maps each condition label to its ordered advisory list.
var recommendations = map[string][]string{
	models.ConditionMastitis: {
		"Isolate animal immediately.",
		"Check udder temperature.",
		"Consult vet for antibiotics.",
	},
	models.ConditionDigestive: {
		"Review feed quality.",
		"Increase fiber intake.",
		"Monitor rumination.",
	},
	models.ConditionHeatStress: {
		"Increase ventilation.",
		"Provide cool water.",
		"Reduce activity.",
	},
	models.ConditionHealthy: {
		"Continue current nutrition plan.",
		"Monitor for changes.",
	},
}

// genericAdvisory covers labels the table does not know. Unknown conditions
// fail soft, never error.
var genericAdvisory = []string{"Consult veterinary expert."}

// Recommend returns the advisory list for a condition label.
func Recommend(condition string) []string {
	if recs, ok := recommendations[condition]; ok {
		return recs
	}
	return genericAdvisory
}
