package feed

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/calfai/herd/internal/domain/models"
)

// NormalizeDocs rebuilds a Snapshot from a raw change set. Older clients
// wrote legacy field names (yield, disease, risk); the canonical names
// (predictedYield, healthStatus, riskLevel) win when both are present.
// Missing numerics coerce to zero. Records without a timestamp are stamped
// "now" at read time, which makes their relative order nondeterministic;
// newest-first only holds for timestamped entries.
func NormalizeDocs(docs []map[string]any, now time.Time) models.Snapshot {
	snapshot := make(models.Snapshot, 0, len(docs))

	for _, doc := range docs {
		rec := models.Record{
			ID:       docID(doc),
			OwnerID:  getString(doc, "ownerId", ""),
			AnimalID: getString(doc, "Animal_ID", "Unknown"),
			Measured: models.Measured{
				Breed:              getString(doc, "Breed", ""),
				AgeMonths:          getInt(doc, "Age"),
				WeightKg:           getFloat(doc, "Weight"),
				LactationStage:     getString(doc, "Lactation_Stage", ""),
				Parity:             getInt(doc, "Parity"),
				FeedType:           getString(doc, "Feed_Type", ""),
				FeedQuantityKg:     getFloat(doc, "Feed_Quantity"),
				ProteinContent:     getFloat(doc, "Protein_Content"),
				WalkingDistanceKm:  getFloat(doc, "Walking_Distance"),
				GrazingDurationHrs: getFloat(doc, "Grazing_Duration"),
				RuminationTimeHrs:  getFloat(doc, "Rumination_Time"),
				RestHours:          getFloat(doc, "Rest_Hours"),
				BodyTemperature:    getFloat(doc, "Body_Temperature"),
				HeartRate:          getFloat(doc, "Heart_Rate"),
				VaccinationStatus:  getString(doc, "Vaccination_Status", ""),
				AmbientTemperature: getFloat(doc, "Temperature"),
				Humidity:           getInt(doc, "Humidity"),
				Season:             getString(doc, "Season", ""),
				HousingQuality:     getString(doc, "Housing_Quality", ""),
			},
			Outcome: &models.Outcome{
				YieldLiters: coalesceFloat(doc, "predictedYield", "yield"),
				Condition:   coalesceString(doc, "healthStatus", "disease", "N/A"),
				Risk:        models.RiskLevel(coalesceString(doc, "riskLevel", "risk", string(models.RiskLow))),
				Confidence:  getFloat(doc, "confidence"),
			},
			CreatedAt: getTime(doc, "createdAt", now),
		}
		snapshot = append(snapshot, rec)
	}

	sort.SliceStable(snapshot, func(i, j int) bool {
		return snapshot[i].CreatedAt.After(snapshot[j].CreatedAt)
	})

	return snapshot
}

func docID(doc map[string]any) string {
	switch id := doc["_id"].(type) {
	case nil:
		return ""
	case primitive.ObjectID:
		return id.Hex()
	default:
		return fmt.Sprint(id)
	}
}

func coalesceFloat(doc map[string]any, current, legacy string) float64 {
	if _, ok := doc[current]; ok {
		return getFloat(doc, current)
	}
	return getFloat(doc, legacy)
}

func coalesceString(doc map[string]any, current, legacy, fallback string) string {
	if v := getString(doc, current, ""); v != "" {
		return v
	}
	if v := getString(doc, legacy, ""); v != "" {
		return v
	}
	return fallback
}

func getString(doc map[string]any, key, fallback string) string {
	v, ok := doc[key]
	if !ok || v == nil {
		return fallback
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprint(v)
	}
	if s == "" {
		return fallback
	}
	return s
}

func getFloat(doc map[string]any, key string) float64 {
	v, ok := doc[key]
	if !ok || v == nil {
		return 0
	}

	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		parsed, err := strconv.ParseFloat(fmt.Sprint(v), 64)
		if err != nil {
			return 0
		}
		return parsed
	}
}

func getInt(doc map[string]any, key string) int {
	return int(math.Round(getFloat(doc, key)))
}

func getTime(doc map[string]any, key string, now time.Time) time.Time {
	v, ok := doc[key]
	if !ok || v == nil {
		return now
	}

	switch t := v.(type) {
	case time.Time:
		return t
	case primitive.DateTime:
		return t.Time()
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return now
		}
		return parsed
	default:
		return now
	}
}
