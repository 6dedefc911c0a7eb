package models

import "time"

// RiskLevel is the coarse health-risk grade attached to a prediction outcome.
type RiskLevel string

const (
	RiskLow  RiskLevel = "Low"
	RiskHigh RiskLevel = "High"
)

// Canonical condition labels produced by the disease model. The radar
// projection always reports exactly these four, whether or not they appear in
// the data.
const (
	ConditionMastitis   = "Mastitis"
	ConditionHeatStress = "Heat Stress"
	ConditionDigestive  = "Digestive Disorder"
	ConditionHealthy    = "Healthy"
)

// Measured holds the raw per-animal observation attributes sent to the
// prediction service. Numeric fields default to zero when absent; the
// orchestrator applies the documented physiological fallbacks before
// transmission.
type Measured struct {
	Breed              string  `bson:"Breed" json:"breed"`
	AgeMonths          int     `bson:"Age" json:"ageMonths"`
	WeightKg           float64 `bson:"Weight" json:"weightKg"`
	LactationStage     string  `bson:"Lactation_Stage" json:"lactationStage"`
	Parity             int     `bson:"Parity" json:"parity"`
	FeedType           string  `bson:"Feed_Type" json:"feedType"`
	FeedQuantityKg     float64 `bson:"Feed_Quantity" json:"feedQuantityKg"`
	ProteinContent     float64 `bson:"Protein_Content" json:"proteinContent"`
	WalkingDistanceKm  float64 `bson:"Walking_Distance" json:"walkingDistanceKm"`
	GrazingDurationHrs float64 `bson:"Grazing_Duration" json:"grazingDurationHrs"`
	RuminationTimeHrs  float64 `bson:"Rumination_Time" json:"ruminationTimeHrs"`
	RestHours          float64 `bson:"Rest_Hours" json:"restHours"`
	BodyTemperature    float64 `bson:"Body_Temperature" json:"bodyTemperature"`
	HeartRate          float64 `bson:"Heart_Rate" json:"heartRate"`
	VaccinationStatus  string  `bson:"Vaccination_Status" json:"vaccinationStatus"`
	AmbientTemperature float64 `bson:"Temperature" json:"ambientTemperature"`
	Humidity           int     `bson:"Humidity" json:"humidity"`
	Season             string  `bson:"Season" json:"season"`
	HousingQuality     string  `bson:"Housing_Quality" json:"housingQuality"`
}

// Outcome is the computed prediction attached to a record. Nil until the
// orchestrator has run both model calls.
type Outcome struct {
	YieldLiters float64   `bson:"predictedYield" json:"yieldLiters"`
	Condition   string    `bson:"healthStatus" json:"condition"`
	Risk        RiskLevel `bson:"riskLevel" json:"risk"`
	Confidence  float64   `bson:"confidence" json:"confidence"`
}

// Record is one stored animal observation plus its computed outcome. Records
// are append-only: a new observation for the same animal is a new Record, not
// an update.
type Record struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"`
	AnimalID  string    `json:"animalId"`
	Measured  Measured  `json:"measured"`
	Outcome   *Outcome  `json:"outcome,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// HighRisk reports whether the record carries a high-risk outcome.
func (r Record) HighRisk() bool {
	return r.Outcome != nil && r.Outcome.Risk == RiskHigh
}

// Snapshot is the full ordered set of an owner's Records at a point in time,
// newest first. Each emission replaces the previous one wholesale; consumers
// must treat it as immutable.
type Snapshot []Record

// Yields returns the outcome yields in snapshot order, zero for records
// without an outcome.
func (s Snapshot) Yields() []float64 {
	out := make([]float64, len(s))
	for i, r := range s {
		if r.Outcome != nil {
			out[i] = r.Outcome.YieldLiters
		}
	}
	return out
}
