package prediction

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calfai/herd/internal/domain/faults"
	"github.com/calfai/herd/internal/domain/models"
	"github.com/calfai/herd/internal/repository/localcache"
	"github.com/calfai/herd/pkg/clients/prediction"
)

const persistTimeout = 10 * time.Second

// Documented fallbacks for absent numeric observation fields. Everything not
// listed here defaults to zero.
const (
	defaultBodyTemperature    = 38.5
	defaultHeartRate          = 60
	defaultAmbientTemperature = 25
	defaultHumidity           = 50
	defaultParity             = 1
)

// Observation is a raw data-entry submission. Fields arrive as form strings;
// normalization parses each one or applies its documented default.
type Observation struct {
	AnimalID           string `json:"animalId"`
	Breed              string `json:"breed"`
	Age                string `json:"age"`
	Weight             string `json:"weight"`
	LactationStage     string `json:"lactationStage"`
	Parity             string `json:"parity"`
	FeedType           string `json:"feedType"`
	FeedQuantity       string `json:"feedQuantity"`
	ProteinContent     string `json:"proteinContent"`
	WalkingDistance    string `json:"walkingDistance"`
	GrazingDuration    string `json:"grazingDuration"`
	RuminationTime     string `json:"ruminationTime"`
	RestHours          string `json:"restHours"`
	BodyTemperature    string `json:"bodyTemperature"`
	HeartRate          string `json:"heartRate"`
	VaccinationStatus  string `json:"vaccinationStatus"`
	AmbientTemperature string `json:"ambientTemperature"`
	Humidity           string `json:"humidity"`
	Season             string `json:"season"`
	HousingQuality     string `json:"housingQuality"`
}

// Outcome is the merged result of the two model calls.
type Outcome struct {
	AnimalID        string           `json:"animalId"`
	YieldLiters     float64          `json:"yieldLiters"`
	Condition       string           `json:"condition"`
	Risk            models.RiskLevel `json:"risk"`
	Confidence      float64          `json:"confidence"`
	Recommendations []string         `json:"recommendations"`
}

// HistoryStore is the durable per-owner record collection.
type HistoryStore interface {
	AppendRecord(ctx context.Context, rec models.Record) error
}

// OutcomeCache is the local fallback outcome log.
type OutcomeCache interface {
	Prepend(ctx context.Context, entry localcache.Entry) error
}

// Orchestrator validates and normalizes observations, runs the two prediction
// calls in a fixed order, and persists the merged outcome as a history entry.
type Orchestrator struct {
	client prediction.Client
	store  HistoryStore
	cache  OutcomeCache
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewOrchestrator wires an orchestrator instance. store and cache may be nil
// in tests.
func NewOrchestrator(client prediction.Client, store HistoryStore, cache OutcomeCache, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		client: client,
		store:  store,
		cache:  cache,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Submit runs both predictions for a fresh observation. Age and weight must
// be present and parseable; the check happens before any network call.
func (o *Orchestrator) Submit(ctx context.Context, ownerID string, obs Observation) (*Outcome, error) {
	if _, err := strconv.ParseFloat(obs.Age, 64); err != nil {
		return nil, faults.Validation("Please fill in required fields (Age, Weight).")
	}
	if _, err := strconv.ParseFloat(obs.Weight, 64); err != nil {
		return nil, faults.Validation("Please fill in required fields (Age, Weight).")
	}

	input := normalizeObservation(obs)
	return o.predict(ctx, ownerID, obs.AnimalID, input)
}

// SubmitByID fetches a previously stored observation row and runs both
// predictions on it. Identifier and label columns are stripped before
// transmission; prior outcomes are never echoed back to the models.
func (o *Orchestrator) SubmitByID(ctx context.Context, ownerID, animalID string) (*Outcome, error) {
	if animalID == "" {
		return nil, faults.Validation("Enter a cattle identifier.")
	}

	raw, err := o.client.GetCattle(ctx, animalID)
	if err != nil {
		return nil, faults.Wrap(faults.KindUpstream, "Could not fetch the cattle record.", err)
	}

	input := inputFromRecord(raw)
	return o.predict(ctx, ownerID, animalID, input)
}

// predict is the shared sequencing core: yield first, then disease, both
// mandatory. The order carries no semantic weight but keeps traces
// reproducible.
func (o *Orchestrator) predict(ctx context.Context, ownerID, animalID string, input prediction.CattleInput) (*Outcome, error) {
	yieldRes, err := o.client.PredictYield(ctx, input)
	if err != nil {
		return nil, faults.Wrap(faults.KindUpstream, "Failed to analyze. Ensure the prediction service is reachable.", err)
	}

	diseaseRes, err := o.client.PredictDisease(ctx, input)
	if err != nil {
		return nil, faults.Wrap(faults.KindUpstream, "Failed to analyze. Ensure the prediction service is reachable.", err)
	}

	outcome := &Outcome{
		AnimalID:    animalID,
		YieldLiters: yieldRes.PredictedMilkYieldLiters,
		Condition:   diseaseRes.PredictedCondition,
		Risk:        models.RiskLevel(diseaseRes.RiskAssessment),
		// The confidence shown is the score keyed by the predicted label,
		// not the maximum of the map.
		Confidence:      diseaseRes.ConfidenceScores[diseaseRes.PredictedCondition],
		Recommendations: Recommend(diseaseRes.PredictedCondition),
	}

	o.saveHistory(ownerID, input, outcome)

	return outcome, nil
}

// saveHistory appends the outcome to the durable collection and the local
// cache. The append is fire-and-forget: the caller's success does not wait
// for the live subscription to observe the new record.
func (o *Orchestrator) saveHistory(ownerID string, input prediction.CattleInput, outcome *Outcome) {
	rec := models.Record{
		ID:       o.newID(),
		OwnerID:  ownerID,
		AnimalID: outcome.AnimalID,
		Measured: measuredFromInput(input),
		Outcome: &models.Outcome{
			YieldLiters: outcome.YieldLiters,
			Condition:   outcome.Condition,
			Risk:        outcome.Risk,
			Confidence:  outcome.Confidence,
		},
		CreatedAt: o.now(),
	}

	if o.store != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			if err := o.store.AppendRecord(ctx, rec); err != nil {
				o.logger.Error("failed to persist history entry",
					zap.String("animal_id", rec.AnimalID), zap.Error(err))
			}
		}()
	}

	if o.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		entry := localcache.Entry{
			AnimalID:    rec.AnimalID,
			YieldLiters: outcome.YieldLiters,
			Condition:   outcome.Condition,
			Risk:        outcome.Risk,
			CreatedAt:   rec.CreatedAt,
		}
		if err := o.cache.Prepend(ctx, entry); err != nil {
			o.logger.Warn("failed to cache outcome", zap.Error(err))
		}
	}
}

// normalizeObservation coerces each form field or applies its default.
// Humidity is rounded to a whole number; the service rejects non-integers.
func normalizeObservation(obs Observation) prediction.CattleInput {
	return prediction.CattleInput{
		Breed:              orString(obs.Breed, "Holstein"),
		Age:                int(parseOr(obs.Age, 0)),
		Weight:             parseOr(obs.Weight, 0),
		LactationStage:     orString(obs.LactationStage, "Early"),
		Parity:             int(parseOr(obs.Parity, defaultParity)),
		FeedType:           orString(obs.FeedType, "Green Fodder"),
		FeedQuantity:       parseOr(obs.FeedQuantity, 0),
		ProteinContent:     parseOr(obs.ProteinContent, 0),
		WalkingDistance:    parseOr(obs.WalkingDistance, 0),
		GrazingDuration:    parseOr(obs.GrazingDuration, 0),
		RuminationTime:     parseOr(obs.RuminationTime, 0),
		RestHours:          parseOr(obs.RestHours, 0),
		BodyTemperature:    parseOr(obs.BodyTemperature, defaultBodyTemperature),
		HeartRate:          parseOr(obs.HeartRate, defaultHeartRate),
		VaccinationStatus:  orString(obs.VaccinationStatus, "Vaccinated"),
		AmbientTemperature: parseOr(obs.AmbientTemperature, defaultAmbientTemperature),
		Humidity:           int(math.Round(parseOr(obs.Humidity, defaultHumidity))),
		Season:             orString(obs.Season, "Winter"),
		HousingQuality:     orString(obs.HousingQuality, "Average"),
	}
}

// inputFromRecord derives a model input from a fetched feature row, dropping
// Animal_ID, Milk_Yield and Disease_Label.
func inputFromRecord(raw map[string]any) prediction.CattleInput {
	return prediction.CattleInput{
		Breed:              strField(raw, "Breed"),
		Age:                int(math.Round(numField(raw, "Age"))),
		Weight:             numField(raw, "Weight"),
		LactationStage:     strField(raw, "Lactation_Stage"),
		Parity:             int(math.Round(numField(raw, "Parity"))),
		FeedType:           strField(raw, "Feed_Type"),
		FeedQuantity:       numField(raw, "Feed_Quantity"),
		ProteinContent:     numField(raw, "Protein_Content"),
		WalkingDistance:    numField(raw, "Walking_Distance"),
		GrazingDuration:    numField(raw, "Grazing_Duration"),
		RuminationTime:     numField(raw, "Rumination_Time"),
		RestHours:          numField(raw, "Rest_Hours"),
		BodyTemperature:    numField(raw, "Body_Temperature"),
		HeartRate:          numField(raw, "Heart_Rate"),
		VaccinationStatus:  strField(raw, "Vaccination_Status"),
		AmbientTemperature: numField(raw, "Temperature"),
		Humidity:           int(math.Round(numField(raw, "Humidity"))),
		Season:             strField(raw, "Season"),
		HousingQuality:     strField(raw, "Housing_Quality"),
	}
}

func measuredFromInput(input prediction.CattleInput) models.Measured {
	return models.Measured{
		Breed:              input.Breed,
		AgeMonths:          input.Age,
		WeightKg:           input.Weight,
		LactationStage:     input.LactationStage,
		Parity:             input.Parity,
		FeedType:           input.FeedType,
		FeedQuantityKg:     input.FeedQuantity,
		ProteinContent:     input.ProteinContent,
		WalkingDistanceKm:  input.WalkingDistance,
		GrazingDurationHrs: input.GrazingDuration,
		RuminationTimeHrs:  input.RuminationTime,
		RestHours:          input.RestHours,
		BodyTemperature:    input.BodyTemperature,
		HeartRate:          input.HeartRate,
		VaccinationStatus:  input.VaccinationStatus,
		AmbientTemperature: input.AmbientTemperature,
		Humidity:           input.Humidity,
		Season:             input.Season,
		HousingQuality:     input.HousingQuality,
	}
}

func parseOr(value string, fallback float64) float64 {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func orString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func numField(raw map[string]any, key string) float64 {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		parsed, err := strconv.ParseFloat(fmt.Sprint(v), 64)
		if err != nil {
			return 0
		}
		return parsed
	}
}

func strField(raw map[string]any, key string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
