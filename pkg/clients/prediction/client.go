package prediction

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client exposes the remote inference and OTP backend operations used by the
// application.
type Client interface {
	PredictYield(ctx context.Context, input CattleInput) (*YieldResponse, error)
	PredictDisease(ctx context.Context, input CattleInput) (*DiseaseResponse, error)
	GetCattle(ctx context.Context, animalID string) (map[string]any, error)
	RequestOTP(ctx context.Context, email, password string) error
	VerifyOTP(ctx context.Context, email, code string) error
	Chat(ctx context.Context, message string) (string, error)
}

// CattleInput is the flat measurement payload the inference service accepts.
// Field names mirror the model pipeline's feature columns. Humidity must be a
// whole number; the service rejects non-integers for it.
type CattleInput struct {
	Breed              string  `json:"Breed"`
	Age                int     `json:"Age"`
	Weight             float64 `json:"Weight"`
	LactationStage     string  `json:"Lactation_Stage"`
	Parity             int     `json:"Parity"`
	FeedType           string  `json:"Feed_Type"`
	FeedQuantity       float64 `json:"Feed_Quantity"`
	ProteinContent     float64 `json:"Protein_Content"`
	WalkingDistance    float64 `json:"Walking_Distance"`
	GrazingDuration    float64 `json:"Grazing_Duration"`
	RuminationTime     float64 `json:"Rumination_Time"`
	RestHours          float64 `json:"Rest_Hours"`
	BodyTemperature    float64 `json:"Body_Temperature"`
	HeartRate          float64 `json:"Heart_Rate"`
	VaccinationStatus  string  `json:"Vaccination_Status"`
	AmbientTemperature float64 `json:"Temperature"`
	Humidity           int     `json:"Humidity"`
	Season             string  `json:"Season"`
	HousingQuality     string  `json:"Housing_Quality"`
}

// YieldResponse mirrors the yield endpoint payload.
type YieldResponse struct {
	PredictedMilkYieldLiters float64 `json:"predicted_milk_yield_liters"`
	Status                   string  `json:"status"`
}

// DiseaseResponse mirrors the condition endpoint payload. ConfidenceScores
// maps every candidate label to a 0-100 confidence value.
type DiseaseResponse struct {
	PredictedCondition string             `json:"predicted_condition"`
	RiskAssessment     string             `json:"risk_assessment"`
	ConfidenceScores   map[string]float64 `json:"confidence_scores"`
	Status             string             `json:"status"`
}

// apiError represents the backend's error payload. Detail may be a plain
// string or a structured validation object.
type apiError struct {
	Detail any `json:"detail"`
}

func (e *apiError) message() string {
	switch d := e.Detail.(type) {
	case nil:
		return ""
	case string:
		return d
	default:
		raw, err := json.Marshal(d)
		if err != nil {
			return fmt.Sprint(d)
		}
		return string(raw)
	}
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a prediction API client for the given base URL.
func NewClient(baseURL string) *APIClient {
	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &APIClient{httpClient: restyClient}
}

// PredictYield requests a milk-yield estimate for one observation.
func (c *APIClient) PredictYield(ctx context.Context, input CattleInput) (*YieldResponse, error) {
	result := new(YieldResponse)
	if err := c.post(ctx, "/predict-yield", input, result); err != nil {
		return nil, fmt.Errorf("predict yield: %w", err)
	}
	return result, nil
}

// PredictDisease requests a condition classification for one observation.
func (c *APIClient) PredictDisease(ctx context.Context, input CattleInput) (*DiseaseResponse, error) {
	result := new(DiseaseResponse)
	if err := c.post(ctx, "/predict-disease", input, result); err != nil {
		return nil, fmt.Errorf("predict disease: %w", err)
	}
	return result, nil
}

// GetCattle fetches a stored observation row by animal identifier. The shape
// is the raw feature row, so callers must strip identifier and label columns
// before feeding it back into the models.
func (c *APIClient) GetCattle(ctx context.Context, animalID string) (map[string]any, error) {
	result := map[string]any{}
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(apiErr).
		Get("/cattle/" + animalID)
	if err != nil {
		return nil, fmt.Errorf("get cattle %s: %w", animalID, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("get cattle %s: %s", animalID, statusMessage(resp, apiErr))
	}

	return result, nil
}

// RequestOTP asks the backend to issue a one-time code to the given address.
// The same endpoint serves first-time registration and email changes.
func (c *APIClient) RequestOTP(ctx context.Context, email, password string) error {
	payload := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/register", payload, nil); err != nil {
		return fmt.Errorf("request otp: %w", err)
	}
	return nil
}

// VerifyOTP checks a user-supplied code against the backend.
func (c *APIClient) VerifyOTP(ctx context.Context, email, code string) error {
	payload := map[string]string{"email": email, "otp": code}
	if err := c.post(ctx, "/verify-otp", payload, nil); err != nil {
		return fmt.Errorf("verify otp: %w", err)
	}
	return nil
}

// Chat forwards one message to the conversational endpoint and returns the
// assistant's reply.
func (c *APIClient) Chat(ctx context.Context, message string) (string, error) {
	var result struct {
		Response string `json:"response"`
	}
	payload := map[string]string{"message": message}
	if err := c.post(ctx, "/chat", payload, &result); err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return result.Response, nil
}

func (c *APIClient) post(ctx context.Context, path string, body, result any) error {
	apiErr := new(apiError)

	req := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetError(apiErr)
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Post(path)
	if err != nil {
		return err
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("%s", statusMessage(resp, apiErr))
	}

	return nil
}

func statusMessage(resp *resty.Response, apiErr *apiError) string {
	if msg := apiErr.message(); msg != "" {
		return msg
	}
	return fmt.Sprintf("status %d: %s", resp.StatusCode(), resp.String())
}
