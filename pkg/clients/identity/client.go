package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Account is the provider's view of an authenticated user.
type Account struct {
	ID      string
	Email   string
	IDToken string
}

// Provider exposes the identity-provider operations used by the application.
// Re-authentication is a fresh SignIn with the account's current credentials.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Account, error)
	SignIn(ctx context.Context, email, password string) (*Account, error)
	Lookup(ctx context.Context, idToken string) (*Account, error)
	SendEmailUpdateLink(ctx context.Context, idToken, newEmail string) error
}

// APIClient is a resty-backed Provider speaking the Identity Toolkit REST
// surface.
type APIClient struct {
	httpClient *resty.Client
	apiKey     string
}

// NewClient builds an identity client from the provider base URL and API key.
func NewClient(baseURL, apiKey string) *APIClient {
	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &APIClient{httpClient: restyClient, apiKey: apiKey}
}

type authResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
	IDToken string `json:"idToken"`
}

type lookupResponse struct {
	Users []struct {
		LocalID string `json:"localId"`
		Email   string `json:"email"`
	} `json:"users"`
}

// apiError represents the provider's error payload. Message carries the
// stable machine code (EMAIL_EXISTS, INVALID_PASSWORD, ...).
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignUp creates a new email/password account and returns a live session.
func (c *APIClient) SignUp(ctx context.Context, email, password string) (*Account, error) {
	return c.auth(ctx, "/accounts:signUp", email, password)
}

// SignIn authenticates existing credentials. Also used as the fresh
// proof-of-identity step before sensitive changes.
func (c *APIClient) SignIn(ctx context.Context, email, password string) (*Account, error) {
	return c.auth(ctx, "/accounts:signInWithPassword", email, password)
}

// Lookup resolves an ID token to its account.
func (c *APIClient) Lookup(ctx context.Context, idToken string) (*Account, error) {
	result := new(lookupResponse)
	payload := map[string]string{"idToken": idToken}

	if err := c.post(ctx, "/accounts:lookup", payload, result); err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if len(result.Users) == 0 {
		return nil, fmt.Errorf("lookup account: no user for token")
	}

	return &Account{ID: result.Users[0].LocalID, Email: result.Users[0].Email, IDToken: idToken}, nil
}

// SendEmailUpdateLink triggers the provider's verify-before-update-email
// mechanism. The authoritative email only changes once the user clicks the
// mailed link.
func (c *APIClient) SendEmailUpdateLink(ctx context.Context, idToken, newEmail string) error {
	payload := map[string]string{
		"requestType": "VERIFY_AND_CHANGE_EMAIL",
		"idToken":     idToken,
		"newEmail":    newEmail,
	}
	if err := c.post(ctx, "/accounts:sendOobCode", payload, nil); err != nil {
		return fmt.Errorf("send email update link: %w", err)
	}
	return nil
}

func (c *APIClient) auth(ctx context.Context, path, email, password string) (*Account, error) {
	result := new(authResponse)
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}

	if err := c.post(ctx, path, payload, result); err != nil {
		return nil, err
	}

	return &Account{ID: result.LocalID, Email: result.Email, IDToken: result.IDToken}, nil
}

func (c *APIClient) post(ctx context.Context, path string, body, result any) error {
	apiErr := new(apiError)

	req := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(body).
		SetError(apiErr)
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("identity provider call: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Error.Message
		code := resp.StatusCode()
		if apiErr.Error.Code != 0 {
			code = apiErr.Error.Code
		}
		if message == "" {
			message = resp.String()
		}
		return fmt.Errorf("identity api error: code=%d, message=%s", code, message)
	}

	return nil
}

// IsEmailExists reports whether err is the provider's duplicate-account
// rejection, which the enrollment protocol reconciles by signing in instead.
func IsEmailExists(err error) bool {
	return err != nil && strings.Contains(err.Error(), "EMAIL_EXISTS")
}
