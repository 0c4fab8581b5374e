package connect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/velvetrow/salon-platform/internal/square"
	"github.com/velvetrow/salon-platform/pkg/logging"
)

const (
	squareVersion = "2024-01-18"

	oauthScopes = "APPOINTMENTS_READ APPOINTMENTS_WRITE APPOINTMENTS_ALL_READ " +
		"CUSTOMERS_READ CUSTOMERS_WRITE ITEMS_READ MERCHANT_PROFILE_READ " +
		"EMPLOYEES_READ TIMECARDS_READ"

	// fallbackTokenLifetime applies when Square's expires_at cannot be
	// parsed.
	fallbackTokenLifetime = 30 * 24 * time.Hour
)

// OAuthConfig holds the Square application credentials.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Sandbox      bool
}

// Environment returns the API environment the config targets.
func (c OAuthConfig) Environment() square.Environment {
	if c.Sandbox {
		return square.EnvSandbox
	}
	return square.EnvProduction
}

// OAuthService performs the authorization-code exchange against Square's
// token endpoint.
type OAuthService struct {
	config     OAuthConfig
	httpClient *http.Client
	logger     *logging.Logger

	// baseURLOverride replaces the environment host in tests.
	baseURLOverride string
}

// OAuthOption configures an OAuthService.
type OAuthOption func(*OAuthService)

// WithOAuthHTTPClient replaces the underlying HTTP client.
func WithOAuthHTTPClient(hc *http.Client) OAuthOption {
	return func(s *OAuthService) {
		if hc != nil {
			s.httpClient = hc
		}
	}
}

// WithOAuthBaseURL overrides host selection; tests point this at httptest
// servers.
func WithOAuthBaseURL(base string) OAuthOption {
	return func(s *OAuthService) { s.baseURLOverride = strings.TrimRight(base, "/") }
}

// NewOAuthService creates a Square OAuth service.
func NewOAuthService(config OAuthConfig, logger *logging.Logger, opts ...OAuthOption) *OAuthService {
	if logger == nil {
		logger = logging.Default()
	}
	s := &OAuthService{
		config:     config,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		logger:     logger.Component("oauth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OAuthService) baseURL() string {
	if s.baseURLOverride != "" {
		return s.baseURLOverride
	}
	return s.config.Environment().BaseURL()
}

// AuthorizationURL builds the URL salon owners are redirected to. state
// must be unguessable and tied to the session to prevent CSRF.
func (s *OAuthService) AuthorizationURL(state string) string {
	params := url.Values{
		"client_id":    {s.config.ClientID},
		"scope":        {oauthScopes},
		"state":        {state},
		"redirect_uri": {s.config.RedirectURI},
	}
	// session=false is not supported in the sandbox environment.
	if !s.config.Sandbox {
		params.Set("session", "false")
	}
	return fmt.Sprintf("%s/oauth2/authorize?%s", s.baseURL(), params.Encode())
}

// TokenGrant is the result of a successful code exchange.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	MerchantID   string
	ExpiresAt    time.Time
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresAt    string `json:"expires_at"`
	MerchantID   string `json:"merchant_id"`
	RefreshToken string `json:"refresh_token"`
}

type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ExchangeCode exchanges an authorization code for tokens. Failures come
// back as *OAuthExchangeError carrying Square's error fields; token values
// are never logged.
func (s *OAuthService) ExchangeCode(ctx context.Context, code string) (*TokenGrant, error) {
	data := url.Values{
		"client_id":     {s.config.ClientID},
		"client_secret": {s.config.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {s.config.RedirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL()+"/oauth2/token", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("connect: create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Square-Version", squareVersion)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect: token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("connect: read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var remote tokenErrorResponse
		_ = json.Unmarshal(body, &remote)
		s.logger.Error("token exchange failed", "status", resp.StatusCode, "remote_error", remote.Error)
		return nil, &OAuthExchangeError{
			Status:      resp.StatusCode,
			Remote:      remote.Error,
			Description: remote.ErrorDescription,
		}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("connect: parse token response: %w", err)
	}

	expiresAt, err := time.Parse(time.RFC3339, tok.ExpiresAt)
	if err != nil {
		expiresAt = time.Now().Add(fallbackTokenLifetime)
	}
	return &TokenGrant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		MerchantID:   tok.MerchantID,
		ExpiresAt:    expiresAt,
	}, nil
}
