package connect

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/velvetrow/salon-platform/internal/identity"
	"github.com/velvetrow/salon-platform/internal/square"
	"github.com/velvetrow/salon-platform/pkg/logging"
)

const (
	// fallbackMerchantName labels the connection when the merchant profile
	// lookup fails; the connection itself still succeeds.
	fallbackMerchantName = "Square Merchant"

	// identityEmailDomain hosts the synthetic owner accounts minted per
	// merchant. These addresses are never mailed.
	identityEmailDomain = "merchants.salon.internal"

	ownerRole = "owner"
)

// MerchantAPI is the slice of the Square client the connect flow needs.
type MerchantAPI interface {
	GetMerchant(ctx context.Context, token string, env square.Environment, merchantID string) (*square.Merchant, error)
	ListLocations(ctx context.Context, token string, env square.Environment) ([]square.Location, error)
}

// ConnectionStore persists tenant connections.
type ConnectionStore interface {
	Save(ctx context.Context, conn *Connection) error
	Get(ctx context.Context, tenantID string) (*Connection, error)
	Delete(ctx context.Context, tenantID string) error
}

// Service runs the full connection flow: code exchange, merchant profile
// lookup, local account resolution, persistence, and the detached
// bootstrap sync.
type Service struct {
	oauth  *OAuthService
	api    MerchantAPI
	store  ConnectionStore
	ids    identity.Provider
	syncer *Syncer
	logger *logging.Logger
}

// NewService creates a connect service.
func NewService(oauth *OAuthService, api MerchantAPI, store ConnectionStore, ids identity.Provider, syncer *Syncer, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		oauth:  oauth,
		api:    api,
		store:  store,
		ids:    ids,
		syncer: syncer,
		logger: logger.Component("connect"),
	}
}

// CompleteResult reports what the callback produced.
type CompleteResult struct {
	TenantID     string `json:"tenant_id"`
	MerchantID   string `json:"merchant_id"`
	MerchantName string `json:"merchant_name"`
	LocationID   string `json:"location_id,omitempty"`
	AccountID    string `json:"account_id"`
}

// Complete finishes the OAuth flow for a tenant. The bootstrap sync is
// launched detached; the caller gets a response as soon as the connection
// row is stored.
func (s *Service) Complete(ctx context.Context, tenantID, code string) (*CompleteResult, error) {
	grant, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	env := s.oauth.config.Environment()

	merchantName := s.resolveMerchantName(ctx, grant, env)

	acct, err := s.resolveAccount(ctx, grant.MerchantID, merchantName)
	if err != nil {
		return nil, err
	}

	conn := &Connection{
		TenantID:     tenantID,
		MerchantID:   grant.MerchantID,
		MerchantName: merchantName,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    grant.ExpiresAt,
		Environment:  env,
		LocationID:   s.defaultLocation(ctx, grant.AccessToken, env),
	}
	if err := s.store.Save(ctx, conn); err != nil {
		return nil, err
	}

	s.logger.Info("square connected", "tenant_id", tenantID, "merchant_id", grant.MerchantID, "merchant_name", merchantName)
	s.syncer.RunDetached(tenantID, conn)

	return &CompleteResult{
		TenantID:     tenantID,
		MerchantID:   grant.MerchantID,
		MerchantName: merchantName,
		LocationID:   conn.LocationID,
		AccountID:    acct.ID,
	}, nil
}

// Resync re-runs the bootstrap sync for an already connected tenant.
func (s *Service) Resync(ctx context.Context, tenantID string) error {
	conn, err := s.store.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	s.syncer.RunDetached(tenantID, conn)
	return nil
}

// resolveMerchantName is best effort: a profile lookup failure downgrades
// to a fixed label rather than failing the connection.
func (s *Service) resolveMerchantName(ctx context.Context, grant *TokenGrant, env square.Environment) string {
	merchant, err := s.api.GetMerchant(ctx, grant.AccessToken, env, grant.MerchantID)
	if err != nil || merchant.BusinessName == "" {
		s.logger.Warn("merchant profile lookup failed, using fallback name", "merchant_id", grant.MerchantID, "error", err)
		return fallbackMerchantName
	}
	return merchant.BusinessName
}

// resolveAccount signs in to the merchant's synthetic local account,
// minting it on first connection. A reconnect therefore reuses the
// existing account instead of creating a duplicate.
func (s *Service) resolveAccount(ctx context.Context, merchantID, merchantName string) (*identity.Account, error) {
	email := s.merchantEmail(merchantID)
	password := s.merchantPassword(merchantID)

	acct, err := s.ids.SignIn(ctx, email, password)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, identity.ErrNoAccount) {
		return nil, fmt.Errorf("connect: resolve account: %w", err)
	}

	acct, err = s.ids.SignUp(ctx, identity.SignUpParams{
		Email:    email,
		Password: password,
		Name:     merchantName,
		Role:     ownerRole,
		Metadata: map[string]string{
			"merchant_id":   merchantID,
			"merchant_name": merchantName,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect: create account: %w", err)
	}
	return acct, nil
}

func (s *Service) merchantEmail(merchantID string) string {
	return strings.ToLower(merchantID) + "@" + identityEmailDomain
}

// merchantPassword derives a stable secret from the merchant id and the app
// client secret, so the synthetic account survives reconnects without
// storing an extra credential.
func (s *Service) merchantPassword(merchantID string) string {
	mac := hmac.New(sha256.New, []byte(s.oauth.config.ClientSecret))
	mac.Write([]byte(merchantID))
	return hex.EncodeToString(mac.Sum(nil))
}

// defaultLocation picks the first active location, falling back to the
// first listed one. Best effort: an empty result leaves the location unset.
func (s *Service) defaultLocation(ctx context.Context, token string, env square.Environment) string {
	locations, err := s.api.ListLocations(ctx, token, env)
	if err != nil {
		s.logger.Warn("location lookup failed", "error", err)
		return ""
	}
	for _, loc := range locations {
		if loc.Status == "ACTIVE" {
			return loc.ID
		}
	}
	if len(locations) > 0 {
		return locations[0].ID
	}
	return ""
}
