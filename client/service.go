// Package client manages the opaque client_id/client_secret pair and the
// auxiliary auth-setting record, both held in an expiring cache.
package client

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ditoolkit/ssokit/cache"
	"github.com/ditoolkit/ssokit/domain"
)

// Cache keys. Fixed: at most one credential pair and one auth setting exist
// cache-wide at a time.
const (
	credentialsCacheKey = "client_credentials"
	authSettingCacheKey = "auth_setting"
)

// Service generates and validates client credentials and stores the
// auth-setting record. It owns both cache keys exclusively.
type Service struct {
	store          cache.Store
	credentialsTTL time.Duration
	authSettingTTL time.Duration
	now            func() time.Time
}

// NewService creates a new Service over the given expiring cache.
func NewService(store cache.Store, credentialsTTL, authSettingTTL time.Duration) *Service {
	return &Service{
		store:          store,
		credentialsTTL: credentialsTTL,
		authSettingTTL: authSettingTTL,
		now:            time.Now,
	}
}

// GenerateCredentials mints a fresh client_id/client_secret pair and caches
// it under the fixed key. Any previously cached pair and auth setting are
// deleted first: a new client invalidates the prior auth-setting context.
// A cache backend failure propagates; it is a server fault, never swallowed.
func (s *Service) GenerateCredentials(ctx context.Context) (*domain.ClientCredentials, error) {
	if err := s.store.Delete(ctx, credentialsCacheKey); err != nil {
		return nil, fmt.Errorf("failed to invalidate previous credentials: %w", err)
	}
	if err := s.store.Delete(ctx, authSettingCacheKey); err != nil {
		return nil, fmt.Errorf("failed to invalidate previous auth setting: %w", err)
	}

	creds := &domain.ClientCredentials{
		ClientID:     generateClientID(),
		ClientSecret: generateClientSecret(),
		CreatedAt:    s.now().UTC(),
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := s.store.Set(ctx, credentialsCacheKey, data, s.credentialsTTL); err != nil {
		return nil, fmt.Errorf("failed to cache credentials: %w", err)
	}

	log.Info().
		Str("client_id", creds.ClientID).
		Time("created_at", creds.CreatedAt).
		Msg("client credentials generated")

	return creds, nil
}

// GetCredentials returns the cached pair, or nil when none exists or the
// TTL has elapsed. Expiry is enforced by the cache, not here.
func (s *Service) GetCredentials(ctx context.Context) (*domain.ClientCredentials, error) {
	data, ok, err := s.store.Get(ctx, credentialsCacheKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials from cache: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var creds domain.ClientCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached credentials: %w", err)
	}

	return &creds, nil
}

// ValidateCredentials compares clientID (always) and clientSecret (only
// when non-empty) against the cached pair, byte for byte in constant time.
// A missing pair or any mismatch is false.
func (s *Service) ValidateCredentials(ctx context.Context, clientID, clientSecret string) (bool, error) {
	creds, err := s.GetCredentials(ctx)
	if err != nil {
		return false, err
	}
	if creds == nil {
		return false, nil
	}

	if subtle.ConstantTimeCompare([]byte(creds.ClientID), []byte(clientID)) != 1 {
		return false, nil
	}

	if clientSecret != "" &&
		subtle.ConstantTimeCompare([]byte(creds.ClientSecret), []byte(clientSecret)) != 1 {
		return false, nil
	}

	return true, nil
}

// SaveAuthSetting stores where the downstream login flow begins, with its
// own TTL independent of the credentials.
func (s *Service) SaveAuthSetting(ctx context.Context, initURL, callbackHost string) error {
	setting := domain.AuthSetting{
		InitURL:      initURL,
		CallbackHost: callbackHost,
		UpdatedAt:    s.now().UTC(),
	}

	data, err := json.Marshal(setting)
	if err != nil {
		return fmt.Errorf("failed to marshal auth setting: %w", err)
	}

	if err := s.store.Set(ctx, authSettingCacheKey, data, s.authSettingTTL); err != nil {
		return fmt.Errorf("failed to cache auth setting: %w", err)
	}

	return nil
}

// GetAuthSetting returns the cached auth setting, or nil when none exists
// or it has expired.
func (s *Service) GetAuthSetting(ctx context.Context) (*domain.AuthSetting, error) {
	data, ok, err := s.store.Get(ctx, authSettingCacheKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read auth setting from cache: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var setting domain.AuthSetting
	if err := json.Unmarshal(data, &setting); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached auth setting: %w", err)
	}

	return &setting, nil
}

// generateClientID creates the public client identifier: 16 random bytes,
// base64-encoded with '+' and '/' substituted by alphanumerics to avoid
// reserved characters, padding stripped.
func generateClientID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)

	id := base64.StdEncoding.EncodeToString(b)
	id = strings.ReplaceAll(id, "+", "A")
	id = strings.ReplaceAll(id, "/", "B")

	return strings.TrimRight(id, "=")
}

// generateClientSecret creates the client secret: 32 random bytes in
// unpadded base64url, 256 bits of entropy.
func generateClientSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)

	return base64.RawURLEncoding.EncodeToString(b)
}
