package ssokit

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ditoolkit/ssokit/domain"
)

// Length of a generated access token.
const accessTokenLength = 28

// AccessTokenStore issues and validates opaque bearer tokens. Unlike
// authorization codes, a token survives validation: repeated reads within
// the TTL window all succeed. Entries leave the map only when the sweeper
// or a read finds them expired.
type AccessTokenStore struct {
	mu     sync.Mutex
	tokens map[string]domain.AccessToken
	ttl    time.Duration
	now    func() time.Time
}

// NewAccessTokenStore creates a store whose tokens expire after ttl.
func NewAccessTokenStore(ttl time.Duration) *AccessTokenStore {
	return &AccessTokenStore{
		tokens: make(map[string]domain.AccessToken),
		ttl:    ttl,
		now:    time.Now,
	}
}

// IssueToken generates a new access token for the client and returns the
// full record, token value included.
func (s *AccessTokenStore) IssueToken(clientID string) *domain.AccessToken {
	token := randomString(accessTokenLength)
	now := s.now()

	record := domain.AccessToken{
		AccessToken: token,
		ClientID:    clientID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}

	s.mu.Lock()
	s.tokens[token] = record
	s.mu.Unlock()

	log.Debug().
		Str("client_id", clientID).
		Str("token", token[:8]+"...").
		Msg("access token issued")

	return &record
}

// ValidateToken returns the record bound to token, or nil when the token is
// unknown or expired. The read is non-destructive; only an expired entry is
// deleted here.
func (s *AccessTokenStore) ValidateToken(token string) *domain.AccessToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.tokens[token]
	if !ok {
		return nil
	}

	if s.now().After(record.ExpiresAt) {
		delete(s.tokens, token)
		return nil
	}

	return &record
}

// DeleteExpired evicts every expired token.
func (s *AccessTokenStore) DeleteExpired() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for token, record := range s.tokens {
		if !record.ExpiresAt.After(now) {
			delete(s.tokens, token)
		}
	}
}

// Count returns the number of live entries.
func (s *AccessTokenStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tokens)
}
