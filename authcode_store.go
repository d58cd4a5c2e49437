package ssokit

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ditoolkit/ssokit/domain"
)

// Length of a generated authorization code.
const authCodeLength = 9

// AuthCodeStore issues and single-use-validates short-lived authorization
// codes. The map is shared between request handlers and the sweeper, so
// every access happens under the mutex; in particular the destructive read
// in ValidateCode is atomic, which guarantees that at most one caller ever
// receives a non-nil result for a given code.
type AuthCodeStore struct {
	mu    sync.Mutex
	codes map[string]domain.AuthCode
	ttl   time.Duration
	now   func() time.Time
}

// NewAuthCodeStore creates a store whose codes expire after ttl.
func NewAuthCodeStore(ttl time.Duration) *AuthCodeStore {
	return &AuthCodeStore{
		codes: make(map[string]domain.AuthCode),
		ttl:   ttl,
		now:   time.Now,
	}
}

// IssueCode generates a new authorization code bound to the given request
// context and returns it. The caller must have validated the client and the
// required parameters already. The expiry instant is computed once, here;
// it is never re-derived later. No uniqueness re-check is performed against
// existing keys: a collision at 9 characters from a 62-symbol alphabet is
// astronomically unlikely and would silently overwrite.
func (s *AuthCodeStore) IssueCode(clientID, redirectURI, responseType, scope string) string {
	code := randomString(authCodeLength)
	now := s.now()

	s.mu.Lock()
	s.codes[code] = domain.AuthCode{
		Code:         code,
		ClientID:     clientID,
		RedirectURI:  redirectURI,
		ResponseType: responseType,
		Scope:        scope,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}
	s.mu.Unlock()

	log.Debug().
		Str("client_id", clientID).
		Str("code", code[:3]+"...").
		Msg("authorization code issued")

	return code
}

// ValidateCode consumes an authorization code. It returns the bound record
// exactly once: the entry is deleted on the first successful validation, so
// a replayed code always yields nil. Expired codes are deleted and reported
// as nil too; callers cannot distinguish expired from never-issued or
// already-consumed. Cross-field checks (e.g. record.ClientID against the
// presenting client) are the caller's responsibility.
func (s *AuthCodeStore) ValidateCode(code string) *domain.AuthCode {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.codes[code]
	if !ok {
		return nil
	}

	// Consumed or expired, the key never survives a lookup.
	delete(s.codes, code)

	if s.now().After(record.ExpiresAt) {
		return nil
	}

	return &record
}

// DeleteExpired evicts every expired code. It exists to bound memory from
// abandoned codes; correctness does not depend on it because ValidateCode
// checks expiry at read time.
func (s *AuthCodeStore) DeleteExpired() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for code, record := range s.codes {
		if !record.ExpiresAt.After(now) {
			delete(s.codes, code)
		}
	}
}

// Count returns the number of live entries.
func (s *AuthCodeStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.codes)
}
