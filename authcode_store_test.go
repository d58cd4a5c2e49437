package ssokit

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthCodeStoreIssueCode(t *testing.T) {
	store := NewAuthCodeStore(15 * time.Minute)

	code := store.IssueCode("client-1", "https://a/cb", "code", "openid")

	assert.Len(t, code, 9)
	for _, r := range code {
		assert.True(t, strings.ContainsRune(codeAlphabet, r), "code contains %q outside the alphabet", r)
	}
	assert.Equal(t, 1, store.Count())
}

func TestAuthCodeStoreValidateCodeSingleUse(t *testing.T) {
	store := NewAuthCodeStore(15 * time.Minute)

	code := store.IssueCode("client-1", "https://a/cb", "code", "openid")

	record := store.ValidateCode(code)
	require.NotNil(t, record)
	assert.Equal(t, "client-1", record.ClientID)
	assert.Equal(t, "https://a/cb", record.RedirectURI)
	assert.Equal(t, "code", record.ResponseType)
	assert.Equal(t, "openid", record.Scope)
	assert.Equal(t, record.CreatedAt.Add(15*time.Minute), record.ExpiresAt)

	// A second call with the same code always returns nil.
	assert.Nil(t, store.ValidateCode(code))
	assert.Equal(t, 0, store.Count())
}

func TestAuthCodeStoreValidateCodeUnknown(t *testing.T) {
	store := NewAuthCodeStore(15 * time.Minute)

	assert.Nil(t, store.ValidateCode("nonexistent"))
}

func TestAuthCodeStoreValidateCodeExpired(t *testing.T) {
	now := time.Now()
	store := NewAuthCodeStore(15 * time.Minute)
	store.now = func() time.Time { return now }

	code := store.IssueCode("client-1", "https://a/cb", "code", "openid")

	// Advance past the TTL; first use already returns nil.
	store.now = func() time.Time { return now.Add(16 * time.Minute) }
	assert.Nil(t, store.ValidateCode(code))
	assert.Equal(t, 0, store.Count(), "expired code is deleted on read")
}

func TestAuthCodeStoreDeleteExpired(t *testing.T) {
	now := time.Now()
	store := NewAuthCodeStore(15 * time.Minute)
	store.now = func() time.Time { return now }

	expired := store.IssueCode("client-1", "https://a/cb", "code", "openid")

	store.now = func() time.Time { return now.Add(10 * time.Minute) }
	live := store.IssueCode("client-1", "https://a/cb", "code", "openid")

	store.now = func() time.Time { return now.Add(16 * time.Minute) }
	store.DeleteExpired()

	assert.Nil(t, store.ValidateCode(expired))
	assert.NotNil(t, store.ValidateCode(live))
}

func TestAuthCodeStoreConcurrentConsume(t *testing.T) {
	store := NewAuthCodeStore(15 * time.Minute)
	code := store.IssueCode("client-1", "https://a/cb", "code", "openid")

	const callers = 32

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.ValidateCode(code) != nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one caller may consume a code")
}
