package client

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ditoolkit/ssokit/cache"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	return NewService(store, 15*time.Minute, 15*time.Minute)
}

func TestGenerateCredentialsShape(t *testing.T) {
	svc := newTestService(t)

	creds, err := svc.GenerateCredentials(context.Background())
	require.NoError(t, err)

	// 16 raw bytes encode to 22 base64 characters unpadded.
	assert.Len(t, creds.ClientID, 22)
	assert.NotContains(t, creds.ClientID, "+")
	assert.NotContains(t, creds.ClientID, "/")
	assert.NotContains(t, creds.ClientID, "=")

	// 32 raw bytes of entropy, 43 base64url characters unpadded.
	assert.Len(t, creds.ClientSecret, 43)
	decoded, err := base64.RawURLEncoding.DecodeString(creds.ClientSecret)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)

	assert.False(t, creds.CreatedAt.IsZero())
}

func TestGetCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	got, err := svc.GetCredentials(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "no credentials before generation")

	creds, err := svc.GenerateCredentials(ctx)
	require.NoError(t, err)

	got, err = svc.GetCredentials(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, creds.ClientID, got.ClientID)
	assert.Equal(t, creds.ClientSecret, got.ClientSecret)
}

func TestValidateCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	creds, err := svc.GenerateCredentials(ctx)
	require.NoError(t, err)

	tests := []struct {
		name   string
		id     string
		secret string
		want   bool
	}{
		{"id and secret match", creds.ClientID, creds.ClientSecret, true},
		{"id only, secret not supplied", creds.ClientID, "", true},
		{"wrong id", "bogus", creds.ClientSecret, false},
		{"wrong secret", creds.ClientID, "bogus", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := svc.ValidateCredentials(ctx, tt.id, tt.secret)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestValidateCredentialsWithoutPair(t *testing.T) {
	svc := newTestService(t)

	ok, err := svc.ValidateCredentials(context.Background(), "any", "any")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGenerateCredentialsSupersedesPrevious(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.GenerateCredentials(ctx)
	require.NoError(t, err)

	second, err := svc.GenerateCredentials(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.ClientID, second.ClientID)

	ok, err := svc.ValidateCredentials(ctx, first.ClientID, first.ClientSecret)
	require.NoError(t, err)
	assert.False(t, ok, "first pair is invalidated by the second generation")

	ok, err = svc.ValidateCredentials(ctx, second.ClientID, second.ClientSecret)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGenerateCredentialsInvalidatesAuthSetting(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SaveAuthSetting(ctx, "https://init.example", "https://cb.example"))

	_, err := svc.GenerateCredentials(ctx)
	require.NoError(t, err)

	setting, err := svc.GetAuthSetting(ctx)
	require.NoError(t, err)
	assert.Nil(t, setting, "new client invalidates the prior auth-setting context")
}

func TestAuthSettingLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	setting, err := svc.GetAuthSetting(ctx)
	require.NoError(t, err)
	assert.Nil(t, setting)

	require.NoError(t, svc.SaveAuthSetting(ctx, "https://init.example/start", "https://cb.example"))

	setting, err = svc.GetAuthSetting(ctx)
	require.NoError(t, err)
	require.NotNil(t, setting)
	assert.Equal(t, "https://init.example/start", setting.InitURL)
	assert.Equal(t, "https://cb.example", setting.CallbackHost)
	assert.False(t, setting.UpdatedAt.IsZero())
}

func TestGenerateClientIDAlphabet(t *testing.T) {
	for i := 0; i < 64; i++ {
		id := generateClientID()
		for _, r := range id {
			ok := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
			assert.True(t, ok, "client id %q contains reserved character %q", id, r)
		}
	}
}

func TestCredentialsExpireWithTTL(t *testing.T) {
	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	svc := NewService(store, 20*time.Millisecond, 20*time.Millisecond)
	ctx := context.Background()

	_, err := svc.GenerateCredentials(ctx)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		creds, err := svc.GetCredentials(ctx)
		return err == nil && creds == nil
	}, time.Second, 10*time.Millisecond)
}
