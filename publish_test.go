package ssokit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ditoolkit/ssokit/cache"
	"github.com/ditoolkit/ssokit/client"
)

func newPublishFixture(t *testing.T, configJSON string) (*PublishService, *client.Service) {
	t.Helper()

	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	clients := client.NewService(store, 15*time.Minute, 15*time.Minute)

	path := filepath.Join(t.TempDir(), "config.json")
	if configJSON != "" {
		require.NoError(t, os.WriteFile(path, []byte(configJSON), 0o644))
	}

	return NewPublishService(path, clients), clients
}

func TestPublishConfigFile(t *testing.T) {
	publish, clients := newPublishFixture(t, `{"frontendPort": 3000, "backendPort": 9000}`)
	ctx := context.Background()

	require.NoError(t, clients.SaveAuthSetting(ctx, "https://init.example/start", "https://cb.example"))

	blob, err := publish.ConfigFile(ctx)
	require.NoError(t, err)

	var got AppConfig
	require.NoError(t, json.Unmarshal(blob, &got))
	assert.Equal(t, 3000, got.FrontendPort)
	assert.Equal(t, 9000, got.BackendPort)
	assert.Equal(t, "https://init.example/start", got.InitURL)
	assert.Equal(t, "https://cb.example", got.CallbackHost)
}

func TestPublishConfigFileMissing(t *testing.T) {
	publish, _ := newPublishFixture(t, "")

	_, err := publish.ConfigFile(context.Background())
	assert.ErrorIs(t, err, ErrAppConfigNotFound)
}

func TestPublishConfigFileIncompletePorts(t *testing.T) {
	publish, clients := newPublishFixture(t, `{"frontendPort": 3000}`)
	ctx := context.Background()

	require.NoError(t, clients.SaveAuthSetting(ctx, "https://init.example", "https://cb.example"))

	_, err := publish.ConfigFile(ctx)
	assert.ErrorIs(t, err, ErrAppConfigIncomplete)
}

func TestPublishConfigFileWithoutAuthSetting(t *testing.T) {
	publish, _ := newPublishFixture(t, `{"frontendPort": 3000, "backendPort": 9000}`)

	_, err := publish.ConfigFile(context.Background())
	assert.ErrorIs(t, err, ErrAuthSettingMissing)
}

func TestPublishConfigFileMalformedJSON(t *testing.T) {
	publish, _ := newPublishFixture(t, `{not json`)

	_, err := publish.ConfigFile(context.Background())
	assert.Error(t, err)
}
