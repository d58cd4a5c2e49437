package ssokit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ditoolkit/ssokit/client"
)

var (
	// ErrAppConfigNotFound reports a missing application config file.
	ErrAppConfigNotFound = errors.New("application config file not found")
	// ErrAppConfigIncomplete reports a config file without both ports.
	ErrAppConfigIncomplete = errors.New("application config is missing frontendPort or backendPort")
	// ErrAuthSettingMissing reports an absent or expired auth setting.
	ErrAuthSettingMissing = errors.New("missing initUrl or callbackHost")
)

// AppConfig is the combined configuration artifact published to downstream
// consumers: the static port configuration merged with the cached
// auth-setting record.
type AppConfig struct {
	FrontendPort int    `json:"frontendPort"`
	BackendPort  int    `json:"backendPort"`
	InitURL      string `json:"initUrl,omitempty"`
	CallbackHost string `json:"callbackHost,omitempty"`
}

// PublishService assembles the published configuration artifact.
type PublishService struct {
	configPath string
	clients    *client.Service
}

// NewPublishService creates a PublishService reading the static app config
// from configPath.
func NewPublishService(configPath string, clients *client.Service) *PublishService {
	return &PublishService{
		configPath: configPath,
		clients:    clients,
	}
}

// ConfigFile reads the static config file, merges in the cached auth
// setting, and returns the combined document as pretty-printed JSON.
func (s *PublishService) ConfigFile(ctx context.Context) ([]byte, error) {
	raw, err := os.ReadFile(s.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrAppConfigNotFound, s.configPath)
		}
		return nil, fmt.Errorf("failed to read app config: %w", err)
	}

	var appConfig AppConfig
	if err := json.Unmarshal(raw, &appConfig); err != nil {
		return nil, fmt.Errorf("failed to parse app config: %w", err)
	}

	if appConfig.FrontendPort == 0 || appConfig.BackendPort == 0 {
		return nil, ErrAppConfigIncomplete
	}

	setting, err := s.clients.GetAuthSetting(ctx)
	if err != nil {
		return nil, err
	}
	if setting == nil || setting.InitURL == "" || setting.CallbackHost == "" {
		return nil, ErrAuthSettingMissing
	}

	appConfig.InitURL = setting.InitURL
	appConfig.CallbackHost = setting.CallbackHost

	out, err := json.MarshalIndent(appConfig, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render app config: %w", err)
	}

	return out, nil
}
