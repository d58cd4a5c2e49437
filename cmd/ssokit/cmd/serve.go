package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	ssokit "github.com/ditoolkit/ssokit"
	echoapi "github.com/ditoolkit/ssokit/api/echo"
	"github.com/ditoolkit/ssokit/cache"
	rediscache "github.com/ditoolkit/ssokit/cache/redis"
	"github.com/ditoolkit/ssokit/client"
	"github.com/ditoolkit/ssokit/config"
	"github.com/ditoolkit/ssokit/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the issuer HTTP server",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	initLogger(cfg)

	material, err := config.LoadSigningMaterial(cfg)
	if err != nil {
		return err
	}
	if cfg.PrivateKeyPath == "" {
		log.Warn().Msg("no PRIVATE_KEY_PATH configured, using an ephemeral signing key")
	}

	// Expiring cache backend for credentials and auth setting.
	var store cache.Store
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return err
		}
		store = rediscache.NewStore(rdb, "ssokit")
		log.Info().Str("addr", cfg.RedisAddr).Msg("using redis cache backend")
	} else {
		memStore := cache.NewMemoryStore()
		defer memStore.Close()
		store = memStore
	}

	clients := client.NewService(store, cfg.CredentialsTTL(), cfg.AuthSettingTTL())
	codes := ssokit.NewAuthCodeStore(cfg.AuthCodeTTL())
	tokens := ssokit.NewAccessTokenStore(cfg.AccessTokenTTL())
	signer := ssokit.NewIDTokenSigner(material, cfg.IDTokenTTL())
	publish := ssokit.NewPublishService(cfg.AppConfigPath, clients)

	sweeper := ssokit.NewSweeper(cfg.SweepInterval(), codes, tokens)
	sweeper.Start()
	defer sweeper.Stop()

	api := echoapi.NewOAuth2API(
		codes, tokens, signer, clients, publish,
		ssokit.BuildJWKS(material),
		ssokit.NewOpenIDConfiguration(cfg.Issuer, material.Algorithm),
		cfg.Issuer,
		cfg.AccessTokenTTLSec,
	)

	srv := server.NewHTTPServer(cfg, api)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("issuer", cfg.Issuer).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}

func initLogger(cfg *config.ServerConfig) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
