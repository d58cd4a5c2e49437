package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/ditoolkit/ssokit/config"

	echoapi "github.com/ditoolkit/ssokit/api/echo"
)

// NewHTTPServer creates and configures the Echo HTTP server.
func NewHTTPServer(cfg *config.ServerConfig, oauthAPI *echoapi.OAuth2API) *http.Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())

	// Request logging through zerolog.
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogLatency:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Str("ip", v.RemoteIP).
				Str("user_agent", v.UserAgent).
				Dur("latency", v.Latency).
				Msg("http request")
			return nil
		},
	}))

	oauthAPI.RegisterRoutes(e)

	return &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      e,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
