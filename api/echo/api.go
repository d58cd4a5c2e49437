// Package echo exposes the issuance engine over HTTP. It is a thin layer:
// every protocol decision lives in the stores and services it delegates to.
package echo

import (
	"encoding/base64"
	stderrors "errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	ssokit "github.com/ditoolkit/ssokit"
	"github.com/ditoolkit/ssokit/client"
	"github.com/ditoolkit/ssokit/errors"
)

// OAuth2API holds the handler dependencies.
type OAuth2API struct {
	codes     *ssokit.AuthCodeStore
	tokens    *ssokit.AccessTokenStore
	signer    *ssokit.IDTokenSigner
	clients   *client.Service
	publish   *ssokit.PublishService
	jwks      ssokit.JSONWebKeySet
	discovery ssokit.OpenIDConfiguration
	issuer    string
	expiresIn int
}

// NewOAuth2API initializes the OAuth2 API.
func NewOAuth2API(
	codes *ssokit.AuthCodeStore,
	tokens *ssokit.AccessTokenStore,
	signer *ssokit.IDTokenSigner,
	clients *client.Service,
	publish *ssokit.PublishService,
	jwks ssokit.JSONWebKeySet,
	discovery ssokit.OpenIDConfiguration,
	issuer string,
	expiresIn int,
) *OAuth2API {
	return &OAuth2API{
		codes:     codes,
		tokens:    tokens,
		signer:    signer,
		clients:   clients,
		publish:   publish,
		jwks:      jwks,
		discovery: discovery,
		issuer:    issuer,
		expiresIn: expiresIn,
	}
}

// RegisterRoutes registers the OAuth2 routes.
func (oa *OAuth2API) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/auth/authorize", oa.AuthorizeHandler)
	e.POST("/api/auth/token", oa.TokenHandler)
	e.POST("/api/client", oa.CreateClientHandler)
	e.GET("/api/client", oa.GetClientHandler)
	e.POST("/api/auth/auth-setting", oa.SaveAuthSettingHandler)
	e.GET("/api/auth/auth-setting", oa.GetAuthSettingHandler)
	e.GET("/api/publish-config/config.json", oa.PublishConfigHandler)

	// OpenID Configuration endpoints
	e.GET("/.well-known/openid-configuration", oa.OpenIDConfigurationHandler)
	e.GET("/.well-known/jwks.json", oa.JWKSHandler)
}

// AuthorizeHandler handles OAuth 2.0 authorization requests. It validates the
// client and the authorization parameters, issues a single-use authorization
// code, and responds with the redirect URL carrying the code and the optional
// state. The URL is returned as JSON rather than a 302 so integration tests
// can follow it explicitly.
func (oa *OAuth2API) AuthorizeHandler(c echo.Context) error {
	clientID := c.QueryParam("client_id")
	redirectURI := c.QueryParam("redirect_uri")
	responseType := c.QueryParam("response_type")
	scope := c.QueryParam("scope")
	state := c.QueryParam("state")

	if clientID == "" || redirectURI == "" || responseType == "" {
		return c.JSON(http.StatusBadRequest,
			errors.NewInvalidRequest("Required parameters are missing: client_id, redirect_uri or response_type"))
	}

	if responseType != "code" {
		return c.JSON(http.StatusBadRequest,
			errors.NewInvalidRequest(`Unsupported response_type, response_type must be "code"`))
	}

	if scope != "openid" {
		return c.JSON(http.StatusBadRequest,
			errors.NewInvalidScope(`Unsupported scope, scope must be "openid"`))
	}

	redirectURL, err := url.Parse(redirectURI)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errors.NewInvalidRequest("Invalid redirect_uri"))
	}

	valid, err := oa.clients.ValidateCredentials(c.Request().Context(), clientID, "")
	if err != nil {
		log.Error().Err(err).Msg("failed to validate client")
		return c.JSON(http.StatusInternalServerError, errors.NewServerError("Failed to validate client"))
	}
	if !valid {
		return c.JSON(http.StatusBadRequest,
			errors.NewInvalidClient("Authentication failed: invalid client_id or unauthenticated client"))
	}

	code := oa.codes.IssueCode(clientID, redirectURI, responseType, scope)

	query := redirectURL.Query()
	query.Set("code", code)
	if state != "" {
		query.Set("state", state)
	}
	redirectURL.RawQuery = query.Encode()

	return c.JSON(http.StatusOK, echo.Map{"redirectUrl": redirectURL.String()})
}

// tokenRequest is the POST /api/auth/token body.
type tokenRequest struct {
	Code string `json:"code" form:"code"`
}

// tokenResponse is the OAuth2 token endpoint response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	IDToken     string `json:"id_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// TokenHandler exchanges a single-use authorization code for an access token
// and a signed ID token. The client authenticates with HTTP Basic. A rejected
// code is always reported the same way, whether it expired, was already
// consumed, or never existed.
func (oa *OAuth2API) TokenHandler(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return c.JSON(http.StatusBadRequest, errors.NewInvalidRequest("Missing authorization code"))
	}

	clientID, clientSecret, ok := basicCredentials(c.Request().Header.Get("Authorization"))
	if !ok {
		return c.JSON(http.StatusUnauthorized,
			errors.NewInvalidClient("Required Authorization header credentials are missing"))
	}

	valid, err := oa.clients.ValidateCredentials(c.Request().Context(), clientID, clientSecret)
	if err != nil {
		log.Error().Err(err).Msg("failed to validate client credentials")
		return c.JSON(http.StatusInternalServerError, errors.NewServerError("Failed to validate client"))
	}
	if !valid {
		return c.JSON(http.StatusUnauthorized, errors.NewInvalidClient("Invalid client credentials"))
	}

	record := oa.codes.ValidateCode(req.Code)
	if record == nil || record.ClientID != clientID {
		return c.JSON(http.StatusBadRequest,
			errors.NewInvalidGrant("Authentication failed: invalid or expired authorization code"))
	}

	token := oa.tokens.IssueToken(clientID)

	idToken, err := oa.signer.SignIDToken(sandboxClaims(oa.issuer, clientID))
	if err != nil {
		log.Error().Err(err).Msg("failed to sign id token")
		return c.JSON(http.StatusInternalServerError, errors.NewServerError("Failed to sign id token"))
	}

	log.Info().
		Str("client_id", clientID).
		Int("expires_in", oa.expiresIn).
		Msg("token issued")

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
		IDToken:     idToken,
		ExpiresIn:   oa.expiresIn,
	})
}

// CreateClientHandler mints a fresh credential pair, superseding any
// previous one.
func (oa *OAuth2API) CreateClientHandler(c echo.Context) error {
	creds, err := oa.clients.GenerateCredentials(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to generate client credentials")
		return c.JSON(http.StatusInternalServerError, errors.NewServerError("Failed to generate client credentials"))
	}

	return c.JSON(http.StatusCreated, creds)
}

// GetClientHandler returns the cached credential pair, if any.
func (oa *OAuth2API) GetClientHandler(c echo.Context) error {
	creds, err := oa.clients.GetCredentials(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to read client credentials")
		return c.JSON(http.StatusInternalServerError, errors.NewServerError("Failed to read client credentials"))
	}
	if creds == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "No credentials found or they have expired"})
	}

	return c.JSON(http.StatusOK, creds)
}

// authSettingRequest is the POST /api/auth/auth-setting body.
type authSettingRequest struct {
	InitURL      string `json:"initUrl" form:"initUrl"`
	CallbackHost string `json:"callbackHost" form:"callbackHost"`
}

// SaveAuthSettingHandler stores the init URL and callback host in the cache.
func (oa *OAuth2API) SaveAuthSettingHandler(c echo.Context) error {
	var req authSettingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errors.NewInvalidRequest("Malformed request body"))
	}

	if !isHTTPURL(req.InitURL) || !isHTTPURL(req.CallbackHost) {
		return c.JSON(http.StatusBadRequest,
			errors.NewInvalidRequest("initUrl and callbackHost must be absolute http(s) URLs"))
	}

	if err := oa.clients.SaveAuthSetting(c.Request().Context(), req.InitURL, req.CallbackHost); err != nil {
		log.Error().Err(err).Msg("failed to save auth setting")
		return c.JSON(http.StatusInternalServerError, errors.NewServerError("Failed to save auth setting"))
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Auth settings stored successfully"})
}

// GetAuthSettingHandler returns the cached auth setting, if any.
func (oa *OAuth2API) GetAuthSettingHandler(c echo.Context) error {
	setting, err := oa.clients.GetAuthSetting(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to read auth setting")
		return c.JSON(http.StatusInternalServerError, errors.NewServerError("Failed to read auth setting"))
	}
	if setting == nil {
		return c.JSON(http.StatusOK, echo.Map{"message": "No auth setting found or they have expired"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":     "Auth setting retrieved from cache",
		"authSetting": setting,
	})
}

// PublishConfigHandler serves the combined configuration artifact.
func (oa *OAuth2API) PublishConfigHandler(c echo.Context) error {
	blob, err := oa.publish.ConfigFile(c.Request().Context())
	if err != nil {
		switch {
		case stderrors.Is(err, ssokit.ErrAppConfigNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": err.Error()})
		default:
			log.Error().Err(err).Msg("failed to publish config")
			return c.JSON(http.StatusInternalServerError, errors.NewServerError(err.Error()))
		}
	}

	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, blob)
}

// OpenIDConfigurationHandler serves the discovery document.
func (oa *OAuth2API) OpenIDConfigurationHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, oa.discovery)
}

// JWKSHandler serves the signing key set.
func (oa *OAuth2API) JWKSHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, oa.jwks)
}

// basicCredentials decodes an HTTP Basic Authorization header into its
// client_id and client_secret parts.
func basicCredentials(header string) (string, string, bool) {
	if !strings.HasPrefix(header, "Basic ") {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
	if err != nil {
		return "", "", false
	}

	id, secret, found := strings.Cut(string(decoded), ":")
	if !found || id == "" || secret == "" {
		return "", "", false
	}

	return id, secret, true
}

// isHTTPURL reports whether raw is an absolute http or https URL.
func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
