package ssokit

// OpenIDConfiguration is the discovery document served at
// /.well-known/openid-configuration. Only the authorization code flow with
// the openid scope is offered.
type OpenIDConfiguration struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	JwksURI                           string   `json:"jwks_uri"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	ScopesSupported                   []string `json:"scopes_supported"`
	IDTokenSigningAlgValuesSupported  []string `json:"id_token_signing_alg_values_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
}

// NewOpenIDConfiguration builds the discovery document for an issuer.
func NewOpenIDConfiguration(issuer, signingAlg string) OpenIDConfiguration {
	return OpenIDConfiguration{
		Issuer:                            issuer,
		AuthorizationEndpoint:             issuer + "/api/auth/authorize",
		TokenEndpoint:                     issuer + "/api/auth/token",
		JwksURI:                           issuer + "/.well-known/jwks.json",
		ResponseTypesSupported:            []string{"code"},
		GrantTypesSupported:               []string{"authorization_code"},
		ScopesSupported:                   []string{"openid"},
		IDTokenSigningAlgValuesSupported:  []string{signingAlg},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_basic"},
	}
}
