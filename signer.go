package ssokit

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ditoolkit/ssokit/config"
	"github.com/ditoolkit/ssokit/domain"
)

// IDTokenSigner builds and signs the JWT carrying identity claims. Aside
// from reading the clock it is a pure transformation; it never touches the
// cache or the stores. A signing failure indicates misconfigured key
// material and must surface as a server-side fault, not a client error.
type IDTokenSigner struct {
	material *config.SigningMaterial
	ttl      time.Duration
	now      func() time.Time
}

// NewIDTokenSigner creates a signer over the process-wide signing material.
func NewIDTokenSigner(material *config.SigningMaterial, ttl time.Duration) *IDTokenSigner {
	return &IDTokenSigner{
		material: material,
		ttl:      ttl,
		now:      time.Now,
	}
}

// SignIDToken stamps iat/exp onto the identity claims and produces a
// compact JWT signed with the configured algorithm and key id.
func (s *IDTokenSigner) SignIDToken(claims domain.IDTokenClaims) (string, error) {
	method := jwt.GetSigningMethod(s.material.Algorithm)
	if method == nil {
		return "", fmt.Errorf("unsupported signing algorithm %q", s.material.Algorithm)
	}

	iat := s.now().Unix()
	token := jwt.NewWithClaims(method, jwt.MapClaims{
		"iss":                claims.Issuer,
		"sub":                claims.Subject,
		"aud":                claims.Audience,
		"email":              claims.Email,
		"given_name":         claims.GivenName,
		"family_name":        claims.FamilyName,
		"birthday":           claims.Birthday,
		"preferred_username": claims.PreferredUsername,
		"phone_number":       claims.PhoneNumber,
		"iat":                iat,
		"exp":                iat + int64(s.ttl.Seconds()),
	})
	token.Header["kid"] = s.material.KeyID

	signed, err := token.SignedString(s.material.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign id token: %w", err)
	}

	return signed, nil
}

// IDTokenVerifier is the companion capability used by a validator role,
// not by the issuer itself. It checks the signature plus the iss and aud
// claims; expiry is enforced by standard JWT verification, so ID tokens
// need no TTL bookkeeping of their own.
type IDTokenVerifier struct {
	key      *rsa.PublicKey
	issuer   string
	audience string
}

// NewIDTokenVerifier creates a verifier from an RSA public key and the
// expected issuer and audience.
func NewIDTokenVerifier(key *rsa.PublicKey, issuer, audience string) *IDTokenVerifier {
	return &IDTokenVerifier{
		key:      key,
		issuer:   issuer,
		audience: audience,
	}
}

// NewIDTokenVerifierFromJWK imports a public JSON Web Key and builds a
// verifier from it.
func NewIDTokenVerifierFromJWK(jwk JSONWebKey, issuer, audience string) (*IDTokenVerifier, error) {
	key, err := jwk.PublicKey()
	if err != nil {
		return nil, err
	}

	return NewIDTokenVerifier(key, issuer, audience), nil
}

// Verify validates a compact JWT and returns its decoded claims.
func (v *IDTokenVerifier) Verify(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return v.key, nil
	},
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("id token verification failed: %w", err)
	}

	return claims, nil
}
