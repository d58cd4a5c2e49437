package ssokit

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/ditoolkit/ssokit/config"
)

// JSONWebKey represents a public key in JWK format.
type JSONWebKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JSONWebKeySet is the document served at /.well-known/jwks.json.
type JSONWebKeySet struct {
	Keys []JSONWebKey `json:"keys"`
}

// BuildJWKS renders the public half of the signing material as a key set.
func BuildJWKS(material *config.SigningMaterial) JSONWebKeySet {
	publicKey := &material.PrivateKey.PublicKey

	n := base64.RawURLEncoding.EncodeToString(publicKey.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(publicKey.E)).Bytes())

	return JSONWebKeySet{
		Keys: []JSONWebKey{{
			Kid: material.KeyID,
			Kty: "RSA",
			Alg: material.Algorithm,
			Use: "sig",
			N:   n,
			E:   e,
		}},
	}
}

// PublicKey reconstructs the RSA public key carried by the JWK.
func (k JSONWebKey) PublicKey() (*rsa.PublicKey, error) {
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus encoding: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent encoding: %w", err)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}
