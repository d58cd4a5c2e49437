// Package ssokit implements the issuance and validation engine of a minimal
// OAuth 2.0 / OpenID Connect Authorization Code flow: single-use
// authorization codes, opaque access tokens, signed ID tokens, and the
// background sweeper that bounds the in-process state they live in.
package ssokit

import "crypto/rand"

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// randomString creates a cryptographically secure random string of the
// specified length. Each random byte maps onto the 62-symbol URL-safe
// alphabet by modulo; the resulting bias is negligible at this security
// level and keeps generation non-blocking.
func randomString(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)

	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}

	return string(b)
}
