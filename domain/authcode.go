package domain

import "time"

// AuthCode represents a single-use OAuth 2.0 authorization code.
// A code exists in the store if and only if it has not been consumed
// or swept for expiry.
type AuthCode struct {
	Code         string    `json:"code"`          // Unique authorization code
	ClientID     string    `json:"client_id"`     // Client application ID
	RedirectURI  string    `json:"redirect_uri"`  // Client's callback URL
	ResponseType string    `json:"response_type"` // Requested response type ("code")
	Scope        string    `json:"scope"`         // Authorized scopes
	CreatedAt    time.Time `json:"created_at"`    // Creation timestamp
	ExpiresAt    time.Time `json:"expires_at"`    // Expiration timestamp
}
