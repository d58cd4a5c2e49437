package domain

import "time"

// AccessToken represents an opaque bearer token bound to a client.
// Unlike an authorization code, a token tolerates repeated validation
// reads within its TTL window.
type AccessToken struct {
	AccessToken string    `json:"access_token"` // The opaque token value
	ClientID    string    `json:"client_id"`    // Client the token was issued to
	CreatedAt   time.Time `json:"created_at"`   // Creation timestamp
	ExpiresAt   time.Time `json:"expires_at"`   // Expiration timestamp
}
