package domain

import "time"

// ClientCredentials is an opaque client_id/client_secret pair. At most one
// active pair exists cache-wide at a time: generating a new pair supersedes
// the previous one.
type ClientCredentials struct {
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthSetting describes where the downstream login flow begins. It shares
// the expiring-cache lifecycle with client credentials but is otherwise
// independent of the protocol state machine.
type AuthSetting struct {
	InitURL      string    `json:"initUrl"`
	CallbackHost string    `json:"callbackHost"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
