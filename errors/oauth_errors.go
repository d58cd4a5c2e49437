package errors

import "fmt"

// OAuth2Error represents a standardized OAuth 2.0 error
type OAuth2Error struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	State       string `json:"state,omitempty"`
}

func (e *OAuth2Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Standard OAuth2 error codes
const (
	InvalidRequest       = "invalid_request"
	UnauthorizedClient   = "unauthorized_client"
	AccessDenied         = "access_denied"
	UnsupportedGrantType = "unsupported_grant_type"
	InvalidScope         = "invalid_scope"
	InvalidClient        = "invalid_client"
	InvalidGrant         = "invalid_grant"
	ServerError          = "server_error"
)

// Common error constructors
func NewInvalidRequest(description string) *OAuth2Error {
	return &OAuth2Error{
		Code:        InvalidRequest,
		Description: description,
	}
}

func NewInvalidClient(description string) *OAuth2Error {
	return &OAuth2Error{
		Code:        InvalidClient,
		Description: description,
	}
}

// NewInvalidGrant covers every rejected authorization code. Expired,
// already consumed, and never issued are deliberately indistinguishable
// to the caller.
func NewInvalidGrant(description string) *OAuth2Error {
	return &OAuth2Error{
		Code:        InvalidGrant,
		Description: description,
	}
}

func NewInvalidScope(description string) *OAuth2Error {
	return &OAuth2Error{
		Code:        InvalidScope,
		Description: description,
	}
}

func NewServerError(description string) *OAuth2Error {
	return &OAuth2Error{
		Code:        ServerError,
		Description: description,
	}
}
