package domain

// IDTokenClaims carries the identity claims asserted by a signed ID token.
// The signer stamps iat/exp on top of these.
type IDTokenClaims struct {
	Issuer            string `json:"iss"`
	Subject           string `json:"sub"`
	Audience          string `json:"aud"`
	Email             string `json:"email"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
	Birthday          string `json:"birthday"`
	PreferredUsername string `json:"preferred_username"`
	PhoneNumber       string `json:"phone_number"`
}
