package echo

import "github.com/ditoolkit/ssokit/domain"

// sandboxClaims builds the canned identity asserted by this sandbox issuer.
// There is no user directory behind the authorization step, so every ID
// token describes the same synthetic subject, audienced to the requesting
// client.
func sandboxClaims(issuer, clientID string) domain.IDTokenClaims {
	return domain.IDTokenClaims{
		Issuer:            issuer,
		Subject:           "user-id-123",
		Audience:          clientID,
		Email:             "john.doe@example.com",
		GivenName:         "John",
		FamilyName:        "Doe",
		Birthday:          "1970-01-01",
		PreferredUsername: "john_doe_19700101",
		PhoneNumber:       "+0000000000",
	}
}
