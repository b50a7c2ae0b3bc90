package jwt

import "github.com/golang-jwt/jwt"

// Payload is the claim set of a socialfeed session token. The token names a client
// session only; the signed-in identity lives in that session's store on the server.
type Payload struct {
	jwt.StandardClaims `json:"standard_claims"`

	// SessionID identifies the browser session and keys its session store.
	SessionID string `json:"sid"`
}
