package models

import "github.com/golang-jwt/jwt/v5"

// Identity is what the authenticator hands to the session layer. It never
// carries the password hash.
type Identity struct {
	ID          string   `json:"id"`
	Role        UserRole `json:"role"`
	DisplayName string   `json:"displayName"`
}

// SessionClaims is the signed session payload: the account id and role plus the
// registered time claims.
type SessionClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
