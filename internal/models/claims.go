package models

import "github.com/golang-jwt/jwt/v5"

// UserClaims are the JWT claims carried by collaborator and operator tokens.
type UserClaims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims carry the operator role.
func (c *UserClaims) IsAdmin() bool {
	return c.Role == "admin"
}
