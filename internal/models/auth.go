package models

import "github.com/golang-jwt/jwt/v5"

// UserRole is the role claim carried by operator tokens.
type UserRole string

const (
	RoleOperator UserRole = "OPERATOR"
	RoleViewer   UserRole = "VIEWER"
)

// JWTClaims represents the JWT payload for operator access tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
