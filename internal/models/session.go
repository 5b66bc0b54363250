package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// AdminRole is the only role this system issues; there is exactly one
// privileged identity and no role hierarchy.
const AdminRole = "admin"

// SessionClaims is the signed claim set carried by an admin session token
type SessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}
