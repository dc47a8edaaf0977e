package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleRescuer       UserRole = "RESCUER"
	RoleTrainer       UserRole = "TRAINER"
	RoleEstablishment UserRole = "ESTABLISHMENT"
	RoleAdmin         UserRole = "ADMIN"
)

// JWTClaims represents the access token payload issued by the identity provider.
// The subject carries the user id.
type JWTClaims struct {
	Role  UserRole `json:"role"`
	Email string   `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the authenticated user id.
func (c *JWTClaims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
