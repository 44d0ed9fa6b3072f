package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the JWT claim set issued and validated by the service
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Requester identifies the caller on service-layer operations.
// Ownership checks compare it against the task's subject.
type Requester struct {
	UserID string
	Role   string
}

// IsStaff reports whether the requester may access any student's data
func (r Requester) IsStaff() bool {
	return r.Role == "lecturer" || r.Role == "admin"
}
