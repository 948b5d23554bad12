package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens issued by the identity service.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	FullName  string   `json:"full_name"`
	StudentID string   `json:"student_id,omitempty"`
	jwt.RegisteredClaims
}

// AuthContext carries the caller identity into service operations. It is passed
// explicitly instead of being read from ambient request state so that publication
// records always carry the acting user.
type AuthContext struct {
	UserID    string
	Role      UserRole
	StudentID string
}

// AuthContextFromClaims builds an AuthContext from validated token claims.
func AuthContextFromClaims(claims *JWTClaims) AuthContext {
	if claims == nil {
		return AuthContext{}
	}
	return AuthContext{UserID: claims.UserID, Role: claims.Role, StudentID: claims.StudentID}
}

// IsAdmin reports whether the caller holds an administrative role.
func (a AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSuperAdmin
}
