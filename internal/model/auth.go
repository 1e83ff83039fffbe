package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Credential is a sign-in identity. Email is unique.
type Credential struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
}

// AuthRequest types
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// VerifyInviteRequest is the query of a redemption link.
type VerifyInviteRequest struct {
	Email string `form:"email" binding:"required"`
	Token string `form:"token" binding:"required"`
}

type SetPasswordRequest struct {
	Email           string `json:"email" binding:"required"`
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
}

// AuthResponse types
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Redirect targets returned to the portal.
const (
	StaffHomePath  = "/staff/dashboard"
	StaffLoginPath = "/staff-login"
)

type LoginResponse struct {
	Session  *Session `json:"session"`
	Person   *Person  `json:"person"`
	Redirect string   `json:"redirect"`
}

// InviteVerification is returned when a redemption link checks out.
type InviteVerification struct {
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SetPasswordResponse struct {
	Session  *Session `json:"session,omitempty"`
	Redirect string   `json:"redirect"`
}

// TokenClaims represents JWT claims
type TokenClaims struct {
	jwt.RegisteredClaims
	CredentialID uuid.UUID  `json:"cid"`
	PersonID     *uuid.UUID `json:"pid,omitempty"`
	Email        string     `json:"email"`
	Name         string     `json:"name,omitempty"`
	Role         PersonRole `json:"role,omitempty"`
	Refresh      bool       `json:"refresh,omitempty"`
}

// Actor names the signed-in staff member for audit fields.
func (c *TokenClaims) Actor() Actor {
	actor := Actor{Name: c.Name}
	if c.PersonID != nil {
		actor.ID = *c.PersonID
	}
	if actor.Name == "" {
		actor.Name = c.Email
	}
	return actor
}
