package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongTokenKind is returned when a refresh token is presented as an
	// access token or the other way round.
	ErrWrongTokenKind = errors.New("wrong token kind")
)

// Subject is what a session is issued for.
type Subject struct {
	CredentialID uuid.UUID
	PersonID     *uuid.UUID
	Email        string
	Name         string
	Role         model.PersonRole
}

type JWTService interface {
	GenerateSession(subject Subject) (*model.Session, error)
	ValidateToken(token string) (*model.TokenClaims, error)
	ValidateRefreshToken(token string) (*model.TokenClaims, error)
}

type Config struct {
	Secret        string
	RefreshSecret string
	Issuer        string
	Expiry        time.Duration
	RefreshExpiry time.Duration
}

type jwtService struct {
	cfg Config
	now func() time.Time
}

func NewJWTService(cfg Config) JWTService {
	if cfg.RefreshSecret == "" {
		cfg.RefreshSecret = cfg.Secret
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = time.Hour
	}
	if cfg.RefreshExpiry <= 0 {
		cfg.RefreshExpiry = 7 * 24 * time.Hour
	}
	return &jwtService{cfg: cfg, now: time.Now}
}

func (s *jwtService) sign(subject Subject, refresh bool, ttl time.Duration, secret string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)
	claims := model.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.cfg.Issuer,
			Subject:   subject.CredentialID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		CredentialID: subject.CredentialID,
		PersonID:     subject.PersonID,
		Email:        subject.Email,
		Name:         subject.Name,
		Role:         subject.Role,
		Refresh:      refresh,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

func (s *jwtService) GenerateSession(subject Subject) (*model.Session, error) {
	access, expiresAt, err := s.sign(subject, false, s.cfg.Expiry, s.cfg.Secret)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.sign(subject, true, s.cfg.RefreshExpiry, s.cfg.RefreshSecret)
	if err != nil {
		return nil, err
	}
	return &model.Session{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}

func (s *jwtService) parse(token, secret string) (*model.TokenClaims, error) {
	var claims model.TokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &claims, nil
}

func (s *jwtService) ValidateToken(token string) (*model.TokenClaims, error) {
	claims, err := s.parse(token, s.cfg.Secret)
	if err != nil {
		return nil, err
	}
	if claims.Refresh {
		return nil, ErrWrongTokenKind
	}
	return claims, nil
}

func (s *jwtService) ValidateRefreshToken(token string) (*model.TokenClaims, error) {
	claims, err := s.parse(token, s.cfg.RefreshSecret)
	if err != nil {
		return nil, err
	}
	if !claims.Refresh {
		return nil, ErrWrongTokenKind
	}
	return claims, nil
}
