package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/identity"
)

const tokenTypeRefresh = "refresh"

// Claims carried by both tokens. Refresh tokens have Type "refresh".
type Claims struct {
	UserID         string `json:"userId"`
	OrganizationID string `json:"organizationId"`
	Type           string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is what register, login and refresh hand back.
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// HashToken is the sha256 hex digest stored in the sessions table.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *Service) sign(userID, orgID, typ string, ttl time.Duration) (string, error) {
	now := s.Clock.Now()
	claims := Claims{
		UserID:         userID,
		OrganizationID: orgID,
		Type:           typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}

func (s *Service) issue(userID, orgID string) (TokenPair, error) {
	access, err := s.sign(userID, orgID, "", s.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(userID, orgID, tokenTypeRefresh, s.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Token: access, RefreshToken: refresh}, nil
}

// Parse verifies signature and expiry. Expired tokens give identity.ErrTokenExpired,
// anything else identity.ErrInvalidToken.
func (s *Service) Parse(token string) (*Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.Clock.Now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, identity.ErrTokenExpired
	default:
		return nil, identity.ErrInvalidToken
	}
	if c.UserID == "" {
		return nil, identity.ErrInvalidToken
	}
	return &c, nil
}
