package services

import (
	"fmt"
	"time"

	"scoresheet_server/models"

	"github.com/golang-jwt/jwt/v5"
)

// MatchClaims binds a session credential to one match and one role
type MatchClaims struct {
	jwt.RegisteredClaims
	MatchUUID string           `json:"match_uuid"`
	Role      models.MatchRole `json:"role"`
}

// TokenService signs and verifies the HS256 tokens used both for the
// per-match session credential and for the identity cookie consumed by the
// auth middleware.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// TTL returns the credential lifetime
func (ts *TokenService) TTL() time.Duration {
	return ts.ttl
}

// IssueMatchToken signs a credential scoped to one match
func (ts *TokenService) IssueMatchToken(payload models.MatchTokenPayload) (string, error) {
	now := time.Now()
	claims := &MatchClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.UserUUID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		MatchUUID: payload.MatchUUID,
		Role:      payload.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign match token: %w", err)
	}
	return signed, nil
}

// ParseMatchToken verifies signature and expiry and returns the credential
// payload. Any failure maps to ErrCredentialInvalid.
func (ts *TokenService) ParseMatchToken(tokenString string) (*models.MatchTokenPayload, error) {
	token, err := jwt.ParseWithClaims(tokenString, &MatchClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return ts.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialInvalid, err)
	}
	claims, ok := token.Claims.(*MatchClaims)
	if !ok || !token.Valid {
		return nil, ErrCredentialInvalid
	}
	return &models.MatchTokenPayload{
		UserUUID:  claims.Subject,
		MatchUUID: claims.MatchUUID,
		Role:      claims.Role,
	}, nil
}

// IssueSessionToken signs an identity token carrying only the user id.
// Login itself is handled by the external auth service; this exists for the
// local glue and for tests.
func (ts *TokenService) IssueSessionToken(userID string) (string, error) {
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken verifies an identity token and returns the user id
func (ts *TokenService) ParseSessionToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return ts.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCredentialInvalid, err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrCredentialInvalid
	}
	return claims.Subject, nil
}
