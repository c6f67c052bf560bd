package jwtutil

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer   = "bloombook"
	audience = "bloombook-api"
)

var ErrInvalidToken = errors.New("invalid token")

// AccessClaims carries token_version; bumping it in the users table (logout,
// password change) revokes every access token issued before.
type AccessClaims struct {
	TokenVersion int `json:"tv"`
	jwt.RegisteredClaims
}

// SignAccess returns the signed token and its jti.
func SignAccess(userID string, tokenVersion int, ttl time.Duration) (string, string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", "", err
	}
	jti := hex.EncodeToString(b[:])
	now := time.Now()

	claims := AccessClaims{
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(current().Secret)
	if err != nil {
		return "", "", err
	}
	return s, jti, nil
}

// ParseAccess checks signature, issuer, audience and expiry (with the
// configured clock skew).
func ParseAccess(tokenStr string) (*AccessClaims, error) {
	c := current()
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithLeeway(c.ClockSkew),
		jwt.WithExpirationRequired(),
	)
	var claims AccessClaims
	token, err := parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return c.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
