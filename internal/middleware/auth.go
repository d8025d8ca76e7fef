// Package middleware provides authentication, logging, metrics and rate limiting middleware for the application.
package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenIssuer is the iss claim on every access token.
	TokenIssuer = "factoryfeed-api"
	// TokenAudience is the aud claim on every access token.
	TokenAudience = "factoryfeed-client"
)

// TokenClaims is the validated subset of an access token.
type TokenClaims struct {
	UserID    uint
	JTI       string
	ExpiresAt time.Time
}

var (
	ErrMissingToken   = errors.New("authorization required")
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrInvalidIssuer  = errors.New("invalid token issuer")
	ErrInvalidSubject = errors.New("invalid subject claim")
)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// ParseToken validates an HS256 access token and returns its claims.
func ParseToken(tokenString, secret string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if iss, ok := claims["iss"].(string); !ok || iss != TokenIssuer {
		return nil, ErrInvalidIssuer
	}
	if aud, err := claims.GetAudience(); err != nil || len(aud) == 0 || aud[0] != TokenAudience {
		return nil, ErrInvalidIssuer
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidSubject
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return nil, ErrInvalidSubject
	}

	jti, _ := claims["jti"].(string)
	out := &TokenClaims{UserID: uint(userID), JTI: jti}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
