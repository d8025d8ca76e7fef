// Package service holds the application's business rules on top of the repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"factoryfeed/internal/cache"
	"factoryfeed/internal/middleware"
	"factoryfeed/internal/models"
	"factoryfeed/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenTTL is the lifetime of an access token.
	TokenTTL          = 7 * 24 * time.Hour
	maxUsernameLength = 64
)

// AuthService registers users and issues, validates and revokes access tokens.
type AuthService struct {
	userRepo repository.UserRepository
	secret   string
	now      func() time.Time
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{userRepo: userRepo, secret: jwtSecret, now: time.Now}
}

// Register creates an account. Usernames are trimmed; the system identity's name is reserved.
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, models.NewValidationError("Username and password are required")
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return nil, models.NewValidationError(fmt.Sprintf("Username too long (max %d characters)", maxUsernameLength))
	}
	if strings.EqualFold(username, models.SystemUsername) {
		return nil, models.NewValidationError("Username is reserved")
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:     username,
		Password:     string(hash),
		ProfileEmoji: models.DefaultProfileEmoji,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, models.NewValidationError("Username and password are required")
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsSystem() {
		return nil, models.NewUnauthorizedError("Invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid username or password")
	}

	token, expiresAt, err := s.issueToken(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) issueToken(user *models.User) (string, time.Time, error) {
	if s.secret == "" {
		return "", time.Time{}, errors.New("JWT secret not configured")
	}

	now := s.now()
	expiresAt := now.Add(TokenTTL)
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"username": user.Username,
		"iss":      middleware.TokenIssuer,
		"aud":      middleware.TokenAudience,
		"exp":      expiresAt.Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Authenticate validates a token and returns its user id. Revoked tokens are rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (uint, error) {
	claims, err := middleware.ParseToken(token, s.secret)
	if err != nil {
		return 0, models.NewUnauthorizedError(err.Error())
	}
	if cache.IsTokenRevoked(ctx, claims.JTI) {
		return 0, models.NewUnauthorizedError("Token has been revoked")
	}
	return claims.UserID, nil
}

// Logout revokes the token's id until it would have expired.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := middleware.ParseToken(token, s.secret)
	if err != nil {
		return models.NewUnauthorizedError(err.Error())
	}
	if err := cache.RevokeToken(ctx, claims.JTI, time.Until(claims.ExpiresAt)); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
