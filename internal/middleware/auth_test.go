package middleware

import (
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-to-pass"

func signToken(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func validClaims(userID uint) jwt.MapClaims {
	return jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"jti": "abc",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
}

func TestParseToken(t *testing.T) {
	claims, err := ParseToken(signToken(t, jwt.SigningMethodHS256, validClaims(7)), testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "abc", claims.JTI)
}

func TestParseToken_Rejections(t *testing.T) {
	expired := validClaims(1)
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	wrongIssuer := validClaims(1)
	wrongIssuer["iss"] = "someone-else"

	badSubject := validClaims(1)
	badSubject["sub"] = "not-a-number"

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not.a.token", ErrInvalidToken},
		{"expired", signToken(t, jwt.SigningMethodHS256, expired), ErrInvalidToken},
		{"wrong issuer", signToken(t, jwt.SigningMethodHS256, wrongIssuer), ErrInvalidIssuer},
		{"bad subject", signToken(t, jwt.SigningMethodHS256, badSubject), ErrInvalidSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, testSecret)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := ParseToken(signToken(t, jwt.SigningMethodHS256, validClaims(1)), "another-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
