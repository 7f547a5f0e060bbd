package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	s := NewJWTService("secret")
	token, err := s.GenerateToken("alice", time.Hour)
	require.NoError(t, err)

	username, err := s.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "alice", username)
}

func TestJWTService_Rejects(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		token func(t *testing.T) string
	}{
		"wrong secret": {
			token: func(t *testing.T) string {
				tok, err := NewJWTService("other").GenerateToken("alice", time.Hour)
				require.NoError(t, err)
				return tok
			},
		},
		"expired": {
			token: func(t *testing.T) string {
				s := NewJWTService("secret")
				s.now = func() time.Time { return issued.Add(-2 * time.Hour) }
				tok, err := s.GenerateToken("alice", time.Hour)
				require.NoError(t, err)
				return tok
			},
		},
		"none algorithm": {
			token: func(t *testing.T) string {
				tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
					Subject:   "alice",
					Issuer:    issuer,
					ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
				})
				signed, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return signed
			},
		},
		"garbage": {
			token: func(t *testing.T) string { return "not-a-token" },
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := NewJWTService("secret")
			s.now = func() time.Time { return issued }

			_, err := s.ValidateToken(tt.token(t))
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}
