package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := map[string]struct {
		code Code
		want int
	}{
		"invalid argument":  {code: CodeInvalidArgument, want: http.StatusBadRequest},
		"not found":         {code: CodeNotFound, want: http.StatusNotFound},
		"unauthenticated":   {code: CodeUnauthenticated, want: http.StatusUnauthorized},
		"permission denied": {code: CodePermissionDenied, want: http.StatusForbidden},
		"internal":          {code: CodeInternal, want: http.StatusInternalServerError},
		"unknown":           {code: Code("weird"), want: http.StatusInternalServerError},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, New(tc.code).HTTPStatusCode())
		})
	}
}

func TestConvert(t *testing.T) {
	coded := New(CodeNotFound, WithMessagef("user %s", "bob"))
	wrapped := fmt.Errorf("lookup: %w", coded)

	got := Convert(wrapped)
	require.Equal(t, CodeNotFound, got.Code)
	require.Equal(t, "user bob", got.Message)

	plain := errors.New("disk full")
	got = Convert(plain)
	require.Equal(t, CodeInternal, got.Code)
	require.ErrorIs(t, got, plain)
}

func TestFields(t *testing.T) {
	err := New(CodeInvalidArgument,
		WithField("wpm", "must be between 0 and 500"),
		WithFields([]FieldError{{Field: "difficulty", Message: "must be one of easy, medium, hard"}}),
	)
	require.Len(t, err.Fields, 2)
	require.Equal(t, "wpm", err.Fields[0].Field)
	require.Contains(t, err.Error(), "difficulty: must be one of easy, medium, hard")
	require.True(t, Is(err, CodeInvalidArgument))
	require.False(t, Is(err, CodeInternal))
}
