package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonErrors "github.com/Alturino/storefront/internal/common/errors"
)

func TestVerifyToken(t *testing.T) {
	type testCase struct {
		name      string
		token     func(t *testing.T) string
		secret    string
		subject   string
		wantError bool
	}

	testCases := []testCase{
		{
			name: "valid token yields session",
			token: func(t *testing.T) string {
				token, err := NewToken("session-1", "secret", time.Hour)
				require.NoError(t, err)
				return token
			},
			secret:  "secret",
			subject: "session-1",
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				token, err := NewToken("session-1", "other", time.Hour)
				require.NoError(t, err)
				return token
			},
			secret:    "secret",
			wantError: true,
		},
		{
			name: "expired token",
			token: func(t *testing.T) string {
				token, err := NewToken("session-1", "secret", -time.Minute)
				require.NoError(t, err)
				return token
			},
			secret:    "secret",
			wantError: true,
		},
		{
			name:      "garbage",
			token:     func(t *testing.T) string { return "not-a-token" },
			secret:    "secret",
			wantError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := context.Background()
			token, err := VerifyToken(c, tc.token(t), tc.secret)
			if tc.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			c = AttachJwtToken(c, token)
			sessionID, err := SessionIDFromContext(c)
			require.NoError(t, err)
			assert.Equal(t, tc.subject, sessionID)
		})
	}
}

func TestSessionIDFromContextWithoutToken(t *testing.T) {
	_, err := SessionIDFromContext(context.Background())
	assert.ErrorIs(t, err, commonErrors.ErrEmptyAuth)
}
