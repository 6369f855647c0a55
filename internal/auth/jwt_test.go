package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	tokens, err := Issue("gate-1", "station", "qrattend", "secret", time.Minute, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	claims, err := Parse(tokens.AccessToken, "secret", "qrattend")
	require.NoError(t, err)
	assert.Equal(t, "gate-1", claims.Subject)
	assert.Equal(t, "station", claims.Role)
}

func TestParse_WrongKey(t *testing.T) {
	tokens, err := Issue("gate-1", "station", "qrattend", "secret", time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(tokens.AccessToken, "other-secret", "qrattend")
	assert.Error(t, err)
}

func TestParse_IssuerMismatch(t *testing.T) {
	tokens, err := Issue("gate-1", "station", "someone-else", "secret", time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(tokens.AccessToken, "secret", "qrattend")
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	tokens, err := Issue("gate-1", "station", "qrattend", "secret", -time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(tokens.AccessToken, "secret", "qrattend")
	assert.Error(t, err)
}
