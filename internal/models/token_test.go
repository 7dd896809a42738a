package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshTokenUsable(t *testing.T) {
	now := time.Now().UTC()
	token := RefreshToken{ExpiresAt: now.Add(time.Hour)}

	assert.True(t, token.Usable(now))

	token.Revoked = true
	assert.False(t, token.Usable(now))

	token.Revoked = false
	assert.False(t, token.Usable(now.Add(2*time.Hour)))
}

func TestRefreshTokenValueNeverSerialized(t *testing.T) {
	token := RefreshToken{ID: "token-1", UserID: "user-1", Token: "raw-secret"}
	raw, err := json.Marshal(token)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "raw-secret")
}
