package auth

import (
	"testing"

	"betting_assistant/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	prev := config.GlobalConfig
	config.GlobalConfig = cfg
	t.Cleanup(func() { config.GlobalConfig = prev })
}

func TestGenerateAndValidateToken(t *testing.T) {
	setConfig(t, &config.Config{JWTSecret: "test-secret"})

	token, err := GenerateToken("admin")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "betting-assistant", claims.Issuer)

	config.GlobalConfig.JWTSecret = "rotated"
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateCredentials(t *testing.T) {
	setConfig(t, &config.Config{AdminUsername: "admin", AdminPassword: "pw"})

	assert.True(t, ValidateCredentials("admin", "pw"))
	assert.False(t, ValidateCredentials("admin", "nope"))
	assert.False(t, ValidateCredentials("root", "pw"))

	config.GlobalConfig.AdminPassword = ""
	assert.False(t, ValidateCredentials("admin", ""))
}
