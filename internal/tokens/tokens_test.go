package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/models"
)

func TestGenerateAccessToken(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret"}}
	author := &models.Author{Sub: "kc-123", Name: "Qiang Kou", Email: "author@example.com"}

	raw, err := GenerateAccessToken(cfg, author, 15*time.Minute)
	require.NoError(t, err)

	parsed, err := jwt.Parse(raw, func(tk *jwt.Token) (interface{}, error) {
		require.Equal(t, jwt.SigningMethodHS256, tk.Method)
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.Equal(t, "kc-123", claims["sub"])
	require.Equal(t, "Qiang Kou", claims["name"])
	require.Equal(t, "author@example.com", claims["email"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), exp.Time, 5*time.Second)
}

func TestGenerateAccessToken_WrongSecretFailsVerification(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret"}}
	raw, err := GenerateAccessToken(cfg, &models.Author{Sub: "kc-123"}, time.Minute)
	require.NoError(t, err)

	_, err = jwt.Parse(raw, func(tk *jwt.Token) (interface{}, error) {
		return []byte("other-secret"), nil
	})
	require.Error(t, err)
}
