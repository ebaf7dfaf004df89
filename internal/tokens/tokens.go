package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/models"
)

// GenerateAccessToken creates a signed HS256 JWT access token for the author.
func GenerateAccessToken(cfg *config.Config, a *models.Author, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   a.Sub,
		"name":  a.Name,
		"email": a.Email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}
