package module

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/emrgen/travelexpense/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	authorization = "Authorization"
	bearerPrefix  = "Bearer "

	contextKeyClaims = "claims"
	contextKeyToken  = "token"
)

// TokenValidator verifies access tokens.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthRequired rejects requests without a valid bearer token and stores the
// token claims in the gin context.
func AuthRequired(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken, err := accessTokenFromHeader(c.GetHeader(authorization))
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		claims, err := validator.ValidateToken(c.Request.Context(), accessToken)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) && !errors.Is(err, auth.ErrTokenRevoked) {
				logrus.Errorf("token validation failed: %v", err)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
					"code":    http.StatusServiceUnavailable,
					"message": "認証サービスに接続できません",
				})
				return
			}
			abortUnauthorized(c, "認証に失敗しました")
			return
		}

		c.Set(contextKeyClaims, claims)
		c.Set(contextKeyToken, accessToken)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
}

func accessTokenFromHeader(value string) (string, error) {
	if value == "" {
		return "", errors.New("authorization header not found")
	}

	// remove prefix Bearer
	if !strings.HasPrefix(value, bearerPrefix) {
		return "", errors.New("authorization header must use the Bearer scheme")
	}

	token := strings.TrimSpace(strings.TrimPrefix(value, bearerPrefix))
	if token == "" {
		return "", errors.New("access token not found")
	}

	return token, nil
}

// GetClaims returns the claims stored by AuthRequired.
func GetClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(contextKeyClaims); exists {
		return claims.(*auth.Claims)
	}
	return nil
}

// GetUserID returns the id of the authenticated user.
func GetUserID(c *gin.Context) string {
	if claims := GetClaims(c); claims != nil {
		return claims.UserID
	}
	return ""
}

// GetToken returns the raw access token of the request.
func GetToken(c *gin.Context) string {
	return c.GetString(contextKeyToken)
}
