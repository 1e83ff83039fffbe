package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/HealthLane-PH/healthlane-web/internal/handler"
	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/pkg/errors"
)

// TokenValidator checks an access token. *auth.Service satisfies it.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*model.TokenClaims, error)
}

type AuthMiddleware struct {
	tokens TokenValidator
}

func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer token and stores its claims on the
// context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			handler.RespondError(c, errors.Unauthorized(nil))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			handler.RespondError(c, errors.Unauthorized(nil))
			return
		}

		claims, err := m.tokens.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			handler.RespondError(c, err)
			return
		}

		c.Set(handler.ContextClaims, claims)
		c.Next()
	}
}

// RequireRoles lets through sessions whose role is one of roles. Sessions
// without a staff record have no role and are always refused.
func (m *AuthMiddleware) RequireRoles(roles ...model.PersonRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := handler.Claims(c)
		if !ok {
			handler.RespondError(c, errors.Unauthorized(nil))
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		handler.RespondError(c, errors.Forbidden("permission denied"))
	}
}
