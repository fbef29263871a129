package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/learnforge/course-service/internal/models"
	"github.com/learnforge/course-service/internal/services"
	"github.com/learnforge/course-service/internal/utils"
)

// JWTAuthMiddleware validates bearer tokens issued by the auth service
type JWTAuthMiddleware struct {
	secret string
	logger utils.Logger
}

func NewJWTAuthMiddleware(secret string, logger utils.Logger) *JWTAuthMiddleware {
	return &JWTAuthMiddleware{
		secret: secret,
		logger: logger,
	}
}

// AuthMiddleware requires a valid access token and loads the user's
// identity into the request context.
func (m *JWTAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractBearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Authorization header required",
			})
			c.Abort()
			return
		}

		claims, err := services.ParseAccessToken(token, m.secret)
		if err != nil {
			utils.FromContext(c, m.logger).Warn("Token validation failed", "error", err)
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
			})
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("user_email", claims.Email)
		c.Set("user_roles", rolesFromClaims(claims.Roles))
		c.Next()
	}
}

// OptionalAuthMiddleware loads the identity when a valid token is
// present but lets anonymous requests through.
func (m *JWTAuthMiddleware) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractBearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := services.ParseAccessToken(token, m.secret)
		if err != nil {
			c.Next()
			return
		}

		if userID, err := uuid.Parse(claims.Subject); err == nil {
			c.Set("user_id", userID)
			c.Set("user_email", claims.Email)
			c.Set("user_roles", rolesFromClaims(claims.Roles))
		}
		c.Next()
	}
}

// RequireRoleMiddleware allows only users carrying one of the given
// roles. Admins pass every role check.
func (m *JWTAuthMiddleware) RequireRoleMiddleware(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("user_id"); !exists {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
			})
			c.Abort()
			return
		}

		if !hasAnyRole(c, roles...) {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Message: "Insufficient permissions",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func extractBearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func rolesFromClaims(raw []string) []models.UserRole {
	roles := make([]models.UserRole, 0, len(raw))
	for _, r := range raw {
		roles = append(roles, models.UserRole(r))
	}
	return roles
}
