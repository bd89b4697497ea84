package auth

import (
	"net/http"
	"strings"

	"github.com/abduss/fragstore/internal/response"
	"github.com/gin-gonic/gin"
)

type contextKey string

const userContextKey contextKey = "fragstoreUser"

// ContextUser represents the authenticated principal stored in the request
// context. OwnerID is the only part of it the fragment core consumes.
type ContextUser struct {
	OwnerID string
	Email   string
}

// Middleware validates bearer tokens and injects the authenticated user.
func Middleware(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "missing authorization header"))
			return
		}

		token := extractBearerToken(authHeader)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "invalid authorization header"))
			return
		}

		claims, err := service.ValidateAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "invalid or expired token"))
			return
		}

		c.Set(string(userContextKey), ContextUser{
			OwnerID: HashOwnerID(claims.Email),
			Email:   claims.Email,
		})

		c.Next()
	}
}

// StaticOwner injects a fixed principal instead of validating tokens.
// Useful for local runs without an identity provider and for tests.
func StaticOwner(email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(string(userContextKey), ContextUser{
			OwnerID: HashOwnerID(email),
			Email:   email,
		})
		c.Next()
	}
}

// CurrentUser extracts the authenticated user from the context.
func CurrentUser(c *gin.Context) (ContextUser, bool) {
	value, exists := c.Get(string(userContextKey))
	if !exists {
		return ContextUser{}, false
	}
	user, ok := value.(ContextUser)
	return user, ok
}

// RequireOwner fetches the authenticated owner identifier.
func RequireOwner(c *gin.Context) (string, bool) {
	user, ok := CurrentUser(c)
	if !ok || user.OwnerID == "" {
		return "", false
	}
	return user.OwnerID, true
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
