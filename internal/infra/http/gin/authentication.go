package ginserver

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	gin "github.com/gin-gonic/gin"

	domainuser "hotelier/internal/domain/user"
)

const principalContextKey = "hotelier.principal"

type principal struct {
	ID    string
	Email string
	Name  string
	Role  string
}

// TokenResolver turns a bearer token into the user it was issued for.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*domainuser.User, error)
}

// AuthMiddleware attaches the caller to the request when a valid bearer
// token is present. Routes decide whether a caller is required.
type AuthMiddleware struct {
	Resolver TokenResolver
	Logger   *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Resolver == nil {
		c.Next()
		return
	}
	user, err := m.Resolver.Resolve(c.Request.Context(), token)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("token rejected", "error", err)
		}
		c.Next()
		return
	}
	c.Set(principalContextKey, principal{
		ID:    string(user.ID),
		Email: user.Email,
		Name:  user.Name,
		Role:  string(user.Role),
	})
	c.Set("user_id", string(user.ID))
	c.Next()
}

// RequireRole aborts with 401 when nobody is signed in and 403 when the
// caller holds none of roles. With no roles any signed-in caller passes.
func RequireRole(roles ...domainuser.Role) gin.HandlerFunc {
	allowed := make([]string, 0, len(roles))
	for _, r := range roles {
		allowed = append(allowed, string(r))
	}
	return func(c *gin.Context) {
		p, ok := currentPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if len(allowed) > 0 && !slices.Contains(allowed, p.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

// mustPrincipal is for handlers mounted behind RequireRole.
func mustPrincipal(c *gin.Context) principal {
	p, _ := currentPrincipal(c)
	return p
}

func extractBearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
