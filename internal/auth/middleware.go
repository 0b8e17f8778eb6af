package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
)

const principalKey = "auth_principal"

// ResolveFunc resolves a bearer token (possibly empty) to a user.
type ResolveFunc func(ctx context.Context, bearer string) (*domain.User, error)

// Middleware attaches the current user to the request context.
type Middleware struct {
	resolve ResolveFunc
}

// NewMiddleware constructs middleware around a resolver.
func NewMiddleware(resolve ResolveFunc) *Middleware {
	return &Middleware{resolve: resolve}
}

// Handle resolves the caller identity for downstream handlers. Requests
// without a credential still pass when the resolver has a guest fallback.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	user, err := m.resolve(c.UserContext(), bearerToken(c))
	if err != nil {
		return err
	}
	c.Locals(principalKey, user)
	return c.Next()
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// PrincipalFromContext retrieves the resolved user.
func PrincipalFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}
