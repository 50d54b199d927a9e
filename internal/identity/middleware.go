package identity

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util"
)

// PrincipalKey is the Locals key the resolved identity is stored under. The
// websocket handler reads it after the upgrade, when the Fiber context is gone.
const PrincipalKey = "identity_principal"

// CredentialsFromRequest extracts the bearer token and header accessor from a
// Fiber context. The websocket handshake also accepts the token as a "token"
// query parameter since browsers cannot set headers on socket upgrades.
func CredentialsFromRequest(c *fiber.Ctx) Credentials {
	token := ""
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = parts[1]
		}
	}
	if token == "" {
		token = c.Query("token")
	}
	return Credentials{
		BearerToken: token,
		Header:      func(name string) string { return c.Get(name) },
	}
}

// Middleware resolves the caller's identity once per request and stores it in
// Locals. Resolution failure is not an error; the request proceeds anonymous.
func Middleware(resolver *Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user := resolver.Resolve(c.UserContext(), CredentialsFromRequest(c)); user != nil {
			c.Locals(PrincipalKey, user)
		}
		return c.Next()
	}
}

// Required rejects requests whose identity could not be resolved.
func Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := FromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// FromContext retrieves the resolved identity, if any.
func FromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(PrincipalKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}
