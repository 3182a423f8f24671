package middleware

import (
	"foodgram/domain"
	"foodgram/internal/api/presenters"
	"foodgram/pkg/jwt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const (
	LocalsUserID = "user_id"
	LocalsRole   = "role"
)

type (
	Middleware interface {
		CORSMiddleware() fiber.Handler
		// AuthMiddleware rejects requests without a valid token.
		AuthMiddleware(jwtService jwt.JWTService) fiber.Handler
		// OptionalAuthMiddleware identifies the caller when a token is sent
		// and lets anonymous requests through.
		OptionalAuthMiddleware(jwtService jwt.JWTService) fiber.Handler
		// Authorize checks the caller's role against the casbin policy.
		Authorize(object, action string) fiber.Handler
	}

	middleware struct {
		enforcer *casbin.Enforcer
	}
)

func NewMiddleware(enforcer *casbin.Enforcer) Middleware {
	return &middleware{enforcer: enforcer}
}

func (m *middleware) CORSMiddleware() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PATCH, PUT, DELETE, OPTIONS",
	})
}

// extractToken accepts both "Token <jwt>" and "Bearer <jwt>".
func extractToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return ""
	}
	switch strings.ToLower(scheme) {
	case "token", "bearer":
		return strings.TrimSpace(token)
	default:
		return ""
	}
}

func (m *middleware) authenticate(c *fiber.Ctx, jwtService jwt.JWTService, required bool) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		if required {
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedGetToken, domain.ErrUnauthenticated)
		}
		return c.Next()
	}

	token := extractToken(header)
	if token == "" {
		return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedGetToken, domain.ErrTokenNotFound)
	}

	userID, role, err := jwtService.GetUserIDByToken(token)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedTokenInvalid, err)
	}

	c.Locals(LocalsUserID, userID)
	c.Locals(LocalsRole, role)
	return c.Next()
}

func (m *middleware) AuthMiddleware(jwtService jwt.JWTService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return m.authenticate(c, jwtService, true)
	}
}

func (m *middleware) OptionalAuthMiddleware(jwtService jwt.JWTService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return m.authenticate(c, jwtService, false)
	}
}

func (m *middleware) Authorize(object, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		viewer := GetViewer(c)
		if viewer.IsAnonymous() {
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedGetToken, domain.ErrUnauthenticated)
		}

		allowed, err := m.enforcer.Enforce(string(viewer.Role), object, action)
		if err != nil {
			log.Errorf("policy check failed for role %q on %s:%s: %v", viewer.Role, object, action, err)
			return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedProcessRequest, err)
		}
		if !allowed {
			return presenters.ErrorResponse(c, fiber.StatusForbidden, domain.MessageUserNotAllowed, domain.ErrUserNotAllowed)
		}
		return c.Next()
	}
}

// GetViewer returns the caller identified by the auth middleware, or the
// anonymous viewer.
func GetViewer(c *fiber.Ctx) domain.Viewer {
	id, _ := c.Locals(LocalsUserID).(uint)
	role, _ := c.Locals(LocalsRole).(domain.Role)
	if id == 0 {
		return domain.Viewer{}
	}
	if !role.Valid() {
		role = domain.RoleUser
	}
	return domain.Viewer{ID: id, Role: role}
}
