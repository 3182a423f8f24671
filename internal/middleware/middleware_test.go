package middleware

import (
	"foodgram/domain"
	"foodgram/pkg/jwt"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnforcerPolicy(t *testing.T) {
	enforcer, err := NewEnforcer()
	require.NoError(t, err)

	ok, err := enforcer.Enforce(string(domain.RoleAdmin), ObjectCatalog, ActionWrite)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = enforcer.Enforce(string(domain.RoleUser), ObjectCatalog, ActionWrite)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExtractToken(t *testing.T) {
	assert.Equal(t, "abc", extractToken("Token abc"))
	assert.Equal(t, "abc", extractToken("Bearer abc"))
	assert.Equal(t, "abc", extractToken("bearer  abc "))
	assert.Empty(t, extractToken("Basic abc"))
	assert.Empty(t, extractToken("abc"))
}

func newTestApp(t *testing.T) (*fiber.App, jwt.JWTService) {
	enforcer, err := NewEnforcer()
	require.NoError(t, err)
	m := NewMiddleware(enforcer)
	jwtService := jwt.NewJWTService("test-secret")

	app := fiber.New()
	whoami := func(c *fiber.Ctx) error {
		return c.SendString(strconv.FormatUint(uint64(GetViewer(c).ID), 10))
	}
	app.Get("/optional", m.OptionalAuthMiddleware(jwtService), whoami)
	app.Get("/required", m.AuthMiddleware(jwtService), whoami)
	app.Post("/catalog", m.AuthMiddleware(jwtService), m.Authorize(ObjectCatalog, ActionWrite), whoami)
	return app, jwtService
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAuthMiddlewares(t *testing.T) {
	app, jwtService := newTestApp(t)

	userToken, err := jwtService.GenerateTokenUser(7, domain.RoleUser)
	require.NoError(t, err)
	adminToken, err := jwtService.GenerateTokenUser(1, domain.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, doRequest(t, app, "GET", "/optional", ""))
	assert.Equal(t, fiber.StatusOK, doRequest(t, app, "GET", "/optional", userToken))
	assert.Equal(t, fiber.StatusUnauthorized, doRequest(t, app, "GET", "/optional", "garbage"))

	assert.Equal(t, fiber.StatusUnauthorized, doRequest(t, app, "GET", "/required", ""))
	assert.Equal(t, fiber.StatusOK, doRequest(t, app, "GET", "/required", userToken))

	assert.Equal(t, fiber.StatusForbidden, doRequest(t, app, "POST", "/catalog", userToken))
	assert.Equal(t, fiber.StatusOK, doRequest(t, app, "POST", "/catalog", adminToken))
	assert.Equal(t, fiber.StatusUnauthorized, doRequest(t, app, "POST", "/catalog", ""))
}
