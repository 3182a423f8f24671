package config

import (
	"bytes"
	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/middleware"
	"foodgram/internal/testutil"
	"foodgram/pkg/jwt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	Status  bool              `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors"`
}

type testServer struct {
	t       *testing.T
	app     *fiber.App
	db      *gorm.DB
	storage *testutil.FakeStorage
	mailer  *testutil.FakeMailer
}

func newTestServer(t *testing.T) *testServer {
	db := testutil.NewTestDB(t)
	enforcer, err := middleware.NewEnforcer()
	require.NoError(t, err)

	s := &testServer{
		t:       t,
		db:      db,
		storage: testutil.NewFakeStorage(),
		mailer:  &testutil.FakeMailer{},
	}
	s.app = NewAppWithDependencies(db, Dependencies{
		S3:         s.storage,
		Mailer:     s.mailer,
		JWTService: jwt.NewJWTService("test-secret"),
		Enforcer:   enforcer,
		AppURL:     "http://localhost:3000",
	})
	return s
}

func (s *testServer) do(method, path, token string, body any) (*http.Response, []byte) {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp, data
}

func (s *testServer) decode(raw []byte, out any) envelope {
	s.t.Helper()
	var env envelope
	require.NoError(s.t, json.Unmarshal(raw, &env))
	if out != nil && len(env.Data) > 0 {
		require.NoError(s.t, json.Unmarshal(env.Data, out))
	}
	return env
}

func (s *testServer) register(username string) (domain.UserResponse, string) {
	s.t.Helper()

	resp, raw := s.do("POST", "/api/users/", "", domain.RegisterRequest{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "First",
		LastName:  "Last",
		Password:  "super-secret",
	})
	require.Equal(s.t, fiber.StatusCreated, resp.StatusCode, string(raw))
	var profile domain.UserResponse
	s.decode(raw, &profile)

	resp, raw = s.do("POST", "/api/auth/token/login/", "", domain.LoginRequest{
		Email:    username + "@example.com",
		Password: "super-secret",
	})
	require.Equal(s.t, fiber.StatusOK, resp.StatusCode, string(raw))
	var login domain.LoginResponse
	s.decode(raw, &login)
	require.NotEmpty(s.t, login.AuthToken)

	return profile, login.AuthToken
}

func (s *testServer) promote(userID uint) {
	s.t.Helper()
	require.NoError(s.t, s.db.Model(&entities.User{}).Where("id = ?", userID).Update("role", "admin").Error)
}

func path(parts ...any) string {
	var buf bytes.Buffer
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			buf.WriteString(v)
		case uint:
			buf.WriteString(strconv.FormatUint(uint64(v), 10))
		}
	}
	return buf.String()
}

func TestRecipeLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)

	admin, _ := s.register("admin")
	s.promote(admin.ID)
	// role is read from the token, so log in again
	resp, raw := s.do("POST", "/api/auth/token/login/", "", domain.LoginRequest{Email: "admin@example.com", Password: "super-secret"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var login domain.LoginResponse
	s.decode(raw, &login)
	adminToken := login.AuthToken

	_, cookToken := s.register("cook")
	_, fanToken := s.register("fan")

	resp, raw = s.do("POST", "/api/tags/", cookToken, domain.TagRequest{Name: "Lunch", Color: "#49B64E", Slug: "lunch"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, string(raw))

	resp, raw = s.do("POST", "/api/tags/", adminToken, domain.TagRequest{Name: "Lunch", Color: "#49B64E", Slug: "lunch"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	var lunch domain.TagResponse
	s.decode(raw, &lunch)

	resp, raw = s.do("POST", "/api/ingredients/", adminToken, domain.IngredientRequest{Name: "Salt", MeasurementUnit: "g"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	var salt domain.IngredientResponse
	s.decode(raw, &salt)

	write := domain.RecipeWriteRequest{
		Tags:        []uint{lunch.ID},
		Ingredients: []domain.IngredientAmountRequest{{ID: salt.ID, Amount: 10}},
		Name:        "Salted soup",
		Image:       testutil.PNGDataURI,
		Text:        "Boil water, add salt.",
		CookingTime: 15,
	}

	resp, _ = s.do("POST", "/api/recipes/", "", write)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, raw = s.do("POST", "/api/recipes/", cookToken, write)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	var recipe domain.RecipeResponse
	env := s.decode(raw, &recipe)
	assert.True(t, env.Status)
	assert.Equal(t, "Salted soup", recipe.Name)
	require.Len(t, recipe.Ingredients, 1)
	assert.Equal(t, "Salt", recipe.Ingredients[0].Name)

	resp, raw = s.do("PATCH", path("/api/recipes/", recipe.ID, "/"), fanToken, write)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, string(raw))

	resp, raw = s.do("POST", path("/api/recipes/", recipe.ID, "/favorite/"), fanToken, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	var lite domain.RecipeLite
	s.decode(raw, &lite)
	assert.Equal(t, recipe.ID, lite.ID)

	resp, raw = s.do("POST", path("/api/recipes/", recipe.ID, "/favorite/"), fanToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, domain.ErrAlreadyFavorited.Error(), s.decode(raw, nil).Error)

	resp, raw = s.do("GET", "/api/recipes/?is_favorited=1", fanToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	var page domain.PaginatedResponse[domain.RecipeResponse]
	s.decode(raw, &page)
	require.Len(t, page.Results, 1)
	assert.True(t, page.Results[0].IsFavorited)

	resp, _ = s.do("GET", "/api/recipes/?is_favorited=1", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do("DELETE", path("/api/recipes/", recipe.ID, "/favorite/"), fanToken, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp, _ = s.do("DELETE", path("/api/recipes/", recipe.ID, "/favorite/"), fanToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do("POST", path("/api/recipes/", recipe.ID, "/shopping_cart/"), fanToken, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, raw = s.do("GET", "/api/recipes/download_shopping_cart/", fanToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), domain.ShoppingCartFileName)
	assert.Equal(t, "Salt - 10g\n", string(raw))

	resp, raw = s.do("GET", "/api/recipes/download_shopping_cart/", cookToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, raw)

	resp, _ = s.do("DELETE", path("/api/recipes/", recipe.ID, "/"), cookToken, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp, _ = s.do("GET", path("/api/recipes/", recipe.ID, "/"), "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestRecipeValidationOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register("cook")
	tag := testutil.CreateTag(t, s.db, "Lunch", "#49B64E", "lunch")
	salt := testutil.CreateIngredient(t, s.db, "Salt", "g")

	resp, raw := s.do("POST", "/api/recipes/", token, domain.RecipeWriteRequest{
		Tags:        []uint{tag.ID},
		Ingredients: []domain.IngredientAmountRequest{{ID: salt.ID, Amount: 2}, {ID: salt.ID, Amount: 3}},
		Name:        "Twice salted",
		Image:       testutil.PNGDataURI,
		Text:        "Salt, then salt again.",
		CookingTime: 5,
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	env := s.decode(raw, nil)
	assert.False(t, env.Status)
	assert.Equal(t, domain.MsgIngredientsUnique, env.Errors["ingredients"])

	resp, raw = s.do("POST", "/api/recipes/", token, domain.RecipeWriteRequest{
		Tags:        []uint{tag.ID},
		Ingredients: []domain.IngredientAmountRequest{{ID: salt.ID, Amount: 2}},
		Image:       testutil.PNGDataURI,
		Text:        "No name.",
		CookingTime: 5,
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, s.decode(raw, nil).Errors, "name")
}

func TestUserRoutes(t *testing.T) {
	s := newTestServer(t)
	cook, cookToken := s.register("cook")
	_, fanToken := s.register("fan")

	resp, raw := s.do("GET", "/api/users/me/", cookToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	var me domain.UserResponse
	s.decode(raw, &me)
	assert.Equal(t, cook.ID, me.ID)

	resp, _ = s.do("GET", "/api/users/me/", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, raw = s.do("POST", path("/api/users/", cook.ID, "/subscribe/?recipes_limit=1"), fanToken, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	var sub domain.SubscriptionResponse
	s.decode(raw, &sub)
	assert.True(t, sub.IsSubscribed)
	assert.Equal(t, cook.ID, sub.ID)

	resp, raw = s.do("POST", path("/api/users/", cook.ID, "/subscribe/"), cookToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, domain.ErrSelfFollow.Error(), s.decode(raw, nil).Error)

	resp, raw = s.do("GET", "/api/users/subscriptions/", fanToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	var subs domain.PaginatedResponse[domain.SubscriptionResponse]
	s.decode(raw, &subs)
	assert.Equal(t, int64(1), subs.Count)

	resp, raw = s.do("GET", path("/api/users/", cook.ID, "/"), fanToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var profile domain.UserResponse
	s.decode(raw, &profile)
	assert.True(t, profile.IsSubscribed)

	resp, _ = s.do("DELETE", path("/api/users/", cook.ID, "/subscribe/"), fanToken, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp, _ = s.do("DELETE", path("/api/users/", cook.ID, "/subscribe/"), fanToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do("POST", "/api/users/set_password/", cookToken, domain.SetPasswordRequest{
		CurrentPassword: "super-secret",
		NewPassword:     "even-more-secret",
	})
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, raw = s.do("POST", "/api/users/", "", domain.RegisterRequest{
		Email:     "bad@example.com",
		Username:  "bad name!",
		FirstName: "Bad",
		LastName:  "Name",
		Password:  "super-secret",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, s.decode(raw, nil).Errors, "username")
}

func TestPasswordResetMailIsSent(t *testing.T) {
	s := newTestServer(t)
	s.register("cook")

	resp, _ := s.do("POST", "/api/users/reset_password/", "", domain.ResetPasswordRequest{Email: "cook@example.com"})
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.Len(t, s.mailer.Sent, 1)
	assert.Equal(t, "cook@example.com", s.mailer.Sent[0].To)

	resp, _ = s.do("POST", "/api/users/reset_password_confirm/", "", domain.ResetPasswordConfirmRequest{
		Token:       "not-a-token",
		NewPassword: "whatever-123",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCatalogAndServiceRoutes(t *testing.T) {
	s := newTestServer(t)
	testutil.CreateIngredient(t, s.db, "sea salt", "g")
	testutil.CreateIngredient(t, s.db, "salt", "g")

	resp, raw := s.do("GET", "/api/ingredients/?name=sal", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var ingredients []domain.IngredientResponse
	s.decode(raw, &ingredients)
	require.Len(t, ingredients, 2)
	assert.Equal(t, "salt", ingredients[0].Name)

	resp, _ = s.do("GET", "/api/tags/999/", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = s.do("GET", "/api/tags/abc/", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do("GET", "/api/ping", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, raw = s.do("GET", "/metrics", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "foodgram_http_requests_total")
}
