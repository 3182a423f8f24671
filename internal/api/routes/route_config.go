package routes

import (
	"foodgram/internal/api/handlers"
	"foodgram/internal/middleware"
	"foodgram/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	App               *fiber.App
	UserHandler       handlers.UserHandler
	FollowHandler     handlers.FollowHandler
	RecipeHandler     handlers.RecipeHandler
	TagHandler        handlers.TagHandler
	IngredientHandler handlers.IngredientHandler
	Middleware        middleware.Middleware
	JWTService        jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.GuestRoute()
	c.Auth()
	c.User()
	c.Tags()
	c.Ingredients()
	c.Recipes()
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
	c.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

func (c *Config) Auth() {
	auth := c.App.Group("/api/auth/token")
	{
		auth.Post("/login", c.UserHandler.Login)
		auth.Post("/logout", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.Logout)
	}
}

func (c *Config) User() {
	required := c.Middleware.AuthMiddleware(c.JWTService)
	optional := c.Middleware.OptionalAuthMiddleware(c.JWTService)

	user := c.App.Group("/api/users")
	{
		user.Get("/", optional, c.UserHandler.GetUsers)
		user.Post("/", c.UserHandler.Register)
		user.Get("/me", required, c.UserHandler.Me)
		user.Post("/set_password", required, c.UserHandler.SetPassword)
		user.Post("/reset_password", c.UserHandler.ResetPassword)
		user.Post("/reset_password_confirm", c.UserHandler.ResetPasswordConfirm)
		user.Get("/subscriptions", required, c.FollowHandler.GetSubscriptions)
		user.Get("/:id", optional, c.UserHandler.GetUser)
		user.Post("/:id/subscribe", required, c.FollowHandler.Subscribe)
		user.Delete("/:id/subscribe", required, c.FollowHandler.Unsubscribe)
	}
}

func (c *Config) Tags() {
	admin := []fiber.Handler{
		c.Middleware.AuthMiddleware(c.JWTService),
		c.Middleware.Authorize(middleware.ObjectCatalog, middleware.ActionWrite),
	}

	tags := c.App.Group("/api/tags")
	{
		tags.Get("/", c.TagHandler.GetTags)
		tags.Get("/:id", c.TagHandler.GetTag)
		tags.Post("/", append(admin, c.TagHandler.CreateTag)...)
		tags.Patch("/:id", append(admin, c.TagHandler.UpdateTag)...)
		tags.Delete("/:id", append(admin, c.TagHandler.DeleteTag)...)
	}
}

func (c *Config) Ingredients() {
	admin := []fiber.Handler{
		c.Middleware.AuthMiddleware(c.JWTService),
		c.Middleware.Authorize(middleware.ObjectCatalog, middleware.ActionWrite),
	}

	ingredients := c.App.Group("/api/ingredients")
	{
		ingredients.Get("/", c.IngredientHandler.GetIngredients)
		ingredients.Get("/:id", c.IngredientHandler.GetIngredient)
		ingredients.Post("/", append(admin, c.IngredientHandler.CreateIngredient)...)
		ingredients.Patch("/:id", append(admin, c.IngredientHandler.UpdateIngredient)...)
		ingredients.Delete("/:id", append(admin, c.IngredientHandler.DeleteIngredient)...)
	}
}

func (c *Config) Recipes() {
	required := c.Middleware.AuthMiddleware(c.JWTService)
	optional := c.Middleware.OptionalAuthMiddleware(c.JWTService)

	recipes := c.App.Group("/api/recipes")
	{
		recipes.Get("/", optional, c.RecipeHandler.GetRecipes)
		recipes.Post("/", required, c.RecipeHandler.CreateRecipe)
		recipes.Get("/download_shopping_cart", required, c.RecipeHandler.DownloadShoppingCart)
		recipes.Get("/:id", optional, c.RecipeHandler.GetRecipe)
		recipes.Patch("/:id", required, c.RecipeHandler.UpdateRecipe)
		recipes.Delete("/:id", required, c.RecipeHandler.DeleteRecipe)
		recipes.Post("/:id/favorite", required, c.RecipeHandler.AddFavorite)
		recipes.Delete("/:id/favorite", required, c.RecipeHandler.RemoveFavorite)
		recipes.Post("/:id/shopping_cart", required, c.RecipeHandler.AddToShoppingCart)
		recipes.Delete("/:id/shopping_cart", required, c.RecipeHandler.RemoveFromShoppingCart)
	}
}
