package config

import (
	"foodgram/domain"
	"foodgram/internal/api/handlers"
	"foodgram/internal/api/presenters"
	"foodgram/internal/api/routes"
	"foodgram/internal/middleware"
	"foodgram/internal/utils"
	"foodgram/internal/utils/mailing"
	"foodgram/internal/utils/storage"
	"foodgram/pkg/follow"
	"foodgram/pkg/ingredient"
	"foodgram/pkg/jwt"
	"foodgram/pkg/recipe"
	"foodgram/pkg/tag"
	"foodgram/pkg/user"
	"io"
	"os"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// Dependencies are the outbound services the application is wired with.
type Dependencies struct {
	S3         storage.AwsS3
	Mailer     mailing.Mailer
	JWTService jwt.JWTService
	Enforcer   *casbin.Enforcer
	AppURL     string

	// LogOutput receives the access log.
	LogOutput io.Writer
	// LimiterStorage keeps rate limiter counters; nil uses process memory.
	LimiterStorage fiber.Storage
	// RateLimitMax is the number of requests allowed per client and second.
	// Zero disables the limiter.
	RateLimitMax int
}

// NewApp builds the application from the loaded configuration.
func NewApp(db *gorm.DB) (*fiber.App, error) {
	// setting up logging
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}

	enforcer, err := middleware.NewEnforcer()
	if err != nil {
		return nil, err
	}

	deps := Dependencies{
		S3:           storage.NewAwsS3(),
		Mailer:       mailing.NewMailer(mailing.LoadMailConfig()),
		JWTService:   jwt.NewJWTService(utils.GetConfig("JWT_SECRET")),
		Enforcer:     enforcer,
		AppURL:       utils.GetConfig("APP_URL"),
		LogOutput:    file,
		RateLimitMax: utils.GetConfigInt("RATE_LIMIT_MAX"),
	}

	if addr := utils.GetConfig("REDIS_ADDR"); addr != "" {
		redisStorage, err := storage.NewRedisStorage(addr, utils.GetConfig("REDIS_PASSWORD"))
		if err != nil {
			log.Warnf("redis unavailable at %s, rate limiter falls back to memory: %v", addr, err)
		} else {
			deps.LimiterStorage = redisStorage
		}
	}

	return NewAppWithDependencies(db, deps), nil
}

func NewAppWithDependencies(db *gorm.DB, deps Dependencies) *fiber.App {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: presenters.ErrorHandler,
	})
	middlewares := middleware.NewMiddleware(deps.Enforcer)
	validator := utils.Validate

	app.Use(recover.New())
	if deps.LogOutput != nil {
		app.Use(logger.New(logger.Config{
			TimeFormat: "2006-01-02 15:04:05",
			Output:     deps.LogOutput,
		}))
	}
	app.Use(middleware.Metrics())

	if deps.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        deps.RateLimitMax,
			Expiration: 1 * time.Second,
			Storage:    deps.LimiterStorage,
			LimitReached: func(c *fiber.Ctx) error {
				return presenters.ErrorResponse(c, fiber.StatusTooManyRequests, domain.MessageTooManyRequests, nil)
			},
		}))
	}

	// Repository
	userRepository := user.NewUserRepository(db)
	followRepository := follow.NewFollowRepository(db)
	tagRepository := tag.NewTagRepository(db)
	ingredientRepository := ingredient.NewIngredientRepository(db)
	recipeRepository := recipe.NewRecipeRepository(db)

	// Service
	userService := user.NewUserService(userRepository, deps.JWTService, deps.Mailer, deps.AppURL)
	followService := follow.NewFollowService(followRepository, userRepository)
	tagService := tag.NewTagService(tagRepository)
	ingredientService := ingredient.NewIngredientService(ingredientRepository)
	recipeService := recipe.NewRecipeService(
		recipeRepository,
		userRepository,
		tagRepository,
		ingredientRepository,
		deps.S3,
	)

	// Handler
	userHandler := handlers.NewUserHandler(userService, validator)
	followHandler := handlers.NewFollowHandler(followService)
	tagHandler := handlers.NewTagHandler(tagService, validator)
	ingredientHandler := handlers.NewIngredientHandler(ingredientService, validator)
	recipeHandler := handlers.NewRecipeHandler(recipeService, validator)

	// routes
	routesConfig := routes.Config{
		App:               app,
		UserHandler:       userHandler,
		FollowHandler:     followHandler,
		RecipeHandler:     recipeHandler,
		TagHandler:        tagHandler,
		IngredientHandler: ingredientHandler,
		Middleware:        middlewares,
		JWTService:        deps.JWTService,
	}
	routesConfig.Setup()
	return app
}
