package controllers

import (
	"net/http"

	"virtualwardrobe/apperrors"
	"virtualwardrobe/config"
	"virtualwardrobe/logging"
	"virtualwardrobe/models"
	"virtualwardrobe/repository"
	"virtualwardrobe/services"
	"virtualwardrobe/suggestion"
	"virtualwardrobe/tasks"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 10MB image plus form fields
const bodyLimit = "11M"

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterValidation("platform", models.ValidatePlatform)
	v.RegisterValidation("calendar_date", models.ValidateCalendarDate)
	v.RegisterValidation("password_strength", models.ValidatePasswordStrength)
	for tag, category := range models.PreferenceValidationTags {
		v.RegisterValidation(tag, models.ValidatePreferenceOption(category))
	}
	return &CustomValidator{validator: v}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Validation("Invalid request body")
	}
	fields := make([]apperrors.FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, apperrors.FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
	}
	return apperrors.Validation("Validation error", fields...)
}

// Deps are the collaborators built once in main.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Identity  services.IdentityProvider
	Tokens    *services.TokenIssuer
	Store     services.ObjectStore
	URLs      services.URLCacheServiceProvider
	Generator suggestion.OutfitGenerator
	Enqueuer  tasks.Enqueuer
	// nil falls back to in-memory rate limiting
	Redis  redis.Cmdable
	Logger logging.Logger
}

func SetupServer(deps Deps) *echo.Echo {
	cfg := deps.Config
	logger := deps.Logger
	repos := repository.New(deps.DB)

	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(RequestLogger(logger, cfg.Server.RequestTimeout))
	e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit(bodyLimit))

	e.GET("/health", healthHandler(deps.DB))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	authLimiter := RateLimiter(deps.Redis, "auth", cfg.RateLimit.AuthMax, cfg.RateLimit.AuthWindow)
	apiLimiter := RateLimiter(deps.Redis, "api", cfg.RateLimit.APIMax, cfg.RateLimit.APIWindow)

	authController := AuthController{Users: repos.Users, Tokens: deps.Tokens, Logger: logger}
	authController.AuthRoutes(e.Group("/auth", authLimiter))

	protected := []echo.MiddlewareFunc{apiLimiter, AuthMiddleware(deps.Identity), UserMiddleware(repos.Users)}

	wardrobeController := WardrobeController{
		Items:    repos.Wardrobe,
		Store:    deps.Store,
		URLs:     deps.URLs,
		Enqueuer: deps.Enqueuer,
		Logger:   logger,
	}
	wardrobeController.WardrobeRoutes(e.Group("/wardrobe", protected...))

	collectionController := CollectionController{Collections: repos.Collections, Items: repos.Wardrobe, URLs: deps.URLs, Logger: logger}
	collectionController.CollectionRoutes(e.Group("/collections", protected...))

	calendarController := CalendarController{Logs: repos.OutfitLogs, Collections: repos.Collections, URLs: deps.URLs, Logger: logger}
	calendarController.CalendarRoutes(e.Group("/calendar", protected...))

	statsController := StatsController{Items: repos.Wardrobe, Logs: repos.OutfitLogs}
	statsController.StatsRoutes(e.Group("/stats", protected...))

	profileController := ProfileController{Users: repos.Users}
	profileController.ProfileRoutes(e.Group("/profile", protected...))

	suggestionController := SuggestionController{
		Service: suggestion.NewService(repos.Wardrobe, deps.Store, deps.Generator, deps.URLs, logger),
	}
	suggestionController.SuggestionRoutes(e.Group("/suggestions", protected...))

	return e
}

func healthHandler(db *gorm.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request().Context())
			}
			if err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}
