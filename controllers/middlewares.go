package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"virtualwardrobe/apperrors"
	"virtualwardrobe/logging"
	"virtualwardrobe/metrics"
	"virtualwardrobe/repository"
	"virtualwardrobe/services"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const identityKey = "identity"

// AuthMiddleware validates the bearer token with the configured identity
// provider and stores the *services.Identity under "identity".
func AuthMiddleware(provider services.IdentityProvider) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: identityKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return provider.Verify(c.Request().Context(), auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if appErr, ok := apperrors.As(err); ok {
				return appErr
			}
			return apperrors.Unauthenticated("No token provided", err)
		},
	})
}

func UserMiddleware(users *repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := c.Get(identityKey).(*services.Identity)
			if !ok || identity.UserID == "" {
				return apperrors.Unauthenticated("Invalid token", nil)
			}
			user, err := users.FindByID(c.Request().Context(), identity.UserID)
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.Unauthenticated("Invalid token", err)
			}
			if err != nil {
				return apperrors.Internal("Failed to load user", err)
			}
			if user.Banned {
				return apperrors.Forbidden("Account is disabled", nil)
			}
			c.Set("currentUser", *user)
			return next(c)
		}
	}
}

// RateLimiter limits by client IP. With a redis client the window is shared
// across instances, otherwise echo's in-memory store is used.
func RateLimiter(client redis.Cmdable, prefix string, max int, window time.Duration) echo.MiddlewareFunc {
	var store middleware.RateLimiterStore
	if client != nil {
		store = services.NewRedisRateLimiterStore(client, prefix, max, window)
	} else {
		store = middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(max) / window.Seconds()),
			Burst:     max,
			ExpiresIn: window,
		})
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return apperrors.Forbidden("Unable to identify client", err)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			if err != nil {
				return apperrors.Upstream("Service temporarily unavailable", true, fmt.Errorf("rate limiter %s: %w", prefix, err))
			}
			return apperrors.RateLimited("Too many requests, please try again later")
		},
	})
}

// RequestLogger tags each request with an id, applies the request timeout,
// then logs and counts the response.
func RequestLogger(logger logging.Logger, timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Set("request_id", requestID)
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			if timeout > 0 {
				ctx, cancel := context.WithTimeout(req.Context(), timeout)
				defer cancel()
				c.SetRequest(req.WithContext(ctx))
			}

			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			elapsed := time.Since(start)
			metrics.HTTPRequests.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()
			metrics.HTTPDuration.WithLabelValues(req.Method, route).Observe(elapsed.Seconds())

			fields := logging.Fields{
				"request_id":  requestID,
				"method":      req.Method,
				"path":        req.URL.Path,
				"status":      status,
				"duration_ms": elapsed.Milliseconds(),
				"remote_ip":   c.RealIP(),
			}
			if status >= http.StatusInternalServerError {
				logger.Error("request failed", fields)
			} else {
				logger.Info("request", fields)
			}
			return nil
		}
	}
}

// NewHTTPErrorHandler renders every error as {"error": message}. Causes are
// logged and 5xx errors reported, never returned.
func NewHTTPErrorHandler(logger logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		appErr, ok := apperrors.As(err)
		if !ok {
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				appErr = fromHTTPError(httpErr)
			} else if errors.Is(err, context.DeadlineExceeded) {
				appErr = apperrors.Upstream("Request timed out", true, err)
			} else {
				appErr = apperrors.Internal("Internal server error", err)
			}
		}

		if appErr.Status >= http.StatusInternalServerError {
			logger.Error("request error", logging.Fields{
				"request_id": c.Get("request_id"),
				"path":       c.Request().URL.Path,
				"stage":      appErr.Stage,
				"error":      err.Error(),
			})
			if hub := sentryecho.GetHubFromContext(c); hub != nil {
				hub.CaptureException(err)
			} else {
				sentry.CaptureException(err)
			}
		}

		var body interface{}
		switch {
		case appErr.Kind == apperrors.KindValidation && len(appErr.Fields) > 0:
			body = echo.Map{"error": "Validation error", "errors": appErr.Fields}
		case appErr.Kind == apperrors.KindInternal:
			body = echo.Map{"error": "Internal server error"}
		default:
			body = echo.Map{"error": appErr.Message}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(appErr.Status)
		} else {
			err = c.JSON(appErr.Status, body)
		}
		if err != nil {
			logger.Error("failed to write error response", logging.Fields{"error": err.Error()})
		}
	}
}

func fromHTTPError(httpErr *echo.HTTPError) *apperrors.Error {
	message := http.StatusText(httpErr.Code)
	if m, ok := httpErr.Message.(string); ok && m != "" {
		message = m
	}
	switch {
	case httpErr.Code == http.StatusUnauthorized:
		return apperrors.Unauthenticated(message, httpErr)
	case httpErr.Code == http.StatusForbidden:
		return apperrors.Forbidden(message, httpErr)
	case httpErr.Code == http.StatusNotFound:
		return apperrors.NotFound(message, httpErr)
	case httpErr.Code == http.StatusTooManyRequests:
		return apperrors.RateLimited(message)
	case httpErr.Code < http.StatusInternalServerError:
		e := apperrors.Validation(message)
		e.Status = httpErr.Code
		e.Err = httpErr
		return e
	}
	return apperrors.Internal("Internal server error", httpErr)
}
