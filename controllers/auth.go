package controllers

import (
	"errors"
	"net/http"
	"strings"

	"virtualwardrobe/apperrors"
	"virtualwardrobe/logging"
	"virtualwardrobe/models"
	"virtualwardrobe/repository"
	"virtualwardrobe/services"

	"github.com/labstack/echo/v4"
)

type AuthController struct {
	Users  *repository.UserRepository
	Tokens *services.TokenIssuer
	Logger logging.Logger
}

func (m *AuthController) AuthRoutes(g *echo.Group) {
	g.POST("/register", func(c echo.Context) error {
		in := new(models.RegisterIn)
		if err := bindAndValidate(c, in); err != nil {
			return err
		}
		ctx := c.Request().Context()

		_, err := m.Users.FindByEmail(ctx, in.Email)
		if err == nil {
			return apperrors.Conflict("User already exists", nil)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return apperrors.Internal("An error occurred during registration", err)
		}

		hash, err := services.HashPassword(in.Password)
		if err != nil {
			return apperrors.Internal("An error occurred during registration", err)
		}
		userName := strings.TrimSpace(in.UserName)
		if userName == "" {
			userName = strings.SplitN(in.Email, "@", 2)[0]
		}
		user := &models.UserAccount{
			Email:        in.Email,
			UserName:     userName,
			PasswordHash: hash,
			Provider:     models.ProviderLocal,
			LastIp:       c.RealIP(),
		}
		if err := m.Users.Create(ctx, user); err != nil {
			return apperrors.Internal("An error occurred during registration", err)
		}
		m.Logger.Info("user registered", logging.Fields{"user_id": user.ID})
		return c.JSON(http.StatusCreated, models.SuccessOut{Success: true, Message: "User registered successfully"})
	})

	g.POST("/login", func(c echo.Context) error {
		in := new(models.LoginIn)
		if err := bindAndValidate(c, in); err != nil {
			return err
		}
		user, err := m.Users.FindByEmail(c.Request().Context(), in.Email)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Unauthenticated("Invalid credentials", nil)
		}
		if err != nil {
			return apperrors.Internal("An error occurred during login", err)
		}
		if user.PasswordHash == "" || !services.CheckPassword(user.PasswordHash, in.Password) {
			return apperrors.Unauthenticated("Invalid credentials", nil)
		}
		if user.Banned {
			return apperrors.Forbidden("Account is disabled", nil)
		}

		pair, err := m.Tokens.Issue(user)
		if err != nil {
			return apperrors.Internal("An error occurred during login", err)
		}
		return c.JSON(http.StatusOK, models.LoginOut{
			Token:        pair.Token,
			RefreshToken: pair.RefreshToken,
			User:         models.UserProfileOut{UID: user.ID, Email: user.Email, UserName: user.UserName},
		})
	})

	g.POST("/refresh", func(c echo.Context) error {
		in := new(models.RefreshIn)
		if err := c.Bind(in); err != nil {
			return apperrors.Validation("Invalid request body")
		}
		if in.RefreshToken == "" {
			return apperrors.Validation("Refresh token is required")
		}
		userID, err := m.Tokens.ParseRefresh(in.RefreshToken)
		if err != nil {
			return err
		}
		user, err := m.Users.FindByID(c.Request().Context(), userID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Unauthenticated("Failed to refresh token", err)
		}
		if err != nil {
			return apperrors.Internal("Failed to refresh token", err)
		}
		pair, err := m.Tokens.Issue(user)
		if err != nil {
			return apperrors.Internal("Failed to refresh token", err)
		}
		return c.JSON(http.StatusOK, pair)
	})
}
