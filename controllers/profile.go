package controllers

import (
	"net/http"

	"virtualwardrobe/apperrors"
	"virtualwardrobe/models"
	"virtualwardrobe/repository"

	"github.com/labstack/echo/v4"
)

type ProfileController struct {
	Users *repository.UserRepository
}

func (controller *ProfileController) ProfileRoutes(g *echo.Group) {
	g.GET("/me", func(c echo.Context) error {
		user, err := currentUser(c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, models.UserProfileOut{UID: user.ID, Email: user.Email, UserName: user.UserName})
	})

	g.POST("/push-token", func(c echo.Context) error {
		user, err := currentUser(c)
		if err != nil {
			return err
		}
		in := new(models.UserPushIn)
		if err := bindAndValidate(c, in); err != nil {
			return err
		}
		if err := controller.Users.SavePushToken(c.Request().Context(), user.ID, *in); err != nil {
			return apperrors.Internal("Failed to register push token", err)
		}
		return c.JSON(http.StatusOK, models.SuccessOut{Success: true})
	})
}
