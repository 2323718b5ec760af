package controllers

import (
	"net/http"

	"virtualwardrobe/models"
	"virtualwardrobe/suggestion"

	"github.com/labstack/echo/v4"
)

type SuggestionController struct {
	Service *suggestion.Service
}

func (controller *SuggestionController) SuggestionRoutes(g *echo.Group) {
	g.POST("/generate", controller.Generate)
}

func (controller *SuggestionController) Generate(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	in := new(models.GenerateSuggestionIn)
	if err := bindAndValidate(c, in); err != nil {
		return err
	}
	out, err := controller.Service.Generate(c.Request().Context(), user.ID, *in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}
