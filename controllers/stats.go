package controllers

import (
	"net/http"
	"time"

	"virtualwardrobe/apperrors"
	"virtualwardrobe/models"
	"virtualwardrobe/repository"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

type StatsController struct {
	Items *repository.WardrobeRepository
	Logs  *repository.OutfitLogRepository
	Now   func() time.Time
}

func (controller *StatsController) StatsRoutes(g *echo.Group) {
	g.GET("", controller.GetStats)
}

// StatsSince returns the first calendar date inside timeFrame, counted back
// from now.
func StatsSince(timeFrame models.StatsTimeFrame, now time.Time) (string, bool) {
	var since time.Time
	switch timeFrame {
	case models.TimeFrameWeek:
		since = now.AddDate(0, 0, -7)
	case models.TimeFrameMonth, "":
		since = now.AddDate(0, -1, 0)
	case models.TimeFrameYear:
		since = now.AddDate(-1, 0, 0)
	default:
		return "", false
	}
	return since.Format(models.CalendarDateLayout), true
}

func (controller *StatsController) GetStats(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	now := time.Now()
	if controller.Now != nil {
		now = controller.Now()
	}
	since, ok := StatsSince(models.StatsTimeFrame(c.QueryParam("timeFrame")), now)
	if !ok {
		return apperrors.Validation("Validation error", apperrors.FieldError{Field: "timeFrame", Message: "must be one of week, month, year"})
	}

	var out models.StatsOut
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() (err error) {
		out.ClothingTypes, err = controller.Items.CountByType(ctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		out.Collections, err = controller.Logs.CountByCollection(ctx, user.ID, since)
		return err
	})
	g.Go(func() (err error) {
		out.MonthlyUsage, err = controller.Logs.CountByMonth(ctx, user.ID, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return apperrors.Internal("Failed to fetch stats", err)
	}
	return c.JSON(http.StatusOK, out)
}
