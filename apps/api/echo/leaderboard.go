package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-leaderboard/core/badge"
	"github.com/trezcool/masomo-leaderboard/core/leaderboard"
	"github.com/trezcool/masomo-leaderboard/core/score"
)

type leaderboardApi struct {
	svc      *leaderboard.Service
	scoreSvc *score.Service
	awarder  *badge.Awarder
	validate *validator.Validate
}

type (
	BadgesResponse struct {
		Badges badge.Ladder `json:"badges"`
	}

	AwardsResponse struct {
		Awarded []string `json:"awarded"`
	}
)

func registerLeaderboardAPI(
	g *echo.Group,
	svc *leaderboard.Service,
	scoreSvc *score.Service,
	awarder *badge.Awarder,
	validate *validator.Validate,
) {
	api := leaderboardApi{
		svc:      svc,
		scoreSvc: scoreSvc,
		awarder:  awarder,
		validate: validate,
	}

	lg := g.Group("/leaderboard")
	lg.GET("", api.get)
	lg.GET("/badges", api.badges)

	// points ledger hooks
	lg.POST("/points", api.addPoints)
	lg.POST("/awards", api.award)
}

// Handlers

func (api *leaderboardApi) get(ctx echo.Context) error {
	params := new(LeaderboardParams)
	params.Bind(ctx)

	res, err := api.svc.Get(ctx.Request().Context(), params.Query)
	if err != nil {
		return errors.Wrap(err, "getting leaderboard")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *leaderboardApi) badges(ctx echo.Context) error {
	ladder, err := api.svc.Badges(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing badges")
	}
	return ctx.JSON(http.StatusOK, BadgesResponse{Badges: ladder})
}

func (api *leaderboardApi) addPoints(ctx echo.Context) error {
	var data score.NewPoints
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPoints")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.scoreSvc.AddPoints(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding points")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *leaderboardApi) award(ctx echo.Context) error {
	var data badge.NewAward
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAward")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	awarded, err := api.awarder.AwardEligible(ctx.Request().Context(), data.UserID, data.TotalPoints)
	if err != nil {
		return errors.Wrap(err, "awarding badges")
	}
	if awarded == nil {
		awarded = []string{}
	}
	return ctx.JSON(http.StatusOK, AwardsResponse{Awarded: awarded})
}
