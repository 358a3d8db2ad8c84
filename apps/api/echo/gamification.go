package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core/gamification"
	"github.com/trezcool/examprep/core/quiz"
	"github.com/trezcool/examprep/core/user"
)

type (
	gamificationApi struct {
		svc     *gamification.Service
		quizSvc *quiz.Service
		usrSvc  *user.Service
	}

	ProgressResponse struct {
		Quizzes []quiz.Progress    `json:"quizzes"`
		Stats   gamification.Stats `json:"stats"`
	}
)

func registerGamificationAPI(g *echo.Group, jwt, active echo.MiddlewareFunc, deps ServerDeps) {
	api := gamificationApi{svc: deps.GamificationSvc, quizSvc: deps.QuizSvc, usrSvc: deps.UserSvc}

	g.GET("/badges", api.badges)
	g.GET("/badges/me", api.userBadges, jwt, active)
	g.GET("/leaderboard", api.leaderboard, jwt, active)
	g.GET("/progress", api.progress, jwt, active)
}

func (api *gamificationApi) badges(ctx echo.Context) error {
	badges, err := api.svc.Badges(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying badges")
	}
	if badges == nil {
		badges = []gamification.Badge{}
	}
	return ctx.JSON(http.StatusOK, badges)
}

func (api *gamificationApi) userBadges(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	badges, err := api.svc.UserBadges(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying user badges")
	}
	if badges == nil {
		badges = []gamification.UserBadge{}
	}
	return ctx.JSON(http.StatusOK, badges)
}

// leaderboard returns the top users by XP; `limit` defaults to 10.
func (api *gamificationApi) leaderboard(ctx echo.Context) error {
	entries, err := api.svc.Leaderboard(ctx.Request().Context(), queryInt(ctx, "limit"))
	if err != nil {
		return errors.Wrap(err, "querying leaderboard")
	}
	if entries == nil {
		entries = []gamification.LeaderboardEntry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

// progress returns the quiz results and the gamification stats of the current user.
func (api *gamificationApi) progress(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	quizzes, err := api.quizSvc.UserProgress(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying quiz progress")
	}
	if quizzes == nil {
		quizzes = []quiz.Progress{}
	}
	stats, err := api.svc.GetProgressStats(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "getting progress stats")
	}
	return ctx.JSON(http.StatusOK, ProgressResponse{Quizzes: quizzes, Stats: stats})
}
