package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core/quiz"
	"github.com/trezcool/examprep/core/user"
)

type quizApi struct {
	svc      *quiz.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

func registerQuizAPI(g *echo.Group, jwt, optionalJWT, active echo.MiddlewareFunc, deps ServerDeps) {
	api := quizApi{svc: deps.QuizSvc, usrSvc: deps.UserSvc, validate: deps.Validate}

	qg := g.Group("/quizzes")
	qg.GET("", api.query)
	qg.GET("/:id", api.retrieve, optionalJWT)
	qg.POST("/:id/submit", api.submit, jwt, active)
	qg.POST("", api.create, jwt, adminMiddleware())
	qg.DELETE("", api.destroyMultiple, jwt, adminMiddleware())
	qg.DELETE("/:id", api.destroy, jwt, adminMiddleware())
}

func (api *quizApi) query(ctx echo.Context) error {
	filter := new(quiz.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []quiz.Quiz{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	quizzes, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying quizzes")
	}
	if quizzes == nil {
		quizzes = []quiz.Quiz{}
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

// retrieve returns the quiz with its questions; correct answers are only shown to admins.
func (api *quizApi) retrieve(ctx echo.Context) error {
	q, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding quiz by ID")
	}
	if claims, err := getContextClaims(ctx); err != nil || !claims.IsAdmin {
		q = q.WithoutAnswers()
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *quizApi) create(ctx echo.Context) error {
	var data quiz.NewQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	q, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating quiz")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *quizApi) submit(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data quiz.Submission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	res, err := api.svc.Submit(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "submitting quiz")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *quizApi) destroy(ctx echo.Context) error {
	q, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding quiz by ID")
	}
	if err := api.svc.Delete(ctx.Request().Context(), q.ID); err != nil {
		return errors.Wrap(err, "deleting quiz")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *quizApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting quizzes")
	}
	return ctx.NoContent(http.StatusNoContent)
}
