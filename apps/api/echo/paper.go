package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core/paper"
)

var errPaperNotFoundInCtx = errors.New("paper object not found in echo.Context")

type paperApi struct {
	svc      *paper.Service
	validate *validator.Validate
}

func registerPaperAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := paperApi{svc: deps.PaperSvc, validate: deps.Validate}
	admin := adminMiddleware()

	pg := g.Group("/past-papers")
	pg.GET("", api.query)
	pg.POST("", api.create, jwt, admin)
	pg.DELETE("", api.destroyMultiple, jwt, admin)

	dg := pg.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, jwt, admin)
	dg.DELETE("", api.destroy, jwt, admin)
}

// objectMiddleware loads the paper `:id` into the context.
func (api *paperApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		p, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "finding paper by ID")
		}
		ctx.Set(contextObjectKey, p)
		return next(ctx)
	}
}

func (api *paperApi) query(ctx echo.Context) error {
	filter := new(paper.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []paper.Paper{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	papers, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying papers")
	}
	if papers == nil {
		papers = []paper.Paper{}
	}
	return ctx.JSON(http.StatusOK, papers)
}

func (api *paperApi) create(ctx echo.Context) error {
	var data paper.NewPaper
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPaper")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating paper")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *paperApi) retrieve(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(paper.Paper)
	if !ok {
		return errors.Wrap(errPaperNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *paperApi) update(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(paper.Paper)
	if !ok {
		return errors.Wrap(errPaperNotFoundInCtx, "retrieving object from context")
	}

	var data paper.NewPaper
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPaper")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "updating paper")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *paperApi) destroy(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(paper.Paper)
	if !ok {
		return errors.Wrap(errPaperNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), p.ID); err != nil {
		return errors.Wrap(err, "deleting paper")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *paperApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting papers")
	}
	return ctx.NoContent(http.StatusNoContent)
}
