package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/gamification"
	"github.com/trezcool/examprep/core/study"
	"github.com/trezcool/examprep/core/user"
)

const (
	pdfFileField = "pdf_file"

	msgMaterialCreated  = "Study material created successfully."
	msgProcessingFailed = "Failed to process content."
	msgCompletionFailed = "Failed to complete milestone."
)

type (
	studyApi struct {
		svc      *study.Service
		gameSvc  *gamification.Service
		usrSvc   *user.Service
		logger   core.Logger
		validate *validator.Validate
	}

	MaterialDetail struct {
		study.Material
		Progress gamification.Stats `json:"progress"`
	}

	MilestoneCompletion struct {
		Status    string   `json:"status"`
		XPEarned  int      `json:"xp_earned"`
		NewBadges []string `json:"new_badges"`
	}
)

func registerStudyAPI(g *echo.Group, jwt, active echo.MiddlewareFunc, deps ServerDeps) {
	api := studyApi{
		svc:      deps.StudySvc,
		gameSvc:  deps.GamificationSvc,
		usrSvc:   deps.UserSvc,
		logger:   deps.Logger,
		validate: deps.Validate,
	}

	sg := g.Group("/study-materials", jwt, active)
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.GET("/:id", api.retrieve)
	sg.DELETE("/:id", api.destroy)

	g.POST("/study-milestones/:id/complete", api.completeMilestone, jwt, active)
}

// create saves a study material from a webpage URL or an uploaded PDF; the URL wins when both are given.
func (api *studyApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data study.URLSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to URLSubmission")
	}
	data.Clean()

	var materialID string
	switch {
	case data.URL != "":
		if err := api.validate.Struct(data); err != nil {
			return api.statusError(ctx, http.StatusBadRequest, "Enter a valid URL.")
		}
		materialID, err = api.svc.CreateFromURL(ctx.Request().Context(), usr, data.URL)
	case isMultipart(ctx):
		fh, ferr := ctx.FormFile(pdfFileField)
		if ferr != nil {
			if ferr == http.ErrMissingFile {
				return api.statusError(ctx, http.StatusBadRequest, study.ErrNoSource.Error())
			}
			return errors.Wrap(ferr, "reading uploaded file")
		}
		file, ferr := fh.Open()
		if ferr != nil {
			return errors.Wrap(ferr, "opening uploaded file")
		}
		defer file.Close()
		materialID, err = api.svc.CreateFromPDF(ctx.Request().Context(), usr, file, fh.Size, fh.Filename)
	default:
		return api.statusError(ctx, http.StatusBadRequest, study.ErrNoSource.Error())
	}

	if err != nil {
		if vErr, ok := errors.Cause(err).(*core.ValidationError); ok {
			return api.statusError(ctx, http.StatusBadRequest, vErr.Error())
		}
		api.logger.Error("creating study material", err, usr)
		return api.statusError(ctx, http.StatusInternalServerError, msgProcessingFailed)
	}

	xp := gamification.AwardXP(gamification.ActionReadMaterial)
	return ctx.JSON(http.StatusOK, StatusResponse{
		Status:     statusSuccess,
		Message:    msgMaterialCreated,
		MaterialID: materialID,
		XPEarned:   &xp,
	})
}

func (api *studyApi) query(ctx echo.Context) error {
	filter := new(study.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []study.Material{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	materials, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying study materials")
	}
	if materials == nil {
		materials = []study.Material{}
	}
	return ctx.JSON(http.StatusOK, materials)
}

func (api *studyApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	m, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding study material by ID")
	}
	stats, err := api.gameSvc.GetProgressStats(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "getting progress stats")
	}
	return ctx.JSON(http.StatusOK, MaterialDetail{Material: m, Progress: stats})
}

func (api *studyApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		if errors.Cause(err) == study.ErrForbidden {
			return errHttpForbidden
		}
		return errors.Wrap(err, "deleting study material")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studyApi) completeMilestone(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	milestone, err := api.svc.GetMilestone(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding milestone by ID")
	}

	res, err := api.gameSvc.CompleteMilestone(ctx.Request().Context(), usr, milestone)
	if err != nil {
		api.logger.Error("completing milestone", err, usr)
		return api.statusError(ctx, http.StatusInternalServerError, msgCompletionFailed)
	}
	newBadges := res.NewBadges
	if newBadges == nil {
		newBadges = []string{}
	}
	return ctx.JSON(http.StatusOK, MilestoneCompletion{Status: statusSuccess, XPEarned: res.XPEarned, NewBadges: newBadges})
}

func (api *studyApi) statusError(ctx echo.Context, code int, msg string) error {
	return ctx.JSON(code, StatusResponse{Status: statusError, Message: msg})
}

func isMultipart(ctx echo.Context) bool {
	return strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}
