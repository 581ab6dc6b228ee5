package echoapi

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tkamala/darasa/core"
	"github.com/tkamala/darasa/core/batch"
)

type batchApi struct {
	conf *core.Config
	svc  *batch.Service
}

func registerBatchAPI(g *echo.Group, deps ServerDeps) {
	api := batchApi{
		conf: deps.Conf,
		svc:  deps.BatchSvc,
	}

	bg := g.Group("/batch")
	bg.POST("/grades/import", api.importGrades)
	bg.POST("/grades/validate", api.validateGrades)
	bg.GET("/tasks/:id", api.retrieveTask)
	bg.GET("/grades/export", api.exportGrades)
	bg.GET("/grades/template", api.template)
}

// Handlers

func (api *batchApi) importGrades(ctx echo.Context) error {
	var req ImportRequest
	req.Bind(ctx)
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	content, err := api.readUpload(ctx)
	if err != nil {
		return err
	}
	filename := uploadFilename(ctx)

	if req.Async {
		task := api.svc.ProcessFileAsync(content, filename, req.SubmittedBy, req.Options)
		return ctx.JSON(http.StatusAccepted, task)
	}

	res, err := api.svc.ProcessFile(ctx.Request().Context(), content, filename, req.SubmittedBy, req.Options)
	if err != nil {
		if err == batch.ErrUnsupportedFormat {
			return core.NewValidationError(err)
		}
		return errors.Wrap(err, "processing grade sheet")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *batchApi) validateGrades(ctx echo.Context) error {
	var req ImportRequest
	req.Bind(ctx)
	req.Options.ValidateOnly = true
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	content, err := api.readUpload(ctx)
	if err != nil {
		return err
	}

	res, err := api.svc.ProcessFile(ctx.Request().Context(), content, uploadFilename(ctx), req.SubmittedBy, req.Options)
	if err != nil {
		if err == batch.ErrUnsupportedFormat {
			return core.NewValidationError(err)
		}
		return errors.Wrap(err, "validating grade sheet")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *batchApi) retrieveTask(ctx echo.Context) error {
	task, err := api.svc.Task(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, task)
}

func (api *batchApi) exportGrades(ctx echo.Context) error {
	var filter ExportFilter
	filter.Bind(ctx)

	out, err := api.svc.Export(ctx.Request().Context(), filter.Filter)
	if err != nil {
		return errors.Wrap(err, "exporting grades")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="grades.csv"`)
	return ctx.Blob(http.StatusOK, "text/csv; charset=utf-8", out)
}

func (api *batchApi) template(ctx echo.Context) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="grade_import_template.csv"`)
	return ctx.Blob(http.StatusOK, "text/csv; charset=utf-8", api.svc.Template())
}

// Helpers

func (api *batchApi) readUpload(ctx echo.Context) ([]byte, error) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "file", Error: "a file upload is required"})
	}
	if fh.Size > api.conf.Batch.MaxUploadSize {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "opening upload")
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "reading upload")
	}
	return content, nil
}

func uploadFilename(ctx echo.Context) string {
	if fh, err := ctx.FormFile("file"); err == nil {
		return fh.Filename
	}
	return ""
}
