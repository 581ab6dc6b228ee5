package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tkamala/darasa/core/batch"
	"github.com/tkamala/darasa/core/grade"
)

// ImportRequest carries the form fields of a grade sheet upload.
type ImportRequest struct {
	SubmittedBy int `json:"submitted_by" validate:"min=0"`
	Async       bool
	Options     batch.Options
}

func (req *ImportRequest) Bind(ctx echo.Context) {
	req.Options = batch.DefaultOptions()

	req.SubmittedBy, _ = strconv.Atoi(ctx.FormValue("submitted_by"))
	req.Async = formBool(ctx, "async", false)
	req.Options.SkipDuplicates = formBool(ctx, "skip_duplicates", true)
	req.Options.ValidateOnly = formBool(ctx, "validate_only", false)
	if v, err := strconv.Atoi(ctx.FormValue("chunk_size")); err == nil && v > 0 {
		req.Options.ChunkSize = v
	}
	if v, err := strconv.Atoi(ctx.FormValue("max_errors")); err == nil && v > 0 {
		req.Options.MaxErrors = v
	}
	if emails := ctx.FormValue("notify_emails"); emails != "" {
		for _, addr := range strings.Split(emails, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				req.Options.NotifyEmails = append(req.Options.NotifyEmails, addr)
			}
		}
	}
}

// ExportFilter narrows a grade export; fields are ANDed when set.
type ExportFilter struct {
	Filter grade.QueryFilter
}

func (f *ExportFilter) Bind(ctx echo.Context) {
	f.Filter = grade.QueryFilter{
		CourseCode:   ctx.QueryParam("course_code"),
		AcademicYear: ctx.QueryParam("academic_year"),
		Semester:     ctx.QueryParam("semester"),
		GradeType:    ctx.QueryParam("grade_type"),
	}
}

func formBool(ctx echo.Context, name string, fallback bool) bool {
	val := ctx.FormValue(name)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
