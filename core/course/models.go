package course

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tkamala/darasa/core"
)

var ErrNotFound = errors.New("course not found")

type (
	Course struct {
		ID          int         `db:"id" json:"id"`
		CourseCode  string      `db:"course_code" json:"course_code"`
		CourseName  string      `db:"course_name" json:"course_name"`
		Description null.String `db:"description" json:"description,omitempty"`
		Credits     int         `db:"credits" json:"credits"`
		Semester    string      `db:"semester" json:"semester"`
		TeacherID   int         `db:"teacher_id" json:"teacher_id"`
		CreatedAt   time.Time   `db:"created_at" json:"created_at"`
		UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
	}

	Repository interface {
		GetCourseByCode(ctx context.Context, code string) (Course, error)
	}
)

func (Course) TableName() string { return "courses" }

func (Course) Columns() []string {
	return []string{
		"course_code", "course_name", "description", "credits",
		"semester", "teacher_id", "created_at", "updated_at",
	}
}

// Record maps the course to the batch writer's row shape.
func (c Course) Record() core.Record {
	return core.Record{
		"course_code": c.CourseCode,
		"course_name": c.CourseName,
		"description": c.Description,
		"credits":     c.Credits,
		"semester":    c.Semester,
		"teacher_id":  c.TeacherID,
		"created_at":  c.CreatedAt,
		"updated_at":  c.UpdatedAt,
	}
}
