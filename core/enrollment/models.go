package enrollment

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tkamala/darasa/core"
)

// Enrollment statuses
const (
	StatusPending   = "pending"
	StatusEnrolled  = "enrolled"
	StatusDropped   = "dropped"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusWithdrawn = "withdrawn"
)

type Enrollment struct {
	ID        int    `db:"id" json:"id"`
	StudentID int    `db:"student_id" json:"student_id"`
	CourseID  int    `db:"course_id" json:"course_id"`
	Status    string `db:"status" json:"status"`
	IsActive  bool   `db:"is_active" json:"is_active"`

	EnrolledAt  time.Time `db:"enrolled_at" json:"enrolled_at"`
	DroppedAt   null.Time `db:"dropped_at" json:"dropped_at,omitempty"`
	CompletedAt null.Time `db:"completed_at" json:"completed_at,omitempty"`

	AcademicYear string `db:"academic_year" json:"academic_year"`
	Semester     string `db:"semester" json:"semester"`

	FinalGrade  null.Float64 `db:"final_grade" json:"final_grade,omitempty"`
	GpaPoints   null.Float64 `db:"gpa_points" json:"gpa_points,omitempty"`
	LetterGrade null.String  `db:"letter_grade" json:"letter_grade,omitempty"`
	IsPassed    null.Bool    `db:"is_passed" json:"is_passed,omitempty"`

	AttendanceRate  float64 `db:"attendance_rate" json:"attendance_rate"`
	TotalClasses    int     `db:"total_classes" json:"total_classes"`
	AttendedClasses int     `db:"attended_classes" json:"attended_classes"`

	Notes null.String `db:"notes" json:"notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Table mapping for the batch writer.

func (Enrollment) TableName() string { return "enrollments" }

func (Enrollment) Columns() []string {
	return []string{
		"student_id", "course_id", "status", "is_active", "enrolled_at",
		"dropped_at", "completed_at", "academic_year", "semester",
		"final_grade", "gpa_points", "letter_grade", "is_passed",
		"attendance_rate", "total_classes", "attended_classes", "notes",
		"created_at", "updated_at",
	}
}

// Record maps the enrollment to the batch writer's row shape.
func (e Enrollment) Record() core.Record {
	return core.Record{
		"student_id":       e.StudentID,
		"course_id":        e.CourseID,
		"status":           e.Status,
		"is_active":        e.IsActive,
		"enrolled_at":      e.EnrolledAt,
		"dropped_at":       e.DroppedAt,
		"completed_at":     e.CompletedAt,
		"academic_year":    e.AcademicYear,
		"semester":         e.Semester,
		"final_grade":      e.FinalGrade,
		"gpa_points":       e.GpaPoints,
		"letter_grade":     e.LetterGrade,
		"is_passed":        e.IsPassed,
		"attendance_rate":  e.AttendanceRate,
		"total_classes":    e.TotalClasses,
		"attended_classes": e.AttendedClasses,
		"notes":            e.Notes,
		"created_at":       e.CreatedAt,
		"updated_at":       e.UpdatedAt,
	}
}
