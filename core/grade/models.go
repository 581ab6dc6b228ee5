package grade

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tkamala/darasa/core"
)

// Grade types
const (
	TypeMidterm    = "midterm"
	TypeFinal      = "final"
	TypeAssignment = "assignment"
	TypeQuiz       = "quiz"
)

// Grade statuses
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusPublished = "published"
)

var AllTypes = []string{TypeMidterm, TypeFinal, TypeAssignment, TypeQuiz}

type (
	Grade struct {
		ID           int         `db:"id" json:"id"`
		StudentID    int         `db:"student_id" json:"student_id"`
		CourseID     int         `db:"course_id" json:"course_id"`
		Score        float64     `db:"score" json:"score"`
		MaxScore     float64     `db:"max_score" json:"max_score"`
		Percentage   float64     `db:"percentage" json:"percentage"`
		LetterGrade  string      `db:"letter_grade" json:"letter_grade"`
		GpaPoints    float64     `db:"gpa_points" json:"gpa_points"`
		GradePoints  float64     `db:"grade_points" json:"grade_points"`
		GradeType    string      `db:"grade_type" json:"grade_type"`
		Weight       float64     `db:"weight" json:"weight"`
		AcademicYear string      `db:"academic_year" json:"academic_year"`
		Semester     string      `db:"semester" json:"semester"`
		Status       string      `db:"status" json:"status"`
		IsFinal      bool        `db:"is_final" json:"is_final"`
		IsPublished  bool        `db:"is_published" json:"is_published"`
		SubmittedBy  int         `db:"submitted_by" json:"submitted_by"`
		Comments     null.String `db:"comments" json:"comments,omitempty"`
		Feedback     null.String `db:"feedback" json:"feedback,omitempty"`
		CreatedAt    time.Time   `db:"created_at" json:"created_at"`
		UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
	}

	// Metrics are the derived figures of one score.
	Metrics struct {
		Percentage  float64
		LetterGrade string
		GpaPoints   float64
		GradePoints float64
	}

	// QueryFilter applies AND operation on available fields.
	QueryFilter struct {
		CourseCode   string
		AcademicYear string
		Semester     string
		GradeType    string
	}

	// ExportRow is one grade joined with its student and course, as exported.
	ExportRow struct {
		StudentNumber null.String `db:"student_number"`
		FullName      string      `db:"full_name"`
		CourseCode    string      `db:"course_code"`
		CourseName    string      `db:"course_name"`
		Score         float64     `db:"score"`
		MaxScore      float64     `db:"max_score"`
		Percentage    float64     `db:"percentage"`
		LetterGrade   string      `db:"letter_grade"`
		GpaPoints     float64     `db:"gpa_points"`
		GradeType     string      `db:"grade_type"`
		AcademicYear  string      `db:"academic_year"`
		Semester      string      `db:"semester"`
		Status        string      `db:"status"`
		Comments      null.String `db:"comments"`
	}

	Repository interface {
		// GradeExists reports whether a grade is already recorded for the
		// same student, course, type, academic year and semester.
		GradeExists(ctx context.Context, studentID, courseID int, gradeType, academicYear, semester string) (bool, error)
		FilterGrades(ctx context.Context, filter QueryFilter) ([]ExportRow, error)
	}
)

func ValidType(gradeType string) bool {
	for _, t := range AllTypes {
		if t == gradeType {
			return true
		}
	}
	return false
}

// CalculateMetrics derives the percentage, letter grade and grade points
// of a score on the Chinese 4.0 GPA scale.
func CalculateMetrics(score, maxScore float64) Metrics {
	pct := score / maxScore * 100

	var gpa float64
	switch {
	case pct >= 90:
		gpa = 4.0
	case pct >= 85:
		gpa = 3.7
	case pct >= 82:
		gpa = 3.3
	case pct >= 78:
		gpa = 3.0
	case pct >= 75:
		gpa = 2.7
	case pct >= 72:
		gpa = 2.3
	case pct >= 68:
		gpa = 2.0
	case pct >= 64:
		gpa = 1.5
	case pct >= 60:
		gpa = 1.0
	}

	var letter string
	switch {
	case pct >= 90:
		letter = "A"
	case pct >= 80:
		letter = "B"
	case pct >= 70:
		letter = "C"
	case pct >= 60:
		letter = "D"
	default:
		letter = "F"
	}

	var points float64
	switch {
	case pct >= 95:
		points = 4.0
	case pct >= 90:
		points = 3.8
	case pct >= 85:
		points = 3.6
	case pct >= 80:
		points = 3.2
	case pct >= 75:
		points = 2.8
	case pct >= 70:
		points = 2.4
	case pct >= 65:
		points = 2.0
	case pct >= 60:
		points = 1.6
	}

	return Metrics{Percentage: pct, LetterGrade: letter, GpaPoints: gpa, GradePoints: points}
}

// Table mapping for the batch writer.

func (Grade) TableName() string { return "grades" }

func (Grade) Columns() []string {
	return []string{
		"student_id", "course_id", "score", "max_score", "percentage",
		"letter_grade", "gpa_points", "grade_points", "grade_type", "weight",
		"academic_year", "semester", "status", "is_final", "is_published",
		"submitted_by", "comments", "feedback", "created_at", "updated_at",
	}
}

// Record maps the grade to the batch writer's row shape.
func (g Grade) Record() core.Record {
	return core.Record{
		"student_id":    g.StudentID,
		"course_id":     g.CourseID,
		"score":         g.Score,
		"max_score":     g.MaxScore,
		"percentage":    g.Percentage,
		"letter_grade":  g.LetterGrade,
		"gpa_points":    g.GpaPoints,
		"grade_points":  g.GradePoints,
		"grade_type":    g.GradeType,
		"weight":        g.Weight,
		"academic_year": g.AcademicYear,
		"semester":      g.Semester,
		"status":        g.Status,
		"is_final":      g.IsFinal,
		"is_published":  g.IsPublished,
		"submitted_by":  g.SubmittedBy,
		"comments":      g.Comments,
		"feedback":      g.Feedback,
		"created_at":    g.CreatedAt,
		"updated_at":    g.UpdatedAt,
	}
}
