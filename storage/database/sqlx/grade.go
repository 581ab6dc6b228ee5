package sqlxrepos

import (
	"context"
	"strconv"
	"strings"

	"github.com/tkamala/darasa/core/grade"
	"github.com/tkamala/darasa/storage/database"
)

type gradeRepository struct {
	ds *database.Datastore
}

func NewGradeRepository(ds *database.Datastore) *gradeRepository {
	return &gradeRepository{ds: ds}
}

func (repo gradeRepository) GradeExists(ctx context.Context, studentID, courseID int, gradeType, academicYear, semester string) (bool, error) {
	query := `
SELECT EXISTS (
    SELECT 1 FROM grades
    WHERE student_id = $1 AND course_id = $2 AND grade_type = $3
      AND academic_year = $4 AND semester = $5
)`

	var exists bool
	err := repo.ds.DB().GetContext(ctx, &exists, query, studentID, courseID, gradeType, academicYear, semester)
	return exists, err
}

func (repo gradeRepository) FilterGrades(ctx context.Context, filter grade.QueryFilter) ([]grade.ExportRow, error) {
	query := `
SELECT u.student_number, u.full_name, c.course_code, c.course_name,
       g.score, g.max_score, g.percentage, g.letter_grade, g.gpa_points,
       g.grade_type, g.academic_year, g.semester, g.status, g.comments
FROM grades g
JOIN users u ON u.id = g.student_id
JOIN courses c ON c.id = g.course_id`

	var (
		conds []string
		args  []interface{}
	)
	if filter.CourseCode != "" {
		args = append(args, filter.CourseCode)
		conds = append(conds, "c.course_code = $"+strconv.Itoa(len(args)))
	}
	if filter.AcademicYear != "" {
		args = append(args, filter.AcademicYear)
		conds = append(conds, "g.academic_year = $"+strconv.Itoa(len(args)))
	}
	if filter.Semester != "" {
		args = append(args, filter.Semester)
		conds = append(conds, "g.semester = $"+strconv.Itoa(len(args)))
	}
	if filter.GradeType != "" {
		args = append(args, filter.GradeType)
		conds = append(conds, "g.grade_type = $"+strconv.Itoa(len(args)))
	}
	if len(conds) > 0 {
		query += "\nWHERE " + strings.Join(conds, " AND ")
	}
	query += "\nORDER BY u.student_number, c.course_code"

	rows := make([]grade.ExportRow, 0)
	if err := repo.ds.DB().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
