package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/tkamala/darasa/core/course"
	"github.com/tkamala/darasa/storage/database"
)

type courseRepository struct {
	ds *database.Datastore
}

func NewCourseRepository(ds *database.Datastore) *courseRepository {
	return &courseRepository{ds: ds}
}

func (repo courseRepository) GetCourseByCode(ctx context.Context, code string) (course.Course, error) {
	query := `SELECT * FROM courses WHERE course_code = $1 LIMIT 1`

	var crs course.Course
	if err := repo.ds.DB().GetContext(ctx, &crs, query, code); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, err
	}
	return crs, nil
}
