package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tkamala/darasa/core/user"
	"github.com/tkamala/darasa/storage/database"
)

type userRepository struct {
	ds *database.Datastore
}

func NewUserRepository(ds *database.Datastore) *userRepository {
	return &userRepository{ds: ds}
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.ID > 0 {
		args = append(args, filter.ID)
		conds = append(conds, "id = $"+strconv.Itoa(len(args)))
	}
	if len(filter.UsernameOrEmail) > 0 {
		var ors []string
		for _, val := range filter.UsernameOrEmail {
			args = append(args, strings.ToLower(val))
			n := strconv.Itoa(len(args))
			ors = append(ors, "lower(username) = $"+n+" OR lower(email) = $"+n)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}
	if filter.StudentNumber != "" {
		args = append(args, filter.StudentNumber)
		conds = append(conds, "student_number = $"+strconv.Itoa(len(args)))
	}
	if len(conds) == 0 {
		return user.User{}, user.ErrNotFound
	}

	query := `SELECT * FROM users WHERE ` + strings.Join(conds, " AND ") + ` LIMIT 1`

	var usr user.User
	if err := repo.ds.DB().GetContext(ctx, &usr, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return usr, nil
}

func (repo userRepository) GetStudentByNumber(ctx context.Context, number string) (user.User, error) {
	query := `SELECT * FROM users WHERE student_number = $1 AND role = $2 AND is_active LIMIT 1`

	var usr user.User
	if err := repo.ds.DB().GetContext(ctx, &usr, query, number, user.RoleStudent); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return usr, nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	now := time.Now().UTC()
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = now
	}
	usr.UpdatedAt = now

	query := `
INSERT INTO users (email, username, full_name, password_hash, role, is_active, student_number, teacher_number, created_at, updated_at)
VALUES (:email, :username, :full_name, :password_hash, :role, :is_active, :student_number, :teacher_number, :created_at, :updated_at)
ON CONFLICT (username) DO UPDATE
SET email = excluded.email, full_name = excluded.full_name, role = excluded.role,
    is_active = excluded.is_active, student_number = excluded.student_number,
    teacher_number = excluded.teacher_number, updated_at = excluded.updated_at
RETURNING id, created_at`

	rows, err := sqlx.NamedQueryContext(ctx, repo.ds.DB(), query, usr)
	if err != nil {
		return user.User{}, err
	}
	defer func() { _ = rows.Close() }()

	if rows.Next() {
		if err = rows.Scan(&usr.ID, &usr.CreatedAt); err != nil {
			return user.User{}, err
		}
	}
	return usr, rows.Err()
}
