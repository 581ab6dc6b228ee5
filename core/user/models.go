package user

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/tkamala/darasa/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

var (
	AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent}

	ErrNotFound = errors.New("user not found")
)

type (
	User struct {
		ID            int         `db:"id" json:"id"`
		Email         string      `db:"email" json:"email"`
		Username      string      `db:"username" json:"username"`
		FullName      string      `db:"full_name" json:"full_name"`
		PasswordHash  []byte      `db:"password_hash" json:"-"`
		Role          string      `db:"role" json:"role"`
		IsActive      bool        `db:"is_active" json:"is_active"`
		StudentNumber null.String `db:"student_number" json:"student_number,omitempty"`
		TeacherNumber null.String `db:"teacher_number" json:"teacher_number,omitempty"`
		CreatedAt     time.Time   `db:"created_at" json:"created_at"`
		UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
	}

	// GetFilter narrows a single-user lookup; fields are ANDed when set.
	GetFilter struct {
		ID              int
		UsernameOrEmail []string
		StudentNumber   string
	}

	Repository interface {
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// GetStudentByNumber only matches active users with the student role.
		GetStudentByNumber(ctx context.Context, number string) (User, error)
		UpdateOrCreateUser(ctx context.Context, usr User) (User, error)
	}
)

func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsStudent() bool { return u.Role == RoleStudent }

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// Table mapping for the batch writer.

func (User) TableName() string { return "users" }

func (User) Columns() []string {
	return []string{
		"email", "username", "full_name", "password_hash", "role",
		"is_active", "student_number", "teacher_number", "created_at", "updated_at",
	}
}

// Record maps the user to the batch writer's row shape.
func (u User) Record() core.Record {
	return core.Record{
		"email":          u.Email,
		"username":       u.Username,
		"full_name":      u.FullName,
		"password_hash":  u.PasswordHash,
		"role":           u.Role,
		"is_active":      u.IsActive,
		"student_number": u.StudentNumber,
		"teacher_number": u.TeacherNumber,
		"created_at":     u.CreatedAt,
		"updated_at":     u.UpdatedAt,
	}
}
