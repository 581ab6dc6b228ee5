package main

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tkamala/darasa/core"
	"github.com/tkamala/darasa/core/enrollment"
	"github.com/tkamala/darasa/core/grade"
	"github.com/tkamala/darasa/core/user"
)

// loadSample seeds a demo admin, teacher, student, course, enrollment and
// grade for local development.
func (cli *commandLine) loadSample() error {
	ctx := context.Background()
	now := time.Now().UTC()

	seed := func(usr user.User, pwd string) (user.User, error) {
		if err := usr.SetPassword(pwd); err != nil {
			return user.User{}, err
		}
		usr.IsActive = true
		return cli.usrRepo.UpdateOrCreateUser(ctx, usr)
	}

	if _, err := seed(user.User{
		Username: "admin",
		Email:    "admin@university.edu.cn",
		FullName: "系统管理员",
		Role:     user.RoleAdmin,
	}, "admin123"); err != nil {
		return err
	}

	teacher, err := seed(user.User{
		Username:      "zhangwei",
		Email:         "zhang.wei@university.edu.cn",
		FullName:      "张伟",
		Role:          user.RoleTeacher,
		TeacherNumber: null.StringFrom("T001"),
	}, "teacher123")
	if err != nil {
		return err
	}

	student, err := seed(user.User{
		Username:      "chenjie",
		Email:         "chen.jie@university.edu.cn",
		FullName:      "陈杰",
		Role:          user.RoleStudent,
		StudentNumber: null.StringFrom("2024001"),
	}, "student123")
	if err != nil {
		return err
	}

	if _, err := cli.ds.ExecuteStatement(ctx, `
INSERT INTO courses (course_code, course_name, description, credits, semester, teacher_id, created_at, updated_at)
VALUES (:course_code, :course_name, :description, :credits, :semester, :teacher_id, :created_at, :updated_at)
ON CONFLICT (course_code) DO NOTHING`,
		map[string]interface{}{
			"course_code": "CS301",
			"course_name": "数据结构与算法",
			"description": "本课程介绍基本的数据结构和算法",
			"credits":     4,
			"semester":    "Fall",
			"teacher_id":  teacher.ID,
			"created_at":  now,
			"updated_at":  now,
		}); err != nil {
		return err
	}
	crs, err := cli.crsRepo.GetCourseByCode(ctx, "CS301")
	if err != nil {
		return err
	}

	metrics := grade.CalculateMetrics(85, 100)
	g := grade.Grade{
		StudentID:    student.ID,
		CourseID:     crs.ID,
		Score:        85,
		MaxScore:     100,
		Percentage:   metrics.Percentage,
		LetterGrade:  metrics.LetterGrade,
		GpaPoints:    metrics.GpaPoints,
		GradePoints:  metrics.GradePoints,
		GradeType:    grade.TypeMidterm,
		Weight:       0.3,
		AcademicYear: "2024-2025",
		Semester:     "Fall",
		Status:       grade.StatusSubmitted,
		SubmittedBy:  teacher.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	enr := enrollment.Enrollment{
		StudentID:    student.ID,
		CourseID:     crs.ID,
		Status:       enrollment.StatusEnrolled,
		IsActive:     true,
		EnrolledAt:   now,
		AcademicYear: "2024-2025",
		Semester:     "Fall",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := cli.ds.BatchInsert(ctx, enrollment.Enrollment{}, []core.Record{enr.Record()}); err != nil {
		return err
	}
	return cli.ds.BatchInsert(ctx, grade.Grade{}, []core.Record{g.Record()})
}
