package batch

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tkamala/darasa/core"
	"github.com/tkamala/darasa/core/course"
	"github.com/tkamala/darasa/core/grade"
	"github.com/tkamala/darasa/core/user"
)

// Writer is the transactional batch writer the import goes through;
// satisfied by the datastore.
type Writer interface {
	BatchInsert(ctx context.Context, ent core.BatchEntity, records []core.Record, batchSize ...int) error
}

var standardSemesters = []string{"春季", "秋季", "Spring", "Fall", "summer", "winter"}

// Row defaults applied when the uploaded sheet omits a column.
const (
	defaultGradeType    = "final"
	defaultAcademicYear = "2024-2025"
	defaultSemester     = "春季"
	defaultMaxScore     = 100.0
)

// Service runs grade sheet imports and exports on top of the session
// manager and the domain repositories.
type Service struct {
	conf     *core.Config
	logger   core.Logger
	ds       Writer
	users    user.Repository
	courses  course.Repository
	grades   grade.Repository
	mailer   core.EmailService
	validate *validator.Validate
	tasks    *TaskRegistry
}

func NewService(
	conf *core.Config,
	logger core.Logger,
	ds Writer,
	users user.Repository,
	courses course.Repository,
	grades grade.Repository,
	mailer core.EmailService,
) *Service {
	validate, _ := core.NewValidator()
	return &Service{
		conf:     conf,
		logger:   logger,
		ds:       ds,
		users:    users,
		courses:  courses,
		grades:   grades,
		mailer:   mailer,
		validate: validate,
		tasks:    NewTaskRegistry(),
	}
}

// ProcessFile parses an uploaded grade sheet and imports it.
func (s *Service) ProcessFile(ctx context.Context, content []byte, filename string, submittedBy int, opts Options) (*Result, error) {
	records, err := ParseFile(content)
	if err != nil {
		res := newResult(filename)
		res.complete(StatusFailed, res.CreatedAt)
		return res, err
	}

	res, err := s.Process(ctx, records, submittedBy, opts)
	res.FileName = filename
	return res, err
}

// ProcessFileAsync runs ProcessFile in the background and returns a
// snapshot of the pending task; its live status can be polled through Task.
func (s *Service) ProcessFileAsync(content []byte, filename string, submittedBy int, opts Options) Task {
	task := s.tasks.Create()

	go func() {
		s.tasks.update(task.ID, StatusProcessing, nil)
		res, err := s.ProcessFile(context.Background(), content, filename, submittedBy, opts)
		if err != nil {
			s.logger.Error("batch: import task failed", "task", task.ID, "err", err)
			s.tasks.update(task.ID, StatusFailed, res)
			return
		}
		s.tasks.update(task.ID, res.Status, res)
	}()
	return task
}

// Task returns the state of an asynchronous import.
func (s *Service) Task(id string) (Task, error) { return s.tasks.Get(id) }

type validRow struct {
	rowNumber int
	rec       core.Record
	studentID int
	courseID  int
}

// Process validates the parsed rows and writes the valid ones through the
// batch writer in one all-or-nothing transaction. The returned Result is
// always usable, also when err is non-nil.
func (s *Service) Process(ctx context.Context, records []core.Record, submittedBy int, opts Options) (*Result, error) {
	started := time.Now().UTC()
	res := newResult("")
	res.Status = StatusProcessing
	res.TotalRecords = len(records)

	valid := s.validateRows(ctx, records, res, opts.MaxErrors)

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = s.conf.Batch.ChunkSize
	}

	now := time.Now().UTC()
	toInsert := make([]core.Record, 0, len(valid))
	for _, row := range valid {
		if opts.SkipDuplicates {
			dup, err := s.grades.GradeExists(ctx, row.studentID, row.courseID,
				rowString(row.rec, "grade_type", defaultGradeType),
				rowString(row.rec, "academic_year", defaultAcademicYear),
				rowString(row.rec, "semester", defaultSemester))
			if err != nil {
				s.logger.Warn("batch: duplicate check failed", "row", row.rowNumber, "err", err)
			} else if dup {
				res.DuplicateRecords++
				continue
			}
		}
		toInsert = append(toInsert, s.buildGrade(row, submittedBy, now).Record())
	}

	if !opts.ValidateOnly && len(toInsert) > 0 {
		if err := s.ds.BatchInsert(ctx, grade.Grade{}, toInsert, chunkSize); err != nil {
			res.complete(StatusFailed, started)
			return res, err
		}
	}

	res.ProcessedRecords = len(valid)
	res.SuccessfulRecords = len(valid) - res.DuplicateRecords
	res.FailedRecords = len(res.Errors)
	res.complete(StatusCompleted, started)

	s.logger.Info("batch: import completed",
		"total", res.TotalRecords, "successful", res.SuccessfulRecords,
		"failed", res.FailedRecords, "duplicates", res.DuplicateRecords)

	s.notify(res, opts.NotifyEmails)
	return res, nil
}

// validateRows checks every row and files its issues on res. Data rows are
// numbered from 2 to match the uploaded sheet (row 1 is the header).
func (s *Service) validateRows(ctx context.Context, records []core.Record, res *Result, maxErrors int) []validRow {
	var valid []validRow
	for i, rec := range records {
		if maxErrors > 0 && len(res.Errors) >= maxErrors {
			res.addIssue(RowError{
				RowNumber: i + 2,
				Message:   fmt.Sprintf("validation stopped after %d errors", maxErrors),
				Level:     LevelInfo,
			})
			break
		}

		rowNumber := i + 2
		rowOK := true

		studentID := 0
		number := rowString(rec, "student_id", "")
		if number == "" {
			res.addIssue(RowError{RowNumber: rowNumber, Field: "student_id", Message: "student number is required", Level: LevelError})
			rowOK = false
		} else if student, err := s.lookupStudent(ctx, number); err != nil {
			res.addIssue(RowError{
				RowNumber: rowNumber, Field: "student_id", Level: LevelError,
				Message: fmt.Sprintf("student %s does not exist", number), CurrentValue: number,
			})
			rowOK = false
		} else {
			studentID = student.ID
		}

		courseID := 0
		code := rowString(rec, "course_code", "")
		if code == "" {
			res.addIssue(RowError{RowNumber: rowNumber, Field: "course_code", Message: "course code is required", Level: LevelError})
			rowOK = false
		} else if crs, err := s.courses.GetCourseByCode(ctx, code); err != nil {
			res.addIssue(RowError{
				RowNumber: rowNumber, Field: "course_code", Level: LevelError,
				Message: fmt.Sprintf("course %s does not exist", code), CurrentValue: code,
			})
			rowOK = false
		} else {
			courseID = crs.ID
		}

		maxScore := defaultMaxScore
		if raw := rowString(rec, "max_score", ""); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
				maxScore = v
			}
		}
		rawScore := rowString(rec, "score", "")
		score, err := strconv.ParseFloat(rawScore, 64)
		if rawScore == "" || err != nil || score < 0 || score > maxScore {
			res.addIssue(RowError{
				RowNumber: rowNumber, Field: "score", Level: LevelError,
				Message: fmt.Sprintf("score must be a number between 0 and %g", maxScore), CurrentValue: rawScore,
			})
			rowOK = false
		}

		if gt := rowString(rec, "grade_type", defaultGradeType); !grade.ValidType(strings.ToLower(gt)) {
			res.addIssue(RowError{
				RowNumber: rowNumber, Field: "grade_type", Level: LevelError,
				Message:      fmt.Sprintf("invalid grade type, valid types: %s", strings.Join(grade.AllTypes, ", ")),
				CurrentValue: gt, SuggestedValue: defaultGradeType,
			})
			rowOK = false
		}

		if year := rowString(rec, "academic_year", ""); year != "" {
			if err := s.validate.Var(year, "academic_year"); err != nil {
				res.addIssue(RowError{
					RowNumber: rowNumber, Field: "academic_year", Level: LevelError,
					Message: "academic year must be of the form YYYY-YYYY, e.g. 2024-2025", CurrentValue: year,
				})
				rowOK = false
			}
		}

		if sem := rowString(rec, "semester", ""); !isStandardSemester(sem) {
			res.addIssue(RowError{
				RowNumber: rowNumber, Field: "semester", Level: LevelWarning,
				Message: "semester is not in the standard list", CurrentValue: sem,
			})
		}

		if rowOK {
			valid = append(valid, validRow{rowNumber: rowNumber, rec: rec, studentID: studentID, courseID: courseID})
		}
	}
	return valid
}

// lookupStudent resolves a student by number, falling back to the numeric
// user ID for sheets that carry internal IDs instead.
func (s *Service) lookupStudent(ctx context.Context, number string) (user.User, error) {
	student, err := s.users.GetStudentByNumber(ctx, number)
	if err == nil {
		return student, nil
	}
	if id, convErr := strconv.Atoi(number); convErr == nil {
		if usr, idErr := s.users.GetUser(ctx, user.GetFilter{ID: id}); idErr == nil && usr.IsStudent() && usr.IsActive {
			return usr, nil
		}
	}
	return user.User{}, err
}

func (s *Service) buildGrade(row validRow, submittedBy int, now time.Time) grade.Grade {
	score, _ := strconv.ParseFloat(rowString(row.rec, "score", "0"), 64)
	maxScore := defaultMaxScore
	if raw := rowString(row.rec, "max_score", ""); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			maxScore = v
		}
	}
	weight := 1.0
	if raw := rowString(row.rec, "weight", ""); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			weight = v
		}
	}
	metrics := grade.CalculateMetrics(score, maxScore)

	g := grade.Grade{
		StudentID:    row.studentID,
		CourseID:     row.courseID,
		Score:        score,
		MaxScore:     maxScore,
		Percentage:   metrics.Percentage,
		LetterGrade:  metrics.LetterGrade,
		GpaPoints:    metrics.GpaPoints,
		GradePoints:  metrics.GradePoints,
		GradeType:    strings.ToLower(rowString(row.rec, "grade_type", defaultGradeType)),
		Weight:       weight,
		AcademicYear: rowString(row.rec, "academic_year", defaultAcademicYear),
		Semester:     rowString(row.rec, "semester", defaultSemester),
		Status:       grade.StatusDraft,
		SubmittedBy:  submittedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if comments := rowString(row.rec, "comments", ""); comments != "" {
		g.Comments.SetValid(comments)
	}
	if feedback := rowString(row.rec, "feedback", ""); feedback != "" {
		g.Feedback.SetValid(feedback)
	}
	return g
}

func (s *Service) notify(res *Result, emails []string) {
	if s.mailer == nil || len(emails) == 0 {
		return
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Grade import %s.\n\n", res.Status)
	fmt.Fprintf(&body, "Total records: %d\n", res.TotalRecords)
	fmt.Fprintf(&body, "Successful: %d\n", res.SuccessfulRecords)
	fmt.Fprintf(&body, "Failed: %d\n", res.FailedRecords)
	fmt.Fprintf(&body, "Duplicates: %d\n", res.DuplicateRecords)
	fmt.Fprintf(&body, "Processing time: %.2fs\n", res.ProcessingTime)
	for i, issue := range res.Errors {
		if i == 10 {
			fmt.Fprintf(&body, "... and %d more errors\n", len(res.Errors)-i)
			break
		}
		fmt.Fprintf(&body, "row %d, %s: %s\n", issue.RowNumber, issue.Field, issue.Message)
	}

	to := make([]mail.Address, 0, len(emails))
	for _, addr := range emails {
		to = append(to, mail.Address{Address: addr})
	}
	msg := &core.EmailMessage{
		To:      to,
		Subject: fmt.Sprintf("%s: grade import %s", s.conf.AppName, res.Status),
		Body:    body.String(),
	}
	if len(res.Errors)+len(res.Warnings) > 0 {
		if err := msg.Attach(bytes.NewReader(issueReport(res)), "import_issues.csv", "text/csv"); err != nil {
			s.logger.Warn("batch: attaching issue report", "err", err)
		}
	}
	s.mailer.SendMessages(msg)
}

// issueReport renders every row issue of the run as a CSV, one line per
// issue, for attachment to the notification email.
func issueReport(res *Result) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"row", "field", "level", "message", "current_value", "suggested_value"})
	for _, issues := range [][]RowError{res.Errors, res.Warnings} {
		for _, issue := range issues {
			_ = w.Write([]string{
				strconv.Itoa(issue.RowNumber),
				issue.Field,
				issue.Level,
				issue.Message,
				issue.CurrentValue,
				issue.SuggestedValue,
			})
		}
	}
	w.Flush()
	return buf.Bytes()
}

// Template returns the import template as a UTF-8 (BOM) CSV with two
// example rows.
func (s *Service) Template() []byte {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"学号", "课程代码", "分数", "成绩类型", "学年", "学期", "评语"})
	_ = w.Write([]string{"2024001", "CS101", "85", "final", "2024-2025", "春季", "表现良好"})
	_ = w.Write([]string{"2024002", "CS101", "92", "final", "2024-2025", "春季", "优秀"})
	w.Flush()
	return buf.Bytes()
}

// Export writes the filtered grades as a UTF-8 (BOM) CSV.
func (s *Service) Export(ctx context.Context, filter grade.QueryFilter) ([]byte, error) {
	rows, err := s.grades.FilterGrades(ctx, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	_ = w.Write([]string{
		"学号", "姓名", "课程代码", "课程名称", "分数", "满分", "百分比",
		"等级成绩", "GPA", "成绩类型", "学年", "学期", "状态", "评语",
	})
	for _, row := range rows {
		_ = w.Write([]string{
			row.StudentNumber.String,
			row.FullName,
			row.CourseCode,
			row.CourseName,
			strconv.FormatFloat(row.Score, 'f', -1, 64),
			strconv.FormatFloat(row.MaxScore, 'f', -1, 64),
			strconv.FormatFloat(row.Percentage, 'f', 2, 64),
			row.LetterGrade,
			strconv.FormatFloat(row.GpaPoints, 'f', 1, 64),
			row.GradeType,
			row.AcademicYear,
			row.Semester,
			row.Status,
			row.Comments.String,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rowString(rec core.Record, key, fallback string) string {
	if v, ok := rec[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

func isStandardSemester(sem string) bool {
	for _, std := range standardSemesters {
		if sem == std {
			return true
		}
	}
	return false
}
