package batch

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Processing statuses
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Row issue levels
const (
	LevelError   = "error"
	LevelWarning = "warning"
	LevelInfo    = "info"
)

var ErrTaskNotFound = errors.New("task not found")

type (
	// RowError pins one issue to a row and field of the uploaded file.
	// Row numbers are 1-based and include the header, so data starts at 2.
	RowError struct {
		RowNumber      int    `json:"row_number"`
		Field          string `json:"field"`
		Message        string `json:"message"`
		Level          string `json:"level"`
		CurrentValue   string `json:"current_value,omitempty"`
		SuggestedValue string `json:"suggested_value,omitempty"`
	}

	// Result is the report of one import run.
	Result struct {
		FileName          string     `json:"file_name,omitempty"`
		Status            string     `json:"status"`
		TotalRecords      int        `json:"total_records"`
		ProcessedRecords  int        `json:"processed_records"`
		SuccessfulRecords int        `json:"successful_records"`
		FailedRecords     int        `json:"failed_records"`
		DuplicateRecords  int        `json:"duplicate_records"`
		Errors            []RowError `json:"errors"`
		Warnings          []RowError `json:"warnings"`
		ProcessingTime    float64    `json:"processing_time"` // seconds
		CreatedAt         time.Time  `json:"created_at"`
		CompletedAt       null.Time  `json:"completed_at,omitempty"`
	}

	// Options tune one import run.
	Options struct {
		// SkipDuplicates counts and skips rows whose grade already exists;
		// when false the row is inserted regardless.
		SkipDuplicates bool `json:"skip_duplicates"`
		// ValidateOnly runs the full validation pass but writes nothing.
		ValidateOnly bool `json:"validate_only"`
		// ChunkSize caps the rows per insert round trip.
		ChunkSize int `json:"chunk_size"`
		// MaxErrors stops validating once this many errors accumulated; 0 = no cap.
		MaxErrors int `json:"max_errors"`
		// NotifyEmails get a textual report once the run finishes.
		NotifyEmails []string `json:"notify_emails,omitempty" validate:"omitempty,dive,email"`
	}
)

func DefaultOptions() Options {
	return Options{SkipDuplicates: true, ChunkSize: 1000}
}

func newResult(filename string) *Result {
	return &Result{
		FileName:  filename,
		Status:    StatusPending,
		Errors:    []RowError{},
		Warnings:  []RowError{},
		CreatedAt: time.Now().UTC(),
	}
}

func (r *Result) addIssue(issue RowError) {
	if issue.Level == LevelError {
		r.Errors = append(r.Errors, issue)
	} else {
		r.Warnings = append(r.Warnings, issue)
	}
}

func (r *Result) complete(status string, started time.Time) {
	r.Status = status
	r.CompletedAt = null.TimeFrom(time.Now().UTC())
	r.ProcessingTime = time.Since(started).Seconds()
}

// Task tracks an asynchronous import.
type Task struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Result    *Result   `json:"result,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskRegistry is an in-memory, process-local store of import tasks.
type TaskRegistry struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{tasks: make(map[string]*Task)}
}

// Create registers a new pending task and returns a snapshot of it. The
// stored task keeps being mutated by the worker under the registry lock;
// only copies ever leave the registry.
func (reg *TaskRegistry) Create() Task {
	task := &Task{
		ID:        uuid.New().String(),
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	reg.mu.Lock()
	reg.tasks[task.ID] = task
	reg.mu.Unlock()
	return *task
}

func (reg *TaskRegistry) Get(id string) (Task, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	task, ok := reg.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return *task, nil
}

func (reg *TaskRegistry) update(id, status string, res *Result) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if task, ok := reg.tasks[id]; ok {
		task.Status = status
		task.Result = res
	}
}
