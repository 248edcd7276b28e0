package domain

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

// Valid task statuses.
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
)

// Field limits shared by tasks, projects and comments.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 5000
)

// Task field names, in the order changes are reported.
const (
	TaskFieldTitle       = "title"
	TaskFieldDescription = "description"
	TaskFieldStatus      = "status"
	TaskFieldDueDate     = "due_date"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// Task is a unit of work tracked by the board. Tasks are global and not
// owned by any user.
type Task struct {
	ID          int64      `json:"id"          db:"id"`
	Title       string     `json:"title"       db:"title"`
	Description *string    `json:"description" db:"description"`
	Status      TaskStatus `json:"status"      db:"status"`
	DueDate     *Date      `json:"due_date"    db:"due_date"`
	CreatedAt   time.Time  `json:"created_at"  db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"  db:"updated_at"`
}

// TaskSnapshot is the identifying subset of a task, returned after deletion
// and embedded in events.
type TaskSnapshot struct {
	ID     int64      `json:"id"`
	Title  string     `json:"title"`
	Status TaskStatus `json:"status"`
}

// Snapshot returns the identifying subset of t.
func (t *Task) Snapshot() TaskSnapshot {
	return TaskSnapshot{ID: t.ID, Title: t.Title, Status: t.Status}
}

// CreateTaskInput carries the fields accepted when creating a task.
type CreateTaskInput struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      TaskStatus `json:"status"`
	DueDate     *Date      `json:"due_date"`
}

// Validate checks the input against today's date. An empty status is
// accepted and later defaults to todo.
func (in CreateTaskInput) Validate(today Date) error {
	v := &ValidationError{}
	validateTitle(v, in.Title)
	validateDescription(v, in.Description)
	if in.Status != "" && !in.Status.Valid() {
		v.Add(TaskFieldStatus, "The selected status is invalid.")
	}
	if in.DueDate != nil && in.DueDate.Before(today) {
		v.Add(TaskFieldDueDate, "The due date must be a date after or equal to today.")
	}
	return v.Err()
}

// NewTask builds a task from validated input.
func NewTask(in CreateTaskInput, now time.Time) *Task {
	status := in.Status
	if status == "" {
		status = TaskStatusTodo
	}
	return &Task{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      status,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UpdateTaskInput is a partial update. Nil fields are left untouched, so a
// nullable field cannot be cleared through an update.
type UpdateTaskInput struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Status      *TaskStatus `json:"status"`
	DueDate     *Date       `json:"due_date"`
}

// Empty reports whether no field was provided.
func (in UpdateTaskInput) Empty() bool {
	return in.Title == nil && in.Description == nil && in.Status == nil && in.DueDate == nil
}

// Validate checks the provided fields.
func (in UpdateTaskInput) Validate() error {
	v := &ValidationError{}
	if in.Title != nil {
		validateTitle(v, *in.Title)
	}
	validateDescription(v, in.Description)
	if in.Status != nil && !in.Status.Valid() {
		v.Add(TaskFieldStatus, "The selected status is invalid.")
	}
	return v.Err()
}

// Apply merges the provided fields into t and returns the names of the
// fields whose value actually changed.
func (in UpdateTaskInput) Apply(t *Task, now time.Time) []string {
	changed := make([]string, 0, 4)
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title != t.Title {
			t.Title = title
			changed = append(changed, TaskFieldTitle)
		}
	}
	if in.Description != nil && (t.Description == nil || *t.Description != *in.Description) {
		desc := *in.Description
		t.Description = &desc
		changed = append(changed, TaskFieldDescription)
	}
	if in.Status != nil && *in.Status != t.Status {
		t.Status = *in.Status
		changed = append(changed, TaskFieldStatus)
	}
	if in.DueDate != nil && (t.DueDate == nil || *t.DueDate != *in.DueDate) {
		due := *in.DueDate
		t.DueDate = &due
		changed = append(changed, TaskFieldDueDate)
	}
	if len(changed) > 0 {
		t.UpdatedAt = now
	}
	return changed
}

// TaskFilter narrows a task listing. All set criteria must match.
type TaskFilter struct {
	Status    TaskStatus
	DueBefore *Date
	DueAfter  *Date
	// Search matches title or description, case-insensitively.
	Search string
	// Overdue selects tasks due before Today that are not done.
	Overdue bool
	Today   Date
}

// NewTaskFilter builds a filter from raw query values. An unknown status
// is dropped rather than rejected.
func NewTaskFilter(status string, dueBefore, dueAfter *Date, search string, overdue bool, today Date) TaskFilter {
	f := TaskFilter{
		DueBefore: dueBefore,
		DueAfter:  dueAfter,
		Search:    strings.TrimSpace(search),
		Overdue:   overdue,
		Today:     today,
	}
	if s := TaskStatus(status); s.Valid() {
		f.Status = s
	}
	return f
}

// Params returns the set criteria as string pairs. Unset criteria are omitted.
func (f TaskFilter) Params() map[string]string {
	p := make(map[string]string)
	if f.Status != "" {
		p["status"] = string(f.Status)
	}
	if f.DueBefore != nil {
		p["due_before"] = f.DueBefore.String()
	}
	if f.DueAfter != nil {
		p["due_after"] = f.DueAfter.String()
	}
	if f.Search != "" {
		p["search"] = f.Search
	}
	if f.Overdue {
		p["overdue"] = strconv.FormatBool(true)
		p["today"] = f.Today.String()
	}
	return p
}

func validateTitle(v *ValidationError, title string) {
	trimmed := strings.TrimSpace(title)
	switch {
	case trimmed == "":
		v.Add(TaskFieldTitle, "The title field is required.")
	case utf8.RuneCountInString(trimmed) > MaxTitleLength:
		v.Add(TaskFieldTitle, "The title may not be greater than 255 characters.")
	}
}

func validateDescription(v *ValidationError, desc *string) {
	if desc != nil && utf8.RuneCountInString(*desc) > MaxDescriptionLength {
		v.Add(TaskFieldDescription, "The description may not be greater than 5000 characters.")
	}
}
