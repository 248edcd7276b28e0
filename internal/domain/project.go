package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

// Valid project statuses.
const (
	ProjectStatusPending    ProjectStatus = "pending"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusCancelled  ProjectStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPending, ProjectStatusInProgress, ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

// Project groups work for one owning user.
type Project struct {
	ID          int64         `json:"id"          db:"id"`
	Title       string        `json:"title"       db:"title"`
	Description *string       `json:"description" db:"description"`
	Status      ProjectStatus `json:"status"      db:"status"`
	StartDate   *Date         `json:"start_date"  db:"start_date"`
	EndDate     *Date         `json:"end_date"    db:"end_date"`
	UserID      int64         `json:"user_id"     db:"user_id"`
	CreatedAt   time.Time     `json:"created_at"  db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"  db:"updated_at"`
}

// ProjectFilter narrows a project listing.
type ProjectFilter struct {
	UserID int64
	Status ProjectStatus
}

// ProjectInput carries the fields of a project create or update. On update,
// nil fields are left untouched.
type ProjectInput struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Status      *ProjectStatus `json:"status"`
	StartDate   *Date          `json:"start_date"`
	EndDate     *Date          `json:"end_date"`
	UserID      *int64         `json:"user_id"`
}

// ValidateCreate checks a new project against today's date.
func (in ProjectInput) ValidateCreate(today Date) error {
	v := &ValidationError{}
	if in.Title == nil {
		v.Add("title", "The title field is required.")
	} else {
		validateProjectTitle(v, *in.Title)
	}
	if in.UserID == nil {
		v.Add("user_id", "The user id field is required.")
	}
	if in.StartDate != nil && in.StartDate.Before(today) {
		v.Add("start_date", "The start date must be a date after or equal to today.")
	}
	in.validateCommon(v, nil)
	return v.Err()
}

// ValidateUpdate checks the provided fields against the current project.
func (in ProjectInput) ValidateUpdate(current *Project) error {
	v := &ValidationError{}
	if in.Title != nil {
		validateProjectTitle(v, *in.Title)
	}
	in.validateCommon(v, current)
	return v.Err()
}

func (in ProjectInput) validateCommon(v *ValidationError, current *Project) {
	if in.Description != nil && utf8.RuneCountInString(*in.Description) > MaxDescriptionLength {
		v.Add("description", "The description may not be greater than 5000 characters.")
	}
	if in.Status != nil && !in.Status.Valid() {
		v.Add("status", "The selected status is invalid.")
	}
	start, end := in.StartDate, in.EndDate
	if current != nil {
		if start == nil {
			start = current.StartDate
		}
		if end == nil {
			end = current.EndDate
		}
	}
	if start != nil && end != nil && end.Before(*start) {
		v.Add("end_date", "The end date must be a date after or equal to start date.")
	}
}

// NewProject builds a project from validated create input.
func NewProject(in ProjectInput, now time.Time) *Project {
	p := &Project{
		Title:       strings.TrimSpace(*in.Title),
		Description: in.Description,
		Status:      ProjectStatusPending,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		UserID:      *in.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	return p
}

// Apply merges the provided fields into p.
func (in ProjectInput) Apply(p *Project, now time.Time) {
	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		p.Description = in.Description
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.StartDate != nil {
		p.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		p.EndDate = in.EndDate
	}
	if in.UserID != nil {
		p.UserID = *in.UserID
	}
	p.UpdatedAt = now
}

func validateProjectTitle(v *ValidationError, title string) {
	trimmed := strings.TrimSpace(title)
	switch {
	case trimmed == "":
		v.Add("title", "The title field is required.")
	case utf8.RuneCountInString(trimmed) > MaxTitleLength:
		v.Add("title", "The title may not be greater than 255 characters.")
	}
}
