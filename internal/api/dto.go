package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/pit/internal/index"
	"github.com/starford/pit/internal/taskservice"
)

// ToggleTaskRequest is the request body for toggling a task.
type ToggleTaskRequest struct {
	Path     string `json:"path" example:"lists/home.md" validate:"required"`
	Line     *int   `json:"line" example:"3" validate:"required"`
	Checksum string `json:"checksum,omitempty" example:"abc123..."`
}

// Validate validates the toggle request.
func (r ToggleTaskRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required),
		validation.Field(&r.Line, validation.NotNil, validation.Min(0)),
	)
}

// TaskView is a task in an API response (aliased from the domain layer).
type TaskView = taskservice.TaskView

// DocumentTasks is the task listing of one document (aliased from the domain layer).
type DocumentTasks = taskservice.DocumentTasks

// ToggleResult is the toggle response (aliased from the domain layer).
type ToggleResult = taskservice.ToggleResult

// StatsResponse is the completion history response (aliased from the domain layer).
type StatsResponse = taskservice.Stats

// SettingsResponse is the task settings response (aliased from the domain layer).
type SettingsResponse = taskservice.Settings

// DocumentListResponse wraps the indexed documents.
type DocumentListResponse struct {
	Documents []index.DocumentRow `json:"documents" validate:"required"`
}

// TaskListResponse wraps paginated task listings.
type TaskListResponse struct {
	Tasks []TaskView `json:"tasks" validate:"required"`
	Total int        `json:"total" example:"42" validate:"required"`
}
