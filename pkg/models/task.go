package models

import (
	"encoding/json"
	"time"
)

// SprintTask is a task of the sprint programme as stored by the admin tooling.
// Definition holds the raw task_definition document; its shape decides how the
// task is rendered.
type SprintTask struct {
	ID          string          `json:"id" db:"id"`
	Title       string          `json:"title" db:"title" validate:"required,max=200"`
	Description string          `json:"description,omitempty" db:"description"`
	Category    string          `json:"category,omitempty" db:"category"`
	OrderIndex  int             `json:"order_index" db:"order_index"`
	Definition  json.RawMessage `json:"task_definition,omitempty" db:"-"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// HasDefinition reports whether the task carries a non-null definition document.
func (t SprintTask) HasDefinition() bool {
	trimmed := string(t.Definition)
	return len(trimmed) > 0 && trimmed != "null" && trimmed != "{}"
}
