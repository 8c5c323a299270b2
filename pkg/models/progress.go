package models

import "time"

// UserTaskProgress is the per-user state of a task. There is one row per
// (user, task) pair.
type UserTaskProgress struct {
	UserID      string         `json:"user_id" db:"user_id"`
	TaskID      string         `json:"task_id" db:"task_id"`
	Completed   bool           `json:"completed" db:"completed"`
	Answers     map[string]any `json:"answers" db:"-"`      // step answers, keyed by step id
	TaskAnswers map[string]any `json:"task_answers" db:"-"` // auto-saved field values, keyed by field id
	FileID      *string        `json:"file_id,omitempty" db:"file_id"`
	CompletedAt *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// ProgressUpdate is an upsert keyed by (UserID, TaskID). Answers and TaskAnswers
// are merged into the stored objects; nil pointers leave columns untouched.
type ProgressUpdate struct {
	UserID      string
	TaskID      string
	Answers     map[string]any
	TaskAnswers map[string]any
	FileID      *string
	Completed   *bool
}
