package interpreter

import (
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/profile"
)

type ViewKind string

const (
	ProfileQuestionViewKind ViewKind = "profile_question"
	StepViewKind            ViewKind = "step"
	CompleteViewKind        ViewKind = "complete"
	LegacyViewKind          ViewKind = "legacy"
	CustomViewKind          ViewKind = "custom"
	NoneViewKind            ViewKind = "none"
)

// UnsupportedStepPlaceholder is shown in place of steps with an unknown type.
const UnsupportedStepPlaceholder = "Unsupported step type"

// Context is the explicit input of a render: the user's profile and the
// answers stored for the task. Callers fetch both; the interpreter never does.
type Context struct {
	Profile models.Profile
	Answers map[string]any
}

// View is what the host application should show next for a task.
type View struct {
	Kind      ViewKind       `json:"kind"`
	TaskID    string         `json:"task_id,omitempty"`
	Title     string         `json:"title,omitempty"`
	Prompt    *ProfilePrompt `json:"prompt,omitempty"`
	Step      *RenderedStep  `json:"step,omitempty"`
	Position  int            `json:"position,omitempty"` // 1-based index of Step
	Total     int            `json:"total,omitempty"`
	Answers   map[string]any `json:"answers,omitempty"`
	Component string         `json:"component,omitempty"` // custom renderer name
}

// ProfilePrompt asks for a single profile field.
type ProfilePrompt struct {
	Key     string            `json:"key"`
	Text    string            `json:"text"`
	Type    profile.FieldType `json:"type"`
	Options []models.Option   `json:"options,omitempty"`
}

// RenderedStep is a step ready for display.
type RenderedStep struct {
	ID          string          `json:"id"`
	Kind        StepKind        `json:"kind"`
	RawType     string          `json:"raw_type,omitempty"`
	Question    string          `json:"question,omitempty"`
	Content     string          `json:"content,omitempty"`
	Description string          `json:"description,omitempty"`
	Options     []models.Option `json:"options,omitempty"`
	Supported   bool            `json:"supported"`
	Placeholder string          `json:"placeholder,omitempty"`
	Answer      any             `json:"answer,omitempty"`
}

func renderStep(step models.StepNode, answers map[string]any) *RenderedStep {
	kind, ok := ParseStepKind(step.Type)
	rs := &RenderedStep{
		ID:          step.ID,
		Kind:        kind,
		RawType:     step.Type,
		Question:    step.Question,
		Content:     step.Content,
		Description: step.Description,
		Options:     step.Options,
		Supported:   ok,
		Answer:      answers[step.ID],
	}
	if !ok {
		rs.Placeholder = UnsupportedStepPlaceholder
	}
	return rs
}
