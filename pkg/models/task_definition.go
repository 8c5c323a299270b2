package models

import (
	"encoding/json"
	"fmt"
)

// TaskDefinition describes the steps of a sprint task and the profile questions
// that must be answered before any of them are shown.
type TaskDefinition struct {
	ID               string            `json:"id,omitempty"`
	Title            string            `json:"title" validate:"required"`
	Description      string            `json:"description,omitempty"`
	Steps            []StepNode        `json:"steps" validate:"dive"`
	ProfileQuestions []ProfileQuestion `json:"profileQuestions,omitempty" validate:"dive"`
}

// StepNode is a single step of a task definition. Array order is display order.
type StepNode struct {
	ID          string      `json:"id" validate:"required,uuid"`
	Type        string      `json:"type"`
	Question    string      `json:"question,omitempty"`
	Content     string      `json:"content,omitempty"`
	Description string      `json:"description,omitempty"`
	Options     []Option    `json:"options,omitempty"`
	Conditions  []Condition `json:"conditions,omitempty" validate:"dive"`
}

// ProfileQuestion asks for a sprint profile field. Answers are stored on the
// profile and can gate other tasks and steps.
type ProfileQuestion struct {
	Key     string   `json:"key" validate:"required"`
	Text    string   `json:"text,omitempty"`
	Type    string   `json:"type,omitempty"`
	Options []Option `json:"options,omitempty"`
}

// Option is a selectable answer. Authors write options either as plain strings
// or as {label, value} objects; both decode to the same value.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func (o *Option) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		o.Label, o.Value = s, s
		return nil
	}
	var raw struct {
		Label string `json:"label"`
		Value any    `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.Label = raw.Label
	if raw.Value != nil {
		o.Value = fmt.Sprint(raw.Value)
	}
	if o.Value == "" {
		o.Value = o.Label
	}
	if o.Label == "" {
		o.Label = o.Value
	}
	return nil
}

// YesNoOptions is the option set of boolean prompts.
var YesNoOptions = []Option{{Label: "Yes", Value: "true"}, {Label: "No", Value: "false"}}
