package models

// Condition makes a step depend on a profile field or on the answer to an
// earlier step.
type Condition struct {
	Source   ConditionSource `json:"source"`
	Operator string          `json:"operator,omitempty"`
	Value    any             `json:"value,omitempty"`
}

// ConditionSource names where the compared value comes from. Exactly one of
// the fields is expected to be set.
type ConditionSource struct {
	ProfileKey string `json:"profileKey,omitempty"`
	StepID     string `json:"stepId,omitempty"`
}
