package interpreter

import (
	"fmt"
	"strings"

	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
)

type Gate string

const (
	ReadyGate            Gate = "ready"
	BlockedOnProfileGate Gate = "blocked_on_profile"
	SkippedGate          Gate = "skipped"
)

// Decision is the outcome of evaluating a step's conditions.
type Decision struct {
	Gate       Gate   `json:"gate"`
	ProfileKey string `json:"profile_key,omitempty"` // set when blocked on a profile field
}

// EvaluateStep decides whether step can be shown. Only the first condition's
// profile key gates the step; later profile conditions are compared when their
// field is present and ignored otherwise.
func EvaluateStep(step models.StepNode, profile models.Profile, answers map[string]any) Decision {
	if len(step.Conditions) == 0 {
		return Decision{Gate: ReadyGate}
	}
	if key := step.Conditions[0].Source.ProfileKey; key != "" && !profile.Has(key) {
		return Decision{Gate: BlockedOnProfileGate, ProfileKey: key}
	}
	for _, cond := range step.Conditions {
		if !conditionHolds(cond, profile, answers) {
			return Decision{Gate: SkippedGate}
		}
	}
	return Decision{Gate: ReadyGate}
}

func conditionHolds(cond models.Condition, profile models.Profile, answers map[string]any) bool {
	op := strings.ToLower(strings.TrimSpace(cond.Operator))
	var (
		actual  any
		present bool
	)
	switch {
	case cond.Source.ProfileKey != "":
		actual, present = profile[cond.Source.ProfileKey], profile.Has(cond.Source.ProfileKey)
		if !present {
			return true
		}
	case cond.Source.StepID != "":
		actual, present = answers[cond.Source.StepID]
		present = present && actual != nil
	default:
		return true
	}

	switch op {
	case "", "exists":
		return present
	}
	if !present {
		return false
	}
	switch op {
	case "equals", "eq", "==":
		return valuesEqual(actual, cond.Value)
	case "not_equals", "neq", "!=":
		return !valuesEqual(actual, cond.Value)
	case "in":
		return inList(actual, cond.Value)
	case "not_in":
		return !inList(actual, cond.Value)
	case "contains":
		return contains(actual, cond.Value)
	default:
		return true
	}
}

// valuesEqual compares answers loosely: form inputs deliver "true" and "Yes"
// where conditions say true.
func valuesEqual(a, b any) bool {
	return strings.EqualFold(scalarString(a), scalarString(b))
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if t {
			return "true"
		}
		return "false"
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes":
			return "true"
		case "no":
			return "false"
		}
		return strings.TrimSpace(t)
	default:
		return fmt.Sprint(t)
	}
}

func inList(actual, list any) bool {
	items, ok := list.([]any)
	if !ok {
		return valuesEqual(actual, list)
	}
	for _, item := range items {
		if valuesEqual(actual, item) {
			return true
		}
	}
	return false
}

func contains(actual, want any) bool {
	switch t := actual.(type) {
	case []any:
		for _, item := range t {
			if valuesEqual(item, want) {
				return true
			}
		}
		return false
	case string:
		return strings.Contains(strings.ToLower(t), strings.ToLower(scalarString(want)))
	default:
		return valuesEqual(actual, want)
	}
}
