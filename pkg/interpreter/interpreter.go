// Package interpreter renders schema-driven sprint tasks: it walks a task
// definition against a user's profile and answers and returns the next thing
// to show.
package interpreter

import (
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
)

// Render returns the next actionable view of def. Profile questions declared
// on the task come first, then steps in order. Render never fails; malformed
// definitions produce the complete view.
func Render(def models.TaskDefinition, ictx Context) View {
	view := View{
		TaskID:  def.ID,
		Title:   def.Title,
		Total:   len(def.Steps),
		Answers: ictx.Answers,
	}

	if prompt, ok := NextProfileQuestion(def.ProfileQuestions, ictx.Profile); ok {
		view.Kind = ProfileQuestionViewKind
		view.Prompt = &prompt
		return view
	}

	for i, step := range def.Steps {
		decision := EvaluateStep(step, ictx.Profile, ictx.Answers)
		switch decision.Gate {
		case SkippedGate:
			continue
		case BlockedOnProfileGate:
			prompt := profilePromptForKey(decision.ProfileKey, def.ProfileQuestions)
			view.Kind = ProfileQuestionViewKind
			view.Prompt = &prompt
			view.Position = i + 1
			return view
		}
		if answered(ictx.Answers, step.ID) {
			continue
		}
		view.Kind = StepViewKind
		view.Step = renderStep(step, ictx.Answers)
		view.Position = i + 1
		return view
	}

	view.Kind = CompleteViewKind
	return view
}

// FindStep returns the step with id and its kind.
func FindStep(def models.TaskDefinition, id string) (models.StepNode, StepKind, bool) {
	for _, step := range def.Steps {
		if step.ID == id {
			return step, NormalizeStepType(step.Type), true
		}
	}
	return models.StepNode{}, "", false
}

func answered(answers map[string]any, id string) bool {
	v, ok := answers[id]
	return ok && v != nil
}
