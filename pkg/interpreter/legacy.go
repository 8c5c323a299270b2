package interpreter

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
)

// legacyKeys are the top-level fields of task definitions authored before
// step schemas existed.
var legacyKeys = []string{"questions", "question", "type", "description"}

func isLegacyDefinition(raw []byte) bool {
	if !gjson.ValidBytes(raw) {
		return false
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return false
	}
	for _, key := range legacyKeys {
		if doc.Get(key).Exists() {
			return true
		}
	}
	return false
}

// legacySteps turns an older definition into question steps. A definition
// with a questions array yields one step per entry; otherwise the top-level
// question is the only step.
func legacySteps(raw []byte) []models.StepNode {
	doc := gjson.ParseBytes(raw)
	var steps []models.StepNode
	if questions := doc.Get("questions"); questions.IsArray() {
		questions.ForEach(func(key, q gjson.Result) bool {
			steps = append(steps, legacyStep(q, fmt.Sprintf("q%d", len(steps))))
			return true
		})
		return steps
	}
	if doc.Get("question").Exists() || doc.Get("type").Exists() {
		steps = append(steps, legacyStep(doc, "q0"))
	}
	return steps
}

func legacyStep(q gjson.Result, fallbackID string) models.StepNode {
	step := models.StepNode{
		ID:          q.Get("id").String(),
		Type:        q.Get("type").String(),
		Question:    q.Get("question").String(),
		Description: q.Get("description").String(),
	}
	if q.Type == gjson.String {
		step.Question = q.String()
	}
	if step.Question == "" {
		step.Question = q.Get("text").String()
	}
	if step.ID == "" {
		step.ID = fallbackID
	}
	if step.Type == "" {
		step.Type = string(QuestionStepKind)
	}
	if opts := q.Get("options"); opts.IsArray() {
		// Options that fail to decode are dropped; the question is still shown.
		_ = json.Unmarshal([]byte(opts.Raw), &step.Options)
	}
	return step
}

// RenderLegacy renders an older task definition: its questions are walked in
// order and the first unanswered one is shown.
func RenderLegacy(task models.SprintTask, ictx Context) View {
	steps := legacySteps(task.Definition)
	view := View{
		TaskID:  task.ID,
		Title:   task.Title,
		Total:   len(steps),
		Answers: ictx.Answers,
	}
	for i, step := range steps {
		if answered(ictx.Answers, step.ID) {
			continue
		}
		view.Kind = LegacyViewKind
		view.Step = renderStep(step, ictx.Answers)
		view.Position = i + 1
		return view
	}
	view.Kind = CompleteViewKind
	return view
}
