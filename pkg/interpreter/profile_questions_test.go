package interpreter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/interpreter"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/profile"
)

func TestNextProfileQuestion(t *testing.T) {
	t.Run("NoQuestionsRendersChildren", func(t *testing.T) {
		_, ok := interpreter.NextProfileQuestion(nil, models.Profile{})
		assert.False(t, ok)

		def := models.TaskDefinition{Steps: []models.StepNode{{ID: "s1", Type: "question"}}}
		view := interpreter.Render(def, interpreter.Context{})
		assert.Equal(t, interpreter.StepViewKind, view.Kind)
	})

	t.Run("AnsweredInArrayOrder", func(t *testing.T) {
		questions := []models.ProfileQuestion{{Key: "A"}, {Key: "B"}}
		p := models.Profile{}

		prompt, ok := interpreter.NextProfileQuestion(questions, p)
		require.True(t, ok)
		assert.Equal(t, "A", prompt.Key)

		p["A"] = true
		prompt, ok = interpreter.NextProfileQuestion(questions, p)
		require.True(t, ok)
		assert.Equal(t, "B", prompt.Key)

		p["B"] = "no"
		_, ok = interpreter.NextProfileQuestion(questions, p)
		assert.False(t, ok)
	})

	t.Run("QuestionOverridesResolver", func(t *testing.T) {
		questions := []models.ProfileQuestion{{
			Key:     "team_status",
			Text:    "Who is on your team?",
			Options: []models.Option{{Label: "Just me", Value: "solo"}},
		}}
		prompt, ok := interpreter.NextProfileQuestion(questions, nil)
		require.True(t, ok)
		assert.Equal(t, "Who is on your team?", prompt.Text)
		assert.Equal(t, profile.SelectFieldType, prompt.Type)
		assert.Equal(t, []models.Option{{Label: "Just me", Value: "solo"}}, prompt.Options)
	})

	t.Run("UnknownKeyIsBooleanPrompt", func(t *testing.T) {
		prompt, ok := interpreter.NextProfileQuestion([]models.ProfileQuestion{{Key: "wants_mentor"}}, nil)
		require.True(t, ok)
		assert.Equal(t, "wants_mentor", prompt.Text)
		assert.Equal(t, profile.BooleanFieldType, prompt.Type)
		assert.Equal(t, models.YesNoOptions, prompt.Options)
	})
}
