package interpreter_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/interpreter"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
)

func taskWith(id, definition string) models.SprintTask {
	return models.SprintTask{ID: id, Title: "Task " + id, Definition: json.RawMessage(definition)}
}

func TestRouter(t *testing.T) {
	customView := interpreter.View{Kind: interpreter.CustomViewKind, Component: "team-builder"}
	custom := interpreter.CustomRendererFunc(func(task models.SprintTask, ictx interpreter.Context) interpreter.View {
		return customView
	})

	t.Run("StepsWinOverLegacyFields", func(t *testing.T) {
		r := interpreter.NewRouter()
		task := taskWith("t1", `{"title":"Deck","steps":[{"id":"s1","type":"question"}],"questions":[{"text":"old"}],"type":"form"}`)
		route := r.Route(task)
		assert.Equal(t, interpreter.SchemaRouteKind, route.Kind)
		assert.Len(t, route.Definition.Steps, 1)
	})

	t.Run("StepsWinOverCustomRenderer", func(t *testing.T) {
		r := interpreter.NewRouter()
		r.Register("t1", custom)
		task := taskWith("t1", `{"steps":[]}`)
		assert.Equal(t, interpreter.SchemaRouteKind, r.Route(task).Kind)
		assert.Equal(t, interpreter.CompleteViewKind, r.Render(task, interpreter.Context{}).Kind)
	})

	t.Run("CustomWinsOverLegacy", func(t *testing.T) {
		r := interpreter.NewRouter()
		r.Register("t2", custom)
		task := taskWith("t2", `{"question":"Tell us about your team"}`)
		assert.Equal(t, interpreter.CustomRouteKind, r.Route(task).Kind)
		assert.Equal(t, customView, r.Render(task, interpreter.Context{}))
	})

	t.Run("CustomWithoutDefinition", func(t *testing.T) {
		r := interpreter.NewRouter()
		r.Register("t3", custom)
		assert.Equal(t, interpreter.CustomRouteKind, r.Route(models.SprintTask{ID: "t3"}).Kind)
	})

	t.Run("Legacy", func(t *testing.T) {
		r := interpreter.NewRouter()
		task := taskWith("t4", `{"questions":[{"id":"why","text":"Why now?"},"What is your market?"]}`)
		assert.Equal(t, interpreter.LegacyRouteKind, r.Route(task).Kind)

		view := r.Render(task, interpreter.Context{})
		require.Equal(t, interpreter.LegacyViewKind, view.Kind)
		assert.Equal(t, "why", view.Step.ID)
		assert.Equal(t, "Why now?", view.Step.Question)
		assert.Equal(t, 2, view.Total)

		view = r.Render(task, interpreter.Context{Answers: map[string]any{"why": "because"}})
		require.Equal(t, interpreter.LegacyViewKind, view.Kind)
		assert.Equal(t, "q1", view.Step.ID)
		assert.Equal(t, "What is your market?", view.Step.Question)

		view = r.Render(task, interpreter.Context{Answers: map[string]any{"why": "because", "q1": "biotech"}})
		assert.Equal(t, interpreter.CompleteViewKind, view.Kind)
	})

	t.Run("LegacySingleQuestion", func(t *testing.T) {
		task := taskWith("t5", `{"type":"select","question":"Stage?","options":["Idea","Seed"]}`)
		view := interpreter.NewRouter().Render(task, interpreter.Context{})
		require.Equal(t, interpreter.LegacyViewKind, view.Kind)
		assert.Equal(t, "q0", view.Step.ID)
		assert.Equal(t, []models.Option{{Label: "Idea", Value: "Idea"}, {Label: "Seed", Value: "Seed"}}, view.Step.Options)
	})

	t.Run("None", func(t *testing.T) {
		r := interpreter.NewRouter()
		for _, def := range []string{"", "null", "{}", `{"unrelated":1}`, `[1,2]`} {
			task := taskWith("t6", def)
			assert.Equal(t, interpreter.NoneRouteKind, r.Route(task).Kind, def)
			assert.Equal(t, interpreter.NoneViewKind, r.Render(task, interpreter.Context{}).Kind, def)
		}
	})

	t.Run("BadStepIsDropped", func(t *testing.T) {
		task := taskWith("t7", `{"title":"Mixed","steps":[{"id":"ok","type":"question"},{"id":5,"type":"question"}]}`)
		def := interpreter.DecodeDefinition(task)
		assert.Equal(t, "Mixed", def.Title)
		require.Len(t, def.Steps, 1)
		assert.Equal(t, "ok", def.Steps[0].ID)
	})

	t.Run("FileUploadRenderer", func(t *testing.T) {
		r := interpreter.NewRouter()
		r.Register("cv", interpreter.FileUploadRenderer())
		task := models.SprintTask{ID: "cv", Title: "Upload your CV"}

		view := r.Render(task, interpreter.Context{})
		require.Equal(t, interpreter.CustomViewKind, view.Kind)
		assert.Equal(t, "file_upload", view.Component)
		assert.Equal(t, interpreter.UploadStepKind, view.Step.Kind)

		view = r.Render(task, interpreter.Context{Answers: map[string]any{interpreter.FileUploadStepID: "f-1"}})
		assert.Equal(t, interpreter.CompleteViewKind, view.Kind)
	})
}
