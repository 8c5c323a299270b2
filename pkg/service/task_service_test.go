package service_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/service"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/storage"
)

type logger struct{}

func (l logger) Infof(format string, args ...interface{}) {
	// no-op
}

func (l logger) Errorf(format string, args ...interface{}) {
	// no-op
}

const (
	stepOne = "6f1c1d7e-2f3a-4b8e-9a55-0d6e8b5f3a01"
	stepTwo = "6f1c1d7e-2f3a-4b8e-9a55-0d6e8b5f3a02"
)

func TestTaskService_SaveTask(t *testing.T) {
	newTaskService := func() (*service.TaskService, storage.Store) {
		store := storage.NewMockStore()
		return service.NewTaskService(store, logger{}), store
	}

	t.Run("AssignsMissingStepIDs", func(t *testing.T) {
		ts, _ := newTaskService()
		saved, err := ts.SaveTask(models.SprintTask{
			ID:         "deck",
			Title:      "Pitch deck",
			Definition: json.RawMessage(`{"steps":[{"type":"question","question":"Do you have a deck?"},{"id":"` + stepTwo + `","type":"upload"}]}`),
		})
		require.NoError(t, err)

		var def models.TaskDefinition
		require.NoError(t, json.Unmarshal(saved.Definition, &def))
		require.Len(t, def.Steps, 2)
		_, err = uuid.Parse(def.Steps[0].ID)
		assert.NoError(t, err)
		assert.Equal(t, stepTwo, def.Steps[1].ID)
	})

	t.Run("KeepsFieldsTheModelDoesNotDeclare", func(t *testing.T) {
		ts, store := newTaskService()
		_, err := ts.SaveTask(models.SprintTask{
			ID:    "deck",
			Title: "Deck",
			Definition: json.RawMessage(`{"estimatedTime":"10m","steps":[
				{"type":"question","question":"Why?","placeholder":"Type here","inputType":"textarea","fields":[{"name":"why"}]}]}`),
		})
		require.NoError(t, err)

		got, err := store.GetTask("deck")
		require.NoError(t, err)
		doc := gjson.ParseBytes(got.Definition)
		assert.Equal(t, "10m", doc.Get("estimatedTime").String())
		assert.Equal(t, "Type here", doc.Get("steps.0.placeholder").String())
		assert.Equal(t, "textarea", doc.Get("steps.0.inputType").String())
		assert.Equal(t, "why", doc.Get("steps.0.fields.0.name").String())
		_, err = uuid.Parse(doc.Get("steps.0.id").String())
		assert.NoError(t, err)
		assert.False(t, doc.Get("title").Exists(), "nothing but step ids is added")
	})

	t.Run("RejectsDuplicateStepIDs", func(t *testing.T) {
		ts, _ := newTaskService()
		_, err := ts.SaveTask(models.SprintTask{
			ID:         "dup",
			Title:      "Duplicates",
			Definition: json.RawMessage(`{"steps":[{"id":"` + stepOne + `","type":"question"},{"id":"` + stepOne + `","type":"content"}]}`),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, service.ErrInvalid))
		assert.Contains(t, err.Error(), "reuses the id")
	})

	t.Run("RejectsNonUUIDStepIDs", func(t *testing.T) {
		ts, _ := newTaskService()
		_, err := ts.SaveTask(models.SprintTask{
			ID:         "bad-id",
			Title:      "Bad ids",
			Definition: json.RawMessage(`{"steps":[{"id":"step-1","type":"question"}]}`),
		})
		assert.True(t, errors.Is(err, service.ErrInvalid))
	})

	t.Run("RejectsForwardStepDependency", func(t *testing.T) {
		ts, _ := newTaskService()
		_, err := ts.SaveTask(models.SprintTask{
			ID:    "forward",
			Title: "Forward",
			Definition: json.RawMessage(`{"steps":[
				{"id":"` + stepOne + `","type":"question","conditions":[{"source":{"stepId":"` + stepTwo + `"},"operator":"equals","value":"yes"}]},
				{"id":"` + stepTwo + `","type":"question"}]}`),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not an earlier step")
	})

	t.Run("RequiresTitle", func(t *testing.T) {
		ts, _ := newTaskService()
		_, err := ts.SaveTask(models.SprintTask{ID: "untitled"})
		assert.True(t, errors.Is(err, service.ErrInvalid))
	})

	t.Run("RequiresID", func(t *testing.T) {
		ts, _ := newTaskService()
		_, err := ts.SaveTask(models.SprintTask{ID: "  ", Title: "No id"})
		assert.True(t, errors.Is(err, service.ErrInvalid))
	})

	t.Run("RejectsNonObjectDefinition", func(t *testing.T) {
		ts, _ := newTaskService()
		_, err := ts.SaveTask(models.SprintTask{ID: "arr", Title: "Array", Definition: json.RawMessage(`[1,2]`)})
		assert.True(t, errors.Is(err, service.ErrInvalid))
	})

	t.Run("KeepsLegacyDefinitionAsIs", func(t *testing.T) {
		ts, store := newTaskService()
		legacy := `{"questions":["What is your idea?"]}`
		_, err := ts.SaveTask(models.SprintTask{ID: "legacy", Title: "Legacy", Definition: json.RawMessage(legacy)})
		require.NoError(t, err)

		got, err := store.GetTask("legacy")
		require.NoError(t, err)
		assert.JSONEq(t, legacy, string(got.Definition))
	})

	t.Run("OverwritesPreviousVersion", func(t *testing.T) {
		ts, _ := newTaskService()
		_, err := ts.SaveTask(models.SprintTask{ID: "t", Title: "First"})
		require.NoError(t, err)
		_, err = ts.SaveTask(models.SprintTask{ID: "t", Title: "Second"})
		require.NoError(t, err)

		tasks, err := ts.ListTasks()
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Second", tasks[0].Title)
	})

	t.Run("GetMissingTask", func(t *testing.T) {
		ts, _ := newTaskService()
		_, err := ts.GetTask("missing")
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})
}
