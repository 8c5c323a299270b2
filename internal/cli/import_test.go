package cli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/internal/cli"
)

func TestParseTaskFile(t *testing.T) {
	t.Run("YAMLList", func(t *testing.T) {
		tasks, err := cli.ParseTaskFile([]byte(`
tasks:
  - id: deck
    title: Pitch deck
    order_index: 2
    task_definition:
      steps:
        - type: question
          question: Do you have a deck?
          options: [Yes, No]
  - id: cv
    title: Upload your CV
`))
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, "deck", tasks[0].ID)
		assert.Equal(t, 2, tasks[0].OrderIndex)
		assert.JSONEq(t, `{"steps":[{"type":"question","question":"Do you have a deck?","options":["Yes","No"]}]}`, string(tasks[0].Definition))
		assert.False(t, tasks[1].HasDefinition())
	})

	t.Run("SingleJSONTask", func(t *testing.T) {
		tasks, err := cli.ParseTaskFile([]byte(`{"id":"idea","title":"Your idea","task_definition":{"questions":["What is it?"]}}`))
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Your idea", tasks[0].Title)
		assert.JSONEq(t, `{"questions":["What is it?"]}`, string(tasks[0].Definition))
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := cli.ParseTaskFile([]byte(""))
		assert.Error(t, err)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := cli.ParseTaskFile([]byte("tasks: [\n"))
		assert.Error(t, err)
	})
}
