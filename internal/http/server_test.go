package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	internal_http "github.com/wilbe-developer/wilbe-marketing-branch-sub004/internal/http"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/internal/log"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/autosave"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/interpreter"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/service"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/storage"
)

const (
	questionStep = "9d3c2b1a-0f4e-4d5c-8b7a-6e5f4d3c2b01"
	contentStep  = "9d3c2b1a-0f4e-4d5c-8b7a-6e5f4d3c2b02"
)

func newServer(t *testing.T) (*httptest.Server, *autosave.Manager) {
	t.Helper()
	store := storage.NewMockStore()
	mgr := autosave.NewManager(context.Background(), autosave.Options{Wait: 20 * time.Millisecond, Logger: log.GetLogger()})
	t.Cleanup(mgr.Close)

	sprints := service.NewSprintService(store, log.GetLogger(), service.SprintOptions{
		Router:   interpreter.NewRouter(),
		AutoSave: mgr,
	})
	tasks := service.NewTaskService(store, log.GetLogger())
	srv := httptest.NewServer(internal_http.NewHandler(sprints, tasks).Routes())
	t.Cleanup(srv.Close)
	return srv, mgr
}

func do(t *testing.T, method, url, user string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if user != "" {
		req.Header.Set(internal_http.UserHeader, user)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func putTask(t *testing.T, srv *httptest.Server) {
	t.Helper()
	resp := do(t, http.MethodPut, srv.URL+"/tasks/idea", "", map[string]any{
		"title": "Your idea",
		"task_definition": map[string]any{
			"steps": []any{
				map[string]any{"id": questionStep, "type": "question", "question": "What problem do you solve?"},
				map[string]any{"id": contentStep, "type": "content", "content": "Great, on to the next task."},
			},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer(t *testing.T) {
	t.Run("Health", func(t *testing.T) {
		srv, _ := newServer(t)
		resp := do(t, http.MethodGet, srv.URL+"/health", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("TaskLifecycle", func(t *testing.T) {
		srv, _ := newServer(t)
		putTask(t, srv)

		resp := do(t, http.MethodGet, srv.URL+"/tasks", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		tasks := decode[[]map[string]any](t, resp)
		require.Len(t, tasks, 1)
		assert.Equal(t, "idea", tasks[0]["id"])

		resp = do(t, http.MethodGet, srv.URL+"/tasks/missing", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("InvalidTask", func(t *testing.T) {
		srv, _ := newServer(t)
		resp := do(t, http.MethodPut, srv.URL+"/tasks/bad", "", map[string]any{"title": ""})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("AnswerFlow", func(t *testing.T) {
		srv, _ := newServer(t)
		putTask(t, srv)
		base := srv.URL + "/sprints/ada/tasks/idea"

		resp := do(t, http.MethodGet, base+"/view", "ada", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		view := decode[interpreter.View](t, resp)
		require.Equal(t, interpreter.StepViewKind, view.Kind)
		assert.Equal(t, questionStep, view.Step.ID)

		resp = do(t, http.MethodPost, base+"/answers", "ada", map[string]any{"step_id": questionStep, "value": "Lab automation"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		view = decode[interpreter.View](t, resp)
		require.Equal(t, interpreter.StepViewKind, view.Kind)
		assert.Equal(t, interpreter.ContentStepKind, view.Step.Kind)

		resp = do(t, http.MethodPost, base+"/answers", "ada", map[string]any{"step_id": contentStep})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		view = decode[interpreter.View](t, resp)
		assert.Equal(t, interpreter.CompleteViewKind, view.Kind)

		resp = do(t, http.MethodGet, srv.URL+"/sprints/ada/progress", "ada", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		progress := decode[[]map[string]any](t, resp)
		require.Len(t, progress, 1)
		assert.Equal(t, true, progress[0]["completed"])
	})

	t.Run("AccessChecks", func(t *testing.T) {
		srv, _ := newServer(t)
		putTask(t, srv)

		resp := do(t, http.MethodGet, srv.URL+"/sprints/ada/tasks/idea/view", "", nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = do(t, http.MethodPost, srv.URL+"/sprints/ada/collaborators", "ada", map[string]any{"collaborator_id": "bob", "access_level": "view"})
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = do(t, http.MethodGet, srv.URL+"/sprints/ada/tasks/idea/view", "bob", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp = do(t, http.MethodGet, srv.URL+"/sprints/ada/collaborators", "ada", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		collaborators := decode[[]map[string]any](t, resp)
		require.Len(t, collaborators, 1)
		assert.Equal(t, "bob", collaborators[0]["collaborator_id"])
		assert.Equal(t, "view", collaborators[0]["access_level"])

		resp = do(t, http.MethodGet, srv.URL+"/sprints/ada/collaborators", "bob", nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = do(t, http.MethodPost, srv.URL+"/sprints/ada/tasks/idea/answers", "bob", map[string]any{"step_id": questionStep, "value": "x"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("AutoSave", func(t *testing.T) {
		srv, mgr := newServer(t)
		putTask(t, srv)
		field := srv.URL + "/sprints/ada/tasks/idea/fields/pitch"

		resp := do(t, http.MethodPost, field, "ada", map[string]any{"value": "We build", "typing": true})
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Equal(t, "typing", decode[map[string]string](t, resp)["status"])

		resp = do(t, http.MethodPost, field, "ada", map[string]any{"value": "We build robots", "typing": false})
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
		mgr.Wait()

		resp = do(t, http.MethodGet, field+"/status", "ada", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "saved", decode[map[string]string](t, resp)["status"])
	})

	t.Run("Countdown", func(t *testing.T) {
		srv, _ := newServer(t)
		resp := do(t, http.MethodGet, srv.URL+"/sprints/ada/countdown", "ada", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, false, decode[map[string]any](t, resp)["started"])

		resp = do(t, http.MethodPost, srv.URL+"/sprints/ada/start", "ada", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		c := decode[map[string]any](t, resp)
		assert.Equal(t, true, c["started"])
		assert.EqualValues(t, 10, c["days_remaining"])
	})

	t.Run("BadJSON", func(t *testing.T) {
		srv, _ := newServer(t)
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/sprints/ada/tasks/idea/answers", bytes.NewBufferString("{"))
		require.NoError(t, err)
		req.Header.Set(internal_http.UserHeader, "ada")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
