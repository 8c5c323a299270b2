package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/internal/log"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/service"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/storage"
)

// UserHeader carries the id of the user making the request.
const UserHeader = "X-User-Id"

// Handler serves the sprint API.
type Handler struct {
	sprints *service.SprintService
	tasks   *service.TaskService
	now     func() time.Time
}

func NewHandler(sprints *service.SprintService, tasks *service.TaskService) *Handler {
	return &Handler{sprints: sprints, tasks: tasks, now: time.Now}
}

// Routes returns the API mux wrapped with request logging.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", HealthHandler)

	mux.HandleFunc("GET /tasks", h.listTasks)
	mux.HandleFunc("GET /tasks/{id}", h.getTask)
	mux.HandleFunc("PUT /tasks/{id}", h.putTask)

	mux.HandleFunc("GET /sprints/{owner}/tasks/{id}/view", h.taskView)
	mux.HandleFunc("POST /sprints/{owner}/tasks/{id}/answers", h.submitAnswer)
	mux.HandleFunc("POST /sprints/{owner}/tasks/{id}/complete", h.completeTask)
	mux.HandleFunc("POST /sprints/{owner}/tasks/{id}/profile", h.answerProfile)
	mux.HandleFunc("POST /sprints/{owner}/tasks/{id}/fields/{field}", h.autoSaveField)
	mux.HandleFunc("GET /sprints/{owner}/tasks/{id}/fields/{field}/status", h.fieldStatus)
	mux.HandleFunc("GET /sprints/{owner}/progress", h.listProgress)
	mux.HandleFunc("GET /sprints/{owner}/collaborators", h.listCollaborators)
	mux.HandleFunc("POST /sprints/{owner}/collaborators", h.addCollaborator)
	mux.HandleFunc("POST /sprints/{owner}/start", h.startSprint)
	mux.HandleFunc("GET /sprints/{owner}/countdown", h.countdown)
	return logRequests(mux)
}

// StartServer serves h on port until ctx is cancelled.
func StartServer(ctx context.Context, port string, h *Handler) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.GetLogger().Infof("Starting sprint server on :%s", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListTasks()
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []models.SprintTask{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.GetTask(r.PathValue("id"))
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) putTask(w http.ResponseWriter, r *http.Request) {
	var task models.SprintTask
	if err := decodeJSON(r, &task); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	task.ID = r.PathValue("id")
	saved, err := h.tasks.SaveTask(task)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) taskView(w http.ResponseWriter, r *http.Request) {
	view, err := h.sprints.LoadTaskView(r.Context(), viewer(r), r.PathValue("owner"), r.PathValue("id"))
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type answerRequest struct {
	StepID string `json:"step_id"`
	Value  any    `json:"value"`
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	view, err := h.sprints.SubmitAnswer(r.Context(), viewer(r), r.PathValue("owner"), r.PathValue("id"), req.StepID, req.Value)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) completeTask(w http.ResponseWriter, r *http.Request) {
	if err := h.sprints.CompleteTask(r.Context(), viewer(r), r.PathValue("owner"), r.PathValue("id")); err != nil {
		writeServiceErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type profileRequest struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func (h *Handler) answerProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	view, err := h.sprints.AnswerProfileQuestion(r.Context(), viewer(r), r.PathValue("owner"), r.PathValue("id"), req.Key, req.Value)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type fieldRequest struct {
	Value  any  `json:"value"`
	Typing bool `json:"typing"`
}

type statusResponse struct {
	Status models.SaveStatus `json:"status"`
}

func (h *Handler) autoSaveField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	status, err := h.sprints.AutoSaveField(r.Context(), viewer(r), r.PathValue("owner"), r.PathValue("id"), r.PathValue("field"), req.Value, req.Typing)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, statusResponse{Status: status})
}

func (h *Handler) fieldStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.sprints.SaveStatus(r.Context(), viewer(r), r.PathValue("owner"), r.PathValue("id"), r.PathValue("field"))
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: status})
}

func (h *Handler) listProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.sprints.ListProgress(r.Context(), viewer(r), r.PathValue("owner"))
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	if progress == nil {
		progress = []models.UserTaskProgress{}
	}
	writeJSON(w, http.StatusOK, progress)
}

type collaboratorRequest struct {
	CollaboratorID string             `json:"collaborator_id"`
	AccessLevel    models.AccessLevel `json:"access_level"`
}

func (h *Handler) addCollaborator(w http.ResponseWriter, r *http.Request) {
	var req collaboratorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.sprints.AddCollaborator(r.Context(), viewer(r), r.PathValue("owner"), req.CollaboratorID, req.AccessLevel)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listCollaborators(w http.ResponseWriter, r *http.Request) {
	list, err := h.sprints.ListCollaborators(r.Context(), viewer(r), r.PathValue("owner"))
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	if list == nil {
		list = []models.Collaborator{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) startSprint(w http.ResponseWriter, r *http.Request) {
	if err := h.sprints.StartSprint(r.Context(), viewer(r), r.PathValue("owner")); err != nil {
		writeServiceErr(w, r, err)
		return
	}
	h.countdown(w, r)
}

func (h *Handler) countdown(w http.ResponseWriter, r *http.Request) {
	c, err := h.sprints.Countdown(r.Context(), viewer(r), r.PathValue("owner"), h.now())
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func viewer(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(UserHeader))
}

// writeServiceErr maps service errors to status codes.
func writeServiceErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalid):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAccessDenied):
		writeErr(w, http.StatusForbidden, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	default:
		log.GetLogger().WithField("path", r.URL.Path).Errorf("Request failed: %v", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	return dec.Decode(out)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.GetLogger().WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"user":     viewer(r),
			"duration": time.Since(start).String(),
		}).Debug("request")
	})
}
