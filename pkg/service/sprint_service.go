package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/autosave"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/interpreter"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/profile"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/storage"
)

const DefaultSprintLength = 10 * 24 * time.Hour

type SprintOptions struct {
	Router       *interpreter.Router // defaults to a router without custom renderers
	AutoSave     *autosave.Manager   // required for AutoSaveField
	SprintLength time.Duration
}

// SprintService serves the sprint tasks of a user: it renders the next view
// of a task and persists what the user answers.
type SprintService struct {
	store        storage.Store
	logger       Logger
	router       *interpreter.Router
	autosave     *autosave.Manager
	sprintLength time.Duration
	validate     *validator.Validate
}

func NewSprintService(store storage.Store, logger Logger, opts SprintOptions) *SprintService {
	if opts.Router == nil {
		opts.Router = interpreter.NewRouter()
	}
	if opts.SprintLength <= 0 {
		opts.SprintLength = DefaultSprintLength
	}
	return &SprintService{
		store:        store,
		logger:       logger,
		router:       opts.Router,
		autosave:     opts.AutoSave,
		sprintLength: opts.SprintLength,
		validate:     validator.New(),
	}
}

// LoadTaskView renders what ownerID should see next for taskID.
func (s *SprintService) LoadTaskView(ctx context.Context, viewerID, ownerID, taskID string) (interpreter.View, error) {
	if err := s.authorize(viewerID, ownerID, models.ViewAccessLevel); err != nil {
		return interpreter.View{}, err
	}
	task, err := s.getTask(taskID)
	if err != nil {
		return interpreter.View{}, err
	}
	return s.render(task, ownerID)
}

// SubmitAnswer stores the answer to a step and returns the view that follows
// it. The task is marked completed once nothing is left to answer.
func (s *SprintService) SubmitAnswer(ctx context.Context, viewerID, ownerID, taskID, stepID string, value any) (interpreter.View, error) {
	if err := s.authorize(viewerID, ownerID, models.EditAccessLevel); err != nil {
		return interpreter.View{}, err
	}
	task, err := s.getTask(taskID)
	if err != nil {
		return interpreter.View{}, err
	}

	update := models.ProgressUpdate{UserID: ownerID, TaskID: taskID}
	value, err = s.checkAnswer(task, stepID, value, &update)
	if err != nil {
		return interpreter.View{}, err
	}
	update.Answers = map[string]any{stepID: value}

	err = inTx(s.store, s.logger, func(tx storage.Store) error {
		return tx.UpsertProgress(update)
	})
	if err != nil {
		s.logger.Errorf("Failed to save answer to step %s of task %s for %s: %v", stepID, taskID, ownerID, err)
		return interpreter.View{}, err
	}
	s.logger.Infof("Saved answer to step %s of task %s for %s", stepID, taskID, ownerID)

	view, err := s.render(task, ownerID)
	if err != nil {
		return interpreter.View{}, err
	}
	if view.Kind == interpreter.CompleteViewKind {
		if err := s.markCompleted(ownerID, taskID); err != nil {
			return interpreter.View{}, err
		}
	}
	return view, nil
}

// AnswerProfileQuestion stores a profile field and re-renders taskID.
func (s *SprintService) AnswerProfileQuestion(ctx context.Context, viewerID, ownerID, taskID, key string, value any) (interpreter.View, error) {
	if err := s.authorize(viewerID, ownerID, models.EditAccessLevel); err != nil {
		return interpreter.View{}, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return interpreter.View{}, invalidf("profile key cannot be empty")
	}
	if !(models.Profile{key: value}).Has(key) {
		return interpreter.View{}, invalidf("profile field %s needs a value", key)
	}
	task, err := s.getTask(taskID)
	if err != nil {
		return interpreter.View{}, err
	}

	value = coerceProfileValue(key, value)
	err = inTx(s.store, s.logger, func(tx storage.Store) error {
		return tx.SaveProfileField(ownerID, key, value)
	})
	if err != nil {
		s.logger.Errorf("Failed to save profile field %s for %s: %v", key, ownerID, err)
		return interpreter.View{}, err
	}
	s.logger.Infof("Saved profile field %s for %s", key, ownerID)
	return s.render(task, ownerID)
}

// AutoSaveField hands a field change to the auto-save manager and returns
// the field's save status right after.
func (s *SprintService) AutoSaveField(ctx context.Context, viewerID, ownerID, taskID, fieldID string, value any, isTyping bool) (models.SaveStatus, error) {
	if s.autosave == nil {
		return "", errors.New("auto-save is not configured")
	}
	if err := s.authorize(viewerID, ownerID, models.EditAccessLevel); err != nil {
		return "", err
	}
	if strings.TrimSpace(fieldID) == "" {
		return "", invalidf("field id cannot be empty")
	}
	if _, err := s.getTask(taskID); err != nil {
		return "", err
	}

	key := fieldKey(ownerID, taskID, fieldID)
	s.autosave.HandleFieldChange(key, value, isTyping, func(ctx context.Context, v any) error {
		return inTx(s.store, s.logger, func(tx storage.Store) error {
			return tx.UpsertProgress(models.ProgressUpdate{
				UserID:      ownerID,
				TaskID:      taskID,
				TaskAnswers: map[string]any{fieldID: v},
			})
		})
	})
	return s.autosave.GetSaveStatus(key), nil
}

func (s *SprintService) SaveStatus(ctx context.Context, viewerID, ownerID, taskID, fieldID string) (models.SaveStatus, error) {
	if s.autosave == nil {
		return models.IdleSaveStatus, nil
	}
	if err := s.authorize(viewerID, ownerID, models.ViewAccessLevel); err != nil {
		return "", err
	}
	return s.autosave.GetSaveStatus(fieldKey(ownerID, taskID, fieldID)), nil
}

// CompleteTask marks taskID completed regardless of its answers.
func (s *SprintService) CompleteTask(ctx context.Context, viewerID, ownerID, taskID string) error {
	if err := s.authorize(viewerID, ownerID, models.EditAccessLevel); err != nil {
		return err
	}
	if _, err := s.getTask(taskID); err != nil {
		return err
	}
	return s.markCompleted(ownerID, taskID)
}

func (s *SprintService) ListProgress(ctx context.Context, viewerID, ownerID string) ([]models.UserTaskProgress, error) {
	if err := s.authorize(viewerID, ownerID, models.ViewAccessLevel); err != nil {
		return nil, err
	}
	return s.store.ListProgress(ownerID)
}

// AddCollaborator shares ownerID's sprint. Only the owner can share it.
func (s *SprintService) AddCollaborator(ctx context.Context, viewerID, ownerID, collaboratorID string, level models.AccessLevel) error {
	if viewerID != ownerID {
		return errors.Wrapf(ErrAccessDenied, "only %s can share their sprint", ownerID)
	}
	collaboratorID = strings.TrimSpace(collaboratorID)
	if collaboratorID == "" || collaboratorID == ownerID {
		return invalidf("collaborator must be another user")
	}
	if level != models.ViewAccessLevel && level != models.EditAccessLevel {
		return invalidf("unknown access level %q", level)
	}
	err := inTx(s.store, s.logger, func(tx storage.Store) error {
		return tx.SaveCollaborator(models.Collaborator{
			OwnerID:        ownerID,
			CollaboratorID: collaboratorID,
			AccessLevel:    level,
		})
	})
	if err != nil {
		s.logger.Errorf("Failed to share sprint of %s with %s: %v", ownerID, collaboratorID, err)
		return err
	}
	s.logger.Infof("Shared sprint of %s with %s (%s)", ownerID, collaboratorID, level)
	return nil
}

// ListCollaborators returns who ownerID's sprint is shared with. Only the
// owner can list them.
func (s *SprintService) ListCollaborators(ctx context.Context, viewerID, ownerID string) ([]models.Collaborator, error) {
	if viewerID != ownerID {
		return nil, errors.Wrapf(ErrAccessDenied, "only %s can list their collaborators", ownerID)
	}
	return s.store.ListCollaborators(ownerID)
}

// authorize checks that viewerID may access ownerID's sprint at level need.
func (s *SprintService) authorize(viewerID, ownerID string, need models.AccessLevel) error {
	if ownerID == "" {
		return invalidf("sprint owner cannot be empty")
	}
	if viewerID == ownerID {
		return nil
	}
	if viewerID == "" {
		return errors.Wrap(ErrAccessDenied, "anonymous viewer")
	}
	c, err := s.store.GetCollaborator(ownerID, viewerID)
	if errors.Is(err, storage.ErrNotFound) {
		return errors.Wrapf(ErrAccessDenied, "%s is not a collaborator of %s", viewerID, ownerID)
	}
	if err != nil {
		return err
	}
	if need == models.EditAccessLevel && c.AccessLevel != models.EditAccessLevel {
		return errors.Wrapf(ErrAccessDenied, "%s can only view the sprint of %s", viewerID, ownerID)
	}
	return nil
}

func (s *SprintService) getTask(taskID string) (models.SprintTask, error) {
	task, err := s.store.GetTask(taskID)
	if err != nil {
		return models.SprintTask{}, errors.Wrapf(err, "get task %s", taskID)
	}
	return task, nil
}

// render builds the interpreter context of ownerID for task and renders it.
func (s *SprintService) render(task models.SprintTask, ownerID string) (interpreter.View, error) {
	ictx, err := s.contextFor(task, ownerID)
	if err != nil {
		return interpreter.View{}, err
	}
	return s.router.Render(task, ictx), nil
}

// contextFor fetches the profile and stored answers of ownerID for task.
func (s *SprintService) contextFor(task models.SprintTask, ownerID string) (interpreter.Context, error) {
	sp, err := s.store.GetProfile(ownerID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return interpreter.Context{}, errors.Wrapf(err, "get profile of %s", ownerID)
	}
	progress, err := s.store.GetProgress(ownerID, task.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return interpreter.Context{}, errors.Wrapf(err, "get progress of %s on %s", ownerID, task.ID)
	}
	ictx := interpreter.Context{Profile: sp.Fields, Answers: progress.Answers}
	if ictx.Profile == nil {
		ictx.Profile = models.Profile{}
	}
	if ictx.Answers == nil {
		ictx.Answers = map[string]any{}
	}
	return ictx, nil
}

func (s *SprintService) markCompleted(ownerID, taskID string) error {
	completed := true
	err := inTx(s.store, s.logger, func(tx storage.Store) error {
		return tx.UpsertProgress(models.ProgressUpdate{UserID: ownerID, TaskID: taskID, Completed: &completed})
	})
	if err != nil {
		s.logger.Errorf("Failed to complete task %s for %s: %v", taskID, ownerID, err)
		return err
	}
	s.logger.Infof("Task %s completed by %s", taskID, ownerID)
	return nil
}

// checkAnswer validates value against the step it answers and returns the
// value to store. Upload answers also set update.FileID.
func (s *SprintService) checkAnswer(task models.SprintTask, stepID string, value any, update *models.ProgressUpdate) (any, error) {
	if strings.TrimSpace(stepID) == "" {
		return nil, invalidf("step id cannot be empty")
	}
	route := s.router.Route(task)
	switch route.Kind {
	case interpreter.SchemaRouteKind:
		step, kind, ok := interpreter.FindStep(route.Definition, stepID)
		if !ok {
			return nil, invalidf("task %s has no step %s", task.ID, stepID)
		}
		if err := s.checkReachable(task, route.Definition, step, update.UserID); err != nil {
			return nil, err
		}
		if _, supported := interpreter.ParseStepKind(step.Type); !supported || !kind.Answerable() {
			// content and unsupported steps only need an acknowledgement
			if value == nil {
				value = true
			}
			return value, nil
		}
		switch kind {
		case interpreter.UploadStepKind:
			return uploadAnswer(stepID, value, update)
		case interpreter.CollaborationStepKind:
			return s.teamAnswer(stepID, value)
		}
	case interpreter.CustomRouteKind:
		if stepID == interpreter.FileUploadStepID {
			return uploadAnswer(stepID, value, update)
		}
	case interpreter.NoneRouteKind:
		return nil, invalidf("task %s has nothing to answer", task.ID)
	}
	if !(models.Profile{stepID: value}).Has(stepID) {
		return nil, invalidf("step %s needs an answer", stepID)
	}
	return value, nil
}

// checkReachable rejects answers to steps the user cannot see yet: steps
// behind unanswered profile questions and steps whose conditions do not hold.
func (s *SprintService) checkReachable(task models.SprintTask, def models.TaskDefinition, step models.StepNode, ownerID string) error {
	ictx, err := s.contextFor(task, ownerID)
	if err != nil {
		return err
	}
	if prompt, pending := interpreter.NextProfileQuestion(def.ProfileQuestions, ictx.Profile); pending {
		return invalidf("task %s is waiting for profile field %s", task.ID, prompt.Key)
	}
	decision := interpreter.EvaluateStep(step, ictx.Profile, ictx.Answers)
	switch decision.Gate {
	case interpreter.BlockedOnProfileGate:
		return invalidf("step %s is waiting for profile field %s", step.ID, decision.ProfileKey)
	case interpreter.SkippedGate:
		return invalidf("step %s does not apply", step.ID)
	}
	return nil
}

func uploadAnswer(stepID string, value any, update *models.ProgressUpdate) (any, error) {
	fileID, ok := value.(string)
	if !ok || strings.TrimSpace(fileID) == "" {
		return nil, invalidf("step %s needs the id of an uploaded file", stepID)
	}
	update.FileID = &fileID
	return fileID, nil
}

// teamAnswer decodes and validates the team members of a collaboration step.
func (s *SprintService) teamAnswer(stepID string, value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, invalidf("step %s: %v", stepID, err)
	}
	var members []models.TeamMember
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, invalidf("step %s needs a list of team members", stepID)
	}
	if len(members) == 0 {
		return nil, invalidf("step %s needs at least one team member", stepID)
	}
	for i, m := range members {
		if err := s.validate.Struct(m); err != nil {
			return nil, invalidf("team member %d of step %s: %v", i+1, stepID, err)
		}
	}
	return members, nil
}

// coerceProfileValue stores "yes", "no", "true" and "false" answers to
// boolean fields as booleans.
func coerceProfileValue(key string, value any) any {
	if profile.Resolve(key).Type != profile.BooleanFieldType {
		return value
	}
	str, ok := value.(string)
	if !ok {
		return value
	}
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "true", "yes":
		return true
	case "false", "no":
		return false
	}
	return value
}

func fieldKey(ownerID, taskID, fieldID string) string {
	return ownerID + "/" + taskID + "/" + fieldID
}
