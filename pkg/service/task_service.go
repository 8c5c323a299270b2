package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/profile"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/storage"
)

// TaskService is used by administrators to author sprint tasks.
type TaskService struct {
	store    storage.Store
	logger   Logger
	validate *validator.Validate
}

func NewTaskService(store storage.Store, logger Logger) *TaskService {
	return &TaskService{
		store:    store,
		logger:   logger,
		validate: validator.New(),
	}
}

// SaveTask validates task and stores it, overwriting any previous version.
// Schema definitions get a UUID for every step that lacks an id; the rest of
// the document is stored as written.
func (ts *TaskService) SaveTask(task models.SprintTask) (models.SprintTask, error) {
	task.ID = strings.TrimSpace(task.ID)
	if task.ID == "" {
		return models.SprintTask{}, invalidf("task id cannot be empty")
	}
	if err := ts.validate.Struct(task); err != nil {
		return models.SprintTask{}, errors.Wrap(ErrInvalid, err.Error())
	}
	if task.HasDefinition() {
		def, err := ts.normalizeDefinition(task)
		if err != nil {
			return models.SprintTask{}, err
		}
		task.Definition = def
	}

	err := inTx(ts.store, ts.logger, func(tx storage.Store) error {
		return tx.SaveTask(task)
	})
	if err != nil {
		ts.logger.Errorf("Failed to save task %s: %v", task.ID, err)
		return models.SprintTask{}, err
	}
	ts.logger.Infof("Saved task '%s' (%s)", task.Title, task.ID)
	return ts.store.GetTask(task.ID)
}

func (ts *TaskService) GetTask(id string) (models.SprintTask, error) {
	task, err := ts.store.GetTask(id)
	if err != nil {
		return models.SprintTask{}, errors.Wrapf(err, "get task %s", id)
	}
	return task, nil
}

func (ts *TaskService) ListTasks() ([]models.SprintTask, error) {
	return ts.store.ListTasks()
}

// normalizeDefinition checks a definition document. Documents with a steps
// array are decoded and validated as schema definitions; other JSON objects
// are kept unchanged as legacy definitions.
func (ts *TaskService) normalizeDefinition(task models.SprintTask) (json.RawMessage, error) {
	if !gjson.ValidBytes(task.Definition) || !gjson.ParseBytes(task.Definition).IsObject() {
		return nil, invalidf("task definition of %s must be a JSON object", task.ID)
	}
	if !gjson.GetBytes(task.Definition, "steps").IsArray() {
		return task.Definition, nil
	}

	var def models.TaskDefinition
	if err := json.Unmarshal(task.Definition, &def); err != nil {
		return nil, invalidf("decode task definition of %s: %v", task.ID, err)
	}
	if def.Title == "" {
		def.Title = task.Title
	}
	if def.ID == "" {
		def.ID = task.ID
	}
	doc := []byte(task.Definition)
	seen := make(map[string]int, len(def.Steps))
	for i := range def.Steps {
		step := &def.Steps[i]
		if step.ID == "" {
			step.ID = uuid.NewString()
			var err error
			if doc, err = sjson.SetBytes(doc, fmt.Sprintf("steps.%d.id", i), step.ID); err != nil {
				return nil, errors.Wrapf(err, "assign id to step %d of %s", i+1, task.ID)
			}
		}
		if prev, dup := seen[step.ID]; dup {
			return nil, invalidf("step %d of %s reuses the id of step %d (%s)", i+1, task.ID, prev+1, step.ID)
		}
		for _, cond := range step.Conditions {
			if ref := cond.Source.StepID; ref != "" {
				if _, earlier := seen[ref]; !earlier {
					return nil, invalidf("step %s of %s depends on %s, which is not an earlier step", step.ID, task.ID, ref)
				}
			}
			if key := cond.Source.ProfileKey; key != "" && !profile.Known(key) && !declaresQuestion(def, key) {
				ts.logger.Infof("Step %s of %s depends on profile field %s, which has no prompt; it will be asked as a yes/no question", step.ID, task.ID, key)
			}
		}
		seen[step.ID] = i
	}
	if err := ts.validate.Struct(def); err != nil {
		return nil, errors.Wrap(ErrInvalid, err.Error())
	}
	// Only assigned ids are written back; fields the model does not know
	// about stay in the stored document.
	return doc, nil
}

func declaresQuestion(def models.TaskDefinition, key string) bool {
	for _, q := range def.ProfileQuestions {
		if q.Key == key {
			return true
		}
	}
	return false
}
