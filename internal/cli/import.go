package cli

import (
	"encoding/json"
	"fmt"

	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
	"gopkg.in/yaml.v3"
)

// ParseTaskFile reads tasks from a YAML or JSON document. The document is
// either a single task, a list of tasks or an object with a "tasks" list.
func ParseTaskFile(data []byte) ([]models.SprintTask, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse task file: %w", err)
	}
	if m, ok := doc.(map[string]any); ok {
		if list, hasTasks := m["tasks"]; hasTasks {
			doc = list
		} else {
			doc = []any{m}
		}
	}
	if doc == nil {
		return nil, fmt.Errorf("task file is empty")
	}

	// yaml.v3 decodes mappings into map[string]any, so the tree re-encodes
	// as JSON and decodes into the task model.
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode task file: %w", err)
	}
	var tasks []models.SprintTask
	if err := json.Unmarshal(encoded, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return tasks, nil
}
