package storage

import (
	"github.com/pkg/errors"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
)

var ErrNotFound = errors.New("not found")

// Store defines the storage operations of the sprint service.
type Store interface {
	Begin() (Store, error)
	Commit() error
	Rollback() error
	Close() error

	// Task operations
	SaveTask(t models.SprintTask) error
	GetTask(id string) (models.SprintTask, error)
	ListTasks() ([]models.SprintTask, error)

	// Progress operations
	GetProgress(userID, taskID string) (models.UserTaskProgress, error)
	ListProgress(userID string) ([]models.UserTaskProgress, error)
	UpsertProgress(u models.ProgressUpdate) error

	// Profile operations
	GetProfile(userID string) (models.SprintProfile, error)
	SaveProfileField(userID, key string, value any) error
	StartSprint(userID string) error

	// Collaborator operations
	SaveCollaborator(c models.Collaborator) error
	GetCollaborator(ownerID, collaboratorID string) (models.Collaborator, error)
	ListCollaborators(ownerID string) ([]models.Collaborator, error)
}
