package storage

import (
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
)

// mockStore implements Store with in-memory storage. Transactions share the
// parent's data; Commit and Rollback only track state.
type mockStore struct {
	data      *memoryData
	inTx      bool
	committed bool
}

type memoryData struct {
	mu            sync.RWMutex
	tasks         map[string]models.SprintTask
	progress      map[pairKey]models.UserTaskProgress
	profiles      map[string]models.SprintProfile
	collaborators map[pairKey]models.Collaborator
}

type pairKey struct {
	a, b string
}

func NewMockStore() Store {
	return &mockStore{data: &memoryData{
		tasks:         make(map[string]models.SprintTask),
		progress:      make(map[pairKey]models.UserTaskProgress),
		profiles:      make(map[string]models.SprintProfile),
		collaborators: make(map[pairKey]models.Collaborator),
	}}
}

func (m *mockStore) Begin() (Store, error) {
	return &mockStore{data: m.data, inTx: true}, nil
}

func (m *mockStore) Commit() error {
	if !m.inTx {
		return errors.New("cannot commit: not a transaction")
	}
	if m.committed {
		return errors.New("already committed")
	}
	m.committed = true
	return nil
}

func (m *mockStore) Rollback() error {
	if !m.inTx {
		return errors.New("cannot rollback: not a transaction")
	}
	if m.committed {
		return errors.New("cannot rollback committed transaction")
	}
	return nil
}

func (m *mockStore) Close() error {
	return nil
}

func (m *mockStore) checkOpen() error {
	if m.committed {
		return errors.New("transaction already committed")
	}
	return nil
}

func (m *mockStore) SaveTask(t models.SprintTask) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	m.data.mu.Lock()
	defer m.data.mu.Unlock()
	now := time.Now()
	if existing, ok := m.data.tasks[t.ID]; ok {
		t.CreatedAt = existing.CreatedAt
	} else if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	m.data.tasks[t.ID] = t
	return nil
}

func (m *mockStore) GetTask(id string) (models.SprintTask, error) {
	m.data.mu.RLock()
	defer m.data.mu.RUnlock()
	t, ok := m.data.tasks[id]
	if !ok {
		return models.SprintTask{}, ErrNotFound
	}
	return t, nil
}

func (m *mockStore) ListTasks() ([]models.SprintTask, error) {
	m.data.mu.RLock()
	defer m.data.mu.RUnlock()
	tasks := make([]models.SprintTask, 0, len(m.data.tasks))
	for _, t := range m.data.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].OrderIndex != tasks[j].OrderIndex {
			return tasks[i].OrderIndex < tasks[j].OrderIndex
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

func (m *mockStore) GetProgress(userID, taskID string) (models.UserTaskProgress, error) {
	m.data.mu.RLock()
	defer m.data.mu.RUnlock()
	p, ok := m.data.progress[pairKey{userID, taskID}]
	if !ok {
		return models.UserTaskProgress{}, ErrNotFound
	}
	return copyProgress(p), nil
}

func (m *mockStore) ListProgress(userID string) ([]models.UserTaskProgress, error) {
	m.data.mu.RLock()
	defer m.data.mu.RUnlock()
	var list []models.UserTaskProgress
	for k, p := range m.data.progress {
		if k.a == userID {
			list = append(list, copyProgress(p))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].TaskID < list[j].TaskID })
	return list, nil
}

func (m *mockStore) UpsertProgress(u models.ProgressUpdate) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	m.data.mu.Lock()
	defer m.data.mu.Unlock()
	key := pairKey{u.UserID, u.TaskID}
	p, ok := m.data.progress[key]
	if !ok {
		p = models.UserTaskProgress{
			UserID:      u.UserID,
			TaskID:      u.TaskID,
			Answers:     map[string]any{},
			TaskAnswers: map[string]any{},
		}
	}
	maps.Copy(p.Answers, u.Answers)
	maps.Copy(p.TaskAnswers, u.TaskAnswers)
	if u.FileID != nil {
		fileID := *u.FileID
		p.FileID = &fileID
	}
	now := time.Now()
	if u.Completed != nil {
		if *u.Completed && !p.Completed {
			p.CompletedAt = &now
		}
		if !*u.Completed {
			p.CompletedAt = nil
		}
		p.Completed = *u.Completed
	}
	p.UpdatedAt = now
	m.data.progress[key] = p
	return nil
}

func (m *mockStore) GetProfile(userID string) (models.SprintProfile, error) {
	m.data.mu.RLock()
	defer m.data.mu.RUnlock()
	p, ok := m.data.profiles[userID]
	if !ok {
		return models.SprintProfile{}, ErrNotFound
	}
	p.Fields = maps.Clone(p.Fields)
	return p, nil
}

func (m *mockStore) SaveProfileField(userID, key string, value any) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	m.data.mu.Lock()
	defer m.data.mu.Unlock()
	p := m.profileLocked(userID)
	p.Fields[key] = value
	p.UpdatedAt = time.Now()
	m.data.profiles[userID] = p
	return nil
}

func (m *mockStore) StartSprint(userID string) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	m.data.mu.Lock()
	defer m.data.mu.Unlock()
	p := m.profileLocked(userID)
	if p.SprintStartedAt == nil {
		now := time.Now()
		p.SprintStartedAt = &now
	}
	p.UpdatedAt = time.Now()
	m.data.profiles[userID] = p
	return nil
}

func (m *mockStore) profileLocked(userID string) models.SprintProfile {
	p, ok := m.data.profiles[userID]
	if !ok {
		p = models.SprintProfile{UserID: userID}
	}
	if p.Fields == nil {
		p.Fields = models.Profile{}
	}
	return p
}

func (m *mockStore) SaveCollaborator(c models.Collaborator) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	m.data.mu.Lock()
	defer m.data.mu.Unlock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	m.data.collaborators[pairKey{c.OwnerID, c.CollaboratorID}] = c
	return nil
}

func (m *mockStore) GetCollaborator(ownerID, collaboratorID string) (models.Collaborator, error) {
	m.data.mu.RLock()
	defer m.data.mu.RUnlock()
	c, ok := m.data.collaborators[pairKey{ownerID, collaboratorID}]
	if !ok {
		return models.Collaborator{}, ErrNotFound
	}
	return c, nil
}

func (m *mockStore) ListCollaborators(ownerID string) ([]models.Collaborator, error) {
	m.data.mu.RLock()
	defer m.data.mu.RUnlock()
	var list []models.Collaborator
	for k, c := range m.data.collaborators {
		if k.a == ownerID {
			list = append(list, c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CollaboratorID < list[j].CollaboratorID })
	return list, nil
}

func copyProgress(p models.UserTaskProgress) models.UserTaskProgress {
	p.Answers = maps.Clone(p.Answers)
	p.TaskAnswers = maps.Clone(p.TaskAnswers)
	return p
}
