package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	_ "github.com/lib/pq"
	"github.com/sethvargo/go-retry"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/storage"
)

const (
	connectAttempts = 5
	connectBackoff  = 200 * time.Millisecond
)

type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	QueryRowx(query string, args ...interface{}) *sqlx.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

type PostgresStore struct {
	db DBInterface
}

type taskRow struct {
	models.SprintTask
	RawDefinition types.NullJSONText `db:"task_definition"`
}

type progressRow struct {
	models.UserTaskProgress
	RawAnswers     types.JSONText `db:"answers"`
	RawTaskAnswers types.JSONText `db:"task_answers"`
}

type profileRow struct {
	models.SprintProfile
	RawFields types.JSONText `db:"fields"`
}

// NewPostgresStore opens the database and pings it with exponential backoff,
// so the service can start while postgres is still coming up.
func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	backoff := retry.WithMaxRetries(connectAttempts, retry.NewExponential(connectBackoff))
	err = retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		if pingErr := db.PingContext(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func InitStore(dbConnStr string) (*PostgresStore, error) {
	return NewPostgresStore(dbConnStr)
}

func (s *PostgresStore) Begin() (storage.Store, error) {
	if db, ok := s.db.(*sqlx.DB); ok {
		tx, err := db.Beginx()
		if err != nil {
			return nil, err
		}
		return &PostgresStore{db: tx}, nil
	}
	return nil, fmt.Errorf("cannot begin transaction on unknown type")
}

func (s *PostgresStore) Commit() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return fmt.Errorf("cannot commit: not a transaction")
}

func (s *PostgresStore) Rollback() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return fmt.Errorf("cannot rollback: not a transaction")
}

func (s *PostgresStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil // No-op for *sqlx.Tx
}

// SaveTask inserts a task or overwrites the stored one, definition included.
func (s *PostgresStore) SaveTask(t models.SprintTask) error {
	var def any
	if t.HasDefinition() {
		def = string(t.Definition)
	}
	_, err := s.db.Exec(`
		INSERT INTO sprint_tasks (id, title, description, category, order_index, task_definition, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		category = EXCLUDED.category,
		order_index = EXCLUDED.order_index,
		task_definition = EXCLUDED.task_definition,
		updated_at = CURRENT_TIMESTAMP`,
		t.ID, t.Title, t.Description, t.Category, t.OrderIndex, def)
	if err != nil {
		return fmt.Errorf("save task %s: %w", t.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetTask(id string) (models.SprintTask, error) {
	var row taskRow
	err := s.db.Get(&row, "SELECT * FROM sprint_tasks WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return models.SprintTask{}, storage.ErrNotFound
	}
	if err != nil {
		return models.SprintTask{}, fmt.Errorf("get task %s: %w", id, err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) ListTasks() ([]models.SprintTask, error) {
	rows := []taskRow{}
	if err := s.db.Select(&rows, "SELECT * FROM sprint_tasks ORDER BY order_index, id"); err != nil {
		return nil, err
	}
	tasks := make([]models.SprintTask, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toModel())
	}
	return tasks, nil
}

func (s *PostgresStore) GetProgress(userID, taskID string) (models.UserTaskProgress, error) {
	var row progressRow
	err := s.db.Get(&row, "SELECT * FROM user_sprint_progress WHERE user_id = $1 AND task_id = $2", userID, taskID)
	if err == sql.ErrNoRows {
		return models.UserTaskProgress{}, storage.ErrNotFound
	}
	if err != nil {
		return models.UserTaskProgress{}, fmt.Errorf("get progress %s/%s: %w", userID, taskID, err)
	}
	return row.toModel()
}

func (s *PostgresStore) ListProgress(userID string) ([]models.UserTaskProgress, error) {
	rows := []progressRow{}
	if err := s.db.Select(&rows, "SELECT * FROM user_sprint_progress WHERE user_id = $1 ORDER BY task_id", userID); err != nil {
		return nil, err
	}
	list := make([]models.UserTaskProgress, 0, len(rows))
	for _, row := range rows {
		p, err := row.toModel()
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, nil
}

// UpsertProgress merges the update into the (user, task) row, creating it on
// first interaction. completed_at is set when the task first becomes completed.
func (s *PostgresStore) UpsertProgress(u models.ProgressUpdate) error {
	answers, err := marshalObject(u.Answers)
	if err != nil {
		return err
	}
	taskAnswers, err := marshalObject(u.TaskAnswers)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO user_sprint_progress (user_id, task_id, answers, task_answers, file_id, completed, completed_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4::jsonb, $5::text, COALESCE($6::boolean, FALSE),
			CASE WHEN $6::boolean THEN CURRENT_TIMESTAMP END, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, task_id) DO UPDATE SET
		answers = user_sprint_progress.answers || EXCLUDED.answers,
		task_answers = user_sprint_progress.task_answers || EXCLUDED.task_answers,
		file_id = COALESCE($5::text, user_sprint_progress.file_id),
		completed = COALESCE($6::boolean, user_sprint_progress.completed),
		completed_at = CASE
			WHEN $6::boolean IS NULL THEN user_sprint_progress.completed_at
			WHEN $6::boolean AND NOT user_sprint_progress.completed THEN CURRENT_TIMESTAMP
			WHEN $6::boolean THEN user_sprint_progress.completed_at
			ELSE NULL END,
		updated_at = CURRENT_TIMESTAMP`,
		u.UserID, u.TaskID, answers, taskAnswers, u.FileID, u.Completed)
	if err != nil {
		return fmt.Errorf("upsert progress %s/%s: %w", u.UserID, u.TaskID, err)
	}
	return nil
}

func (s *PostgresStore) GetProfile(userID string) (models.SprintProfile, error) {
	var row profileRow
	err := s.db.Get(&row, "SELECT * FROM sprint_profiles WHERE user_id = $1", userID)
	if err == sql.ErrNoRows {
		return models.SprintProfile{}, storage.ErrNotFound
	}
	if err != nil {
		return models.SprintProfile{}, fmt.Errorf("get profile %s: %w", userID, err)
	}
	profile := row.SprintProfile
	profile.Fields = models.Profile{}
	if len(row.RawFields) > 0 {
		if err := row.RawFields.Unmarshal(&profile.Fields); err != nil {
			return models.SprintProfile{}, fmt.Errorf("decode profile %s: %w", userID, err)
		}
	}
	return profile, nil
}

// SaveProfileField sets one key of the profile's JSON fields.
func (s *PostgresStore) SaveProfileField(userID, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode profile field %s: %w", key, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO sprint_profiles (user_id, fields, updated_at)
		VALUES ($1, jsonb_build_object($2::text, $3::jsonb), CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET
		fields = sprint_profiles.fields || jsonb_build_object($2::text, $3::jsonb),
		updated_at = CURRENT_TIMESTAMP`,
		userID, key, string(encoded))
	if err != nil {
		return fmt.Errorf("save profile field %s for %s: %w", key, userID, err)
	}
	return nil
}

// StartSprint records the sprint start date unless one is already set.
func (s *PostgresStore) StartSprint(userID string) error {
	_, err := s.db.Exec(`
		INSERT INTO sprint_profiles (user_id, sprint_started_at, updated_at)
		VALUES ($1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET
		sprint_started_at = COALESCE(sprint_profiles.sprint_started_at, CURRENT_TIMESTAMP),
		updated_at = CURRENT_TIMESTAMP`, userID)
	return err
}

func (s *PostgresStore) SaveCollaborator(c models.Collaborator) error {
	_, err := s.db.Exec(`
		INSERT INTO sprint_collaborators (owner_id, collaborator_id, access_level, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (owner_id, collaborator_id) DO UPDATE SET access_level = EXCLUDED.access_level`,
		c.OwnerID, c.CollaboratorID, c.AccessLevel)
	return err
}

func (s *PostgresStore) GetCollaborator(ownerID, collaboratorID string) (models.Collaborator, error) {
	var c models.Collaborator
	err := s.db.Get(&c, "SELECT * FROM sprint_collaborators WHERE owner_id = $1 AND collaborator_id = $2", ownerID, collaboratorID)
	if err == sql.ErrNoRows {
		return models.Collaborator{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Collaborator{}, err
	}
	return c, nil
}

func (s *PostgresStore) ListCollaborators(ownerID string) ([]models.Collaborator, error) {
	list := []models.Collaborator{}
	err := s.db.Select(&list, "SELECT * FROM sprint_collaborators WHERE owner_id = $1 ORDER BY collaborator_id", ownerID)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r taskRow) toModel() models.SprintTask {
	t := r.SprintTask
	if r.RawDefinition.Valid {
		t.Definition = json.RawMessage(r.RawDefinition.JSONText)
	}
	return t
}

func (r progressRow) toModel() (models.UserTaskProgress, error) {
	p := r.UserTaskProgress
	p.Answers = map[string]any{}
	p.TaskAnswers = map[string]any{}
	if len(r.RawAnswers) > 0 {
		if err := r.RawAnswers.Unmarshal(&p.Answers); err != nil {
			return models.UserTaskProgress{}, fmt.Errorf("decode answers: %w", err)
		}
	}
	if len(r.RawTaskAnswers) > 0 {
		if err := r.RawTaskAnswers.Unmarshal(&p.TaskAnswers); err != nil {
			return models.UserTaskProgress{}, fmt.Errorf("decode task answers: %w", err)
		}
	}
	return p, nil
}

// marshalObject encodes m as a JSON object; nil maps become {} so that the
// jsonb concatenation in UpsertProgress stays an object merge.
func marshalObject(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode answers: %w", err)
	}
	return string(b), nil
}
