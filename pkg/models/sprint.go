package models

import "time"

type AccessLevel string

const (
	ViewAccessLevel AccessLevel = "view"
	EditAccessLevel AccessLevel = "edit"
)

// Profile holds the stored sprint profile fields of a user.
type Profile map[string]any

// Has reports whether key has been answered. Nil and empty string values count
// as unanswered.
func (p Profile) Has(key string) bool {
	v, ok := p[key]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString && s == "" {
		return false
	}
	return true
}

// SprintProfile is the profile of a sprint participant.
type SprintProfile struct {
	UserID          string     `json:"user_id" db:"user_id"`
	Fields          Profile    `json:"fields" db:"-"`
	SprintStartedAt *time.Time `json:"sprint_started_at,omitempty" db:"sprint_started_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// Collaborator grants another user access to a shared sprint.
type Collaborator struct {
	OwnerID        string      `json:"owner_id" db:"owner_id"`
	CollaboratorID string      `json:"collaborator_id" db:"collaborator_id"`
	AccessLevel    AccessLevel `json:"access_level" db:"access_level"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

// TeamMember is one entry of a collaboration step answer.
type TeamMember struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role,omitempty"`
}
