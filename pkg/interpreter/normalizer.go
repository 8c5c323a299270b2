package interpreter

import "strings"

// StepKind is the closed set of renderer categories a step type maps onto.
type StepKind string

const (
	QuestionStepKind      StepKind = "question"
	CollaborationStepKind StepKind = "collaboration"
	UploadStepKind        StepKind = "upload"
	ContentStepKind       StepKind = "content"
	ExerciseStepKind      StepKind = "exercise"
)

var stepKindAliases = map[string]StepKind{
	"question":        QuestionStepKind,
	"form":            QuestionStepKind,
	"input":           QuestionStepKind,
	"text-input":      QuestionStepKind,
	"textarea":        QuestionStepKind,
	"select":          QuestionStepKind,
	"radio":           QuestionStepKind,
	"checkbox":        QuestionStepKind,
	"multiple-choice": QuestionStepKind,
	"boolean":         QuestionStepKind,
	"yes-no":          QuestionStepKind,

	"collaboration": CollaborationStepKind,
	"team":          CollaborationStepKind,
	"team-members":  CollaborationStepKind,
	"team_members":  CollaborationStepKind,
	"collaborators": CollaborationStepKind,
	"invite":        CollaborationStepKind,

	"upload":      UploadStepKind,
	"file":        UploadStepKind,
	"file-upload": UploadStepKind,
	"file_upload": UploadStepKind,
	"document":    UploadStepKind,
	"deck":        UploadStepKind,

	"content":      ContentStepKind,
	"info":         ContentStepKind,
	"information":  ContentStepKind,
	"video":        ContentStepKind,
	"markdown":     ContentStepKind,
	"instructions": ContentStepKind,
	"reading":      ContentStepKind,

	"exercise":   ExerciseStepKind,
	"activity":   ExerciseStepKind,
	"worksheet":  ExerciseStepKind,
	"quiz":       ExerciseStepKind,
	"reflection": ExerciseStepKind,
}

// ParseStepKind maps a step type onto its kind. ok is false for unknown types,
// in which case the content kind is returned.
func ParseStepKind(raw string) (kind StepKind, ok bool) {
	kind, ok = stepKindAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return ContentStepKind, false
	}
	return kind, true
}

// NormalizeStepType maps a loosely typed step kind onto a StepKind. Unknown
// values degrade to content.
func NormalizeStepType(raw string) StepKind {
	kind, _ := ParseStepKind(raw)
	return kind
}

// Answerable reports whether steps of this kind collect input from the user.
func (k StepKind) Answerable() bool {
	return k != ContentStepKind
}
