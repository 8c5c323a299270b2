package interpreter

import (
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/profile"
)

// NextProfileQuestion returns the prompt for the first question, in array
// order, whose key is missing from p. ok is false once every key is answered.
func NextProfileQuestion(questions []models.ProfileQuestion, p models.Profile) (prompt ProfilePrompt, ok bool) {
	for _, q := range questions {
		if q.Key == "" || p.Has(q.Key) {
			continue
		}
		return promptFor(q), true
	}
	return ProfilePrompt{}, false
}

func promptFor(q models.ProfileQuestion) ProfilePrompt {
	field := profile.Resolve(q.Key)
	prompt := ProfilePrompt{
		Key:     q.Key,
		Text:    field.Label,
		Type:    field.Type,
		Options: field.Options,
	}
	if q.Text != "" {
		prompt.Text = q.Text
	}
	if q.Type != "" {
		prompt.Type = profile.FieldType(q.Type)
	}
	if len(q.Options) > 0 {
		prompt.Options = q.Options
	}
	return prompt
}

// profilePromptForKey builds the prompt for a step gated on key. A question
// declared on the task for the same key takes precedence over the resolver.
func profilePromptForKey(key string, questions []models.ProfileQuestion) ProfilePrompt {
	for _, q := range questions {
		if q.Key == key {
			return promptFor(q)
		}
	}
	return promptFor(models.ProfileQuestion{Key: key})
}
