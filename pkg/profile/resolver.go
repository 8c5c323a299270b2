// Package profile maps sprint profile keys to the prompts used to ask for them.
package profile

import (
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
)

type FieldType string

const (
	BooleanFieldType FieldType = "boolean"
	SelectFieldType  FieldType = "select"
	StringFieldType  FieldType = "string"
	TextFieldType    FieldType = "text"
)

// Field describes how a profile key is asked for.
type Field struct {
	Key     string          `json:"key"`
	Label   string          `json:"label"`
	Type    FieldType       `json:"type"`
	Options []models.Option `json:"options,omitempty"`
}

func options(values ...string) []models.Option {
	opts := make([]models.Option, len(values))
	for i, v := range values {
		opts[i] = models.Option{Label: v, Value: v}
	}
	return opts
}

var knownFields = map[string]Field{
	"name":                      {Label: "What is your name?", Type: StringFieldType},
	"email":                     {Label: "What is your email address?", Type: StringFieldType},
	"linkedin":                  {Label: "What is your LinkedIn profile URL?", Type: StringFieldType},
	"current_job":               {Label: "What is your current job?", Type: StringFieldType},
	"uploaded_cv":               {Label: "Have you uploaded your CV?", Type: BooleanFieldType},
	"is_scientist":              {Label: "Are you a scientist or engineer?", Type: BooleanFieldType},
	"is_uni_spinout":            {Label: "Is your company a university spin-out?", Type: BooleanFieldType},
	"uni_spinout_status":        {Label: "What is the status of your spin-out?", Type: SelectFieldType, Options: options("Not started", "In discussion with the TTO", "Terms agreed", "Completed")},
	"company_incorporated":      {Label: "Have you incorporated your company?", Type: BooleanFieldType},
	"received_funding":          {Label: "Have you received any funding?", Type: BooleanFieldType},
	"funding_details":           {Label: "Tell us about the funding you have received.", Type: TextFieldType},
	"has_financial_plan":        {Label: "Do you have a financial plan?", Type: BooleanFieldType},
	"has_deck":                  {Label: "Do you have a pitch deck?", Type: BooleanFieldType},
	"team_status":               {Label: "What is your team status?", Type: SelectFieldType, Options: options("Solo founder", "Co-founders", "Employees")},
	"commercializing_invention": {Label: "Are you commercialising your own invention?", Type: BooleanFieldType},
	"has_patents":               {Label: "Do you have patents filed or granted?", Type: BooleanFieldType},
	"customer_engagement":       {Label: "Have you spoken with potential customers?", Type: BooleanFieldType},
	"market_known":              {Label: "Do you know your target market?", Type: BooleanFieldType},
	"funding_plan":              {Label: "How are you planning to fund the company?", Type: SelectFieldType, Options: options("Grants", "Angel investment", "Venture capital", "Bootstrapping")},
	"dashboard_access_enabled":  {Label: "Do you want dashboard access?", Type: BooleanFieldType},
}

// Resolve returns the prompt for key. Unknown keys become a yes/no question
// labelled with the raw key.
func Resolve(key string) Field {
	f, ok := knownFields[key]
	if !ok {
		return Field{Key: key, Label: key, Type: BooleanFieldType, Options: models.YesNoOptions}
	}
	f.Key = key
	if f.Type == BooleanFieldType && len(f.Options) == 0 {
		f.Options = models.YesNoOptions
	}
	return f
}

// Known reports whether key is a known profile field.
func Known(key string) bool {
	_, ok := knownFields[key]
	return ok
}
