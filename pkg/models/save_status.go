package models

// SaveStatus is the auto-save state of a single field. It is never persisted.
type SaveStatus string

const (
	IdleSaveStatus   SaveStatus = "idle"
	TypingSaveStatus SaveStatus = "typing"
	SavingSaveStatus SaveStatus = "saving"
	SavedSaveStatus  SaveStatus = "saved"
	ErrorSaveStatus  SaveStatus = "error"
)
