package models

import "github.com/google/uuid"

// Unit types for error codes.
const (
	UnitIndoor  = "indoor"
	UnitOutdoor = "outdoor"
)

// ErrorCode is read-only reference data searched by substring match.
type ErrorCode struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	UnitType           string    `json:"unit_type" db:"unit_type"`
	ModelName          *string   `json:"model_name" db:"model_name"`
	ErrorCode          string    `json:"error_code" db:"error_code"`
	Title              *string   `json:"title" db:"title"`
	PossibleCause      *string   `json:"possible_cause" db:"possible_cause"`
	DiagnosisAndAction *string   `json:"diagnosis_and_action" db:"diagnosis_and_action"`
}
