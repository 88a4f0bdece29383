package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mafundi/mafundi-cli/internal/constants"
)

// ApplicationRequest is the payload for applying to a job. Location is either
// "lat,lon" or a free-text label.
type ApplicationRequest struct {
	JobID    ID     `json:"job_id"`
	Location string `json:"location"`
}

// Validate rejects missing or too-short locations.
func (a ApplicationRequest) Validate() error {
	if a.JobID == "" {
		return NewValidationError("job_id", "Please pick a job.")
	}
	return ValidateManualLocation(a.Location)
}

// Application is a fundi's application as returned by the backend.
type Application struct {
	ID          ID          `json:"id"`
	JobID       ID          `json:"job_id"`
	UserID      ID          `json:"user_id"`
	Location    string      `json:"location"`
	Status      string      `json:"status"`
	CoverLetter string      `json:"cover_letter,omitempty"`
	Job         *JobPosting `json:"job,omitempty"`
	User        *User       `json:"user,omitempty"`
	CreatedAt   time.Time   `json:"created_at,omitempty"`
}

// ValidateManualLocation accepts any label of at least
// constants.MinManualLocationLength characters, ignoring surrounding space.
func ValidateManualLocation(label string) error {
	if utf8.RuneCountInString(strings.TrimSpace(label)) < constants.MinManualLocationLength {
		return NewValidationError("location", "Please enter your location.")
	}
	return nil
}
