package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ID is a backend identifier. The API emits integers, but strings are accepted too.
type ID string

// UnmarshalJSON accepts both JSON numbers and strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits numeric ids as numbers so the backend sees its own type.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Amount is a monetary value in KES. Decimal columns arrive as strings ("1500.00").
type Amount float64

// UnmarshalJSON accepts numbers, numeric strings and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	raw := data
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*a = 0
			return nil
		}
		raw = []byte(s)
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", data, err)
	}
	*a = Amount(v)
	return nil
}

// JobPosting is a job as published by a foreman. The client only ever holds
// read-only snapshots of these.
type JobPosting struct {
	ID             ID        `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	LocationCoords *string   `json:"location_coords,omitempty"` // "lat,lon"
	Budget         Amount    `json:"budget"`
	Status         string    `json:"status"`
	UserID         ID        `json:"user_id,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// RankedJob is a JobPosting annotated with its distance from the user, in km.
// Distance is nil when the posting has no usable coordinates.
type RankedJob struct {
	JobPosting
	Distance *float64 `json:"distance"`
}

// NewJob is the payload for posting a job.
type NewJob struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Budget      Amount `json:"budget"`
}

// Validate checks the fields the backend requires.
func (j NewJob) Validate() error {
	switch {
	case j.Title == "":
		return NewValidationError("title", "Please enter a job title.")
	case j.Location == "":
		return NewValidationError("location", "Please enter the job location.")
	case j.Budget < 0:
		return NewValidationError("budget", "Budget cannot be negative.")
	}
	return nil
}
