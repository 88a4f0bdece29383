package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mafundi/mafundi-cli/pkg/location"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobPosting_UnmarshalBackendShapes(t *testing.T) {
	payload := `{"id": 42, "title": "Plumber", "location": "Kariobangi",
		"location_coords": "-1.3000,36.8000", "budget": "1500.00", "status": "open", "user_id": "7"}`

	var job JobPosting
	require.NoError(t, json.Unmarshal([]byte(payload), &job))
	assert.Equal(t, ID("42"), job.ID)
	assert.Equal(t, ID("7"), job.UserID)
	assert.Equal(t, Amount(1500), job.Budget)
	require.NotNil(t, job.LocationCoords)
	assert.Equal(t, "-1.3000,36.8000", *job.LocationCoords)

	var bare JobPosting
	require.NoError(t, json.Unmarshal([]byte(`{"id":"abc","budget":2500,"location_coords":null}`), &bare))
	assert.Equal(t, ID("abc"), bare.ID)
	assert.Equal(t, Amount(2500), bare.Budget)
	assert.Nil(t, bare.LocationCoords)

	assert.Error(t, json.Unmarshal([]byte(`{"budget":"lots"}`), &bare))
}

func TestID_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(ApplicationRequest{JobID: "42", Location: "Kariobangi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"job_id":42,"location":"Kariobangi"}`, string(out))

	out, err = json.Marshal(ApplicationRequest{JobID: "job-42", Location: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"job_id":"job-42","location":"x"}`, string(out))
}

func TestValidateManualLocation(t *testing.T) {
	var verr *ValidationError

	err := ValidateManualLocation("a")
	require.Error(t, err)
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "location", verr.Field)

	assert.Error(t, ValidateManualLocation(""))
	assert.Error(t, ValidateManualLocation("  b  "))
	assert.NoError(t, ValidateManualLocation("Kariobangi"))
	assert.NoError(t, ValidateManualLocation("Ka"))
	assert.NoError(t, ValidateManualLocation("Ōa"))
}

func TestRegistration_Validate(t *testing.T) {
	r := Registration{Password: "secret", PasswordConfirmation: "secret", Role: "fundi"}
	assert.NoError(t, r.Validate())

	r.PasswordConfirmation = "other"
	assert.EqualError(t, r.Validate(), "invalid password_confirmation: Passwords do not match")

	r.PasswordConfirmation = "secret"
	r.Role = "admin"
	assert.Error(t, r.Validate())
}

func TestLocationState(t *testing.T) {
	resolved := LocationState{Status: LocationResolved, Point: location.GeoPoint{Latitude: -1.3, Longitude: 36.8}}
	require.NotNil(t, resolved.Origin())
	assert.Equal(t, "-1.3,36.8", resolved.ApplicationLocation())

	manual := LocationState{Status: LocationManualEntry, Label: "Kariobangi"}
	assert.Nil(t, manual.Origin())
	assert.Equal(t, "Kariobangi", manual.ApplicationLocation())

	assert.Nil(t, LocationState{Status: LocationDenied}.Origin())
	assert.Empty(t, LocationState{Status: LocationUnresolved}.ApplicationLocation())
}
