package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexString_AcceptsStringAndNumber(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`"VHL2023"`, "VHL2023"},
		{`123`, "123"},
		{`4.5`, "4.5"},
		{`""`, ""},
	}
	for _, tc := range cases {
		var f FlexString
		require.NoError(t, json.Unmarshal([]byte(tc.raw), &f), "raw=%s", tc.raw)
		assert.Equal(t, tc.want, string(f))
	}

	var f FlexString
	assert.Error(t, json.Unmarshal([]byte(`{"nested":true}`), &f))
}

func TestIngestRequest_RefPrefersVehicleIDKey(t *testing.T) {
	var req IngestRequest
	require.NoError(t, json.Unmarshal(
		[]byte(`{"vehicleID":" VHL2023 ","vehicle_id":"legacy"}`), &req))
	assert.Equal(t, "VHL2023", req.Ref())

	req = IngestRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"vehicle_id":7}`), &req))
	assert.Equal(t, "7", req.Ref())

	req = IngestRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"notes":"no id"}`), &req))
	assert.Equal(t, "", req.Ref())
}

func TestIngestRequest_NoteTextPrefersNotes(t *testing.T) {
	req := IngestRequest{Notes: "notes", AccidentDetails: "details"}
	assert.Equal(t, "notes", req.NoteText())

	req = IngestRequest{AccidentDetails: "details"}
	assert.Equal(t, "details", req.NoteText())
}

func TestRegisterRequest_RefAcceptsLegacyKey(t *testing.T) {
	var req RegisterRequest
	require.NoError(t, json.Unmarshal([]byte(`{"id":42,"model":"Swift"}`), &req))
	assert.Equal(t, "42", req.Ref())

	req = RegisterRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"vehicle_id":"CAR9","id":42}`), &req))
	assert.Equal(t, "CAR9", req.Ref())
}

func TestErrorTaxonomy(t *testing.T) {
	verr := &ValidationError{Field: "vehicleID", Reason: "is required"}
	assert.Equal(t, "vehicleID is required", verr.Error())
	assert.True(t, IsValidation(verr))
	assert.False(t, IsValidation(ErrNotFound))

	cause := errors.New("deadlock detected")
	serr := &StorageError{Op: "record event", Err: cause}
	assert.True(t, IsStorage(serr))
	assert.ErrorIs(t, serr, cause)
	assert.False(t, IsStorage(verr))
}
