package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Vehicle is one row of the latest-state registry. VehicleID is the
// caller-assigned alias; ID is the surrogate key and never changes.
type Vehicle struct {
	ID              int64     `json:"id"`
	VehicleID       string    `json:"vehicle_id"`
	Model           string    `json:"model"`
	Owner           string    `json:"owner"`
	Registration    string    `json:"registration"`
	AccidentDetails string    `json:"accident_details"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ListOrder selects how registry listings are sorted. Two call sites
// historically disagreed on this, so both modes are explicit.
type ListOrder string

const (
	ListByUpdated ListOrder = "updated"
	ListByCreated ListOrder = "created"
)

// VehicleFields are the mutable attributes of a registry row.
type VehicleFields struct {
	Model           string
	Owner           string
	Registration    string
	AccidentDetails string
}

// AccidentEvent is an immutable sensor observation. VehicleRef holds the
// canonical reference the event was stored under; Timestamp is the caller's
// clock value and must not be trusted for ordering — ID carries the insert
// sequence.
type AccidentEvent struct {
	ID         int64     `json:"id"`
	VehicleRef string    `json:"vehicle_id"`
	Intensity  *float64  `json:"intensity"`
	Lat        *float64  `json:"lat"`
	Lng        *float64  `json:"lng"`
	Timestamp  string    `json:"timestamp"`
	Notes      string    `json:"notes"`
	RawPayload []byte    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// FlexString decodes a JSON string or number into a string. Legacy hardware
// senders put numeric vehicle ids on the wire unquoted.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("value is neither string nor number: %s", data)
	}
	*f = FlexString(n.String())
	return nil
}

// IngestRequest is the inbound shape of a hardware accident event.
// The vehicle id is accepted under either of two legacy key names, and the
// notes field under either of two as well.
type IngestRequest struct {
	VehicleID       FlexString `json:"vehicleID"`
	LegacyVehicleID FlexString `json:"vehicle_id"`
	Intensity       *float64   `json:"intensity"`
	Lat             *float64   `json:"lat"`
	Lng             *float64   `json:"lng"`
	Timestamp       string     `json:"timestamp"`
	Notes           string     `json:"notes"`
	AccidentDetails string     `json:"accidentDetails"`
}

// Ref returns the trimmed vehicle reference, preferring the vehicleID key.
func (r *IngestRequest) Ref() string {
	if v := strings.TrimSpace(string(r.VehicleID)); v != "" {
		return v
	}
	return strings.TrimSpace(string(r.LegacyVehicleID))
}

// NoteText returns the accident notes, preferring the notes key.
func (r *IngestRequest) NoteText() string {
	if r.Notes != "" {
		return r.Notes
	}
	return r.AccidentDetails
}

// RegisterRequest is the explicit vehicle-registration shape. The legacy "id"
// key is accepted for the alias.
type RegisterRequest struct {
	VehicleID       FlexString `json:"vehicle_id"`
	LegacyID        FlexString `json:"id"`
	Model           string     `json:"model"`
	Owner           string     `json:"owner"`
	Registration    string     `json:"registration"`
	AccidentDetails string     `json:"accident_details"`
}

func (r *RegisterRequest) Ref() string {
	if v := strings.TrimSpace(string(r.VehicleID)); v != "" {
		return v
	}
	return strings.TrimSpace(string(r.LegacyID))
}
