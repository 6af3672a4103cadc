package stream

import (
	"encoding/json"

	"accident-monitor/internal/domain"
)

// heartbeatFrame is the empty keep-alive payload emitted on idle streams.
var heartbeatFrame = []byte("{}")

type ackFrame struct {
	Type      string `json:"type"`
	VehicleID string `json:"vehicleID"`
}

type eventFrame struct {
	Type      string   `json:"type"`
	VehicleID string   `json:"vehicleID"`
	Intensity *float64 `json:"intensity"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	Timestamp string   `json:"timestamp"`
	Notes     string   `json:"notes"`
}

// AckFrame encodes the connection acknowledgement for a vehicle reference.
func AckFrame(ref string) ([]byte, error) {
	return json.Marshal(ackFrame{Type: "connected", VehicleID: ref})
}

// EventFrame encodes one accident event for live delivery. Absent optional
// fields are carried as explicit nulls.
func EventFrame(evt *domain.AccidentEvent) ([]byte, error) {
	return json.Marshal(eventFrame{
		Type:      "accident_event",
		VehicleID: evt.VehicleRef,
		Intensity: evt.Intensity,
		Lat:       evt.Lat,
		Lng:       evt.Lng,
		Timestamp: evt.Timestamp,
		Notes:     evt.Notes,
	})
}
