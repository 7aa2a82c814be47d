package poller

import (
	"bytes"
	"encoding/json"

	"parking-status-backend/internal/model"
)

// SensorResponse models the top-level structure of the sensor endpoint's response.
// Slots is kept raw so that a missing or non-array field can be told apart from an empty one.
type SensorResponse struct {
	Slots json.RawMessage `json:"slots"`
}

// sensorSlot is a single entry of the slots array. Fields are loosely typed
// because the device firmware does not guarantee them.
type sensorSlot struct {
	ID         any `json:"id"`
	Occupied   any `json:"occupied"`
	DistanceCM any `json:"distance_cm"`
}

// readings maps the slots array to snapshot entries. ok is false when the
// response carries no well-formed slots array.
func (r *SensorResponse) readings() (readings []model.SlotReading, ok bool) {
	raw := bytes.TrimSpace(r.Slots)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}

	var items []sensorSlot
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}

	readings = make([]model.SlotReading, 0, len(items))
	for _, item := range items {
		reading := model.SlotReading{}
		if id, isNum := item.ID.(float64); isNum {
			reading.SlotID = int(id)
		}
		if occupied, isBool := item.Occupied.(bool); isBool {
			reading.Occupied = occupied
		}
		if distance, isNum := item.DistanceCM.(float64); isNum {
			d := distance
			reading.Distance = &d
		}
		readings = append(readings, reading)
	}
	return readings, true
}
