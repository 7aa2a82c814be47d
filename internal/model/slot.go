package model

import "time"

// Slot is one monitored parking space as held by the reservation store.
type Slot struct {
	SlotID        int        `json:"slotId"`
	Occupied      bool       `json:"occupied"`
	Distance      *float64   `json:"distance,omitempty"`
	ReservedBy    *string    `json:"reservedBy,omitempty"`
	ReservedUntil *time.Time `json:"reservedUntil,omitempty"`
}

// Reserved reports whether an active reservation is stamped on the slot.
func (s Slot) Reserved() bool {
	return s.ReservedBy != nil
}

// SlotReading is a single slot as reported by the sensor endpoint.
// Distance is nil when the sensor reported no numeric value.
type SlotReading struct {
	SlotID   int      `json:"slotId"`
	Occupied bool     `json:"occupied"`
	Distance *float64 `json:"distance"`
}

// SlotUpdate is an occupancy change for a single slot.
type SlotUpdate struct {
	SlotID   int  `json:"slotId" binding:"required"`
	Occupied bool `json:"occupied"`
}

// SlotStatus is the classified display state of a slot.
type SlotStatus string

const (
	StatusVacant       SlotStatus = "vacant"
	StatusOccupied     SlotStatus = "occupied"
	StatusDanger       SlotStatus = "danger"
	StatusDisconnected SlotStatus = "disconnected"
)
