package model

import "time"

// SlotEventKind names what happened to a slot.
type SlotEventKind string

const (
	EventOccupancyUpdated   SlotEventKind = "occupancy.updated"
	EventReservationCreated SlotEventKind = "reservation.created"
	EventReservationExpired SlotEventKind = "reservation.expired"
)

// SlotEvent is emitted by the reservation store after every mutation.
// It is relayed to websocket listeners and archived in the history table.
type SlotEvent struct {
	ID            string        `gorm:"primaryKey;size:36" json:"id"`
	Kind          SlotEventKind `gorm:"size:32;not null;index" json:"kind"`
	SlotID        int           `gorm:"not null;index" json:"slotId"`
	ReservationID *string       `gorm:"size:36" json:"reservationId,omitempty"`
	UserID        *string       `gorm:"size:256" json:"userId,omitempty"`
	Occupied      *bool         `json:"occupied,omitempty"`
	ReservedUntil *time.Time    `json:"reservedUntil,omitempty"`
	OccurredAt    time.Time     `gorm:"not null;index" json:"occurredAt"`
}
