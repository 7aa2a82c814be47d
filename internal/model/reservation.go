package model

import "time"

// Reservation is a time-bounded claim of a user on a slot.
type Reservation struct {
	ID        string    `json:"id"`
	SlotID    int       `json:"slotId"`
	UserID    string    `json:"userId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}
