package poller

import (
	"sync"
	"time"

	"parking-status-backend/internal/model"
)

// DefaultDebounce is how long a negative distance must persist before a slot counts as disconnected.
const DefaultDebounce = 1000 * time.Millisecond

// Danger zone bounds in centimeters, both inclusive.
const (
	DangerZoneMin = 1.0
	DangerZoneMax = 5.0
)

// ClassifiedReading is a snapshot entry together with its display status.
type ClassifiedReading struct {
	model.SlotReading
	Status model.SlotStatus `json:"status"`
}

// Classifier turns readings into slot statuses. It remembers, per slot, when
// the sensor first started reporting a negative distance.
type Classifier struct {
	debounce   time.Duration
	dangerZone bool

	mu     sync.Mutex
	onsets map[int]time.Time
}

// NewClassifier creates a classifier. With dangerZone set, distances in
// [DangerZoneMin, DangerZoneMax] classify as danger.
func NewClassifier(debounce time.Duration, dangerZone bool) *Classifier {
	return &Classifier{
		debounce:   debounce,
		dangerZone: dangerZone,
		onsets:     make(map[int]time.Time),
	}
}

// Classify returns the status of r at now.
func (c *Classifier) Classify(r model.SlotReading, now time.Time) model.SlotStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.Distance != nil && *r.Distance < 0 {
		onset, ok := c.onsets[r.SlotID]
		if !ok {
			onset = now
			c.onsets[r.SlotID] = now
		}
		if now.Sub(onset) > c.debounce {
			return model.StatusDisconnected
		}
	} else {
		delete(c.onsets, r.SlotID)
		if c.dangerZone && r.Distance != nil && *r.Distance >= DangerZoneMin && *r.Distance <= DangerZoneMax {
			return model.StatusDanger
		}
	}

	if r.Occupied {
		return model.StatusOccupied
	}
	return model.StatusVacant
}

// ClassifyAll classifies every reading at the same instant, preserving order.
func (c *Classifier) ClassifyAll(readings []model.SlotReading, now time.Time) []ClassifiedReading {
	out := make([]ClassifiedReading, 0, len(readings))
	for _, r := range readings {
		out = append(out, ClassifiedReading{SlotReading: r, Status: c.Classify(r, now)})
	}
	return out
}
