package store

import (
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"parking-status-backend/internal/model"
)

// DefaultSlotCount is the number of slots seeded when none is configured.
const DefaultSlotCount = 6

var (
	ErrSlotNotFound    = errors.New("slot not found")
	ErrSlotReserved    = errors.New("slot already has an active reservation")
	ErrInvalidDuration = errors.New("reservation duration must be positive")
)

// Store defines the operations on the slot table and the active reservations.
type Store interface {
	GetSlots() []model.Slot
	GetSlotByID(slotID int) (model.Slot, error)
	UpdateSlotOccupancy(slotID int, occupied bool) (model.Slot, error)
	UpdateMultipleSlots(updates []model.SlotUpdate) int
	IngestReadings(readings []model.SlotReading) int
	CreateReservation(slotID int, userID string, durationMinutes int) (model.Reservation, error)
	ExpireReservation(reservationID string) bool
	GetReservations() []model.Reservation
	GetReservationsForSlot(slotID int) []model.Reservation
	GetReservationsForUser(userID string) []model.Reservation
	Close()
}

// Publisher receives an event after every successful mutation.
type Publisher interface {
	Dispatch(event model.SlotEvent)
}

// Timer is a pending expiry. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Scheduler arranges for fn to run once after d.
type Scheduler func(d time.Duration, fn func()) Timer

func afterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// memoryStore keeps all state in process memory behind a single mutex.
type memoryStore struct {
	mu           sync.Mutex
	slots        []model.Slot // sorted by SlotID
	reservations []model.Reservation
	timers       map[string]Timer

	now       func() time.Time
	schedule  Scheduler
	publisher Publisher
}

// Option customises a store.
type Option func(*memoryStore)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *memoryStore) { s.now = now }
}

// WithScheduler replaces time.AfterFunc for expiry timers.
// The scheduler must not run fn synchronously.
func WithScheduler(schedule Scheduler) Option {
	return func(s *memoryStore) { s.schedule = schedule }
}

// WithPublisher registers the receiver of slot events.
func WithPublisher(p Publisher) Option {
	return func(s *memoryStore) { s.publisher = p }
}

// NewMemoryStore creates a store seeded with slots 1..slotCount, all vacant.
func NewMemoryStore(slotCount int, opts ...Option) Store {
	if slotCount <= 0 {
		slotCount = DefaultSlotCount
	}
	s := &memoryStore{
		slots:    make([]model.Slot, slotCount),
		timers:   make(map[string]Timer),
		now:      time.Now,
		schedule: afterFunc,
	}
	for i := range s.slots {
		s.slots[i] = model.Slot{SlotID: i + 1}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetSlots returns a copy of every slot, ordered by id.
func (s *memoryStore) GetSlots() []model.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Slot, len(s.slots))
	copy(out, s.slots)
	return out
}

func (s *memoryStore) GetSlotByID(slotID int) (model.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.indexOf(slotID)
	if !ok {
		return model.Slot{}, ErrSlotNotFound
	}
	return s.slots[i], nil
}

// UpdateSlotOccupancy sets the occupied flag; reservation fields are left alone.
func (s *memoryStore) UpdateSlotOccupancy(slotID int, occupied bool) (model.Slot, error) {
	s.mu.Lock()
	i, ok := s.indexOf(slotID)
	if !ok {
		s.mu.Unlock()
		return model.Slot{}, ErrSlotNotFound
	}
	s.slots[i].Occupied = occupied
	slot := s.slots[i]
	now := s.now()
	s.mu.Unlock()

	s.publish(occupancyEvent(slotID, occupied, now))
	return slot, nil
}

// UpdateMultipleSlots applies each update; unknown slot ids are skipped.
// It returns the number of updates applied.
func (s *memoryStore) UpdateMultipleSlots(updates []model.SlotUpdate) int {
	s.mu.Lock()
	now := s.now()
	var events []model.SlotEvent
	for _, u := range updates {
		i, ok := s.indexOf(u.SlotID)
		if !ok {
			continue
		}
		s.slots[i].Occupied = u.Occupied
		events = append(events, occupancyEvent(u.SlotID, u.Occupied, now))
	}
	s.mu.Unlock()

	for _, e := range events {
		s.publish(e)
	}
	return len(events)
}

// IngestReadings copies occupancy and distance from a sensor snapshot.
// Only actual occupancy changes produce events.
func (s *memoryStore) IngestReadings(readings []model.SlotReading) int {
	s.mu.Lock()
	now := s.now()
	applied := 0
	var events []model.SlotEvent
	for _, r := range readings {
		i, ok := s.indexOf(r.SlotID)
		if !ok {
			continue
		}
		applied++
		changed := s.slots[i].Occupied != r.Occupied
		s.slots[i].Occupied = r.Occupied
		s.slots[i].Distance = r.Distance
		if changed {
			events = append(events, occupancyEvent(r.SlotID, r.Occupied, now))
		}
	}
	s.mu.Unlock()

	for _, e := range events {
		s.publish(e)
	}
	return applied
}

// CreateReservation claims slotID for userID and schedules its expiry.
func (s *memoryStore) CreateReservation(slotID int, userID string, durationMinutes int) (model.Reservation, error) {
	if durationMinutes <= 0 {
		return model.Reservation{}, ErrInvalidDuration
	}

	s.mu.Lock()
	i, ok := s.indexOf(slotID)
	if !ok {
		s.mu.Unlock()
		return model.Reservation{}, ErrSlotNotFound
	}
	if s.slots[i].Reserved() {
		s.mu.Unlock()
		return model.Reservation{}, ErrSlotReserved
	}

	start := s.now()
	duration := time.Duration(durationMinutes) * time.Minute
	reservation := model.Reservation{
		ID:        uuid.NewString(),
		SlotID:    slotID,
		UserID:    userID,
		StartTime: start,
		EndTime:   start.Add(duration),
	}
	s.reservations = append(s.reservations, reservation)

	reservedBy := userID
	reservedUntil := reservation.EndTime
	s.slots[i].ReservedBy = &reservedBy
	s.slots[i].ReservedUntil = &reservedUntil

	id := reservation.ID
	s.timers[id] = s.schedule(duration, func() { s.ExpireReservation(id) })
	s.mu.Unlock()

	log.Printf("Reservation %s created: slot %d for %q until %s", id, slotID, userID, reservation.EndTime.Format(time.RFC3339))
	s.publish(model.SlotEvent{
		ID:            uuid.NewString(),
		Kind:          model.EventReservationCreated,
		SlotID:        slotID,
		ReservationID: &id,
		UserID:        &reservedBy,
		ReservedUntil: &reservedUntil,
		OccurredAt:    start,
	})
	return reservation, nil
}

// ExpireReservation removes the reservation and clears its slot's reservation
// fields regardless of occupancy. It reports false if the id is not active.
func (s *memoryStore) ExpireReservation(reservationID string) bool {
	s.mu.Lock()
	idx := -1
	for i, r := range s.reservations {
		if r.ID == reservationID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return false
	}

	reservation := s.reservations[idx]
	s.reservations = append(s.reservations[:idx], s.reservations[idx+1:]...)
	if t, ok := s.timers[reservationID]; ok {
		t.Stop()
		delete(s.timers, reservationID)
	}
	if i, ok := s.indexOf(reservation.SlotID); ok {
		s.slots[i].ReservedBy = nil
		s.slots[i].ReservedUntil = nil
	}
	now := s.now()
	s.mu.Unlock()

	log.Printf("Reservation %s expired: slot %d released", reservationID, reservation.SlotID)
	userID := reservation.UserID
	s.publish(model.SlotEvent{
		ID:            uuid.NewString(),
		Kind:          model.EventReservationExpired,
		SlotID:        reservation.SlotID,
		ReservationID: &reservationID,
		UserID:        &userID,
		OccurredAt:    now,
	})
	return true
}

func (s *memoryStore) GetReservations() []model.Reservation {
	return s.filterReservations(func(model.Reservation) bool { return true })
}

func (s *memoryStore) GetReservationsForSlot(slotID int) []model.Reservation {
	return s.filterReservations(func(r model.Reservation) bool { return r.SlotID == slotID })
}

func (s *memoryStore) GetReservationsForUser(userID string) []model.Reservation {
	return s.filterReservations(func(r model.Reservation) bool { return r.UserID == userID })
}

// Close stops all pending expiry timers. Reservations stay in place.
func (s *memoryStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *memoryStore) filterReservations(keep func(model.Reservation) bool) []model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s *memoryStore) indexOf(slotID int) (int, bool) {
	i := sort.Search(len(s.slots), func(i int) bool { return s.slots[i].SlotID >= slotID })
	if i < len(s.slots) && s.slots[i].SlotID == slotID {
		return i, true
	}
	return -1, false
}

func (s *memoryStore) publish(event model.SlotEvent) {
	if s.publisher != nil {
		s.publisher.Dispatch(event)
	}
}

func occupancyEvent(slotID int, occupied bool, at time.Time) model.SlotEvent {
	return model.SlotEvent{
		ID:         uuid.NewString(),
		Kind:       model.EventOccupancyUpdated,
		SlotID:     slotID,
		Occupied:   &occupied,
		OccurredAt: at,
	}
}
