package history

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"parking-status-backend/internal/model"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Filter narrows a history listing. A nil SlotID matches every slot.
type Filter struct {
	SlotID *int
	Limit  int
}

// Recorder archives slot events in the database.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Handle stores event. It lets the recorder act as a worker pool sink.
func (r *Recorder) Handle(ctx context.Context, event model.SlotEvent) error {
	return r.Record(ctx, event)
}

// Record stores a single event.
func (r *Recorder) Record(ctx context.Context, event model.SlotEvent) error {
	if err := r.db.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("failed to record %s event for slot %d: %w", event.Kind, event.SlotID, err)
	}
	return nil
}

// List returns archived events, newest first.
func (r *Recorder) List(ctx context.Context, f Filter) ([]model.SlotEvent, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	query := r.db.WithContext(ctx).Order("occurred_at DESC").Limit(limit)
	if f.SlotID != nil {
		query = query.Where("slot_id = ?", *f.SlotID)
	}

	var events []model.SlotEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list slot events: %w", err)
	}
	return events, nil
}

// PruneBefore deletes events that occurred before cutoff and returns how many were removed.
func (r *Recorder) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("occurred_at < ?", cutoff).Delete(&model.SlotEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune slot events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
