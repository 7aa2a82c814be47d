package notification

import (
	"context"
	"log"

	"parking-status-backend/internal/model"
)

// Sink consumes slot events taken off the queue.
type Sink interface {
	Handle(ctx context.Context, event model.SlotEvent) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, event model.SlotEvent) error

func (f SinkFunc) Handle(ctx context.Context, event model.SlotEvent) error {
	return f(ctx, event)
}

// WorkerPool manages a pool of workers that hand slot events to sinks.
type WorkerPool struct {
	size  int
	jobs  chan model.SlotEvent
	sinks []Sink
}

// NewWorkerPool creates a new worker pool with a queue of queueSize events.
func NewWorkerPool(size, queueSize int, sinks ...Sink) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if queueSize < size {
		queueSize = size
	}
	return &WorkerPool{
		size:  size,
		jobs:  make(chan model.SlotEvent, queueSize),
		sinks: sinks,
	}
}

// AddSink registers another sink. Call before Start.
func (wp *WorkerPool) AddSink(s Sink) {
	wp.sinks = append(wp.sinks, s)
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case event := <-wp.jobs:
			wp.process(ctx, id, event)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

func (wp *WorkerPool) process(ctx context.Context, id int, event model.SlotEvent) {
	for _, s := range wp.sinks {
		if err := s.Handle(ctx, event); err != nil {
			log.Printf("Worker %d: error handling %s for slot %d: %v", id, event.Kind, event.SlotID, err)
		}
	}
}

// Dispatch queues an event without blocking. When the queue is full the
// event is dropped and logged.
func (wp *WorkerPool) Dispatch(event model.SlotEvent) {
	select {
	case wp.jobs <- event:
	default:
		log.Printf("Event queue is full, dropping %s for slot %d", event.Kind, event.SlotID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan model.SlotEvent {
	return wp.jobs
}
