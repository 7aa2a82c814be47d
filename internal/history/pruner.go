package history

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner periodically drops events older than the retention window.
type Pruner struct {
	recorder  *Recorder
	retention time.Duration
	cron      *cron.Cron
	now       func() time.Time
}

// NewPruner schedules pruning with a standard cron spec or a descriptor such as "@every 1h".
func NewPruner(recorder *Recorder, retention time.Duration, schedule string) (*Pruner, error) {
	p := &Pruner{
		recorder:  recorder,
		retention: retention,
		cron:      cron.New(),
		now:       time.Now,
	}
	if _, err := p.cron.AddFunc(schedule, func() {
		if _, err := p.PruneOnce(context.Background()); err != nil {
			log.Printf("Cron Job: %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}
	return p, nil
}

// Start runs the schedule in the background.
func (p *Pruner) Start() {
	p.cron.Start()
}

// Stop halts the schedule and waits for a running prune to finish.
func (p *Pruner) Stop() {
	<-p.cron.Stop().Done()
}

// PruneOnce deletes everything older than the retention window right away.
func (p *Pruner) PruneOnce(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.retention)
	n, err := p.recorder.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("Cron Job: pruned %d slot events older than %s", n, cutoff.Format(time.RFC3339))
	}
	return n, nil
}
