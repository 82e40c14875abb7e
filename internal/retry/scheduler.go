// Package retry drives the background drain of the pending-retry queue.
package retry

import (
	"context"
	"log"
	"time"

	"lead-relay/internal/delivery"
	"lead-relay/internal/failstore"
	"lead-relay/internal/models"
	"lead-relay/internal/telemetry"
)

// Recorder is the optional archive sink for replay outcomes.
type Recorder interface {
	Record(ctx context.Context, rec models.SubmissionRecord, outcome, detail string) error
}

// Scheduler replays queued submissions on a fixed interval, plus once shortly
// after startup so entries stranded by a previous run get a prompt attempt.
type Scheduler struct {
	store        *failstore.Store
	sender       delivery.Sender
	startupDelay time.Duration
	interval     time.Duration

	// Archive, when set, records each replay outcome. Best effort only.
	Archive Recorder
}

func New(store *failstore.Store, sender delivery.Sender, startupDelay, interval time.Duration) *Scheduler {
	return &Scheduler{
		store:        store,
		sender:       sender,
		startupDelay: startupDelay,
		interval:     interval,
	}
}

// Run blocks until the context is cancelled. There is no other way to stop the
// loop; it lives as long as the process.
func (s *Scheduler) Run(ctx context.Context) error {
	startup := time.NewTimer(s.startupDelay)
	defer startup.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-startup.C:
		s.DrainOnce(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.DrainOnce(ctx)
		}
	}
}

// DrainOnce runs a single drain cycle: read the whole pending queue, replay
// each entry sequentially, then clear the queue unconditionally. Entries that
// fail again are dropped with the clear, not re-queued — the historical
// behavior this pipeline has always had, kept intact so that delivery counts
// stay comparable.
// TODO(owner): decide whether to re-queue still-failing entries instead.
func (s *Scheduler) DrainOnce(ctx context.Context) {
	entries := s.store.ReadAll(ctx, failstore.QueuePendingRetry)
	if len(entries) == 0 {
		telemetry.PendingDepth.Set(0)
		return
	}

	log.Printf("retry: draining %d pending entries", len(entries))
	for _, e := range entries {
		telemetry.RetryAttempts.Inc()
		if err := s.sender.Send(ctx, e.SubmissionRecord); err != nil {
			// Background failures are logged only; no user is present to tell.
			log.Printf("retry: replay %s (%s) failed: %v", e.ID, e.CustomerName, err)
			telemetry.RetryFailures.Inc()
			s.recordOutcome(ctx, e.SubmissionRecord, "replay_failed", err.Error())
			continue
		}
		log.Printf("retry: replay %s delivered", e.ID)
		s.store.Append(ctx, failstore.QueueSentHistory, models.StoredEntry{
			SubmissionRecord: e.SubmissionRecord,
			SavedAt:          time.Now(),
			Status:           models.StatusSent,
		})
		s.recordOutcome(ctx, e.SubmissionRecord, "replayed", "")
	}

	s.store.Clear(ctx, failstore.QueuePendingRetry)
	telemetry.RetryCycles.Inc()
	telemetry.PendingDepth.Set(0)
}

func (s *Scheduler) recordOutcome(ctx context.Context, rec models.SubmissionRecord, outcome, detail string) {
	if s.Archive == nil {
		return
	}
	if err := s.Archive.Record(ctx, rec, outcome, detail); err != nil {
		log.Printf("retry: archive %s: %v", rec.ID, err)
	}
}
