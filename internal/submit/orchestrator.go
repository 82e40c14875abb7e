// Package submit is the single entry point the outer form surface calls with a
// user-entered submission. It enriches the record, attempts delivery once, and
// records where the record ended up.
package submit

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"lead-relay/internal/delivery"
	"lead-relay/internal/enrich"
	"lead-relay/internal/failstore"
	"lead-relay/internal/models"
	"lead-relay/internal/telemetry"
)

// ErrMissingContact is returned when a record arrives without the fields the
// upstream form is supposed to have validated.
var ErrMissingContact = errors.New("customer name and phone are required")

// ClientInfo carries the request attributes the enrichment classifiers need.
type ClientInfo struct {
	Referrer  string
	RawQuery  string
	UserAgent string
}

// Recorder is the optional archive sink for submission outcomes.
type Recorder interface {
	Record(ctx context.Context, rec models.SubmissionRecord, outcome, detail string) error
}

// Orchestrator runs the submit-or-queue pipeline.
type Orchestrator struct {
	sender  delivery.Sender
	store   *failstore.Store
	archive Recorder
	now     func() time.Time
}

// New builds an orchestrator. archive may be nil.
func New(sender delivery.Sender, store *failstore.Store, archive Recorder) *Orchestrator {
	return &Orchestrator{
		sender:  sender,
		store:   store,
		archive: archive,
		now:     time.Now,
	}
}

// Submit enriches the record, attempts delivery, and returns the enriched
// record. On delivery failure the record is appended to the pending-retry
// queue before the transport error is returned, so the caller can report the
// failure while the scheduler picks the record up later. Store and archive
// failures never replace the delivery outcome.
func (o *Orchestrator) Submit(ctx context.Context, rec models.SubmissionRecord, client ClientInfo) (models.SubmissionRecord, error) {
	if rec.CustomerName == "" || rec.CustomerPhone == "" {
		return rec, ErrMissingContact
	}
	if rec.FormType == "" {
		rec.FormType = models.FormTypeLead
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.SubmittedAt = o.now()
	rec.TrafficSource = enrich.TrafficSource(client.Referrer, client.RawQuery)
	rec.Platform = enrich.Platform(client.UserAgent)

	telemetry.SubmissionsReceived.Inc()

	if err := o.sender.Send(ctx, rec); err != nil {
		o.store.Append(ctx, failstore.QueuePendingRetry, models.StoredEntry{
			SubmissionRecord: rec,
			SavedAt:          o.now(),
			Status:           models.StatusPendingRetry,
		})
		o.recordOutcome(ctx, rec, "failed", err.Error())
		telemetry.DeliveryFailures.Inc()
		telemetry.PendingDepth.Set(float64(o.store.Depth(ctx, failstore.QueuePendingRetry)))
		return rec, err
	}

	o.store.Append(ctx, failstore.QueueSentHistory, models.StoredEntry{
		SubmissionRecord: rec,
		SavedAt:          o.now(),
		Status:           models.StatusSent,
	})
	o.recordOutcome(ctx, rec, "delivered", "")
	telemetry.Delivered.Inc()
	return rec, nil
}

func (o *Orchestrator) recordOutcome(ctx context.Context, rec models.SubmissionRecord, outcome, detail string) {
	if o.archive == nil {
		return
	}
	if err := o.archive.Record(ctx, rec, outcome, detail); err != nil {
		log.Printf("submit: archive %s: %v", rec.ID, err)
	}
}
