// Package delivery performs single outbound calls to the external endpoints a
// submission can be forwarded to. Retries, timeouts, and backoff live with the
// callers, never here.
package delivery

import (
	"context"
	"fmt"

	"lead-relay/internal/models"
)

// Sender issues exactly one delivery attempt for a record.
type Sender interface {
	Send(ctx context.Context, rec models.SubmissionRecord) error
}

// TransportError classifies a failed delivery attempt. Status is only set for
// endpoints whose server acknowledgement is observable.
type TransportError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("deliver to %s: unexpected status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("deliver to %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Router picks the endpoint client by the record's form type: leads go to the
// email service, product orders to the spreadsheet webhook.
type Router struct {
	Email Sender
	Sheet Sender
}

func (r *Router) Send(ctx context.Context, rec models.SubmissionRecord) error {
	switch rec.FormType {
	case models.FormTypeProductOrder:
		return r.Sheet.Send(ctx, rec)
	default:
		return r.Email.Send(ctx, rec)
	}
}
