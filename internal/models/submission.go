package models

import (
	"time"
)

// Form types accepted by the pipeline.
const (
	FormTypeLead         = "lead"
	FormTypeProductOrder = "product_order"
)

// EntryStatus enumerates lifecycle states persisted in the failure store.
const (
	StatusPendingRetry = "pending_retry"
	StatusSent         = "sent"
	StatusFailed       = "failed"
)

// Platform classifications derived from the client user agent.
const (
	PlatformMobile  = "mobile"
	PlatformTablet  = "tablet"
	PlatformDesktop = "desktop"
)

// SubmissionRecord represents one user-initiated lead or product-order submission.
// CustomerName and CustomerPhone are validated non-empty before a record enters
// the pipeline; the product fields are only present for product orders.
type SubmissionRecord struct {
	ID              string    `json:"id"`
	FormType        string    `json:"form_type"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone"`
	CustomerAddress string    `json:"customer_address,omitempty"`
	Note            string    `json:"note,omitempty"`
	VehicleType     string    `json:"vehicle_type,omitempty"`
	ProductID       string    `json:"product_id,omitempty"`
	ProductName     string    `json:"product_name,omitempty"`
	ProductPrice    string    `json:"product_price,omitempty"`
	SubmittedAt     time.Time `json:"submitted_at"`
	TrafficSource   string    `json:"traffic_source,omitempty"`
	Platform        string    `json:"platform,omitempty"`
}

// StoredEntry is a SubmissionRecord plus persistence metadata. Entries are
// created when a delivery attempt fails (or, on the sent-history queue, when
// one succeeds) and are never mutated in place.
type StoredEntry struct {
	SubmissionRecord
	SavedAt time.Time `json:"saved_at"`
	Status  string    `json:"status"`
}
