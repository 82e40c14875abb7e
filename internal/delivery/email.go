package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"lead-relay/internal/models"
)

// Identifiers for the transactional-email service. These are fixed per
// deployment of the marketing site, not runtime configuration.
const (
	emailServiceID  = "service_gcp0rrs"
	emailTemplateID = "template_84bloy6"
)

// DefaultEmailEndpoint is the email service's REST send endpoint.
const DefaultEmailEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// EmailClient forwards lead submissions to the email service as a flat set of
// template parameters. The service's HTTP status is observable, so a non-2xx
// response counts as a failed delivery.
type EmailClient struct {
	endpoint   string
	userID     string
	httpClient *http.Client
}

// NewEmailClient builds a client for the given endpoint. An empty endpoint
// falls back to the production URL. The HTTP client carries no timeout; a hung
// call is bounded only by the transport's own defaults.
func NewEmailClient(endpoint, userID string) *EmailClient {
	if endpoint == "" {
		endpoint = DefaultEmailEndpoint
	}
	return &EmailClient{
		endpoint:   endpoint,
		userID:     userID,
		httpClient: &http.Client{},
	}
}

type emailSendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

func (c *EmailClient) Send(ctx context.Context, rec models.SubmissionRecord) error {
	payload := emailSendRequest{
		ServiceID:  emailServiceID,
		TemplateID: emailTemplateID,
		UserID:     c.userID,
		TemplateParams: map[string]string{
			"customerName":  rec.CustomerName,
			"customerPhone": rec.CustomerPhone,
			"vehicleType":   rec.VehicleType,
			"timestamp":     rec.SubmittedAt.Format("02/01/2006 15:04"),
			"source":        rec.TrafficSource,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return &TransportError{Endpoint: "email", Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Endpoint: "email", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Endpoint: "email", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{Endpoint: "email", Status: resp.StatusCode, Err: fmt.Errorf("email service rejected send")}
	}
	return nil
}
