package delivery

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"lead-relay/internal/models"
)

// SheetClient forwards product orders to the spreadsheet webhook as a
// URL-encoded form. The webhook's deployment mode hides its HTTP status from
// callers, so the response is deliberately not inspected: success only means
// the request left without a transport error, not that the server accepted it.
type SheetClient struct {
	endpoint   string
	httpClient *http.Client
}

func NewSheetClient(endpoint string) *SheetClient {
	return &SheetClient{
		endpoint:   endpoint,
		httpClient: &http.Client{},
	}
}

func (c *SheetClient) Send(ctx context.Context, rec models.SubmissionRecord) error {
	form := url.Values{}
	form.Set("form_type", rec.FormType)
	form.Set("name", rec.CustomerName)
	form.Set("phone", rec.CustomerPhone)
	form.Set("address", rec.CustomerAddress)
	form.Set("message", rec.Note)
	form.Set("product_name", rec.ProductName)
	form.Set("product_price", rec.ProductPrice)
	form.Set("product_id", rec.ProductID)
	form.Set("traffic_source", rec.TrafficSource)
	form.Set("user_platform", rec.Platform)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return &TransportError{Endpoint: "sheet", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Endpoint: "sheet", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// Status intentionally ignored; see type comment.
	return nil
}
