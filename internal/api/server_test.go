package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"lead-relay/internal/config"
	"lead-relay/internal/delivery"
	"lead-relay/internal/failstore"
	"lead-relay/internal/models"
	"lead-relay/internal/submit"
)

type stubSender struct {
	err error
}

func (s *stubSender) Send(context.Context, models.SubmissionRecord) error { return s.err }

func newTestServer(t *testing.T, sender delivery.Sender) (*Server, *failstore.Store) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	store := failstore.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	orch := submit.New(sender, store, nil)
	return New(config.Config{}, orch, store, nil), store
}

func TestSubmitDelivered(t *testing.T) {
	srv, store := newTestServer(t, &stubSender{})

	body := `{"form_type":"lead","customer_name":"Pham D","customer_phone":"0933444555","vehicle_type":"truck-24v"}`
	req := httptest.NewRequest(http.MethodPost, "/submissions?utm_source=newsletter", strings.NewReader(body))
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone)")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp submitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "delivered" || resp.ID == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	sent := store.ReadAll(context.Background(), failstore.QueueSentHistory)
	if len(sent) != 1 {
		t.Fatalf("sent-history depth = %d", len(sent))
	}
	if sent[0].TrafficSource != "utm_newsletter" || sent[0].Platform != models.PlatformMobile {
		t.Fatalf("enrichment missing on stored entry: %+v", sent[0])
	}
}

func TestSubmitDeliveryFailureReports502AndQueues(t *testing.T) {
	srv, store := newTestServer(t, &stubSender{err: &delivery.TransportError{Endpoint: "sheet", Err: errors.New("dial tcp: refused")}})

	body := `{"form_type":"product_order","customer_name":"Hoang E","customer_phone":"0905666777","product_id":"7"}`
	req := httptest.NewRequest(http.MethodPost, "/submissions", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp submitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "queued_for_retry" || resp.Error == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if n := store.Depth(context.Background(), failstore.QueuePendingRetry); n != 1 {
		t.Fatalf("pending depth = %d, want 1", n)
	}
}

func TestSubmitValidation(t *testing.T) {
	srv, _ := newTestServer(t, &stubSender{})

	cases := []struct {
		name string
		body string
	}{
		{"missing phone", `{"customer_name":"No Phone"}`},
		{"missing name", `{"customer_phone":"0900"}`},
		{"bad form type", `{"customer_name":"X","customer_phone":"0900","form_type":"newsletter"}`},
		{"invalid json", `{"customer_name":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/submissions", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			srv.Router().ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestQueueInspectionAndClear(t *testing.T) {
	srv, store := newTestServer(t, &stubSender{})
	ctx := context.Background()
	store.Append(ctx, failstore.QueuePendingRetry, models.StoredEntry{
		SubmissionRecord: models.SubmissionRecord{CustomerName: "Queued", CustomerPhone: "0900"},
		Status:           models.StatusPendingRetry,
	})

	req := httptest.NewRequest(http.MethodGet, "/queue/pending", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var view struct {
		Depth   int                  `json:"depth"`
		Entries []models.StoredEntry `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Depth != 1 || view.Entries[0].CustomerName != "Queued" {
		t.Fatalf("unexpected view: %+v", view)
	}

	req = httptest.NewRequest(http.MethodDelete, "/queue/pending", nil)
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("clear status = %d", w.Code)
	}
	if n := store.Depth(ctx, failstore.QueuePendingRetry); n != 0 {
		t.Fatalf("depth after clear = %d", n)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, &stubSender{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
