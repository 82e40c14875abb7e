package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lead-relay/internal/config"
	"lead-relay/internal/delivery"
	"lead-relay/internal/failstore"
	"lead-relay/internal/models"
	"lead-relay/internal/ratelimit"
	"lead-relay/internal/submit"
	"lead-relay/internal/telemetry"
)

// Server wires the HTTP surface the form frontend talks to. It stays thin:
// everything interesting happens in the orchestrator and the store.
type Server struct {
	cfg     config.Config
	orch    *submit.Orchestrator
	store   *failstore.Store
	limiter *ratelimit.TokenBucket
}

// New constructs the API server. limiter may be nil to disable throttling.
func New(cfg config.Config, orch *submit.Orchestrator, store *failstore.Store, limiter *ratelimit.TokenBucket) *Server {
	return &Server{
		cfg:     cfg,
		orch:    orch,
		store:   store,
		limiter: limiter,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/metrics", telemetry.Handler())

	r.Post("/submissions", telemetry.Instrument("submissions", s.handleSubmit))
	r.Get("/queue/pending", telemetry.Instrument("queue_pending", s.handleQueue(failstore.QueuePendingRetry)))
	r.Get("/queue/sent", telemetry.Instrument("queue_sent", s.handleQueue(failstore.QueueSentHistory)))
	r.Delete("/queue/pending", telemetry.Instrument("queue_clear", s.handleClearPending))
	return r
}

type submitRequest struct {
	FormType        string `json:"form_type"`
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerAddress string `json:"customer_address"`
	Note            string `json:"note"`
	VehicleType     string `json:"vehicle_type"`
	ProductID       string `json:"product_id"`
	ProductName     string `json:"product_name"`
	ProductPrice    string `json:"product_price"`
}

type submitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.CustomerName) == "" || strings.TrimSpace(req.CustomerPhone) == "" {
		http.Error(w, "customer_name and customer_phone are required", http.StatusBadRequest)
		return
	}
	if req.FormType != "" && req.FormType != models.FormTypeLead && req.FormType != models.FormTypeProductOrder {
		http.Error(w, "unknown form_type", http.StatusBadRequest)
		return
	}

	if s.limiter != nil {
		allowed, _, err := s.limiter.Allow(r.Context(), clientIP(r))
		if err != nil {
			http.Error(w, "rate limit error", http.StatusInternalServerError)
			return
		}
		if !allowed {
			telemetry.RateLimitRejects.Inc()
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
	}

	rec := models.SubmissionRecord{
		FormType:        req.FormType,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		CustomerAddress: req.CustomerAddress,
		Note:            req.Note,
		VehicleType:     req.VehicleType,
		ProductID:       req.ProductID,
		ProductName:     req.ProductName,
		ProductPrice:    req.ProductPrice,
	}
	info := submit.ClientInfo{
		Referrer:  r.Referer(),
		RawQuery:  r.URL.RawQuery,
		UserAgent: r.UserAgent(),
	}

	rec, err := s.orch.Submit(r.Context(), rec, info)
	if err != nil {
		if errors.Is(err, submit.ErrMissingContact) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var terr *delivery.TransportError
		if errors.As(err, &terr) {
			// The record is already queued for retry; tell the caller so the
			// frontend can show its "saved, we'll process it soon" message.
			writeJSON(w, http.StatusBadGateway, submitResponse{ID: rec.ID, Status: "queued_for_retry", Error: terr.Error()})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, submitResponse{ID: rec.ID, Status: "delivered"})
}

func (s *Server) handleQueue(queueKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := s.store.ReadAll(r.Context(), queueKey)
		if entries == nil {
			entries = []models.StoredEntry{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "depth": len(entries)})
	}
}

func (s *Server) handleClearPending(w http.ResponseWriter, r *http.Request) {
	s.store.Clear(r.Context(), failstore.QueuePendingRetry)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
