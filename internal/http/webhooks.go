package http

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/goliatone/go-nestsync/billing"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	defaultWebhookRPS     = 5
	defaultWebhookBurst   = 10
	defaultWebhookMaxBody = 1 << 20

	webhookSignatureHeader = "X-Webhook-Signature"

	// maxTrackedIPs bounds the per-IP limiter map. Hitting it drops all
	// per-IP state; the global bucket still holds.
	maxTrackedIPs = 10_000
)

// webhookLimiter combines a global token bucket with one bucket per remote
// IP so a single noisy caller cannot starve the endpoint.
type webhookLimiter struct {
	mu     sync.Mutex
	global *rate.Limiter
	perIP  map[string]*rate.Limiter
	rps    rate.Limit
	burst  int
}

func newWebhookLimiter(rps float64, burst int) *webhookLimiter {
	return &webhookLimiter{
		global: rate.NewLimiter(rate.Limit(rps), burst),
		perIP:  map[string]*rate.Limiter{},
		rps:    rate.Limit(rps),
		burst:  burst,
	}
}

func (l *webhookLimiter) allow(remoteAddr string) bool {
	if l == nil {
		return true
	}
	if !l.global.Allow() {
		return false
	}
	host := remoteAddr
	if parsed, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = parsed
	}

	l.mu.Lock()
	if len(l.perIP) >= maxTrackedIPs {
		l.perIP = map[string]*rate.Limiter{}
	}
	limiter, ok := l.perIP[host]
	if !ok {
		limiter = rate.NewLimiter(l.rps, l.burst)
		l.perIP[host] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}

// webhookAck reports the stored outcome back to the provider. Processing
// failures still ack so the provider does not retry; the retry job replays
// the stored event instead.
type webhookAck struct {
	EventID         uuid.UUID `json:"event_id"`
	ProviderEventID string    `json:"provider_event_id"`
	Status          string    `json:"status"`
}

func (api *API) registerWebhookRoutes(mux *http.ServeMux, base string) {
	if mux == nil {
		return
	}
	mux.HandleFunc("POST "+joinPath(base, "webhooks/billing"), api.handleBillingWebhook)
}

func (api *API) handleBillingWebhook(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.billing == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	if !api.webhookLimiter.allow(r.RemoteAddr) {
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate_limited"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, api.webhookMaxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "payload_too_large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "unreadable body"})
		return
	}

	// The signature covers the raw bytes, so the envelope fields are pulled
	// out after the fact. A body that is not JSON fails in the service with
	// the event id check.
	var envelope struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	_ = json.Unmarshal(body, &envelope)

	event, err := api.billing.ReceiveWebhook(r.Context(), billing.ReceiveWebhookRequest{
		ProviderEventID: envelope.ID,
		Type:            envelope.Type,
		Payload:         body,
		Signature:       r.Header.Get(webhookSignatureHeader),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, webhookAck{
		EventID:         event.ID,
		ProviderEventID: event.ProviderEventID,
		Status:          event.Status,
	})
}
