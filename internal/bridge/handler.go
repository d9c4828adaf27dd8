package bridge

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lumabot/wabridge/internal/channels/whatsapp"
	"github.com/lumabot/wabridge/internal/observability/metrics"
)

// Handler exposes the bridge over HTTP: Meta's verification handshake,
// inbound webhook events, and the health check.
type Handler struct {
	webhook *whatsapp.WebhookHandler
	metrics *metrics.BridgeMetrics
}

type HandlerOption func(*Handler)

// WithHandlerMetrics wires bridge metrics.
func WithHandlerMetrics(m *metrics.BridgeMetrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// NewHandler creates the HTTP handler around a bridge service. Signature
// checking on inbound events is enabled only when appSecret is non-empty.
func NewHandler(verifyToken, appSecret string, service *Service, opts ...HandlerOption) *Handler {
	if service == nil {
		panic("bridge: service cannot be nil")
	}
	h := &Handler{
		webhook: whatsapp.NewWebhookHandler(verifyToken, appSecret, service.HandleMessage),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleVerification handles GET /whatsapp (Meta challenge).
func (h *Handler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	h.webhook.HandleVerification(w, r)
}

// HandleEvents handles POST /whatsapp (inbound message events).
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	h.webhook.HandleInbound(w, r)
	h.metrics.ObserveWebhookLatency("inbound", time.Since(start).Seconds())
}

// HealthCheck returns a simple health check response.
// GET /
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status": "ok",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
