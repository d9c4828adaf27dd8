package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/lumabot/wabridge/internal/bridge"
	"github.com/lumabot/wabridge/internal/channels/whatsapp"
	"github.com/lumabot/wabridge/pkg/logging"
)

type noopReplier struct {
	mu       sync.Mutex
	sessions []string
}

func (r *noopReplier) Reply(_ context.Context, sessionKey, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, sessionKey)
	return "hello from the agent", nil
}

type noopSender struct{}

func (noopSender) SendTextMessage(_ context.Context, _, _ string) (*whatsapp.SendResponse, error) {
	return &whatsapp.SendResponse{}, nil
}

func newTestRouter(t *testing.T, cfg *Config) (http.Handler, *bridge.Service) {
	t.Helper()

	svc := bridge.NewService(bridge.NewTrigger("bot"), &noopReplier{}, noopSender{})
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.Logger = logging.Default()
	cfg.Bridge = bridge.NewHandler("test_verify_token", "", svc)

	return New(cfg), svc
}

func TestRouterHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterVerificationEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/whatsapp?hub.mode=subscribe&hub.verify_token=test_verify_token&hub.challenge=CH_99", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Body.String() != "CH_99" {
		t.Fatalf("expected challenge echo, got %q", rr.Body.String())
	}
}

func TestRouterEventsEndpoint(t *testing.T) {
	router, svc := newTestRouter(t, nil)

	body := `{
		"object": "whatsapp_business_account",
		"entry": [{"id": "e1", "changes": [{"field": "messages", "value": {
			"messaging_product": "whatsapp",
			"metadata": {"phone_number_id": "phone_123"},
			"messages": [{"from": "15551234567", "id": "wamid.1", "timestamp": "1700000000", "type": "text", "text": {"body": "hey bot"}}]
		}}]}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/whatsapp", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	svc.Wait()
}

func TestRouterMetricsAndStatsMounted(t *testing.T) {
	metricsStub := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router, _ := newTestRouter(t, &Config{
		MetricsHandler: metricsStub,
		Stats:          bridge.NewStatsHandler(nil, nil),
	})

	for _, path := range []string{"/metrics", "/stats"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected status %d, got %d", path, http.StatusOK, rr.Code)
		}
	}
}

func TestRouterMetricsNotMountedByDefault(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unmounted /metrics, got %d", rr.Code)
	}
}

func TestRouterWebhookRateLimit(t *testing.T) {
	router, _ := newTestRouter(t, &Config{
		WebhookRateLimit: 0.01,
		WebhookRateBurst: 1,
	})

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/whatsapp", strings.NewReader("{}"))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := post(); code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", code)
	}
	if code := post(); code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", code)
	}
}
