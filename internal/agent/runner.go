package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lumabot/wabridge/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	fallbackEmptyText = "I could not generate a response."
	fallbackNoResult  = "I received your message but couldn't generate a response."
	fallbackError     = "Sorry, I encountered an error."
)

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxTurns = 20
)

var agentLatency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "wabridge",
		Subsystem: "agent",
		Name:      "llm_latency_seconds",
		Help:      "Latency of agent completions",
		// Focus on sub-10s buckets with a few higher ones for visibility.
		Buckets: []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8, 10, 15, 20, 30},
	},
	[]string{"model", "status"},
)

var agentTokensTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "wabridge",
		Subsystem: "agent",
		Name:      "llm_tokens_total",
		Help:      "Tokens used by agent completions",
	},
	[]string{"model", "type"}, // type: input, output, total
)

func init() {
	prometheus.MustRegister(agentLatency)
	prometheus.MustRegister(agentTokensTotal)
}

// RegisterMetrics registers agent metrics with a custom registry.
// Use this when exposing a non-default registry.
func RegisterMetrics(reg prometheus.Registerer) {
	if reg == nil || reg == prometheus.DefaultRegisterer {
		return
	}
	reg.MustRegister(agentLatency, agentTokensTotal)
}

// Runner turns inbound messages into agent replies, keeping one transcript
// per session key.
type Runner struct {
	client    Client
	sessions  SessionStore
	model     string
	logger    *logging.Logger
	tracer    trace.Tracer
	timeout   time.Duration
	maxTurns  int
	maxTokens int32
}

type RunnerOption func(*Runner)

// WithLogger sets the structured logger used by the runner.
func WithLogger(logger *logging.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTimeout bounds each completion call.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMaxTurns caps how many transcript entries are replayed per completion.
func WithMaxTurns(n int) RunnerOption {
	return func(r *Runner) {
		r.maxTurns = n
	}
}

// WithMaxTokens caps the model's output tokens per completion.
func WithMaxTokens(n int32) RunnerOption {
	return func(r *Runner) {
		r.maxTokens = n
	}
}

// WithModelName sets the model label reported in metrics and logs.
func WithModelName(model string) RunnerOption {
	return func(r *Runner) {
		if strings.TrimSpace(model) != "" {
			r.model = model
		}
	}
}

// WithTracer sets the tracer used for completion spans.
func WithTracer(tracer trace.Tracer) RunnerOption {
	return func(r *Runner) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

func NewRunner(client Client, sessions SessionStore, opts ...RunnerOption) *Runner {
	if client == nil {
		panic("agent: client cannot be nil")
	}
	if sessions == nil {
		panic("agent: session store cannot be nil")
	}
	r := &Runner{
		client:   client,
		sessions: sessions,
		model:    "gemini",
		logger:   logging.Default(),
		tracer:   otel.Tracer("wabridge.internal.agent"),
		timeout:  defaultTimeout,
		maxTurns: defaultMaxTurns,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reply generates the agent's reply for one inbound message. The returned
// text is always sendable: on failure it carries a fallback phrase and err
// reports the underlying cause.
func (r *Runner) Reply(ctx context.Context, sessionKey, message string) (string, error) {
	ctx, span := r.tracer.Start(ctx, "agent.reply")
	defer span.End()

	history, err := r.sessions.Load(ctx, sessionKey)
	if err != nil {
		span.RecordError(err)
		r.logger.Warn("failed to load session history, starting fresh", "session_key", sessionKey, "error", err)
		history = nil
	}
	if r.maxTurns > 0 && len(history) > r.maxTurns {
		history = history[len(history)-r.maxTurns:]
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.client.Complete(callCtx, Request{
		History:   history,
		Message:   message,
		MaxTokens: r.maxTokens,
	})
	latency := time.Since(start)
	status := "ok"
	if err != nil {
		status = "error"
	}
	agentLatency.WithLabelValues(r.model, status).Observe(latency.Seconds())
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("wabridge.llm.model", r.model),
			attribute.Float64("wabridge.llm.latency_ms", float64(latency.Milliseconds())),
			attribute.Int("wabridge.llm.history_turns", len(history)),
		)
	}
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrNoResponse) {
			r.logger.Warn("agent produced no response", "session_key", sessionKey, "latency_ms", latency.Milliseconds())
			return fallbackNoResult, nil
		}
		r.logger.Warn("agent completion failed", "session_key", sessionKey, "latency_ms", latency.Milliseconds(), "error", err)
		return fallbackError, fmt.Errorf("agent: completion failed: %w", err)
	}

	if resp.Usage.InputTokens > 0 {
		agentTokensTotal.WithLabelValues(r.model, "input").Add(float64(resp.Usage.InputTokens))
	}
	if resp.Usage.OutputTokens > 0 {
		agentTokensTotal.WithLabelValues(r.model, "output").Add(float64(resp.Usage.OutputTokens))
	}
	if resp.Usage.TotalTokens > 0 {
		agentTokensTotal.WithLabelValues(r.model, "total").Add(float64(resp.Usage.TotalTokens))
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		r.logger.Warn("agent returned empty text", "session_key", sessionKey, "latency_ms", latency.Milliseconds())
		return fallbackEmptyText, nil
	}

	updated := append(history, Turn{Role: RoleUser, Text: message}, Turn{Role: RoleModel, Text: text})
	if err := r.sessions.Save(ctx, sessionKey, updated); err != nil {
		span.RecordError(err)
		r.logger.Warn("failed to save session history", "session_key", sessionKey, "error", err)
	}

	r.logger.Info("agent reply generated",
		"session_key", sessionKey,
		"model", r.model,
		"latency_ms", latency.Milliseconds(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"reply_chars", len(text),
	)
	return text, nil
}
