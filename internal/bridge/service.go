package bridge

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lumabot/wabridge/internal/channels/whatsapp"
	"github.com/lumabot/wabridge/internal/observability/metrics"
	"github.com/lumabot/wabridge/pkg/logging"
)

var bridgeTracer = otel.Tracer("wabridge.internal.bridge")

// Replier generates the reply text for one inbound message. Implementations
// must always return sendable text; err reports a failure that was already
// converted into fallback text.
type Replier interface {
	Reply(ctx context.Context, sessionKey, message string) (string, error)
}

// Sender dispatches a text message back to a WhatsApp recipient.
type Sender interface {
	SendTextMessage(ctx context.Context, to, text string) (*whatsapp.SendResponse, error)
}

// Service screens inbound messages and runs the reply pipeline for those
// matching the trigger.
type Service struct {
	trigger *Trigger
	replier Replier
	sender  Sender
	metrics *metrics.BridgeMetrics
	logger  *logging.Logger

	wg sync.WaitGroup
}

type ServiceOption func(*Service)

// WithLogger sets the structured logger used by the service.
func WithLogger(logger *logging.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics wires bridge metrics.
func WithMetrics(m *metrics.BridgeMetrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(trigger *Trigger, replier Replier, sender Sender, opts ...ServiceOption) *Service {
	if trigger == nil {
		panic("bridge: trigger cannot be nil")
	}
	if replier == nil {
		panic("bridge: replier cannot be nil")
	}
	if sender == nil {
		panic("bridge: sender cannot be nil")
	}
	s := &Service{
		trigger: trigger,
		replier: replier,
		sender:  sender,
		logger:  logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleMessage screens one inbound message and, when it matches the
// trigger, runs the reply pipeline in the background. The webhook
// acknowledgement never waits on the agent.
func (s *Service) HandleMessage(msg whatsapp.ParsedInboundMessage) {
	if msg.Type != whatsapp.MessageTypeText || strings.TrimSpace(msg.Text) == "" {
		s.metrics.ObserveInbound(eventType(msg), "no_text")
		s.logger.Debug("ignoring message without text", "sender_id", msg.SenderID, "type", msg.Type)
		return
	}
	if !s.trigger.Matches(msg.Text) {
		s.metrics.ObserveInbound(eventType(msg), "ignored")
		s.logger.Debug("message did not match trigger", "sender_id", msg.SenderID, "message_id", msg.MessageID)
		return
	}

	s.metrics.ObserveInbound(eventType(msg), "triggered")
	s.logger.Info("inbound message triggered agent",
		"sender_id", msg.SenderID,
		"message_id", msg.MessageID,
		"text_chars", len(msg.Text),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// Detached from the request context: the 200 ack has already been
		// written and must not cancel the pipeline.
		s.process(context.Background(), msg)
	}()
}

// Wait blocks until all in-flight pipelines finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) process(ctx context.Context, msg whatsapp.ParsedInboundMessage) {
	ctx, span := bridgeTracer.Start(ctx, "bridge.process")
	defer span.End()
	span.SetAttributes(
		attribute.String("wabridge.sender_id", msg.SenderID),
		attribute.String("wabridge.message_id", msg.MessageID),
	)

	reply, err := s.replier.Reply(ctx, msg.SenderID, msg.Text)
	if err != nil {
		s.logger.Error("agent reply failed", "sender_id", msg.SenderID, "error", err)
		span.RecordError(err)
	}
	if strings.TrimSpace(reply) == "" {
		return
	}

	if _, err := s.sender.SendTextMessage(ctx, msg.SenderID, reply); err != nil {
		s.metrics.ObserveOutbound("failed")
		s.logger.Error("failed to dispatch reply", "sender_id", msg.SenderID, "error", err)
		span.RecordError(err)
		return
	}
	s.metrics.ObserveOutbound("sent")
	s.logger.Info("reply dispatched", "sender_id", msg.SenderID, "reply_chars", len(reply))
}

func eventType(msg whatsapp.ParsedInboundMessage) string {
	if msg.Type == "" {
		return "unknown"
	}
	return msg.Type
}
