package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Checker-Finance/warp/internal/metrics"
	"github.com/Checker-Finance/warp/pkg/model"
)

// jetStream is the slice of nats.JetStreamContext the publisher needs.
type jetStream interface {
	PublishMsg(msg *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// Publisher emits gateway events to NATS JetStream.
// Subjects are "{prefix}.{event_type}", e.g. "evt.warp.transfer.executed".
type Publisher struct {
	nc      *nats.Conn
	js      jetStream
	prefix  string
	service string
	logger  *zap.Logger
}

// New creates a Publisher with JetStream enabled.
func New(nc *nats.Conn, prefix, service string, logger *zap.Logger) (*Publisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc, js: js, prefix: prefix, service: service, logger: logger}, nil
}

// Connect dials NATS and returns a ready Publisher.
func Connect(url, prefix, service string, logger *zap.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name(service))
	if err != nil {
		return nil, err
	}
	p, err := New(nc, prefix, service, logger)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return p, nil
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn { return p.nc }

// Subject returns the subject an event type is published on.
func (p *Publisher) Subject(eventType string) string {
	return p.prefix + "." + eventType
}

// PublishEnvelope serializes and publishes an event envelope.
func (p *Publisher) PublishEnvelope(ctx context.Context, env model.Envelope) error {
	subject := p.Subject(env.EventType)

	data, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("publisher.marshal_failed",
			zap.String("subject", subject),
			zap.String("event_type", env.EventType),
			zap.Error(err))
		metrics.IncEventPublished(subject, "marshal_failed")
		return err
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"event_type":     []string{env.EventType},
			"correlation_id": []string{env.CorrelationID.String()},
			"service":        []string{p.service},
			"content_type":   []string{"application/json"},
		},
	}
	// JetStream de-duplicates on the message ID within its window.
	msg.Header.Set(nats.MsgIdHdr, env.ID.String())

	start := time.Now()
	_, err = p.js.PublishMsg(msg, nats.Context(ctx))
	if err != nil {
		p.logger.Error("publisher.publish_failed",
			zap.String("subject", subject),
			zap.String("event_type", env.EventType),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		metrics.IncEventPublished(subject, "error")
		return err
	}

	p.logger.Debug("publisher.publish_success",
		zap.String("subject", subject),
		zap.String("event_type", env.EventType),
		zap.Duration("elapsed", time.Since(start)))
	metrics.IncEventPublished(subject, "ok")
	return nil
}

// PublishTransferExecuted emits transfer.executed.
func (p *Publisher) PublishTransferExecuted(ctx context.Context, correlationID uuid.UUID, evt model.TransferExecuted) error {
	return p.PublishEnvelope(ctx, model.NewEnvelope(model.EventTransferExecuted, p.service, correlationID, evt))
}

// PublishQuotePresented emits quote.presented.
func (p *Publisher) PublishQuotePresented(ctx context.Context, correlationID uuid.UUID, evt model.QuotePresented) error {
	return p.PublishEnvelope(ctx, model.NewEnvelope(model.EventQuotePresented, p.service, correlationID, evt))
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil && p.nc.IsConnected() {
		_ = p.nc.Drain()
	}
}
