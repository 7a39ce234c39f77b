package eventing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"ais-insight/internal/observability/metrics"
)

// DefaultSubject is the NATS subject dataset events are published on.
const DefaultSubject = "ais.dataset.replaced"

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event any) error
}

// Conn is the part of a NATS connection the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes JSON envelopes to one NATS subject.
type NATSPublisher struct {
	conn    Conn
	subject string
	logger  *zap.Logger
}

// ConnectNATS dials url and returns a publisher on subject.
func ConnectNATS(url, subject string, logger *zap.Logger) (*NATSPublisher, error) {
	if url == "" {
		return nil, errors.New("eventing: empty nats url")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := nats.Connect(url,
		nats.Name("aisd"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, err
	}
	return NewNATSPublisher(conn, subject, logger), nil
}

// NewNATSPublisher wraps an open connection.
func NewNATSPublisher(conn Conn, subject string, logger *zap.Logger) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSPublisher{conn: conn, subject: subject, logger: logger}
}

// Publish wraps event in an envelope and sends it.
func (p *NATSPublisher) Publish(ctx context.Context, event any) error {
	if p == nil || p.conn == nil {
		return errors.New("eventing: nil nats publisher")
	}
	env, err := BuildEnvelope(event, MetaFromContext(ctx))
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	err = p.conn.Publish(p.subject, data)
	metrics.IncEventPublish(metrics.ResultOf(err))
	if err != nil {
		return err
	}
	p.logger.Debug("event published",
		zap.String("subject", p.subject),
		zap.String("event_id", env.EventID),
		zap.String("event_type", env.EventType),
	)
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

// LoggingPublisher logs events instead of sending them.
type LoggingPublisher struct {
	logger *zap.Logger
}

// NewLoggingPublisher constructs a logging publisher.
func NewLoggingPublisher(logger *zap.Logger) *LoggingPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingPublisher{logger: logger}
}

// Publish logs the envelope.
func (p *LoggingPublisher) Publish(ctx context.Context, event any) error {
	if p == nil {
		return errors.New("eventing: nil publisher")
	}
	env, err := BuildEnvelope(event, MetaFromContext(ctx))
	if err != nil {
		return err
	}
	metrics.IncEventPublish(metrics.ResultSuccess)
	p.logger.Info("event",
		zap.String("event_id", env.EventID),
		zap.String("event_type", env.EventType),
		zap.ByteString("payload", env.Payload),
	)
	return nil
}
