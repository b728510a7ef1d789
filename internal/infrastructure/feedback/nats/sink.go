package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/finassist/qa-engine/internal/core/domain"
)

// Sink publishes feedback and analytics events fire-and-forget. Its NATS
// connection handlers double as the engine's connectivity signal: disconnect
// flips the online flag, reconnect notifies observers so the offline queue
// can drain.
type Sink struct {
	conn          *nats.Conn
	subjectPrefix string
	logger        *slog.Logger

	mu           sync.Mutex
	online       bool
	reconnectFns []func()
}

type Options struct {
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
}

func New(url, subjectPrefix string, logger *slog.Logger) (*Sink, error) {
	return NewWithOptions(url, subjectPrefix, logger, Options{})
}

func NewWithOptions(url, subjectPrefix string, logger *slog.Logger, options Options) (*Sink, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = -1
	}

	sink := &Sink{
		subjectPrefix: subjectPrefix,
		logger:        logger,
	}

	conn, err := nats.Connect(
		url,
		nats.Name("qa-engine"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("feedback sink disconnected", "error", err)
			sink.setOnline(false)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("feedback sink reconnected", "url", nc.ConnectedUrl())
			sink.setOnline(true)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	sink.conn = conn
	sink.online = conn.IsConnected()
	return sink, nil
}

func (s *Sink) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *Sink) PublishFeedback(ctx context.Context, fb domain.Feedback) error {
	payload, err := json.Marshal(fb)
	if err != nil {
		return domain.WrapError(domain.ErrParsing, "marshal feedback", err)
	}
	return s.publish(ctx, s.subjectPrefix+".feedback", payload)
}

func (s *Sink) PublishAnalytics(ctx context.Context, event string, payload []byte) error {
	return s.publish(ctx, s.subjectPrefix+".analytics."+event, payload)
}

func (s *Sink) publish(_ context.Context, subject string, payload []byte) error {
	if !s.Online() {
		return domain.WrapError(domain.ErrOffline, "publish "+subject, nats.ErrDisconnected)
	}
	if err := s.conn.Publish(subject, payload); err != nil {
		return translatePublishError(subject, err)
	}
	return nil
}

func (s *Sink) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// OnReconnect registers a callback invoked on every offline-to-online
// transition.
func (s *Sink) OnReconnect(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnectFns = append(s.reconnectFns, fn)
}

func (s *Sink) setOnline(online bool) {
	s.mu.Lock()
	wasOnline := s.online
	s.online = online
	fns := make([]func(), len(s.reconnectFns))
	copy(fns, s.reconnectFns)
	s.mu.Unlock()

	if online && !wasOnline {
		for _, fn := range fns {
			go fn()
		}
	}
}
