package notification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"SignalDesk/internal/gateway"
	"SignalDesk/internal/model"
	"SignalDesk/internal/recorder"

	"github.com/sirupsen/logrus"
)

// ErrClosed is returned by Initialize after Close.
var ErrClosed = errors.New("notification service closed")

// Service is the client's notification wrapper. It owns the gateway handle
// and the two listener subscriptions registered by Initialize.
type Service struct {
	gw        Gateway
	rec       recorder.Recorder
	log       logrus.FieldLogger
	onMessage MessageHandler
	onOpened  MessageHandler

	mu          sync.Mutex
	subs        []gateway.Subscription
	token       string
	status      AuthorizationStatus
	initialized bool
	closed      atomic.Bool
}

// Option configures a Service.
type Option func(*Service)

// WithMessageHandler forwards foreground messages to h.
func WithMessageHandler(h MessageHandler) Option {
	return func(s *Service) { s.onMessage = h }
}

// WithOpenedHandler forwards messages that opened the client to h.
func WithOpenedHandler(h MessageHandler) Option {
	return func(s *Service) { s.onOpened = h }
}

// WithRecorder journals every delivered message.
func WithRecorder(rec recorder.Recorder) Option {
	return func(s *Service) { s.rec = rec }
}

// NewService creates a Service over gw.
func NewService(gw Gateway, log logrus.FieldLogger, opts ...Option) *Service {
	s := &Service{
		gw:     gw,
		rec:    recorder.NewNoopRecorder(),
		log:    log.WithField("component", "notification"),
		status: StatusNotDetermined,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize requests permission, fetches the device token and registers the
// message listeners. Gateway failures are logged and do not stop startup.
// Later calls are no-ops.
func (s *Service) Initialize(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.initialized = true
	s.mu.Unlock()

	status, err := s.gw.RequestPermission(ctx, DefaultPermissions)
	if err != nil {
		s.log.WithError(err).WithField("kind", gateway.Kind(err)).Warn("request permission failed")
		status = StatusNotDetermined
	}
	s.log.WithField("status", status).Info("notification permission")

	token, err := s.gw.Token(ctx)
	switch {
	case err != nil:
		s.log.WithError(err).WithField("kind", gateway.Kind(err)).Warn("get device token failed")
	case token == "":
		s.log.Warn("device token not available")
	default:
		s.log.WithField("token", token).Info("device token acquired")
	}

	msgSub := s.gw.OnMessage(func(m model.RemoteMessage) { s.deliver(m, false) })
	openSub := s.gw.OnMessageOpenedApp(func(m model.RemoteMessage) { s.deliver(m, true) })

	s.mu.Lock()
	s.status = status
	s.token = token
	s.subs = append(s.subs, msgSub, openSub)
	s.mu.Unlock()
	return nil
}

// Token returns the device token acquired by Initialize.
func (s *Service) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Status returns the permission status granted during Initialize.
func (s *Service) Status() AuthorizationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SubscribeToTopic registers the device for topic. Failures are logged only.
func (s *Service) SubscribeToTopic(ctx context.Context, topic string) {
	if err := s.gw.SubscribeToTopic(ctx, topic); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"topic": topic, "kind": gateway.Kind(err)}).
			Error("subscribe to topic failed")
		return
	}
	s.log.WithField("topic", topic).Info("subscribed to topic")
}

// UnsubscribeFromTopic removes the device from topic. Failures are logged only.
func (s *Service) UnsubscribeFromTopic(ctx context.Context, topic string) {
	if err := s.gw.UnsubscribeFromTopic(ctx, topic); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"topic": topic, "kind": gateway.Kind(err)}).
			Error("unsubscribe from topic failed")
		return
	}
	s.log.WithField("topic", topic).Info("unsubscribed from topic")
}

// Close cancels the listeners and releases the gateway. Safe to call twice.
func (s *Service) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
	return s.gw.Close()
}

func (s *Service) deliver(m model.RemoteMessage, opened bool) {
	if s.closed.Load() {
		return
	}
	s.log.WithFields(logrus.Fields{
		"message_id": m.ID,
		"topic":      m.Topic,
		"opened":     opened,
		"data":       m.Data,
	}).Info("push message received")

	if err := s.rec.RecordMessage(&recorder.MessageEvent{
		MessageID: m.ID,
		Topic:     m.Topic,
		Title:     m.Title,
		Opened:    opened,
		Data:      m.Data,
	}); err != nil {
		s.log.WithError(err).Error("record message")
	}

	if opened {
		if s.onOpened != nil {
			s.onOpened(m)
		}
		return
	}
	if s.onMessage != nil {
		s.onMessage(m)
	}
}
