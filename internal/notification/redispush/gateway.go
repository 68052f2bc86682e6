// Package redispush implements the push-messaging gateway over Redis pub/sub.
//
// Topics are channels named <prefix>topic:<name>. A message is a JSON encoded
// model.RemoteMessage. Messages queued for a device while the client was not
// running are RPUSHed by the backend to <prefix>inbox:<token> and delivered as
// opened-from-notification events once an opened listener registers.
package redispush

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"SignalDesk/internal/gateway"
	"SignalDesk/internal/model"
	"SignalDesk/internal/notification"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Config holds the transport settings.
type Config struct {
	Addr        string
	Password    string
	DB          int
	Prefix      string
	Enabled     bool
	DeviceToken string
}

// Gateway is a notification.Gateway backed by Redis.
type Gateway struct {
	client  *redis.Client
	pubsub  *redis.PubSub
	prefix  string
	enabled bool
	token   string
	log     logrus.FieldLogger

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	drained   sync.WaitGroup

	mu       sync.Mutex
	granted  bool
	draining bool
	closing  bool

	messages gateway.Stream[model.RemoteMessage]
	opened   gateway.Stream[model.RemoteMessage]
}

// New creates the gateway and starts its receive loop. The connection is
// checked by RequestPermission.
func New(ctx context.Context, cfg Config, log logrus.FieldLogger) *Gateway {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	token := cfg.DeviceToken
	if token == "" {
		token = uuid.NewString()
	}
	gctx, cancel := context.WithCancel(ctx)
	g := &Gateway{
		client:  client,
		pubsub:  client.Subscribe(gctx),
		prefix:  cfg.Prefix,
		enabled: cfg.Enabled,
		token:   token,
		log:     log.WithField("component", "redispush"),
		ctx:     gctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go g.receive()
	return g
}

func (g *Gateway) RequestPermission(ctx context.Context, req notification.PermissionRequest) (notification.AuthorizationStatus, error) {
	if !g.enabled {
		return notification.StatusDenied, nil
	}
	if err := g.client.Ping(ctx).Err(); err != nil {
		return notification.StatusNotDetermined, fmt.Errorf("ping push transport: %v: %w", err, gateway.ErrUnavailable)
	}
	g.mu.Lock()
	g.granted = true
	g.mu.Unlock()
	if req.Provisional {
		return notification.StatusProvisional, nil
	}
	return notification.StatusAuthorized, nil
}

// Token returns the device token once permission was granted.
func (g *Gateway) Token(context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.granted {
		return "", nil
	}
	return g.token, nil
}

// SubscribeToTopic joins the topic channel. It fails with
// gateway.ErrPermissionDenied until permission was granted.
func (g *Gateway) SubscribeToTopic(ctx context.Context, topic string) error {
	if !g.allowed() {
		return fmt.Errorf("subscribe %s: notifications not permitted: %w", topic, gateway.ErrPermissionDenied)
	}
	if err := g.pubsub.Subscribe(ctx, TopicChannel(g.prefix, topic)); err != nil {
		return fmt.Errorf("subscribe %s: %v: %w", topic, err, gateway.ErrUnavailable)
	}
	return nil
}

func (g *Gateway) UnsubscribeFromTopic(ctx context.Context, topic string) error {
	if err := g.pubsub.Unsubscribe(ctx, TopicChannel(g.prefix, topic)); err != nil {
		return fmt.Errorf("unsubscribe %s: %v: %w", topic, err, gateway.ErrUnavailable)
	}
	return nil
}

func (g *Gateway) OnMessage(handler notification.MessageHandler) gateway.Subscription {
	return g.messages.Listen(handler)
}

// OnMessageOpenedApp registers handler and, on the first registration after
// permission was granted, drains the device inbox into the opened stream.
func (g *Gateway) OnMessageOpenedApp(handler notification.MessageHandler) gateway.Subscription {
	sub := g.opened.Listen(handler)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.enabled && g.granted && !g.closing && !g.draining {
		g.draining = true
		g.drained.Add(1)
		go g.drainInbox()
	}
	return sub
}

// Close stops the receive loop and closes the Redis connections.
func (g *Gateway) Close() error {
	var err error
	g.closeOnce.Do(func() {
		g.mu.Lock()
		g.closing = true
		g.mu.Unlock()
		g.cancel()
		g.drained.Wait()
		if cerr := g.pubsub.Close(); cerr != nil {
			err = cerr
		}
		<-g.done
		if cerr := g.client.Close(); cerr != nil && err == nil {
			err = cerr
		}
		g.messages.Reset()
		g.opened.Reset()
	})
	return err
}

func (g *Gateway) receive() {
	defer close(g.done)
	ch := g.pubsub.Channel()
	for {
		select {
		case <-g.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			m, err := DecodeMessage([]byte(msg.Payload), TopicFromChannel(g.prefix, msg.Channel))
			if err != nil {
				g.log.WithError(err).WithField("channel", msg.Channel).Warn("drop undecodable push message")
				continue
			}
			g.messages.Publish(m)
		}
	}
}

func (g *Gateway) allowed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled && g.granted
}

func (g *Gateway) drainInbox() {
	defer g.drained.Done()
	key := InboxKey(g.prefix, g.token)
	for {
		payload, err := g.client.LPop(g.ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return
		}
		if err != nil {
			if g.ctx.Err() == nil {
				g.log.WithError(err).WithField("key", key).Warn("drain inbox failed")
			}
			return
		}
		m, err := DecodeMessage(payload, "")
		if err != nil {
			g.log.WithError(err).Warn("drop undecodable inbox message")
			continue
		}
		g.opened.Publish(m)
	}
}

// TopicChannel returns the pub/sub channel for topic.
func TopicChannel(prefix, topic string) string {
	return prefix + "topic:" + topic
}

// TopicFromChannel is the inverse of TopicChannel.
func TopicFromChannel(prefix, channel string) string {
	return strings.TrimPrefix(channel, prefix+"topic:")
}

// InboxKey returns the list holding queued messages for a device.
func InboxKey(prefix, token string) string {
	return prefix + "inbox:" + token
}

// DecodeMessage parses a JSON push payload, filling the topic, id and send
// time when absent.
func DecodeMessage(payload []byte, topic string) (model.RemoteMessage, error) {
	var m model.RemoteMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return model.RemoteMessage{}, fmt.Errorf("decode push message: %w", err)
	}
	if m.Topic == "" {
		m.Topic = topic
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.SentAt.IsZero() {
		m.SentAt = time.Now()
	}
	return m, nil
}
