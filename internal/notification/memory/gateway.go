// Package memory provides an in-process push-messaging gateway. It backs the
// client when no push transport is configured and serves as the test double.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"SignalDesk/internal/gateway"
	"SignalDesk/internal/model"
	"SignalDesk/internal/notification"

	"github.com/google/uuid"
)

// Gateway keeps topic registrations in memory and delivers messages pushed
// through Deliver and Open. The error fields make the matching call fail.
type Gateway struct {
	Status      notification.AuthorizationStatus
	DeviceToken string

	PermissionErr  error
	TokenErr       error
	SubscribeErr   error
	UnsubscribeErr error

	mu          sync.Mutex
	topics      map[string]bool
	lastRequest *notification.PermissionRequest
	closed      bool

	messages gateway.Stream[model.RemoteMessage]
	opened   gateway.Stream[model.RemoteMessage]
}

// New creates an authorized gateway with a random device token.
func New() *Gateway {
	return &Gateway{
		Status:      notification.StatusAuthorized,
		DeviceToken: uuid.NewString(),
		topics:      make(map[string]bool),
	}
}

func (g *Gateway) RequestPermission(_ context.Context, req notification.PermissionRequest) (notification.AuthorizationStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.usable(); err != nil {
		return notification.StatusNotDetermined, err
	}
	g.lastRequest = &req
	if g.PermissionErr != nil {
		return notification.StatusNotDetermined, g.PermissionErr
	}
	return g.Status, nil
}

func (g *Gateway) Token(context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.usable(); err != nil {
		return "", err
	}
	if g.TokenErr != nil {
		return "", g.TokenErr
	}
	if g.Status == notification.StatusDenied {
		return "", nil
	}
	return g.DeviceToken, nil
}

func (g *Gateway) SubscribeToTopic(_ context.Context, topic string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.usable(); err != nil {
		return err
	}
	if g.Status == notification.StatusDenied {
		return fmt.Errorf("subscribe %s: notifications denied: %w", topic, gateway.ErrPermissionDenied)
	}
	if g.SubscribeErr != nil {
		return g.SubscribeErr
	}
	g.topics[topic] = true
	return nil
}

func (g *Gateway) UnsubscribeFromTopic(_ context.Context, topic string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.usable(); err != nil {
		return err
	}
	if g.UnsubscribeErr != nil {
		return g.UnsubscribeErr
	}
	delete(g.topics, topic)
	return nil
}

func (g *Gateway) OnMessage(handler notification.MessageHandler) gateway.Subscription {
	return g.messages.Listen(handler)
}

func (g *Gateway) OnMessageOpenedApp(handler notification.MessageHandler) gateway.Subscription {
	return g.opened.Listen(handler)
}

func (g *Gateway) Close() error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	g.messages.Reset()
	g.opened.Reset()
	return nil
}

// Deliver pushes m to foreground listeners when it is addressed to the device
// directly (empty topic) or to a subscribed topic. It reports whether m was
// delivered. Nothing is delivered while permission is denied.
func (g *Gateway) Deliver(m model.RemoteMessage) bool {
	g.mu.Lock()
	ok := g.receiving() && (m.Topic == "" || g.topics[m.Topic])
	g.mu.Unlock()
	if !ok {
		return false
	}
	g.messages.Publish(fill(m))
	return true
}

// Open simulates the user opening the client from notification m.
func (g *Gateway) Open(m model.RemoteMessage) bool {
	g.mu.Lock()
	ok := g.receiving()
	g.mu.Unlock()
	if !ok {
		return false
	}
	g.opened.Publish(fill(m))
	return true
}

// Topics returns the subscribed topics, sorted.
func (g *Gateway) Topics() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.topics))
	for t := range g.topics {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// LastPermissionRequest returns the most recent permission request, if any.
func (g *Gateway) LastPermissionRequest() (notification.PermissionRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lastRequest == nil {
		return notification.PermissionRequest{}, false
	}
	return *g.lastRequest, true
}

// Listeners returns the number of active foreground and opened listeners.
func (g *Gateway) Listeners() (foreground, opened int) {
	return g.messages.Len(), g.opened.Len()
}

// Closed reports whether Close was called.
func (g *Gateway) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

func (g *Gateway) usable() error {
	if g.closed {
		return fmt.Errorf("memory push gateway closed: %w", gateway.ErrNotConfigured)
	}
	return nil
}

func (g *Gateway) receiving() bool {
	return !g.closed && g.Status != notification.StatusDenied
}

func fill(m model.RemoteMessage) model.RemoteMessage {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.SentAt.IsZero() {
		m.SentAt = time.Now()
	}
	return m
}
