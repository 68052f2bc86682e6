// Package notification wraps a push-messaging gateway: permission, device
// token, topic registration and the two incoming message streams.
package notification

import (
	"context"

	"SignalDesk/internal/gateway"
	"SignalDesk/internal/model"
)

// PermissionRequest names the notification capabilities being asked for.
type PermissionRequest struct {
	Alert       bool
	Badge       bool
	Sound       bool
	Provisional bool
	Critical    bool
	CarDisplay  bool
}

// DefaultPermissions asks for alerts, badges and sounds only.
var DefaultPermissions = PermissionRequest{Alert: true, Badge: true, Sound: true}

// AuthorizationStatus is the outcome of a permission request.
type AuthorizationStatus string

const (
	StatusAuthorized    AuthorizationStatus = "authorized"
	StatusProvisional   AuthorizationStatus = "provisional"
	StatusDenied        AuthorizationStatus = "denied"
	StatusNotDetermined AuthorizationStatus = "not_determined"
)

// MessageHandler receives a push message.
type MessageHandler func(model.RemoteMessage)

// Gateway is the push-messaging capability consumed by Service.
type Gateway interface {
	RequestPermission(ctx context.Context, req PermissionRequest) (AuthorizationStatus, error)
	// Token returns the device token, or "" when none is available yet.
	Token(ctx context.Context) (string, error)
	SubscribeToTopic(ctx context.Context, topic string) error
	UnsubscribeFromTopic(ctx context.Context, topic string) error
	// OnMessage delivers messages received while the client is in the foreground.
	OnMessage(handler MessageHandler) gateway.Subscription
	// OnMessageOpenedApp delivers messages that opened the client.
	OnMessageOpenedApp(handler MessageHandler) gateway.Subscription
	Close() error
}
