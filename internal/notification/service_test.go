package notification_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"SignalDesk/internal/gateway"
	"SignalDesk/internal/model"
	"SignalDesk/internal/notification"
	"SignalDesk/internal/notification/memory"
	"SignalDesk/internal/recorder"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type spyRecorder struct {
	recorder.NoopRecorder
	messages []*recorder.MessageEvent
}

func (r *spyRecorder) RecordMessage(evt *recorder.MessageEvent) error {
	r.messages = append(r.messages, evt)
	return nil
}

func TestInitialize_RequestsPermissionAndRegistersListeners(t *testing.T) {
	logger, _ := test.NewNullLogger()
	gw := memory.New()
	svc := notification.NewService(gw, logger)

	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	req, ok := gw.LastPermissionRequest()
	if !ok {
		t.Fatal("permission was not requested")
	}
	want := notification.PermissionRequest{Alert: true, Badge: true, Sound: true}
	if req != want {
		t.Errorf("permission request = %+v, want %+v", req, want)
	}
	if svc.Status() != notification.StatusAuthorized {
		t.Errorf("status = %s", svc.Status())
	}
	if svc.Token() != gw.DeviceToken {
		t.Errorf("token = %q, want %q", svc.Token(), gw.DeviceToken)
	}
	if fg, op := gw.Listeners(); fg != 1 || op != 1 {
		t.Errorf("listeners = %d/%d, want 1/1", fg, op)
	}
}

func TestInitialize_TokenFailureIsNonFatal(t *testing.T) {
	logger, hook := test.NewNullLogger()
	gw := memory.New()
	gw.TokenErr = fmt.Errorf("fetch token: %w", gateway.ErrUnavailable)
	svc := notification.NewService(gw, logger)

	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize should not fail on token error: %v", err)
	}
	if svc.Token() != "" {
		t.Errorf("expected no token, got %q", svc.Token())
	}
	found := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["kind"] == "unavailable" {
			found = true
		}
	}
	if !found {
		t.Error("expected a warning carrying the unavailable kind")
	}
	if fg, _ := gw.Listeners(); fg != 1 {
		t.Error("listeners should still be registered")
	}
}

func TestInitialize_DeniedPermissionHasNoToken(t *testing.T) {
	logger, _ := test.NewNullLogger()
	gw := memory.New()
	gw.Status = notification.StatusDenied
	svc := notification.NewService(gw, logger)

	_ = svc.Initialize(context.Background())
	if svc.Status() != notification.StatusDenied {
		t.Errorf("status = %s", svc.Status())
	}
	if svc.Token() != "" {
		t.Errorf("expected absent token, got %q", svc.Token())
	}
}

func TestDeniedPermissionBlocksDelivery(t *testing.T) {
	logger, hook := test.NewNullLogger()
	gw := memory.New()
	gw.Status = notification.StatusDenied
	var got int
	svc := notification.NewService(gw, logger,
		notification.WithMessageHandler(func(model.RemoteMessage) { got++ }),
		notification.WithOpenedHandler(func(model.RemoteMessage) { got++ }),
	)
	ctx := context.Background()
	_ = svc.Initialize(ctx)

	hook.Reset()
	svc.SubscribeToTopic(ctx, "new_signals")
	if e := hook.LastEntry(); e == nil || e.Level != logrus.ErrorLevel || e.Data["kind"] != "permission_denied" {
		t.Errorf("expected logged permission_denied, got %+v", e)
	}
	if len(gw.Topics()) != 0 {
		t.Errorf("topics = %v, want none", gw.Topics())
	}
	if gw.Deliver(model.RemoteMessage{Title: "direct"}) {
		t.Error("direct message delivered while denied")
	}
	if gw.Open(model.RemoteMessage{Title: "opened"}) {
		t.Error("opened message delivered while denied")
	}
	if got != 0 {
		t.Errorf("handlers called %d times", got)
	}
}

func TestInitialize_Twice(t *testing.T) {
	logger, _ := test.NewNullLogger()
	gw := memory.New()
	var got int
	svc := notification.NewService(gw, logger,
		notification.WithMessageHandler(func(model.RemoteMessage) { got++ }))
	ctx := context.Background()

	if err := svc.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	if fg, op := gw.Listeners(); fg != 1 || op != 1 {
		t.Errorf("listeners = %d/%d, want 1/1", fg, op)
	}
	gw.Deliver(model.RemoteMessage{Title: "direct"})
	if got != 1 {
		t.Errorf("handler called %d times, want 1", got)
	}
}

func TestMessagesAreForwarded(t *testing.T) {
	logger, _ := test.NewNullLogger()
	gw := memory.New()
	var foreground, opened []model.RemoteMessage
	rec := &spyRecorder{}
	svc := notification.NewService(gw, logger,
		notification.WithRecorder(rec),
		notification.WithMessageHandler(func(m model.RemoteMessage) { foreground = append(foreground, m) }),
		notification.WithOpenedHandler(func(m model.RemoteMessage) { opened = append(opened, m) }),
	)
	ctx := context.Background()
	_ = svc.Initialize(ctx)
	svc.SubscribeToTopic(ctx, "new_signals")

	if !gw.Deliver(model.RemoteMessage{Topic: "new_signals", Title: "BTC/USDT", Data: map[string]string{"id": "1"}}) {
		t.Fatal("message to subscribed topic was not delivered")
	}
	if gw.Deliver(model.RemoteMessage{Topic: "other"}) {
		t.Error("message to unsubscribed topic should not be delivered")
	}
	gw.Open(model.RemoteMessage{Title: "EUR/USD"})

	if len(foreground) != 1 || foreground[0].Data["id"] != "1" {
		t.Errorf("foreground = %+v", foreground)
	}
	if foreground[0].ID == "" {
		t.Error("message id should be filled")
	}
	if len(opened) != 1 || opened[0].Title != "EUR/USD" {
		t.Errorf("opened = %+v", opened)
	}
	if len(rec.messages) != 2 || rec.messages[0].Opened || !rec.messages[1].Opened {
		t.Errorf("recorded = %+v", rec.messages)
	}
}

func TestTopicRegistration(t *testing.T) {
	logger, hook := test.NewNullLogger()
	gw := memory.New()
	svc := notification.NewService(gw, logger)
	ctx := context.Background()

	svc.SubscribeToTopic(ctx, "new_signals")
	svc.SubscribeToTopic(ctx, "forex")
	svc.UnsubscribeFromTopic(ctx, "forex")
	if got := gw.Topics(); len(got) != 1 || got[0] != "new_signals" {
		t.Errorf("topics = %v", got)
	}

	gw.SubscribeErr = errors.New("quota exceeded")
	hook.Reset()
	svc.SubscribeToTopic(ctx, "crypto") // must not panic or return
	if e := hook.LastEntry(); e == nil || e.Level != logrus.ErrorLevel || e.Data["kind"] != "sdk_error" {
		t.Errorf("expected logged sdk_error, got %+v", e)
	}
	if len(gw.Topics()) != 1 {
		t.Error("failed subscription should not register the topic")
	}
}

func TestClose_ReleasesListenersAndGateway(t *testing.T) {
	logger, _ := test.NewNullLogger()
	gw := memory.New()
	var got int
	svc := notification.NewService(gw, logger,
		notification.WithMessageHandler(func(model.RemoteMessage) { got++ }))
	_ = svc.Initialize(context.Background())

	if err := svc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := svc.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if fg, op := gw.Listeners(); fg != 0 || op != 0 {
		t.Errorf("listeners left after Close: %d/%d", fg, op)
	}
	if !gw.Closed() {
		t.Error("gateway not closed")
	}
	gw.Deliver(model.RemoteMessage{})
	if got != 0 {
		t.Error("handler called after Close")
	}
	if err := svc.Initialize(context.Background()); !errors.Is(err, notification.ErrClosed) {
		t.Errorf("Initialize after Close = %v", err)
	}
}
