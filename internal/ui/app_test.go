package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"SignalDesk/internal/model"
	"SignalDesk/internal/signals"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

type fakeSignals struct {
	list []model.Signal
	err  error
}

func (f fakeSignals) FetchSignals(context.Context) ([]model.Signal, error) {
	return f.list, f.err
}

type fakeStore struct {
	products []model.Product
	bought   []string
}

func (f *fakeStore) Products(context.Context, []string) []model.Product {
	return f.products
}

func (f *fakeStore) Purchase(_ context.Context, sku string) {
	f.bought = append(f.bought, sku)
}

var (
	enter    = tea.KeyMsg{Type: tea.KeyEnter}
	tab      = tea.KeyMsg{Type: tea.KeyTab}
	shiftTab = tea.KeyMsg{Type: tea.KeyShiftTab}
	right    = tea.KeyMsg{Type: tea.KeyRight}
	down     = tea.KeyMsg{Type: tea.KeyDown}
)

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func newModel(store *fakeStore) Model {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return New(context.Background(), Deps{
		Signals: fakeSignals{list: signals.MockSignals()},
		Billing: store,
		SKUs:    []string{"pro_monthly", "pro_yearly"},
		Now:     func() time.Time { return now },
	})
}

func login(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = send(m, keys("trader@example.com"), enter, keys("hunter2"))
	m, cmd := send(m, enter)
	if m.State().Screen != ScreenHome {
		t.Fatalf("screen = %v, want home", m.State().Screen)
	}
	if cmd == nil {
		t.Fatal("login should start loading")
	}
	m, _ = send(m, m.loadSignals()(), m.loadProducts()())
	return m
}

func TestLogin_RequiresBothFields(t *testing.T) {
	m := newModel(&fakeStore{})

	m, _ = send(m, enter)
	if m.State().Screen != ScreenLogin || m.State().LoginErr == "" {
		t.Fatalf("empty login should stay with an error: %+v", m.State())
	}
	if !strings.Contains(m.View(), "Enter email and password") {
		t.Error("login error not shown")
	}

	m, _ = send(m, keys("trader@example.com"), enter)
	if m.State().Screen != ScreenLogin {
		t.Fatal("enter on email should move to the password field")
	}
	if !m.password.Focused() || m.email.Focused() {
		t.Error("password field should have focus")
	}
}

func TestLogin_NavigatesHome(t *testing.T) {
	m := login(t, newModel(&fakeStore{}))
	st := m.State()
	if st.Tab != TabSignals || st.Market != model.MarketCrypto {
		t.Errorf("home state = %+v", st)
	}
	if st.SignalsLoading || len(st.Signals) != 3 {
		t.Errorf("signals = %d loading=%v", len(st.Signals), st.SignalsLoading)
	}
}

func TestTabNavigation(t *testing.T) {
	m := login(t, newModel(&fakeStore{}))

	tests := []struct {
		key  tea.KeyMsg
		want Tab
	}{
		{tab, TabPlans},
		{tab, TabAlerts},
		{tab, TabSignals},
		{shiftTab, TabAlerts},
		{keys("2"), TabPlans},
		{keys("1"), TabSignals},
		{keys("3"), TabAlerts},
	}
	for _, tt := range tests {
		m, _ = send(m, tt.key)
		if got := m.State().Tab; got != tt.want {
			t.Fatalf("after %q tab = %v, want %v", tt.key.String(), got, tt.want)
		}
	}
}

func TestSignalsTab_MarketFilter(t *testing.T) {
	m := login(t, newModel(&fakeStore{}))

	view := m.View()
	if !strings.Contains(view, "BTC/USDT") || !strings.Contains(view, "ETH/USDT") {
		t.Errorf("crypto view missing cards:\n%s", view)
	}
	if strings.Contains(view, "EUR/USD") {
		t.Error("forex signal shown on crypto tab")
	}

	m, _ = send(m, right)
	if m.State().Market != model.MarketForex {
		t.Fatalf("market = %s", m.State().Market)
	}
	if got := m.State().Visible(); len(got) != 1 || got[0].Symbol != "EUR/USD" {
		t.Errorf("visible = %+v", got)
	}
	m, _ = send(m, right)
	if m.State().Market != model.MarketCrypto {
		t.Error("market selection should wrap")
	}
}

func TestSignalsTab_Empty(t *testing.T) {
	m := login(t, newModel(&fakeStore{}))
	m, _ = send(m, SignalsLoadedMsg{Signals: nil})
	if !strings.Contains(m.View(), "No signals") {
		t.Error("empty feed should show No signals")
	}

	m, _ = send(m, SignalsLoadedMsg{Err: errors.New("backend down")})
	if m.State().SignalsErr != "backend down" {
		t.Errorf("error = %q", m.State().SignalsErr)
	}
}

func TestSignalsTab_Reload(t *testing.T) {
	m := login(t, newModel(&fakeStore{}))
	m, cmd := send(m, keys("r"))
	if !m.State().SignalsLoading || cmd == nil {
		t.Fatal("r should reload the feed")
	}
	m, _ = send(m, cmd())
	if m.State().SignalsLoading {
		t.Error("reload did not finish")
	}
}

func TestPlansTab_LoadFailure(t *testing.T) {
	m := login(t, newModel(&fakeStore{}))
	m, _ = send(m, keys("2"))
	if !strings.Contains(m.View(), "Could not load plans") {
		t.Errorf("plans view:\n%s", m.View())
	}
	if _, cmd := send(m, enter); cmd != nil {
		t.Error("enter without plans should do nothing")
	}
}

func TestPlansTab_Purchase(t *testing.T) {
	store := &fakeStore{products: []model.Product{
		{SKU: "pro_monthly", Title: "Pro (monthly)", Price: decimal.RequireFromString("4.99"), Currency: "USD"},
		{SKU: "pro_yearly", Title: "Pro (yearly)", Price: decimal.RequireFromString("39.99"), Currency: "USD"},
	}}
	m := login(t, newModel(store))
	m, _ = send(m, keys("2"), down)

	if !strings.Contains(m.View(), "39.99 USD") {
		t.Errorf("plans view:\n%s", m.View())
	}
	m, cmd := send(m, enter)
	if cmd == nil {
		t.Fatal("enter should start a purchase")
	}
	m, _ = send(m, cmd())
	if len(store.bought) != 1 || store.bought[0] != "pro_yearly" {
		t.Errorf("bought = %v", store.bought)
	}

	m, _ = send(m, PurchaseUpdatedMsg{Purchase: model.Purchase{SKU: "pro_yearly", State: model.PurchasePurchased}})
	if m.State().Notice != "Purchased Pro (yearly). Thank you!" {
		t.Errorf("notice = %q", m.State().Notice)
	}

	m, _ = send(m, PurchaseFailedMsg{Err: &model.PurchaseError{Code: "item_unavailable", Message: "item is not in the catalog"}})
	if !strings.Contains(m.State().Notice, "item is not in the catalog") {
		t.Errorf("notice = %q", m.State().Notice)
	}
}

func TestAlertsTab(t *testing.T) {
	m := login(t, newModel(&fakeStore{}))
	m, _ = send(m,
		NotificationMsg{Message: model.RemoteMessage{Title: "BTC/USDT long", Topic: "new_signals"}},
		NotificationMsg{Message: model.RemoteMessage{Title: "EUR/USD short"}, Opened: true},
	)
	alerts := m.State().Alerts
	if len(alerts) != 2 || alerts[0].Title != "EUR/USD short" || !alerts[0].Opened {
		t.Fatalf("alerts = %+v", alerts)
	}
	if m.State().Notice != "New alert: BTC/USDT long" {
		t.Errorf("notice = %q", m.State().Notice)
	}

	m, _ = send(m, keys("3"))
	if !strings.Contains(m.View(), "BTC/USDT long") {
		t.Errorf("alerts view:\n%s", m.View())
	}
	m, _ = send(m, keys("c"))
	if len(m.State().Alerts) != 0 {
		t.Error("c should clear alerts")
	}
}

func TestQuit(t *testing.T) {
	m := newModel(&fakeStore{})
	_, cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should return tea.Quit")
	}

	// q is text on the login screen
	m, cmd = send(m, keys("q"))
	if m.email.Value() != "q" {
		t.Errorf("email = %q", m.email.Value())
	}
	if cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Error("q must not quit from the login screen")
		}
	}
}

func TestRenderCard(t *testing.T) {
	s := signals.MockSignals()[0]
	out := RenderCard(s, s.CreatedAt.Add(2*time.Hour), 60)
	for _, want := range []string{"BTC/USDT", "LONG", "ACTIVE", "42000 – 42500", "T1 44000", "40500", "2h ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("card missing %q:\n%s", want, out)
		}
	}
}
