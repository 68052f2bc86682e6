package ui

import (
	"time"

	"SignalDesk/internal/model"
	"SignalDesk/internal/signals"
)

// Screen is a top-level route.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenHome
)

// Tab is a bottom-navigation destination on the home screen.
type Tab int

const (
	TabSignals Tab = iota
	TabPlans
	TabAlerts
	tabCount
)

var tabNames = [...]string{"Signals", "Plans", "Alerts"}

func (t Tab) String() string {
	if t < 0 || t >= tabCount {
		return "Unknown"
	}
	return tabNames[t]
}

const maxAlerts = 50

// Alert is a push message shown on the alerts tab.
type Alert struct {
	Title      string
	Body       string
	Topic      string
	Opened     bool
	ReceivedAt time.Time
}

// State is everything the UI shows. It is a value: every transition returns a
// new State and leaves the receiver untouched.
type State struct {
	Screen   Screen
	Tab      Tab
	Market   model.Market
	LoginErr string

	Signals        []model.Signal
	SignalsLoading bool
	SignalsErr     string

	Products     []model.Product
	PlansLoading bool
	Selected     int

	Alerts []Alert
	Notice string
}

// NewState returns the state shown at startup.
func NewState() State {
	return State{Screen: ScreenLogin, Tab: TabSignals, Market: model.MarketCrypto}
}

// LoggedIn moves to the home screen.
func (s State) LoggedIn() State {
	s.Screen = ScreenHome
	s.LoginErr = ""
	return s
}

// WithLoginError keeps the login screen and shows msg.
func (s State) WithLoginError(msg string) State {
	s.LoginErr = msg
	return s
}

// WithTab selects tab. Out-of-range tabs are ignored.
func (s State) WithTab(t Tab) State {
	if t < 0 || t >= tabCount {
		return s
	}
	s.Tab = t
	return s
}

// NextTab cycles forward through the bottom navigation.
func (s State) NextTab() State {
	return s.WithTab((s.Tab + 1) % tabCount)
}

// PrevTab cycles backward through the bottom navigation.
func (s State) PrevTab() State {
	return s.WithTab((s.Tab + tabCount - 1) % tabCount)
}

// WithMarket selects the market tab of the signals screen.
func (s State) WithMarket(m model.Market) State {
	s.Market = m
	return s
}

// ShiftMarket moves the market selection by delta, wrapping around.
func (s State) ShiftMarket(delta int) State {
	n := len(model.Markets)
	idx := 0
	for i, m := range model.Markets {
		if m == s.Market {
			idx = i
		}
	}
	return s.WithMarket(model.Markets[((idx+delta)%n+n)%n])
}

// LoadingSignals marks the feed as being fetched.
func (s State) LoadingSignals() State {
	s.SignalsLoading = true
	return s
}

// WithSignals replaces the feed with a copy of list.
func (s State) WithSignals(list []model.Signal) State {
	s.Signals = append([]model.Signal(nil), list...)
	s.SignalsLoading = false
	s.SignalsErr = ""
	return s
}

// WithSignalsError keeps the last feed and records a load failure.
func (s State) WithSignalsError(msg string) State {
	s.SignalsLoading = false
	s.SignalsErr = msg
	return s
}

// Visible returns the signals of the selected market.
func (s State) Visible() []model.Signal {
	return signals.FilterByMarket(s.Signals, s.Market)
}

// LoadingPlans marks the catalog as being fetched.
func (s State) LoadingPlans() State {
	s.PlansLoading = true
	return s
}

// WithProducts replaces the catalog with a copy of products.
func (s State) WithProducts(products []model.Product) State {
	s.Products = append([]model.Product(nil), products...)
	s.PlansLoading = false
	if s.Selected >= len(s.Products) {
		s.Selected = 0
	}
	return s
}

// MoveSelection moves the plan cursor by delta, clamped to the catalog.
func (s State) MoveSelection(delta int) State {
	if len(s.Products) == 0 {
		s.Selected = 0
		return s
	}
	s.Selected += delta
	if s.Selected < 0 {
		s.Selected = 0
	}
	if s.Selected >= len(s.Products) {
		s.Selected = len(s.Products) - 1
	}
	return s
}

// SelectedProduct returns the plan under the cursor.
func (s State) SelectedProduct() (model.Product, bool) {
	if s.Selected < 0 || s.Selected >= len(s.Products) {
		return model.Product{}, false
	}
	return s.Products[s.Selected], true
}

// WithAlert prepends a to the alert list, keeping the newest maxAlerts.
func (s State) WithAlert(a Alert) State {
	n := len(s.Alerts) + 1
	if n > maxAlerts {
		n = maxAlerts
	}
	alerts := make([]Alert, 0, n)
	alerts = append(alerts, a)
	alerts = append(alerts, s.Alerts[:n-1]...)
	s.Alerts = alerts
	return s
}

// ClearAlerts empties the alert list.
func (s State) ClearAlerts() State {
	s.Alerts = nil
	s.Notice = ""
	return s
}

// WithNotice sets the one-line status message.
func (s State) WithNotice(msg string) State {
	s.Notice = msg
	return s
}
