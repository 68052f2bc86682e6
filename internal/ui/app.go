// Package ui is the terminal front end: a login screen and a home screen with
// signals, plans and alerts tabs.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"SignalDesk/internal/model"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// SignalSource provides the signal feed.
type SignalSource interface {
	FetchSignals(ctx context.Context) ([]model.Signal, error)
}

// Store is the billing surface the plans tab uses.
type Store interface {
	Products(ctx context.Context, skus []string) []model.Product
	Purchase(ctx context.Context, sku string)
}

// Deps are the services behind the screens.
type Deps struct {
	Signals SignalSource
	Billing Store
	SKUs    []string
	Now     func() time.Time
}

// Messages
type (
	// SignalsLoadedMsg carries a fetched feed.
	SignalsLoadedMsg struct {
		Signals []model.Signal
		Err     error
	}

	// ProductsLoadedMsg carries the plan catalog. Empty means the lookup failed.
	ProductsLoadedMsg struct {
		Products []model.Product
	}

	// PurchaseUpdatedMsg reports a purchase update from billing.
	PurchaseUpdatedMsg struct {
		Purchase model.Purchase
	}

	// PurchaseFailedMsg reports a purchase error from billing.
	PurchaseFailedMsg struct {
		Err *model.PurchaseError
	}

	// NotificationMsg reports a push message.
	NotificationMsg struct {
		Message model.RemoteMessage
		Opened  bool
	}

	purchaseStartedMsg struct {
		sku string
	}
)

// Model is the bubbletea model. All screen data lives in state.
type Model struct {
	state    State
	deps     Deps
	ctx      context.Context
	email    textinput.Model
	password textinput.Model
	width    int
}

// New creates the UI model on the login screen.
func New(ctx context.Context, deps Deps) Model {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	email := textinput.New()
	email.Placeholder = "Email"
	email.Prompt = "Email:    "
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return Model{
		state:    NewState(),
		deps:     deps,
		ctx:      ctx,
		email:    email,
		password: password,
		width:    64,
	}
}

// State returns the current UI state.
func (m Model) State() State {
	return m.state
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.state.Screen == ScreenLogin {
			return m.updateLogin(msg)
		}
		return m.updateHome(msg)

	case SignalsLoadedMsg:
		if msg.Err != nil {
			m.state = m.state.WithSignalsError(msg.Err.Error())
			return m, nil
		}
		m.state = m.state.WithSignals(msg.Signals)
		return m, nil

	case ProductsLoadedMsg:
		m.state = m.state.WithProducts(msg.Products)
		return m, nil

	case purchaseStartedMsg:
		m.state = m.state.WithNotice("Checkout started for " + msg.sku)
		return m, nil

	case PurchaseUpdatedMsg:
		m.state = m.state.WithNotice(purchaseNotice(msg.Purchase, m.state.Products))
		return m, nil

	case PurchaseFailedMsg:
		m.state = m.state.WithNotice("Purchase failed: " + msg.Err.Message)
		return m, nil

	case NotificationMsg:
		m.state = m.state.WithAlert(Alert{
			Title:      msg.Message.Title,
			Body:       msg.Message.Body,
			Topic:      msg.Message.Topic,
			Opened:     msg.Opened,
			ReceivedAt: msg.Message.SentAt,
		})
		if !msg.Opened && msg.Message.Title != "" {
			m.state = m.state.WithNotice("New alert: " + msg.Message.Title)
		}
		return m, nil
	}

	if m.state.Screen == ScreenLogin {
		return m.updateInputs(msg)
	}
	return m, nil
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		cmd := m.toggleFocus()
		return m, cmd

	case tea.KeyEnter:
		email := strings.TrimSpace(m.email.Value())
		password := m.password.Value()
		if m.email.Focused() && email != "" && password == "" {
			cmd := m.toggleFocus()
			return m, cmd
		}
		if email == "" || password == "" {
			m.state = m.state.WithLoginError("Enter email and password")
			return m, nil
		}
		m.email.Blur()
		m.password.Blur()
		m.state = m.state.LoggedIn().LoadingSignals().LoadingPlans()
		return m, tea.Batch(m.loadSignals(), m.loadProducts())
	}
	return m.updateInputs(msg)
}

func (m Model) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab":
		m.state = m.state.NextTab()
		return m, nil
	case "shift+tab":
		m.state = m.state.PrevTab()
		return m, nil
	case "1", "2", "3":
		m.state = m.state.WithTab(Tab(msg.Runes[0] - '1'))
		return m, nil
	}

	switch m.state.Tab {
	case TabSignals:
		switch msg.String() {
		case "left", "h":
			m.state = m.state.ShiftMarket(-1)
		case "right", "l":
			m.state = m.state.ShiftMarket(1)
		case "r":
			m.state = m.state.LoadingSignals()
			return m, m.loadSignals()
		}

	case TabPlans:
		switch msg.String() {
		case "up", "k":
			m.state = m.state.MoveSelection(-1)
		case "down", "j":
			m.state = m.state.MoveSelection(1)
		case "r":
			m.state = m.state.LoadingPlans()
			return m, m.loadProducts()
		case "enter":
			p, ok := m.state.SelectedProduct()
			if !ok {
				return m, nil
			}
			return m, m.purchase(p.SKU)
		}

	case TabAlerts:
		if msg.String() == "c" {
			m.state = m.state.ClearAlerts()
		}
	}
	return m, nil
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var emailCmd, passwordCmd tea.Cmd
	m.email, emailCmd = m.email.Update(msg)
	m.password, passwordCmd = m.password.Update(msg)
	return m, tea.Batch(emailCmd, passwordCmd)
}

// toggleFocus moves focus between the login inputs.
func (m *Model) toggleFocus() tea.Cmd {
	if m.email.Focused() {
		m.email.Blur()
		return m.password.Focus()
	}
	m.password.Blur()
	return m.email.Focus()
}

func (m Model) loadSignals() tea.Cmd {
	ctx, src := m.ctx, m.deps.Signals
	return func() tea.Msg {
		list, err := src.FetchSignals(ctx)
		return SignalsLoadedMsg{Signals: list, Err: err}
	}
}

func (m Model) loadProducts() tea.Cmd {
	ctx, store, skus := m.ctx, m.deps.Billing, m.deps.SKUs
	return func() tea.Msg {
		return ProductsLoadedMsg{Products: store.Products(ctx, skus)}
	}
}

func (m Model) purchase(sku string) tea.Cmd {
	ctx, store := m.ctx, m.deps.Billing
	return func() tea.Msg {
		store.Purchase(ctx, sku)
		return purchaseStartedMsg{sku: sku}
	}
}

func purchaseNotice(p model.Purchase, catalog []model.Product) string {
	name := p.SKU
	for _, prod := range catalog {
		if prod.SKU == p.SKU && prod.Title != "" {
			name = prod.Title
		}
	}
	switch p.State {
	case model.PurchasePurchased:
		return fmt.Sprintf("Purchased %s. Thank you!", name)
	case model.PurchasePending:
		return fmt.Sprintf("Payment for %s is pending", name)
	default:
		return fmt.Sprintf("Purchase of %s %s", name, p.State)
	}
}
