package ui

import (
	"fmt"
	"strings"
	"time"

	"SignalDesk/internal/model"
	"SignalDesk/internal/presentation"

	"github.com/charmbracelet/lipgloss"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).
			Background(presentation.Teal).Padding(0, 1)
	dimStyle       = lipgloss.NewStyle().Foreground(presentation.Gray)
	errorStyle     = lipgloss.NewStyle().Foreground(presentation.Red)
	noticeStyle    = lipgloss.NewStyle().Foreground(presentation.Amber)
	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(presentation.Gray)
	activeTabStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true).Underline(true).
			Foreground(presentation.Teal)
	navStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(presentation.Gray)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(presentation.Teal)
)

// View implements tea.Model
func (m Model) View() string {
	if m.state.Screen == ScreenLogin {
		return m.viewLogin()
	}
	return m.viewHome()
}

func (m Model) viewLogin() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("SignalDesk"))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("Sign in to see trading signals"))
	b.WriteString("\n\n")
	b.WriteString(m.email.View())
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")
	if m.state.LoginErr != "" {
		b.WriteString(errorStyle.Render(m.state.LoginErr))
		b.WriteString("\n\n")
	}
	b.WriteString(dimStyle.Render("enter: sign in • tab: next field • ctrl+c: quit"))
	return b.String()
}

func (m Model) viewHome() string {
	var body string
	switch m.state.Tab {
	case TabSignals:
		body = m.viewSignals()
	case TabPlans:
		body = m.viewPlans()
	case TabAlerts:
		body = m.viewAlerts()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("SignalDesk"))
	b.WriteString("\n\n")
	b.WriteString(body)
	b.WriteString("\n")
	if m.state.Notice != "" {
		b.WriteString(noticeStyle.Render(m.state.Notice))
		b.WriteString("\n")
	}
	b.WriteString(navStyle.Width(m.width).Render(renderNav(m.state.Tab)))
	return b.String()
}

func renderNav(active Tab) string {
	items := make([]string, 0, tabCount)
	for t := Tab(0); t < tabCount; t++ {
		label := fmt.Sprintf("%d %s", int(t)+1, t)
		if t == active {
			items = append(items, activeTabStyle.Render(label))
		} else {
			items = append(items, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, items...)
}

func (m Model) viewSignals() string {
	var b strings.Builder
	markets := make([]string, 0, len(model.Markets))
	for _, mk := range model.Markets {
		label := presentation.MarketLabel(mk)
		if mk == m.state.Market {
			markets = append(markets, activeTabStyle.Render(label))
		} else {
			markets = append(markets, tabStyle.Render(label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, markets...))
	b.WriteString("\n\n")

	if m.state.SignalsErr != "" {
		b.WriteString(errorStyle.Render("Could not load signals: " + m.state.SignalsErr))
		b.WriteString("\n")
	}

	visible := m.state.Visible()
	switch {
	case len(visible) == 0 && m.state.SignalsLoading:
		b.WriteString(dimStyle.Render("Loading signals..."))
		b.WriteString("\n")
	case len(visible) == 0:
		b.WriteString(dimStyle.Render("No signals"))
		b.WriteString("\n")
	default:
		now := m.deps.Now()
		for _, s := range visible {
			b.WriteString(RenderCard(s, now, m.width))
			b.WriteString("\n")
		}
	}
	b.WriteString(dimStyle.Render("←/→: market • r: reload • tab: switch tab • q: quit"))
	return b.String()
}

// RenderCard draws one signal as a bordered card accented by its direction.
func RenderCard(s model.Signal, now time.Time, width int) string {
	card := presentation.NewCard(s, now)
	accent := presentation.DirectionColor(s.Direction)

	direction := lipgloss.NewStyle().Bold(true).Foreground(accent).Render(card.Direction)
	badge := lipgloss.NewStyle().Bold(true).Padding(0, 1).
		Foreground(lipgloss.Color("#000000")).
		Background(presentation.StatusColor(s.Status)).
		Render(card.Status)

	header := lipgloss.NewStyle().Bold(true).Render(card.Title) + "  " + direction + "  " + badge
	lines := []string{
		header,
		"Entry     " + card.Entry,
		"Targets   " + card.Targets,
		"Stop loss " + errorStyle.Render(card.StopLoss),
		dimStyle.Render(card.Published),
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1)
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (m Model) viewPlans() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Plans"))
	b.WriteString("\n\n")

	switch {
	case len(m.state.Products) == 0 && m.state.PlansLoading:
		b.WriteString(dimStyle.Render("Loading plans..."))
		b.WriteString("\n")
	case len(m.state.Products) == 0:
		b.WriteString(errorStyle.Render("Could not load plans"))
		b.WriteString("\n")
	default:
		for i, p := range m.state.Products {
			line := fmt.Sprintf("%s  %s", p.Title, presentation.FormatPrice(p))
			if i == m.state.Selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
			if p.Description != "" {
				b.WriteString(dimStyle.Render("    " + p.Description))
				b.WriteString("\n")
			}
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("↑/↓: select • enter: buy • r: reload"))
	return b.String()
}

func (m Model) viewAlerts() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Alerts"))
	b.WriteString("\n\n")
	if len(m.state.Alerts) == 0 {
		b.WriteString(dimStyle.Render("No alerts yet"))
		b.WriteString("\n")
	}
	now := m.deps.Now()
	for _, a := range m.state.Alerts {
		title := a.Title
		if title == "" {
			title = "(untitled)"
		}
		if a.Opened {
			title += dimStyle.Render("  opened")
		}
		b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
		b.WriteString("\n")
		if a.Body != "" {
			b.WriteString(a.Body)
			b.WriteString("\n")
		}
		meta := presentation.FormatAge(a.ReceivedAt, now)
		if a.Topic != "" {
			meta = a.Topic + " · " + meta
		}
		b.WriteString(dimStyle.Render(meta))
		b.WriteString("\n\n")
	}
	b.WriteString(dimStyle.Render("c: clear"))
	return b.String()
}
