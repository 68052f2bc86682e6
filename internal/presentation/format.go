package presentation

import (
	"fmt"
	"strings"
	"time"

	"SignalDesk/internal/model"

	"github.com/shopspring/decimal"
)

// Card is the text content of a rendered signal card.
type Card struct {
	Title     string
	Direction string
	Status    string
	Entry     string
	Targets   string
	StopLoss  string
	Published string
}

// NewCard formats s for display relative to now.
func NewCard(s model.Signal, now time.Time) Card {
	return Card{
		Title:     s.Symbol,
		Direction: DirectionLabel(s.Direction),
		Status:    StatusLabel(s.Status),
		Entry:     FormatRange(s.EntryPoint),
		Targets:   FormatTargets(s.Targets),
		StopLoss:  s.StopLoss.String(),
		Published: FormatAge(s.CreatedAt, now),
	}
}

// String renders the card as plain multi-line text.
func (c Card) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s  [%s]\n", c.Title, c.Direction, c.Status))
	b.WriteString(fmt.Sprintf("Entry: %s\n", c.Entry))
	b.WriteString(fmt.Sprintf("Targets: %s\n", c.Targets))
	b.WriteString(fmt.Sprintf("Stop loss: %s\n", c.StopLoss))
	b.WriteString(c.Published)
	return b.String()
}

func DirectionLabel(d model.Direction) string {
	switch d {
	case model.DirectionLong:
		return "LONG"
	case model.DirectionShort:
		return "SHORT"
	default:
		return "UNKNOWN"
	}
}

func StatusLabel(s model.Status) string {
	switch s {
	case model.StatusActive:
		return "ACTIVE"
	case model.StatusHitTarget:
		return "HIT TARGET"
	case model.StatusStopped:
		return "STOPPED"
	case "":
		return "UNKNOWN"
	default:
		return strings.ToUpper(strings.ReplaceAll(string(s), "_", " "))
	}
}

func MarketLabel(m model.Market) string {
	switch m {
	case model.MarketCrypto:
		return "Crypto"
	case model.MarketForex:
		return "Forex"
	default:
		return string(m)
	}
}

// FormatRange joins price levels into "a – b".
func FormatRange(levels []decimal.Decimal) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = l.String()
	}
	return strings.Join(parts, " – ")
}

// FormatTargets numbers take-profit levels: "T1 44000 · T2 46000".
func FormatTargets(levels []decimal.Decimal) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = fmt.Sprintf("T%d %s", i+1, l.String())
	}
	return strings.Join(parts, " · ")
}

// FormatAge describes how long ago t was.
func FormatAge(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatPrice renders a product price with its currency.
func FormatPrice(p model.Product) string {
	if p.Currency == "" {
		return p.Price.StringFixed(2)
	}
	if p.Currency == "XTR" {
		return p.Price.String() + " ⭐"
	}
	return p.Price.StringFixed(2) + " " + p.Currency
}
