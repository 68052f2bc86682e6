package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Market is the venue class a signal belongs to.
type Market string

const (
	MarketCrypto Market = "crypto"
	MarketForex  Market = "forex"
)

// Markets lists the recognized markets in display order.
var Markets = []Market{MarketCrypto, MarketForex}

// Direction is the side of the recommended trade.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Status is the lifecycle state of a published signal.
type Status string

const (
	StatusActive    Status = "active"
	StatusHitTarget Status = "hit_target"
	StatusStopped   Status = "stopped"
)

var (
	ErrNoEntryPoint = errors.New("signal has no entry point")
	ErrNoTargets    = errors.New("signal has no targets")
)

// Signal is a published trading recommendation. Values are never mutated;
// a status change is a new Signal replacing the old one.
type Signal struct {
	ID         string            `json:"id"`
	Symbol     string            `json:"symbol"`
	Market     Market            `json:"market"`
	Direction  Direction         `json:"direction"`
	EntryPoint []decimal.Decimal `json:"entry_point"`
	Targets    []decimal.Decimal `json:"targets"`
	StopLoss   decimal.Decimal   `json:"stop_loss"`
	Status     Status            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewSignal builds a validated Signal. The price slices are copied.
func NewSignal(
	id, symbol string,
	market Market,
	direction Direction,
	entryPoint, targets []decimal.Decimal,
	stopLoss decimal.Decimal,
	status Status,
	createdAt time.Time,
) (Signal, error) {
	s := Signal{
		ID:         id,
		Symbol:     symbol,
		Market:     market,
		Direction:  direction,
		EntryPoint: append([]decimal.Decimal(nil), entryPoint...),
		Targets:    append([]decimal.Decimal(nil), targets...),
		StopLoss:   stopLoss,
		Status:     status,
		CreatedAt:  createdAt,
	}
	if err := s.Validate(); err != nil {
		return Signal{}, err
	}
	return s, nil
}

// Validate checks the entry range and targets are present.
func (s Signal) Validate() error {
	if len(s.EntryPoint) == 0 {
		return ErrNoEntryPoint
	}
	if len(s.Targets) == 0 {
		return ErrNoTargets
	}
	return nil
}

// Equal reports whether every field of s and o holds the same value.
func (s Signal) Equal(o Signal) bool {
	return s.ID == o.ID &&
		s.Symbol == o.Symbol &&
		s.Market == o.Market &&
		s.Direction == o.Direction &&
		equalLevels(s.EntryPoint, o.EntryPoint) &&
		equalLevels(s.Targets, o.Targets) &&
		s.StopLoss.Equal(o.StopLoss) &&
		s.Status == o.Status &&
		s.CreatedAt.Equal(o.CreatedAt)
}

// WithStatus returns a copy of s carrying the given status.
func (s Signal) WithStatus(status Status) Signal {
	c := s
	c.EntryPoint = append([]decimal.Decimal(nil), s.EntryPoint...)
	c.Targets = append([]decimal.Decimal(nil), s.Targets...)
	c.Status = status
	return c
}

func equalLevels(a, b []decimal.Decimal) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
