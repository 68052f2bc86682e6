package signals

import (
	"context"
	"time"

	"SignalDesk/internal/model"

	"github.com/shopspring/decimal"
)

// Repository defines the source of published signals.
type Repository interface {
	FetchSignals(ctx context.Context) ([]model.Signal, error)
	Name() string
}

// StaticRepository returns a fixed signal list. It stands in for the backend feed.
type StaticRepository struct {
	Signals []model.Signal
}

// NewStaticRepository creates a repository serving the built-in mock signals.
func NewStaticRepository() *StaticRepository {
	return &StaticRepository{Signals: MockSignals()}
}

func (r *StaticRepository) Name() string { return "static" }

// FetchSignals returns a copy of the configured list.
func (r *StaticRepository) FetchSignals(ctx context.Context) ([]model.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]model.Signal(nil), r.Signals...), nil
}

// MockSignals builds the three demo signals shown before a backend exists.
func MockSignals() []model.Signal {
	now := time.Now()
	return []model.Signal{
		mustSignal("1", "BTC/USDT", model.MarketCrypto, model.DirectionLong,
			[]string{"42000", "42500"}, []string{"44000", "46000", "48000"}, "40500",
			model.StatusActive, now.Add(-2*time.Hour)),
		mustSignal("2", "EUR/USD", model.MarketForex, model.DirectionShort,
			[]string{"1.0850", "1.0870"}, []string{"1.0800", "1.0750"}, "1.0920",
			model.StatusHitTarget, now.Add(-5*time.Hour)),
		mustSignal("3", "ETH/USDT", model.MarketCrypto, model.DirectionLong,
			[]string{"2200", "2250"}, []string{"2400", "2600"}, "2100",
			model.StatusStopped, now.Add(-24*time.Hour)),
	}
}

func mustSignal(id, symbol string, market model.Market, dir model.Direction,
	entry, targets []string, stop string, status model.Status, createdAt time.Time) model.Signal {
	s, err := model.NewSignal(id, symbol, market, dir,
		parseLevels(entry), parseLevels(targets), decimal.RequireFromString(stop),
		status, createdAt)
	if err != nil {
		panic(err)
	}
	return s
}

func parseLevels(vs []string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vs))
	for i, v := range vs {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}
