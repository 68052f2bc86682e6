package signals

import "SignalDesk/internal/model"

// FilterByMarket returns the signals of the given market, keeping their order.
func FilterByMarket(list []model.Signal, market model.Market) []model.Signal {
	out := make([]model.Signal, 0, len(list))
	for _, s := range list {
		if s.Market == market {
			out = append(out, s)
		}
	}
	return out
}

// Partition splits list into crypto and forex sequences. Signals with an
// unrecognized market land in neither.
func Partition(list []model.Signal) (crypto, forex []model.Signal) {
	crypto = make([]model.Signal, 0, len(list))
	forex = make([]model.Signal, 0, len(list))
	for _, s := range list {
		switch s.Market {
		case model.MarketCrypto:
			crypto = append(crypto, s)
		case model.MarketForex:
			forex = append(forex, s)
		}
	}
	return crypto, forex
}
