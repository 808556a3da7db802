package types

import "time"

// Side is the direction of an executed trade.
type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

// TradeEvent is one executed entry in a run's ledger history.
type TradeEvent struct {
	Date   time.Time `json:"date"`
	Action Side      `json:"action"`
	Amount float64   `json:"amount"`
	Price  float64   `json:"price"`
	Reason string    `json:"reason"`
}

// Signal is the most recent actionable event of an instrument.
type Signal struct {
	Date   time.Time `json:"date"`
	Symbol string    `json:"symbol"`
	Action Side      `json:"action"`
	Price  float64   `json:"price"`
	Reason string    `json:"reason"`
}

// Key identifies a signal for deduplication.
func (s Signal) Key() string {
	return s.Date.Format("2006-01-02") + "|" + s.Symbol + "|" + string(s.Action)
}
