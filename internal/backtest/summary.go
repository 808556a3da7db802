package backtest

// Status describes whether a run ended holding a position.
type Status string

const (
	StatusInPosition Status = "in position"
	StatusLiquid     Status = "liquid"
)

// Summary is the closing valuation of a run.
type Summary struct {
	PositionValue float64
	FinalCapital  float64
	ReturnPct     float64
	Status        Status
}

// Summarize marks the open position at lastPrice and values the run against
// the initial capital.
func Summarize(state *RunState, lastPrice, initialCapital float64) Summary {
	positionValue := state.Shares * lastPrice
	final := state.Cash + positionValue

	status := StatusLiquid
	if state.Shares > 0 {
		status = StatusInPosition
	}

	returnPct := 0.0
	if initialCapital > 0 {
		returnPct = (final - initialCapital) / initialCapital * 100
	}

	return Summary{
		PositionValue: positionValue,
		FinalCapital:  final,
		ReturnPct:     returnPct,
		Status:        status,
	}
}
