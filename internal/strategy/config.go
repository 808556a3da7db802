package strategy

import (
	"errors"
	"fmt"
)

// Config holds the parameters of one trend RSI run. Callers supply every
// value explicitly; the package has no defaults of its own.
type Config struct {
	InitialCapital  float64
	PositionSizePct float64

	BullishSellLevel     float64
	BullishBuyLevel1     float64
	BullishBuyLevel2     float64
	BuyStepDelta         float64
	BullishPullbackLevel float64

	BearishSellLevel     float64
	BearishBuyCrossLevel float64

	MinProfitPctToSell float64
}

// BuyAmount is the nominal cash committed by a single BUY.
func (c Config) BuyAmount() float64 {
	return c.InitialCapital * c.PositionSizePct
}

// Validate reports every invalid parameter at once.
func (c Config) Validate() error {
	var errs []error

	if c.InitialCapital <= 0 {
		errs = append(errs, fmt.Errorf("initial capital must be positive, got %.2f", c.InitialCapital))
	}
	if c.PositionSizePct <= 0 || c.PositionSizePct > 1 {
		errs = append(errs, fmt.Errorf("position size must be in (0, 1], got %.4f", c.PositionSizePct))
	}
	if c.MinProfitPctToSell < 0 {
		errs = append(errs, fmt.Errorf("minimum profit to sell cannot be negative, got %.4f", c.MinProfitPctToSell))
	}
	if c.BuyStepDelta <= 0 {
		errs = append(errs, fmt.Errorf("buy step delta must be positive, got %.2f", c.BuyStepDelta))
	}

	levels := []struct {
		name  string
		value float64
	}{
		{"bullish sell level", c.BullishSellLevel},
		{"bullish buy level 1", c.BullishBuyLevel1},
		{"bullish buy level 2", c.BullishBuyLevel2},
		{"bullish pullback level", c.BullishPullbackLevel},
		{"bearish sell level", c.BearishSellLevel},
		{"bearish buy cross level", c.BearishBuyCrossLevel},
	}
	for _, l := range levels {
		if l.value < 0 || l.value > 100 {
			errs = append(errs, fmt.Errorf("%s must be within [0, 100], got %.2f", l.name, l.value))
		}
	}

	if c.BullishBuyLevel2 > c.BullishBuyLevel1 {
		errs = append(errs, fmt.Errorf("bullish buy level 2 (%.2f) must not exceed level 1 (%.2f)",
			c.BullishBuyLevel2, c.BullishBuyLevel1))
	}
	if c.BullishBuyLevel1 >= c.BullishSellLevel {
		errs = append(errs, fmt.Errorf("bullish buy level 1 (%.2f) must be below the sell level (%.2f)",
			c.BullishBuyLevel1, c.BullishSellLevel))
	}
	if c.BearishBuyCrossLevel >= c.BearishSellLevel {
		errs = append(errs, fmt.Errorf("bearish cross level (%.2f) must be below the bearish sell level (%.2f)",
			c.BearishBuyCrossLevel, c.BearishSellLevel))
	}

	return errors.Join(errs...)
}
