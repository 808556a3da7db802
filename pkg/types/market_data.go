package types

import (
	"fmt"
	"time"
)

// OHLCV is a raw daily candle as delivered by a data source.
type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// Optional is a scalar that may be undefined, e.g. an indicator still warming up.
type Optional struct {
	Value float64
	Valid bool
}

// Some returns a defined Optional.
func Some(v float64) Optional {
	return Optional{Value: v, Valid: true}
}

// None returns an undefined Optional.
func None() Optional {
	return Optional{}
}

func (o Optional) String() string {
	if !o.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", o.Value)
}

// Bar is one trading day with its price and precomputed indicator fields.
type Bar struct {
	Date      time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	RSI       Optional
	RSIMA     Optional
	SMAShort  Optional
	SMAMedium Optional
	SMALong   Optional
}

// FieldSet records which columns a producer supplied for a whole series.
type FieldSet uint8

const (
	FieldClose FieldSet = 1 << iota
	FieldRSI
	FieldRSIMA
	FieldSMAShort
	FieldSMAMedium
	FieldSMALong
)

// AllFields is what the indicator enrichment produces.
const AllFields = FieldClose | FieldRSI | FieldRSIMA | FieldSMAShort | FieldSMAMedium | FieldSMALong

// Has reports whether every field in want is present.
func (f FieldSet) Has(want FieldSet) bool {
	return f&want == want
}

func (f FieldSet) String() string {
	names := []struct {
		field FieldSet
		name  string
	}{
		{FieldClose, "close"},
		{FieldRSI, "rsi"},
		{FieldRSIMA, "rsi_ma"},
		{FieldSMAShort, "sma_short"},
		{FieldSMAMedium, "sma_medium"},
		{FieldSMALong, "sma_long"},
	}
	out := ""
	for _, n := range names {
		if f.Has(n.field) {
			if out != "" {
				out += ","
			}
			out += n.name
		}
	}
	if out == "" {
		return "none"
	}
	return out
}

// Series is the ordered bar history of one instrument.
type Series struct {
	Symbol string
	Bars   []Bar
	Fields FieldSet
}

// Validate checks that bars are strictly ascending by date.
func (s Series) Validate() error {
	for i := 1; i < len(s.Bars); i++ {
		prev, cur := s.Bars[i-1].Date, s.Bars[i].Date
		if !cur.After(prev) {
			return fmt.Errorf("%s: bar %d (%s) is not after bar %d (%s)",
				s.Symbol, i, cur.Format("2006-01-02"), i-1, prev.Format("2006-01-02"))
		}
	}
	return nil
}

// LastClose returns the close of the final bar, or 0 for an empty series.
func (s Series) LastClose() float64 {
	if len(s.Bars) == 0 {
		return 0
	}
	return s.Bars[len(s.Bars)-1].Close
}

// DataQualityIssue is a non-fatal problem found while normalizing input data.
type DataQualityIssue struct {
	Symbol string
	Field  string
	Detail string
}

func (d DataQualityIssue) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Symbol, d.Field, d.Detail)
}
