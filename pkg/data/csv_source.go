package data

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

var csvDateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"01/02/2006",
}

// csvColumns maps lower-cased header names to the field they feed.
var csvColumns = map[string]string{
	"date":      "Date",
	"datetime":  "Date",
	"timestamp": "Date",
	"time":      "Date",
	"open":      "Open",
	"high":      "High",
	"low":       "Low",
	"close":     "Close",
	"adj close": "AdjClose",
	"adj_close": "AdjClose",
	"volume":    "Volume",
}

// CSVSource reads one <root>/<SYMBOL>.csv file per symbol. Columns are
// matched by header name, case-insensitively.
type CSVSource struct {
	root string
}

// NewCSVSource creates a CSV source rooted at dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{root: dir}
}

func (s *CSVSource) Name() string { return "csv" }

// Path returns the file read for symbol.
func (s *CSVSource) Path(symbol string) string {
	return filepath.Join(s.root, strings.ToUpper(symbol)+".csv")
}

// FetchDaily implements BarSource.
func (s *CSVSource) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]types.OHLCV, error) {
	candles, _, err := s.FetchDailyWithIssues(ctx, symbol, start, end)
	return candles, err
}

// FetchDailyWithIssues implements QualitySource.
func (s *CSVSource) FetchDailyWithIssues(ctx context.Context, symbol string, start, end time.Time) ([]types.OHLCV, []types.DataQualityIssue, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	f, err := os.Open(s.Path(symbol))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	candles, issues, err := ReadCSV(symbol, f)
	if err != nil {
		return nil, issues, fmt.Errorf("%s: %w", s.Path(symbol), err)
	}
	if !start.IsZero() || !end.IsZero() {
		if end.IsZero() {
			end = time.Now()
		}
		candles = NewDefaultDataFilter().FilterByDateRange(candles, start, end)
	}
	return candles, issues, nil
}

// ReadCSV parses daily candles from r. A duplicated column keeps its first
// occurrence; rows that fail to parse are skipped and reported.
func ReadCSV(symbol string, r io.Reader) ([]types.OHLCV, []types.DataQualityIssue, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("empty csv file")
		}
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	var issues []types.DataQualityIssue
	cols := make(map[string]int)
	for i, name := range header {
		field, ok := csvColumns[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, dup := cols[field]; dup {
			issues = append(issues, types.DataQualityIssue{
				Symbol: symbol, Field: field,
				Detail: fmt.Sprintf("duplicate column %q at position %d ignored", name, i+1),
			})
			continue
		}
		cols[field] = i
	}
	for _, required := range []string{"Date", "Close"} {
		if _, ok := cols[required]; !ok {
			return nil, issues, fmt.Errorf("malformed header: missing %s column", required)
		}
	}

	var data []types.OHLCV
	skipped := 0
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			skipped++
			continue
		}
		candle, ok := parseCSVRow(record, cols)
		if !ok {
			skipped++
			continue
		}
		data = append(data, candle)
	}

	if skipped > 0 {
		issues = append(issues, types.DataQualityIssue{
			Symbol: symbol, Field: "row",
			Detail: fmt.Sprintf("%d malformed row(s) skipped", skipped),
		})
	}
	return data, issues, nil
}

func parseCSVRow(record []string, cols map[string]int) (types.OHLCV, bool) {
	get := func(field string) (string, bool) {
		i, ok := cols[field]
		if !ok || i >= len(record) {
			return "", false
		}
		return strings.TrimSpace(record[i]), true
	}
	num := func(field string) float64 {
		raw, ok := get(field)
		if !ok || raw == "" {
			return 0
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0
		}
		return v
	}

	rawDate, ok := get("Date")
	if !ok {
		return types.OHLCV{}, false
	}
	ts, ok := parseCSVDate(rawDate)
	if !ok {
		return types.OHLCV{}, false
	}
	rawClose, ok := get("Close")
	if !ok {
		return types.OHLCV{}, false
	}
	closePrice, err := strconv.ParseFloat(rawClose, 64)
	if err != nil {
		return types.OHLCV{}, false
	}

	candle := types.OHLCV{
		Timestamp: ts,
		Open:      num("Open"),
		High:      num("High"),
		Low:       num("Low"),
		Close:     closePrice,
		Volume:    num("Volume"),
	}
	if candle.Open == 0 {
		candle.Open = closePrice
	}
	if candle.High == 0 {
		candle.High = max(candle.Open, closePrice)
	}
	if candle.Low == 0 {
		candle.Low = min(candle.Open, closePrice)
	}
	return candle, true
}

func parseCSVDate(raw string) (time.Time, bool) {
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
