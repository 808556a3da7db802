package reporting

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/bytedance/sonic"

	"github.com/ducminhle1904/trend-rsi-backtest/internal/backtest"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

// LatestSignals returns the reference date (the latest last-event date over
// all results) and one signal per result whose last event falls on it.
func LatestSignals(results []*backtest.Result) (time.Time, []types.Signal, bool) {
	var ref time.Time
	found := false
	for _, r := range results {
		if ev, ok := r.LastEvent(); ok && (!found || ev.Date.After(ref)) {
			ref = ev.Date
			found = true
		}
	}
	if !found {
		return time.Time{}, nil, false
	}

	var signals []types.Signal
	for _, r := range results {
		ev, ok := r.LastEvent()
		if !ok || !ev.Date.Equal(ref) {
			continue
		}
		signals = append(signals, types.Signal{
			Date:   ev.Date,
			Symbol: r.Symbol,
			Action: ev.Action,
			Price:  ev.Price,
			Reason: ev.Reason,
		})
	}
	return ref, signals, true
}

// WriteSignalsReport writes the short report of the signals on date.
func WriteSignalsReport(path string, date time.Time, signals []types.Signal) error {
	if err := EnsureDirectoryExists(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# 🎯 Signals - %s\n\n", date.Format(time.DateOnly))
	if len(signals) == 0 {
		fmt.Fprintf(w, "No buy or sell signals on the most recent session.\n")
	} else {
		fmt.Fprintf(w, "### 📢 Suggested Actions\n")
		fmt.Fprintf(w, "| Ticker | Action | Ref. Price | Reason |\n")
		fmt.Fprintf(w, "|--------|--------|------------|--------|\n")
		for _, s := range signals {
			fmt.Fprintf(w, "| **%s** | %s **%s** | %s | %s |\n", s.Symbol, sideEmoji(s.Action), s.Action, Money(s.Price), s.Reason)
		}
	}
	fmt.Fprintf(w, "\n\n*These signals reflect the latest state reached by the backtest.*\n")

	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// AppendSignalLog merges signals into the JSON array stored at path, skipping
// entries already present for the same date, symbol and action. It returns
// how many signals were added.
func AppendSignalLog(path string, signals []types.Signal) (int, error) {
	existing, err := ReadSignalLog(path)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[s.Key()] = true
	}
	added := 0
	for _, s := range signals {
		if seen[s.Key()] {
			continue
		}
		seen[s.Key()] = true
		existing = append(existing, s)
		added++
	}
	if added == 0 {
		return 0, nil
	}

	sort.SliceStable(existing, func(i, j int) bool { return existing[i].Date.Before(existing[j].Date) })
	data, err := sonic.ConfigStd.MarshalIndent(existing, "", "  ")
	if err != nil {
		return 0, err
	}
	if err := EnsureDirectoryExists(path); err != nil {
		return 0, err
	}
	return added, os.WriteFile(path, data, 0o644)
}

// ReadSignalLog reads the JSON signal log. A missing file is an empty log.
func ReadSignalLog(path string) ([]types.Signal, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var signals []types.Signal
	if err := sonic.ConfigStd.Unmarshal(data, &signals); err != nil {
		return nil, fmt.Errorf("decoding signal log %s: %w", path, err)
	}
	return signals, nil
}

func sideEmoji(side types.Side) string {
	if side == types.SideBuy {
		return "🚀"
	}
	return "💰"
}
