package reporting

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/ducminhle1904/trend-rsi-backtest/internal/backtest"
)

// WriteMarkdownReport writes the batch report: an executive summary, a
// comparison table and every instrument's trade history.
func WriteMarkdownReport(path string, p Portfolio, results []*backtest.Result, generatedAt time.Time) error {
	if err := EnsureDirectoryExists(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# Trend RSI Backtest Report\n\n")
	fmt.Fprintf(w, "**Generated:** %s\n\n", generatedAt.Format(time.DateTime))

	fmt.Fprintf(w, "## 📊 Executive Summary\n")
	fmt.Fprintf(w, "| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(w, "| **Instruments Analysed** | %d |\n", p.Instruments)
	fmt.Fprintf(w, "| **Total Invested** | %s |\n", Money(p.TotalInvested))
	fmt.Fprintf(w, "| **Final Portfolio Value** | %s |\n", Money(p.FinalValue))
	fmt.Fprintf(w, "| **Currently Held** | **%s** |\n", Money(p.HeldValue))
	fmt.Fprintf(w, "| **Global Return** | %s |\n", markReturn(p.ReturnPct, true))
	fmt.Fprintf(w, "| **Win Rate (instruments)** | %.1f%% (%d ✅ / %d ❌) |\n\n", p.WinRate, p.Winners, p.Losers)
	fmt.Fprintf(w, "---\n\n")

	fmt.Fprintf(w, "## 📈 Instrument Comparison\n")
	fmt.Fprintf(w, "| Ticker | Trades | Final Capital | Return | Max DD | Status |\n")
	fmt.Fprintf(w, "|--------|--------|---------------|--------|--------|--------|\n")
	for _, r := range results {
		fmt.Fprintf(w, "| **%s** | %d | %s | %s | %.2f%% | *%s* |\n",
			r.Symbol, r.TradesExecuted, Money(r.FinalCapital), markReturn(r.ReturnPct, false),
			r.Stats.MaxDrawdown*100, r.Status)
	}
	fmt.Fprintf(w, "\n---\n\n")

	fmt.Fprintf(w, "## 📝 Trade Details\n\n")
	for _, r := range results {
		if len(r.History) == 0 {
			continue
		}
		fmt.Fprintf(w, "### 🔍 %s\n", r.Symbol)
		fmt.Fprintf(w, "| Date | Action | Amount | Price | Reason |\n")
		fmt.Fprintf(w, "|------|--------|--------|-------|--------|\n")
		for _, ev := range r.History {
			fmt.Fprintf(w, "| %s | **%s** | %s | %s | %s |\n",
				ev.Date.Format(time.DateOnly), ev.Action, Money(ev.Amount), Money(ev.Price), ev.Reason)
		}
		fmt.Fprintln(w)
	}

	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func markReturn(pct float64, bold bool) string {
	s := SignedPct(pct)
	if bold && pct != 0 {
		s = "**" + s + "**"
	}
	switch {
	case pct > 0:
		return "🟢 " + s
	case pct < 0:
		return "🔴 " + s
	}
	return s
}
