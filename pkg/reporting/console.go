package reporting

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/trend-rsi-backtest/internal/backtest"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

// PrintConsoleSummary renders the batch as tables on w.
func PrintConsoleSummary(w io.Writer, p Portfolio, results []*backtest.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("BACKTEST RESULTS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Ticker", "Trades", "Final Capital", "Return", "Max DD", "Status", "Last Event"})
	for _, r := range results {
		last := "-"
		if ev, ok := r.LastEvent(); ok {
			last = fmt.Sprintf("%s %s", ev.Date.Format(time.DateOnly), ev.Action)
		}
		t.AppendRow(table.Row{
			r.Symbol, r.TradesExecuted, Money(r.FinalCapital), colorPct(r.ReturnPct),
			fmt.Sprintf("%.2f%%", r.Stats.MaxDrawdown*100), string(r.Status), last,
		})
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d instruments", p.Instruments), p.Trades, Money(p.FinalValue), colorPct(p.ReturnPct),
		"", fmt.Sprintf("held %s", Money(p.HeldValue)),
		fmt.Sprintf("win %.1f%% (%d/%d)", p.WinRate, p.Winners, p.Losers),
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.Render()
}

// PrintSignals renders the latest signals as a table on w.
func PrintSignals(w io.Writer, date time.Time, signals []types.Signal) {
	if len(signals) == 0 {
		fmt.Fprintf(w, "No signals on %s\n", date.Format(time.DateOnly))
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("SIGNALS " + date.Format(time.DateOnly))
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Ticker", "Action", "Price", "Reason"})
	for _, s := range signals {
		action := text.FgRed.Sprint(string(s.Action))
		if s.Action == types.SideBuy {
			action = text.FgGreen.Sprint(string(s.Action))
		}
		t.AppendRow(table.Row{s.Symbol, action, Money(s.Price), s.Reason})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: 70},
	})
	t.Render()
}

func colorPct(v float64) string {
	s := SignedPct(v)
	switch {
	case v > 0:
		return text.FgGreen.Sprint(s)
	case v < 0:
		return text.FgRed.Sprint(s)
	}
	return s
}
