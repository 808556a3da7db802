package notifications

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

// FormatSignalDigest renders the latest signals as a Telegram Markdown message.
func FormatSignalDigest(date time.Time, signals []types.Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 *Signals %s*\n", date.Format(time.DateOnly))
	if len(signals) == 0 {
		b.WriteString("\nNo buy or sell signals on the most recent session.")
		return b.String()
	}
	for _, s := range signals {
		icon := "💰"
		if s.Action == types.SideBuy {
			icon = "🚀"
		}
		fmt.Fprintf(&b, "\n%s *%s* %s @ %s\n_%s_\n", icon, escapeMarkdown(s.Symbol), s.Action,
			strconv.FormatFloat(s.Price, 'f', 2, 64), escapeMarkdown(s.Reason))
	}
	return b.String()
}

// escapeMarkdown escapes the characters legacy Markdown mode treats as markup.
func escapeMarkdown(s string) string {
	return strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[").Replace(s)
}
