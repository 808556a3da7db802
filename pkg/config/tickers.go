package config

// DefaultTickers is the universe analysed when no list is configured.
var DefaultTickers = []string{
	"AAPL", "ABBV", "ABNB", "AMAT", "AMD", "AMGN", "AMZN", "APP", "ARKK", "ARM",
	"AVGO", "AXP", "BABA", "BAC", "BCH", "BIDU", "BRK-B", "BSAC", "CAT", "CCU",
	"CEG", "COP", "COST", "CPER", "CRM", "CRWD", "CVX", "DE", "DIA", "DLO",
	"ENIC", "FTNT", "GE", "GILD", "GLD", "GOOGL", "GRAB", "GS", "HD", "IBIT",
	"ISRG", "IWM", "JNJ", "JPM", "KO", "LIT", "LLY", "LMT", "LOW", "LTM",
	"LULU", "MA", "MCD", "MELI", "META", "MRK", "MS", "MSFT", "MU", "NEE",
	"NFLX", "NOW", "NU", "NVDA", "NVO", "ORCL", "PANW", "PEP", "PG", "PLTR",
	"QCOM", "QQQ", "RTX", "SBUX", "SE", "SHEL", "SHOP", "SLV", "SMH", "SNOW",
	"SPOT", "SPY", "SQM", "STNE", "TGT", "TLT", "TMO", "TSLA", "TSM", "TXN",
	"UBER", "UNH", "URA", "USO", "V", "VRT", "VRTX", "VTI", "WFC", "WMT", "XOM",
}

// NormalizeTickers upper-cases, trims and de-duplicates symbols, keeping the
// first occurrence order.
func NormalizeTickers(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		for _, part := range splitList(raw) {
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	return out
}
