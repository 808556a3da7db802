package reporting

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DatedPath inserts the date before the extension:
// data/report.md -> data/report_2024-05-01.md.
func DatedPath(path string, date time.Time) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + date.Format(time.DateOnly) + ext
}

// EnsureDirectoryExists creates the parent directory of path.
func EnsureDirectoryExists(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}

// Money formats v as $1,234.56.
func Money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + frac
}

// SignedPct formats v as +1.23% or -1.23%.
func SignedPct(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if v >= 0 {
		s = "+" + s
	}
	return s + "%"
}
