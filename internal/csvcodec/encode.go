// Package csvcodec converts between the Record List and CSV text.
//
// The scanner is deliberately small: it understands double-quoted fields with
// doubled-quote escapes, and LF, CRLF or lone CR row breaks. It does not trim
// whitespace, detect delimiters or report syntax errors; an unterminated quote
// simply runs to end of input.
package csvcodec

import (
	"strconv"
	"strings"
	"time"

	"myexpenses/internal/core"
)

// Header is the fixed export column order.
var Header = []string{"Date", "Time", "Amount", "Category", "Description"}

// Encode renders list as CSV: the header row followed by one row per record,
// joined with "\n" and without a trailing newline.
func Encode(list []core.Expense) string {
	var b strings.Builder
	writeRow(&b, Header)
	for _, e := range list {
		b.WriteByte('\n')
		writeRow(&b, Row(e))
	}
	return b.String()
}

// Row returns the export cells of one record, in Header order.
func Row(e core.Expense) []string {
	return []string{
		e.Date,
		e.Time,
		FormatAmount(e.Amount),
		e.Category,
		e.Description,
	}
}

// Rows returns the export cells for every record.
func Rows(list []core.Expense) [][]string {
	out := make([][]string, 0, len(list))
	for _, e := range list {
		out = append(out, Row(e))
	}
	return out
}

// FormatAmount renders the stored value in its shortest decimal form,
// e.g. 3.5 -> "3.5", 20 -> "20".
func FormatAmount(v float64) string {
	return strconv.FormatFloat(core.FiniteOrZero(v), 'f', -1, 64)
}

// Filename is the export file name for the given day.
func Filename(now time.Time) string {
	return "myexpenses_" + core.DateOf(now) + ".csv"
}

func writeRow(b *strings.Builder, cells []string) {
	for i, c := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escape(c))
	}
}

// escape quotes a cell that contains a delimiter, a line break or a quote.
func escape(s string) string {
	if !strings.ContainsAny(s, ",\n\r\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
