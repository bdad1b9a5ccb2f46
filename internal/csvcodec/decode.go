package csvcodec

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"myexpenses/internal/core"
)

// ErrMalformedHeader is returned in strict mode when a required column is
// missing from the header row.
var ErrMalformedHeader = errors.New("malformed CSV header")

// descriptionFallbackColumn is read when the header has no Description column.
const descriptionFallbackColumn = 4

// Options controls Decode.
type Options struct {
	// Strict rejects a header that lacks Date, Time, Amount or Category.
	// When false those columns are filled with defaults instead.
	Strict bool
	// Now supplies the date and time for rows that have none. Defaults to time.Now.
	Now func() time.Time
}

type columns struct {
	date, time, amount, category, description int
}

// Decode turns CSV text with a header row into records. Empty input yields no
// records; blank rows are skipped.
func Decode(text string, opts Options) ([]core.Expense, error) {
	rows := Parse(text)
	if len(rows) == 0 {
		return []core.Expense{}, nil
	}

	cols, err := resolveHeader(rows[0], opts.Strict)
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	stamp := now()

	out := make([]core.Expense, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		out = append(out, decodeRow(row, cols, stamp))
	}
	return out, nil
}

func resolveHeader(header []string, strict bool) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	lookup := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		return -1
	}

	cols := columns{
		date:        lookup("Date"),
		time:        lookup("Time"),
		amount:      lookup("Amount"),
		category:    lookup("Category"),
		description: lookup("Description"),
	}
	if cols.description < 0 {
		cols.description = descriptionFallbackColumn
	}

	if strict {
		var missing []string
		for _, c := range []struct {
			name string
			idx  int
		}{
			{"Date", cols.date},
			{"Time", cols.time},
			{"Amount", cols.amount},
			{"Category", cols.category},
		} {
			if c.idx < 0 {
				missing = append(missing, c.name)
			}
		}
		if len(missing) > 0 {
			return cols, fmt.Errorf("%w: missing %s", ErrMalformedHeader, strings.Join(missing, ", "))
		}
	}
	return cols, nil
}

func decodeRow(row []string, cols columns, now time.Time) core.Expense {
	e := core.Expense{
		Date:        cell(row, cols.date),
		Time:        cell(row, cols.time),
		Amount:      core.CoerceAmount(cell(row, cols.amount)),
		Category:    cell(row, cols.category),
		Description: cell(row, cols.description),
	}
	if e.Date == "" {
		e.Date = core.DateOf(now)
	}
	if e.Time == "" {
		e.Time = core.TimeOf(now)
	}
	return e.Normalize()
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func blank(row []string) bool {
	return len(row) == 0 || (len(row) == 1 && row[0] == "")
}
