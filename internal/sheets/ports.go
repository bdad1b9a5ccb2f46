// Package sheets defines the outbound port for mirroring the Record List to
// an external spreadsheet.
package sheets

import "context"

// RowMirror keeps an external copy of the Record List. ReplaceRows discards
// whatever the mirror held and writes header followed by rows.
type RowMirror interface {
	ReplaceRows(ctx context.Context, header []string, rows [][]string) error
}
