package csvcodec

import "strings"

// Parse splits text into rows of raw cells in one left-to-right pass.
//
// Inside quotes a doubled quote yields one literal quote and a single quote
// closes the field's quoted run. Outside quotes a comma ends the cell and LF,
// CRLF or CR ends the cell and the row. The final row is kept only when it has
// more than one cell or its one cell is non-empty, so a trailing newline does
// not produce a phantom row.
func Parse(text string) [][]string {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)

	pushField := func() {
		row = append(row, field.String())
		field.Reset()
	}
	pushRow := func() {
		rows = append(rows, row)
		row = nil
	}

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inQuotes {
			if ch == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					field.WriteByte('"')
					i++
					continue
				}
				inQuotes = false
				continue
			}
			field.WriteByte(ch)
			continue
		}

		switch ch {
		case '"':
			inQuotes = true
		case ',':
			pushField()
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			pushField()
			pushRow()
		case '\n':
			pushField()
			pushRow()
		default:
			field.WriteByte(ch)
		}
	}

	pushField()
	if len(row) > 1 || row[0] != "" {
		pushRow()
	}
	return rows
}
