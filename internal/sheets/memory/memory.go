package memory

import (
	"context"
	"sync"

	"myexpenses/internal/sheets"
)

// Mirror is an in-process sheets.RowMirror used when no spreadsheet is
// configured, and in tests.
type Mirror struct {
	mu     sync.Mutex
	header []string
	rows   [][]string
	writes int
}

var _ sheets.RowMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

// ReplaceRows implements sheets.RowMirror.
func (m *Mirror) ReplaceRows(_ context.Context, header []string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.header = append([]string(nil), header...)
	m.rows = make([][]string, len(rows))
	for i, r := range rows {
		m.rows[i] = append([]string(nil), r...)
	}
	m.writes++
	return nil
}

// Snapshot returns copies of the current header and rows.
func (m *Mirror) Snapshot() ([]string, [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := make([][]string, len(m.rows))
	for i, r := range m.rows {
		rows[i] = append([]string(nil), r...)
	}
	return append([]string(nil), m.header...), rows
}

// Writes reports how many times ReplaceRows was called.
func (m *Mirror) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
