package display

import (
	"strings"
	"sync"
)

// Memory is an in-memory panel, used when no LCD is fitted and in tests.
type Memory struct {
	mu     sync.Mutex
	cells  [Rows][Cols]rune
	col    int
	row    int
	Clears int
	Err    error
}

// NewMemory returns a blank panel.
func NewMemory() *Memory {
	m := &Memory{}
	m.blank()
	return m
}

func (m *Memory) blank() {
	for r := range m.cells {
		for c := range m.cells[r] {
			m.cells[r][c] = ' '
		}
	}
	m.col, m.row = 0, 0
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.blank()
	m.Clears++
	return nil
}

func (m *Memory) SetCursor(col, row int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.col, m.row = col, row
	return nil
}

// Print writes at the cursor; text past the right edge is dropped.
func (m *Memory) Print(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.row < 0 || m.row >= Rows {
		return nil
	}
	for _, r := range text {
		if m.col >= Cols {
			break
		}
		m.cells[m.row][m.col] = r
		m.col++
	}
	return nil
}

// Line returns row with trailing spaces trimmed.
func (m *Memory) Line(row int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.TrimRight(string(m.cells[row][:]), " ")
}

// Lines returns every row, trimmed.
func (m *Memory) Lines() []string {
	out := make([]string, Rows)
	for i := range out {
		out[i] = m.Line(i)
	}
	return out
}
