package store

import (
	"context"
	"fmt"
	"sync"

	"powder-inventory/internal/models"
)

// Memory is an in-process Store. It backs the "memory" backend and tests.
type Memory struct {
	mu   sync.RWMutex
	rows [][]string

	// FailWith, when set, is returned (wrapped in ErrUnavailable) from every call.
	FailWith error
}

// NewMemory returns a Memory store holding the header row and the given data rows.
func NewMemory(rows ...[]string) *Memory {
	m := &Memory{rows: [][]string{append([]string(nil), models.Header...)}}
	for _, r := range rows {
		m.rows = append(m.rows, append([]string(nil), r...))
	}
	return m
}

func (m *Memory) fail(op string) error {
	if m.FailWith != nil {
		return unavailable(op, m.FailWith)
	}
	return nil
}

func (m *Memory) column() []string {
	col := make([]string, 0, len(m.rows))
	for _, r := range m.rows[1:] {
		if len(r) == 0 {
			col = append(col, "")
			continue
		}
		col = append(col, r[0])
	}
	return col
}

// ListKeys implements Store.
func (m *Memory) ListKeys(ctx context.Context) ([]string, error) {
	if err := m.fail("list keys"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return nonEmptyKeys(m.column()), nil
}

// FindRow implements Store.
func (m *Memory) FindRow(ctx context.Context, id string) (RowIndex, error) {
	if err := m.fail("find row"); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return matchKey(m.column(), id)
}

// ReadRow implements Store.
func (m *Memory) ReadRow(ctx context.Context, idx RowIndex) ([]string, error) {
	if err := m.fail("read row"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := int(idx) - 1
	if i < 1 || i >= len(m.rows) {
		return models.PadRow(nil), nil
	}
	return models.PadRow(m.rows[i]), nil
}

// AppendRow implements Store.
func (m *Memory) AppendRow(ctx context.Context, values []string) error {
	if err := m.fail("append row"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, append([]string(nil), values...))
	return nil
}

// WriteCells implements Store.
func (m *Memory) WriteCells(ctx context.Context, idx RowIndex, values []string) error {
	if err := m.fail("write cells"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := int(idx) - 1
	if i < 1 || i >= len(m.rows) {
		return unavailable("write cells", fmt.Errorf("row %d out of range", idx))
	}
	m.rows[i] = models.PadRow(values)
	return nil
}

// Len returns the number of data rows, excluding the header.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows) - 1
}

// Rows returns a copy of all data rows, excluding the header.
func (m *Memory) Rows() [][]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([][]string, 0, len(m.rows)-1)
	for _, r := range m.rows[1:] {
		out = append(out, append([]string(nil), r...))
	}
	return out
}
