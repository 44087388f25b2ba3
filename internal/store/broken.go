package store

import (
	"context"
	"errors"
)

var errBackendNotConfigured = errors.New("asset store backend not configured")

// Broken is a Store whose every call fails with ErrUnavailable. The server
// starts with it when the configured backend cannot be reached, so requests
// report an unavailable sheet instead of the process refusing to boot.
type Broken struct {
	Err error
}

// NewBroken wraps the construction error that caused the fallback.
func NewBroken(err error) *Broken {
	return &Broken{Err: err}
}

func (b *Broken) fail(op string) error {
	if b.Err == nil {
		return unavailable(op, errBackendNotConfigured)
	}
	return unavailable(op, b.Err)
}

// ListKeys always fails with ErrUnavailable.
func (b *Broken) ListKeys(context.Context) ([]string, error) {
	return nil, b.fail("list keys")
}

// FindRow always fails with ErrUnavailable.
func (b *Broken) FindRow(context.Context, string) (RowIndex, error) {
	return 0, b.fail("find row")
}

// ReadRow always fails with ErrUnavailable.
func (b *Broken) ReadRow(context.Context, RowIndex) ([]string, error) {
	return nil, b.fail("read row")
}

// AppendRow always fails with ErrUnavailable.
func (b *Broken) AppendRow(context.Context, []string) error {
	return b.fail("append row")
}

// WriteCells always fails with ErrUnavailable.
func (b *Broken) WriteCells(context.Context, RowIndex, []string) error {
	return b.fail("write cells")
}
