// Package store provides positional access to the asset sheet: a table whose
// first row is a header, column A holds the asset identifier and columns B..L
// hold the remaining fields.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by FindRow when no row carries the identifier.
	ErrNotFound = errors.New("store: asset not found")
	// ErrUnavailable wraps every configuration, transport or auth failure.
	ErrUnavailable = errors.New("store: unavailable")
)

// RowIndex is the 1-based sheet row number. Row 1 is the header, so the
// first data row is 2.
type RowIndex int

// FirstDataRow is the index of the first row below the header.
const FirstDataRow RowIndex = 2

// Store is the four-operation contract the registry depends on, plus the key
// listing used to populate pickers.
type Store interface {
	// ListKeys returns every non-empty trimmed value of column A below the
	// header, in row order.
	ListKeys(ctx context.Context) ([]string, error)
	// FindRow returns the first row whose trimmed column A equals the trimmed id.
	FindRow(ctx context.Context, id string) (RowIndex, error)
	// ReadRow returns exactly models.RowWidth cells.
	ReadRow(ctx context.Context, idx RowIndex) ([]string, error)
	// AppendRow adds one row after the current last row.
	AppendRow(ctx context.Context, values []string) error
	// WriteCells overwrites columns A..L of an existing row in place.
	WriteCells(ctx context.Context, idx RowIndex, values []string) error
}

// unavailable wraps err so that errors.Is(err, ErrUnavailable) holds while
// keeping the cause in the message.
func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// matchKey scans keys (column A values starting at FirstDataRow) for the
// first trimmed match of id.
func matchKey(column []string, id string) (RowIndex, error) {
	id = strings.TrimSpace(id)
	for i, v := range column {
		if strings.TrimSpace(v) == id {
			return FirstDataRow + RowIndex(i), nil
		}
	}
	return 0, ErrNotFound
}

// nonEmptyKeys filters a raw column A slice down to trimmed, non-empty keys.
func nonEmptyKeys(column []string) []string {
	keys := make([]string, 0, len(column))
	for _, v := range column {
		if v = strings.TrimSpace(v); v != "" {
			keys = append(keys, v)
		}
	}
	return keys
}
