package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tealeg/xlsx/v3"

	"powder-inventory/internal/models"
)

// Workbook is a Store backed by a local .xlsx file. The file is reopened on
// every call so edits made by other programs between requests are seen.
type Workbook struct {
	mu        sync.Mutex
	path      string
	sheetName string
}

// NewWorkbook opens path, creating a workbook with a header row when the
// file does not exist yet.
func NewWorkbook(path, sheetName string) (*Workbook, error) {
	if path == "" {
		return nil, unavailable("open workbook", errors.New("missing XLSX_PATH"))
	}
	if sheetName == "" {
		sheetName = "Items"
	}
	w := &Workbook{path: path, sheetName: sheetName}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		f := xlsx.NewFile()
		sh, err := f.AddSheet(sheetName)
		if err != nil {
			return nil, unavailable("create workbook", err)
		}
		setRow(sh.AddRow(), models.Header)
		if err := w.save(f); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, unavailable("open workbook", err)
	}
	return w, nil
}

func (w *Workbook) open() (*xlsx.File, *xlsx.Sheet, error) {
	f, err := xlsx.OpenFile(w.path)
	if err != nil {
		return nil, nil, unavailable("open workbook", err)
	}
	sh, ok := f.Sheet[w.sheetName]
	if !ok {
		return nil, nil, unavailable("open workbook", fmt.Errorf("sheet %q not found in %s", w.sheetName, w.path))
	}
	return f, sh, nil
}

// save writes to a sibling temp file and renames it over the workbook, so a
// failed save never leaves a half-written file behind.
func (w *Workbook) save(f *xlsx.File) error {
	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".assets-*.xlsx")
	if err != nil {
		return unavailable("save workbook", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := f.Write(tmp); err != nil {
		tmp.Close()
		return unavailable("save workbook", err)
	}
	if err := tmp.Close(); err != nil {
		return unavailable("save workbook", err)
	}
	return unavailable("save workbook", os.Rename(tmpName, w.path))
}

func keyColumnOf(sh *xlsx.Sheet) ([]string, error) {
	col := make([]string, 0, sh.MaxRow)
	for i := 1; i < sh.MaxRow; i++ {
		row, err := sh.Row(i)
		if err != nil {
			return nil, unavailable("read key column", err)
		}
		col = append(col, row.GetCell(models.ColAssetID).Value)
	}
	return col, nil
}

// ListKeys implements Store.
func (w *Workbook) ListKeys(ctx context.Context) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, sh, err := w.open()
	if err != nil {
		return nil, err
	}
	col, err := keyColumnOf(sh)
	if err != nil {
		return nil, err
	}
	return nonEmptyKeys(col), nil
}

// FindRow implements Store.
func (w *Workbook) FindRow(ctx context.Context, id string) (RowIndex, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, sh, err := w.open()
	if err != nil {
		return 0, err
	}
	col, err := keyColumnOf(sh)
	if err != nil {
		return 0, err
	}
	return matchKey(col, id)
}

// ReadRow implements Store.
func (w *Workbook) ReadRow(ctx context.Context, idx RowIndex) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, sh, err := w.open()
	if err != nil {
		return nil, err
	}
	i := int(idx) - 1
	if i < 1 || i >= sh.MaxRow {
		return models.PadRow(nil), nil
	}
	row, err := sh.Row(i)
	if err != nil {
		return nil, unavailable("read row", err)
	}
	cells := make([]string, models.RowWidth)
	for c := range cells {
		cells[c] = row.GetCell(c).Value
	}
	return cells, nil
}

// AppendRow implements Store.
func (w *Workbook) AppendRow(ctx context.Context, values []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, sh, err := w.open()
	if err != nil {
		return err
	}
	setRow(sh.AddRow(), values)
	return w.save(f)
}

// WriteCells implements Store.
func (w *Workbook) WriteCells(ctx context.Context, idx RowIndex, values []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, sh, err := w.open()
	if err != nil {
		return err
	}
	i := int(idx) - 1
	if i < 1 || i >= sh.MaxRow {
		return unavailable("write cells", fmt.Errorf("row %d out of range", idx))
	}
	row, err := sh.Row(i)
	if err != nil {
		return unavailable("write cells", err)
	}
	for c, v := range models.PadRow(values) {
		row.GetCell(c).SetString(v)
	}
	return w.save(f)
}

func setRow(row *xlsx.Row, values []string) {
	for c, v := range values {
		row.GetCell(c).SetString(v)
	}
}
