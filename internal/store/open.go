package store

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendSheets   = "sheets"
	BackendXLSX     = "xlsx"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config selects and configures a Store backend.
type Config struct {
	Backend   string
	Sheets    SheetsConfig
	XLSXPath  string
	DSN       string
	SheetName string
}

// Open builds the Store named by cfg.Backend. Construction failures wrap
// ErrUnavailable.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendSheets, "":
		sc := cfg.Sheets
		if sc.SheetName == "" {
			sc.SheetName = cfg.SheetName
		}
		return NewSheets(ctx, sc)
	case BackendXLSX:
		return NewWorkbook(cfg.XLSXPath, cfg.SheetName)
	case BackendPostgres:
		pg, err := OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, unavailable("open store", fmt.Errorf("unknown backend %q", cfg.Backend))
	}
}
