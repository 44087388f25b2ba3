// Package importer loads asset rows from an Excel workbook and registers each
// one through the registry, so bulk loads obey the same identifier and
// collision rules as the web form.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx/v3"

	"powder-inventory/internal/assetid"
	"powder-inventory/internal/auth"
	"powder-inventory/internal/models"
	"powder-inventory/internal/registry"
)

// Registry is the slice of registry.Service the importer drives
type Registry interface {
	CreateRecord(ctx context.Context, fields models.Fields, updatedBy string, actor *auth.Identity) (string, error)
	ListIdentifiers(ctx context.Context, actor *auth.Identity) ([]string, error)
}

// ImportOptions defines the configuration for Excel import operations
type ImportOptions struct {
	Actor       *auth.Identity
	UpdatedBy   string         // overrides the sheet's updated_by
	Mapping     *MappingConfig // wins over MappingPath
	MappingPath string         // default DefaultMappingPath
	DryRun      bool
	MaxErrors   int // default 50
}

// RowError represents an error that occurred during row processing
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// SheetSummary contains the import statistics for a single sheet
type SheetSummary struct {
	Name      string     `json:"name"`
	Inserted  int        `json:"inserted"`
	Skipped   int        `json:"skipped"`
	Errors    int        `json:"errors"`
	Conflicts []string   `json:"conflicts,omitempty"`
	Samples   []RowError `json:"error_samples,omitempty"`
}

// ImportSummary contains the overall import statistics
type ImportSummary struct {
	Inserted int            `json:"inserted"`
	Skipped  int            `json:"skipped"`
	Errors   int            `json:"errors"`
	Sheets   []SheetSummary `json:"sheets"`
	DryRun   bool           `json:"dry_run"`
}

func (s *ImportSummary) add(sheet SheetSummary) {
	s.Sheets = append(s.Sheets, sheet)
	s.Inserted += sheet.Inserted
	s.Skipped += sheet.Skipped
	s.Errors += sheet.Errors
}

// ErrTooManyErrors stops an import once MaxErrors rows have failed
var ErrTooManyErrors = errors.New("too many errors")

// ImportExcel registers every mapped row of the workbook read from r.
// Rows whose identifier already exists are skipped, not updated. A store or
// authorization failure aborts the import and returns the partial summary.
func ImportExcel(ctx context.Context, reg Registry, r io.Reader, opts ImportOptions) (ImportSummary, error) {
	summary := ImportSummary{
		DryRun: opts.DryRun,
		Sheets: []SheetSummary{},
	}

	if opts.MaxErrors <= 0 {
		opts.MaxErrors = 50
	}

	mapping := opts.Mapping
	if mapping == nil {
		path := opts.MappingPath
		if path == "" {
			path = DefaultMappingPath
		}
		m, err := LoadMapping(path)
		if err != nil {
			return summary, fmt.Errorf("failed to load mapping config: %w", err)
		}
		mapping = m
	}

	// xlsx needs random access, so the upload is buffered whole
	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("failed to read Excel file: %w", err)
	}
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return summary, fmt.Errorf("failed to open Excel file: %w", err)
	}

	imp := &run{reg: reg, opts: opts}
	if opts.DryRun {
		ids, err := reg.ListIdentifiers(ctx, opts.Actor)
		if err != nil {
			return summary, err
		}
		imp.seen = make(map[string]bool, len(ids))
		for _, id := range ids {
			imp.seen[id] = true
		}
	}

	for _, sheet := range xlFile.Sheets {
		sc, ok := mapping.Sheets[sheet.Name]
		if !ok {
			continue
		}

		sheetSummary, err := imp.processSheet(ctx, sheet, sc, opts.MaxErrors-summary.Errors)
		summary.add(sheetSummary)
		if err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// run carries state shared across sheets of one import
type run struct {
	reg  Registry
	opts ImportOptions
	seen map[string]bool // dry run only
}

func (imp *run) updatedBy(sc SheetConfig) string {
	switch {
	case imp.opts.UpdatedBy != "":
		return imp.opts.UpdatedBy
	case sc.UpdatedBy != "":
		return sc.UpdatedBy
	case imp.opts.Actor != nil:
		return imp.opts.Actor.Email
	}
	return ""
}

func (imp *run) processSheet(ctx context.Context, sheet *xlsx.Sheet, sc SheetConfig, errorBudget int) (SheetSummary, error) {
	summary := SheetSummary{Name: sheet.Name}

	fail := func(row int, msg string) error {
		summary.Errors++
		summary.Samples = append(summary.Samples, RowError{Sheet: sheet.Name, Row: row, Message: msg})
		if summary.Errors >= errorBudget {
			return fmt.Errorf("%w (%d), stopping import", ErrTooManyErrors, summary.Errors)
		}
		return nil
	}

	if sheet.MaxRow == 0 {
		return summary, nil
	}
	headerRow, err := sheet.Row(0)
	if err != nil {
		return summary, fail(1, "Failed to read header row: "+err.Error())
	}

	// column index -> field name
	aliases := sc.headerIndex()
	columns := make(map[int]string)
	for c := 0; c < sheet.MaxCol; c++ {
		header := strings.TrimSpace(headerRow.GetCell(c).Value)
		if field, ok := aliases[strings.ToUpper(header)]; ok && header != "" {
			columns[c] = field
		}
	}

	updatedBy := imp.updatedBy(sc)

	for rowIdx := 1; rowIdx < sheet.MaxRow; rowIdx++ {
		sheetRow := rowIdx + 1

		row, err := sheet.Row(rowIdx)
		if err != nil {
			if ferr := fail(sheetRow, err.Error()); ferr != nil {
				return summary, ferr
			}
			continue
		}

		raw := make(map[string]string)
		var cellErr error
		for c, field := range columns {
			v, err := cellString(row.GetCell(c), sc.Types[field])
			if err != nil && cellErr == nil {
				cellErr = fmt.Errorf("%s: %w", field, err)
			}
			if v = strings.TrimSpace(v); v != "" {
				raw[field] = v
			}
		}
		if cellErr != nil {
			if ferr := fail(sheetRow, cellErr.Error()); ferr != nil {
				return summary, ferr
			}
			continue
		}
		if len(raw) == 0 {
			summary.Skipped++
			continue
		}

		fields, err := buildFields(raw, sc)
		if err != nil {
			if ferr := fail(sheetRow, err.Error()); ferr != nil {
				return summary, ferr
			}
			continue
		}

		if imp.opts.DryRun {
			id := assetid.Derive(fields)
			if imp.seen[id] {
				summary.Skipped++
				summary.Conflicts = append(summary.Conflicts, id)
				continue
			}
			imp.seen[id] = true
			summary.Inserted++
			continue
		}

		_, err = imp.reg.CreateRecord(ctx, fields, updatedBy, imp.opts.Actor)
		var conflict *registry.ConflictError
		switch {
		case err == nil:
			summary.Inserted++
		case errors.As(err, &conflict):
			summary.Skipped++
			summary.Conflicts = append(summary.Conflicts, conflict.AssetID)
		case errors.Is(err, registry.ErrUnavailable), errors.Is(err, registry.ErrUnauthorized):
			return summary, err
		default:
			if ferr := fail(sheetRow, err.Error()); ferr != nil {
				return summary, ferr
			}
		}
	}

	return summary, nil
}

// buildFields applies defaults, required checks and type coercion
func buildFields(raw map[string]string, sc SheetConfig) (models.Fields, error) {
	var values [models.FieldCount]string
	for i, field := range models.FieldNames {
		v, ok := raw[field]
		if !ok {
			v = sc.Defaults[field]
		}
		converted, err := parseValue(v, sc.Types[field])
		if err != nil {
			return models.Fields{}, fmt.Errorf("%s: %w", field, err)
		}
		values[i] = converted
	}

	for _, field := range sc.Required {
		for i, name := range models.FieldNames {
			if name == field && values[i] == "" {
				return models.Fields{}, fmt.Errorf("missing required field %s", field)
			}
		}
	}

	return models.FieldsFromValues(values), nil
}

// cellString returns the text of c. A date-formatted cell in a date column
// becomes YYYY-MM-DD; every other cell keeps its stored text, so a bare year
// or a numeric code typed into a date column is not reinterpreted.
func cellString(c *xlsx.Cell, valueType string) (string, error) {
	if valueType != "date" || c.Value == "" || !c.IsTime() {
		return c.Value, nil
	}
	t, err := c.GetTime(false)
	if err != nil {
		return "", fmt.Errorf("%q is not a valid date: %w", c.Value, err)
	}
	return t.Format("2006-01-02"), nil
}

// parseValue normalizes a cell's text. Whole numbers lose any trailing ".0";
// other values are kept as written.
func parseValue(value, valueType string) (string, error) {
	if value == "" {
		return "", nil
	}
	switch valueType {
	case "int":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f != math.Trunc(f) {
			return "", fmt.Errorf("%q is not a whole number", value)
		}
		return strconv.FormatInt(int64(f), 10), nil
	default:
		return value, nil
	}
}
