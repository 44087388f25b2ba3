package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"powder-inventory/internal/models"
)

// lastColumn is the A1 letter of the UpdatedBy column.
const lastColumn = "L"

// SheetsConfig locates a worksheet and the service account used to reach it.
type SheetsConfig struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

// Sheets is a Store backed by a Google Sheets worksheet.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewSheets builds a Sheets store. Inline credentials win over a file path.
// Extra client options (endpoint, HTTP client) are appended last so tests can
// point the client at a fake server.
func NewSheets(ctx context.Context, cfg SheetsConfig, opts ...option.ClientOption) (*Sheets, error) {
	if cfg.SpreadsheetID == "" {
		return nil, unavailable("open sheet", errors.New("missing SPREADSHEET_ID"))
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Items"
	}

	clientOpts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	switch {
	case cfg.CredentialsJSON != "":
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	case len(opts) == 0:
		return nil, unavailable("open sheet", errors.New("missing GOOGLE_APPLICATION_CREDENTIALS or SERVICE_ACCOUNT_JSON"))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, unavailable("open sheet", err)
	}
	return &Sheets{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetName: cfg.SheetName}, nil
}

// a1 prefixes a cell range with the quoted sheet name.
func (s *Sheets) a1(cells string) string {
	return "'" + strings.ReplaceAll(s.sheetName, "'", "''") + "'!" + cells
}

func rowRange(idx RowIndex) string {
	return fmt.Sprintf("A%d:%s%d", idx, lastColumn, idx)
}

// keyColumn fetches column A without the header.
func (s *Sheets) keyColumn(ctx context.Context) ([]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.a1("A:A")).
		MajorDimension("COLUMNS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, unavailable("read key column", err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) <= 1 {
		return nil, nil
	}
	return toStrings(resp.Values[0][1:]), nil
}

// ListKeys implements Store.
func (s *Sheets) ListKeys(ctx context.Context) ([]string, error) {
	col, err := s.keyColumn(ctx)
	if err != nil {
		return nil, err
	}
	return nonEmptyKeys(col), nil
}

// FindRow implements Store.
func (s *Sheets) FindRow(ctx context.Context, id string) (RowIndex, error) {
	col, err := s.keyColumn(ctx)
	if err != nil {
		return 0, err
	}
	return matchKey(col, id)
}

// ReadRow implements Store.
func (s *Sheets) ReadRow(ctx context.Context, idx RowIndex) ([]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.a1(rowRange(idx))).
		Context(ctx).
		Do()
	if err != nil {
		return nil, unavailable("read row", err)
	}
	if len(resp.Values) == 0 {
		return models.PadRow(nil), nil
	}
	return models.PadRow(toStrings(resp.Values[0])), nil
}

// AppendRow implements Store. The API inserts the row as a single unit.
func (s *Sheets) AppendRow(ctx context.Context, values []string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{toInterfaces(values)}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.a1("A1"), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return unavailable("append row", err)
}

// WriteCells implements Store with one ranged update, so the twelve cells
// are written together or not at all.
func (s *Sheets) WriteCells(ctx context.Context, idx RowIndex, values []string) error {
	rng := s.a1(rowRange(idx))
	vr := &sheets.ValueRange{
		Range:  rng,
		Values: [][]interface{}{toInterfaces(models.PadRow(values))},
	}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return unavailable("write cells", err)
}

func toStrings(vs []interface{}) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		if v != nil {
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

func toInterfaces(vs []string) []interface{} {
	out := make([]interface{}, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
