package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"powder-inventory/internal/models"
)

// Schema creates the table backing the postgres adapter. Each data row is one
// record; position orders rows like sheet row numbers.
const Schema = `
CREATE TABLE IF NOT EXISTS asset_rows (
	position BIGSERIAL PRIMARY KEY,
	cells    TEXT[]    NOT NULL
);`

// Postgres is a Store backed by the asset_rows table. RowIndex n maps to
// position n-1, so position 1 reads like sheet row 2.
type Postgres struct {
	DB *sql.DB
}

// OpenPostgres connects with the pgx stdlib driver and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, unavailable("open database", errors.New("missing DB_DSN"))
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, unavailable("open database", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, unavailable("ping database", err)
	}
	return NewPostgres(db), nil
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{DB: db}
}

// EnsureSchema creates the asset_rows table when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, Schema)
	return unavailable("ensure schema", err)
}

// Close releases the database handle.
func (p *Postgres) Close() error {
	return p.DB.Close()
}

func position(idx RowIndex) int64 {
	return int64(idx) - 1
}

type keyRow struct {
	position int64
	key      string
}

func (p *Postgres) keys(ctx context.Context) ([]keyRow, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT position, COALESCE(cells[1], '') FROM asset_rows ORDER BY position`)
	if err != nil {
		return nil, unavailable("read key column", err)
	}
	defer rows.Close()

	var out []keyRow
	for rows.Next() {
		var k keyRow
		if err := rows.Scan(&k.position, &k.key); err != nil {
			return nil, unavailable("read key column", err)
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("read key column", err)
	}
	return out, nil
}

// ListKeys implements Store.
func (p *Postgres) ListKeys(ctx context.Context) ([]string, error) {
	keys, err := p.keys(ctx)
	if err != nil {
		return nil, err
	}
	col := make([]string, len(keys))
	for i, k := range keys {
		col[i] = k.key
	}
	return nonEmptyKeys(col), nil
}

// FindRow implements Store.
func (p *Postgres) FindRow(ctx context.Context, id string) (RowIndex, error) {
	keys, err := p.keys(ctx)
	if err != nil {
		return 0, err
	}
	id = strings.TrimSpace(id)
	for _, k := range keys {
		if strings.TrimSpace(k.key) == id {
			return RowIndex(k.position + 1), nil
		}
	}
	return 0, ErrNotFound
}

// ReadRow implements Store.
func (p *Postgres) ReadRow(ctx context.Context, idx RowIndex) ([]string, error) {
	var cells pq.StringArray
	err := p.DB.QueryRowContext(ctx, `SELECT cells FROM asset_rows WHERE position = $1`, position(idx)).Scan(&cells)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PadRow(nil), nil
	}
	if err != nil {
		return nil, unavailable("read row", err)
	}
	return models.PadRow(cells), nil
}

// AppendRow implements Store.
func (p *Postgres) AppendRow(ctx context.Context, values []string) error {
	_, err := p.DB.ExecContext(ctx, `INSERT INTO asset_rows (cells) VALUES ($1)`, pq.Array(models.PadRow(values)))
	return unavailable("append row", err)
}

// WriteCells implements Store. The single UPDATE replaces the whole cell array.
func (p *Postgres) WriteCells(ctx context.Context, idx RowIndex, values []string) error {
	res, err := p.DB.ExecContext(ctx, `UPDATE asset_rows SET cells = $1 WHERE position = $2`,
		pq.Array(models.PadRow(values)), position(idx))
	if err != nil {
		return unavailable("write cells", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("write cells", err)
	}
	if n != 1 {
		return unavailable("write cells", fmt.Errorf("row %d not written (%d rows affected)", idx, n))
	}
	return nil
}
