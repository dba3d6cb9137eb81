package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/hotspot-etl/internal/domain"
)

// rowColumn orders rows in an area table; it is not part of the area header.
const rowColumn = "_row"

// Dataset is an open SQLite dataset.
type Dataset struct {
	db        *sql.DB
	path      string
	name      string
	container string
	logger    *slog.Logger
}

func (d *Dataset) Name() string      { return d.name }
func (d *Dataset) Container() string { return d.container }

// Path returns the database file.
func (d *Dataset) Path() string { return d.path }

// Areas lists tables and views in creation order.
func (d *Dataset) Areas(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite\_%' ESCAPE '\' ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list areas: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (d *Dataset) AddArea(ctx context.Context, name string) error {
	kind, err := d.kind(ctx, name)
	if err != nil {
		return err
	}
	if kind != "" {
		return fmt.Errorf("area %q: %w", name, domain.ErrExists)
	}
	if _, err := d.db.ExecContext(ctx, emptyTableSQL(name)); err != nil {
		return fmt.Errorf("sqlite: add area %q: %w", name, err)
	}
	return nil
}

func (d *Dataset) RenameArea(ctx context.Context, from, to string) error {
	kind, err := d.require(ctx, from)
	if err != nil {
		return err
	}
	if kind != "table" {
		return fmt.Errorf("sqlite: cannot rename %s %q", kind, from)
	}
	if other, err := d.kind(ctx, to); err != nil {
		return err
	} else if other != "" {
		return fmt.Errorf("area %q: %w", to, domain.ErrExists)
	}
	if _, err := d.db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteIdent(from), quoteIdent(to))); err != nil {
		return fmt.Errorf("sqlite: rename area %q: %w", from, err)
	}
	return nil
}

// ClearArea replaces the area with an empty table. A view becomes a table.
func (d *Dataset) ClearArea(ctx context.Context, name string) error {
	kind, err := d.require(ctx, name)
	if err != nil {
		return err
	}
	return d.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, dropSQL(kind, name)); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, emptyTableSQL(name))
		return err
	})
}

func (d *Dataset) DeleteArea(ctx context.Context, name string) error {
	kind, err := d.require(ctx, name)
	if err != nil {
		return err
	}
	areas, err := d.Areas(ctx)
	if err != nil {
		return err
	}
	if len(areas) == 1 {
		return fmt.Errorf("sqlite: cannot delete %q, the only area", name)
	}
	if _, err := d.db.ExecContext(ctx, dropSQL(kind, name)); err != nil {
		return fmt.Errorf("sqlite: delete area %q: %w", name, err)
	}
	return nil
}

// Header returns the area's column names, or nil for an empty area.
func (d *Dataset) Header(ctx context.Context, area string) ([]string, error) {
	if _, err := d.require(ctx, area); err != nil {
		return nil, err
	}
	return d.columns(ctx, area)
}

func (d *Dataset) ReadArea(ctx context.Context, area string) ([][]string, error) {
	kind, err := d.require(ctx, area)
	if err != nil {
		return nil, err
	}
	header, err := d.columns(ctx, area)
	if err != nil || header == nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s", identList(header), quoteIdent(area))
	if kind == "table" {
		query += " ORDER BY " + quoteIdent(rowColumn)
	}
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: read area %q: %w", area, err)
	}
	defer rows.Close()

	out := [][]string{header}
	values := make([]any, len(header))
	ptrs := make([]any, len(header))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlite: scan area %q: %w", area, err)
		}
		cells := make([]string, len(values))
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			cells[i] = domain.CellText(v)
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}

// WriteTable recreates the area table with header as its columns and inserts
// rows, all inside one transaction. Empty strings are stored as NULL.
func (d *Dataset) WriteTable(ctx context.Context, area string, header []string, rows []domain.Row) error {
	kind, err := d.require(ctx, area)
	if err != nil {
		return err
	}
	if len(header) == 0 {
		return errors.New("sqlite: WriteTable: header must not be empty")
	}

	cols := make([]string, 0, len(header)+1)
	cols = append(cols, quoteIdent(rowColumn)+" INTEGER PRIMARY KEY")
	for _, h := range header {
		cols = append(cols, quoteIdent(h))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(header)), ", ")

	return d.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, dropSQL(kind, area)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(area), strings.Join(cols, ", "))); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(area), identList(header), placeholders))
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		args := make([]any, len(header))
		for n, row := range rows {
			if len(row) != len(header) {
				return fmt.Errorf("row %d has %d cells, header has %d", n, len(row), len(header))
			}
			for i, v := range row {
				if s, ok := v.(string); ok && s == "" {
					v = nil
				}
				args[i] = v
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert row %d: %w", n, err)
			}
		}
		return nil
	})
}

// FormatTable is a no-op: SQLite stores values, not presentation.
func (d *Dataset) FormatTable(context.Context, string, domain.TableFormat) error {
	return nil
}

// WriteView replaces the area named q.Name with a SQL view computing q.
func (d *Dataset) WriteView(ctx context.Context, q domain.ViewQuery) error {
	if _, err := d.require(ctx, q.Source); err != nil {
		return err
	}
	kind, err := d.kind(ctx, q.Name)
	if err != nil {
		return err
	}
	return d.inTx(ctx, func(tx *sql.Tx) error {
		if kind != "" {
			if _, err := tx.ExecContext(ctx, dropSQL(kind, q.Name)); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, viewSQL(q))
		return err
	})
}

func (d *Dataset) Close() error {
	return d.db.Close()
}

// kind returns "table", "view", or "" when no area has that name.
func (d *Dataset) kind(ctx context.Context, name string) (string, error) {
	var kind string
	err := d.db.QueryRowContext(ctx,
		`SELECT type FROM sqlite_master WHERE name = ? AND type IN ('table', 'view')`, name).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: look up area %q: %w", name, err)
	}
	return kind, nil
}

func (d *Dataset) require(ctx context.Context, name string) (string, error) {
	kind, err := d.kind(ctx, name)
	if err != nil {
		return "", err
	}
	if kind == "" {
		return "", fmt.Errorf("area %q: %w", name, domain.ErrAreaNotFound)
	}
	return kind, nil
}

func (d *Dataset) columns(ctx context.Context, area string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", area)
	if err != nil {
		return nil, fmt.Errorf("sqlite: columns of %q: %w", area, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		if n != rowColumn {
			names = append(names, n)
		}
	}
	return names, rows.Err()
}

func (d *Dataset) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// viewSQL renders q as a CREATE VIEW statement. NULL never satisfies = or <>,
// matching the null handling of domain.Aggregate.
func viewSQL(q domain.ViewQuery) string {
	g := quoteIdent(q.GroupBy.Name)
	conds := make([]string, 0, len(q.Where)+1)
	for _, c := range q.Where {
		col := quoteIdent(c.Column.Name)
		switch c.Op {
		case domain.OpNotNull:
			conds = append(conds, col+" IS NOT NULL")
		case domain.OpEqual:
			conds = append(conds, col+" = "+quoteLiteral(c.Value))
		case domain.OpNotEqual:
			conds = append(conds, col+" <> "+quoteLiteral(c.Value))
		}
	}
	conds = append(conds, g+" IS NOT NULL")

	return fmt.Sprintf("CREATE VIEW %s AS SELECT %s AS %s, COUNT(*) AS %s FROM %s WHERE %s GROUP BY %s ORDER BY COUNT(*) DESC, %s ASC",
		quoteIdent(q.Name), g, quoteIdent(q.KeyLabel), quoteIdent(q.CountLabel), quoteIdent(q.Source),
		strings.Join(conds, " AND "), g, g)
}

func emptyTableSQL(name string) string {
	return fmt.Sprintf("CREATE TABLE %s (%s INTEGER PRIMARY KEY)", quoteIdent(name), quoteIdent(rowColumn))
}

func dropSQL(kind, name string) string {
	if kind == "view" {
		return "DROP VIEW IF EXISTS " + quoteIdent(name)
	}
	return "DROP TABLE IF EXISTS " + quoteIdent(name)
}

func identList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
