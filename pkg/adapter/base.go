package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/dialect"
	"github.com/leapstack-labs/leapalg/pkg/frame"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Execute, ReadQuery, InsertTable and TableExists implementations.
type BaseSQLAdapter struct {
	DB         *sql.DB
	Cfg        core.AdapterConfig
	Logger     *slog.Logger
	SQLDialect *dialect.Dialect
}

// Attach adopts an opened pool as this adapter's session. The pool is
// limited to one connection so temporary tables stay visible.
func (b *BaseSQLAdapter) Attach(db *sql.DB, cfg core.AdapterConfig) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	b.DB = db
	b.Cfg = cfg
}

// Dialect returns the adapter's SQL dialect.
func (b *BaseSQLAdapter) Dialect() *dialect.Dialect {
	return b.SQLDialect
}

func (b *BaseSQLAdapter) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

// Close closes the database connection. Closing twice is a no-op.
func (b *BaseSQLAdapter) Close() error {
	if b.DB == nil {
		return nil
	}
	b.logger().Debug("closing database connection")
	err := b.DB.Close()
	b.DB = nil
	if err != nil {
		return &core.ConnectionError{Op: "close connection", Err: err}
	}
	return nil
}

// Execute runs a statement that doesn't return rows.
func (b *BaseSQLAdapter) Execute(ctx context.Context, sqlStr string) (int64, error) {
	if b.DB == nil {
		return 0, ErrNotConnected
	}
	b.logger().Debug("executing statement", slog.String("sql", sqlStr))
	res, err := b.DB.ExecContext(ctx, sqlStr)
	if err != nil {
		return 0, &core.ConnectionError{Op: "execute SQL", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return -1, nil
	}
	return n, nil
}

// ReadQuery executes a SQL statement that returns rows.
func (b *BaseSQLAdapter) ReadQuery(ctx context.Context, sqlStr string) (*frame.Frame, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	b.logger().Debug("reading query", slog.String("sql", sqlStr))
	rows, err := b.DB.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, &core.ConnectionError{Op: "execute query", Err: err}
	}
	f, err := frame.Scan(rows)
	if err != nil {
		return nil, &core.ConnectionError{Op: "read query result", Err: err}
	}
	return f, nil
}

// TableExists probes the table with a query that reads no rows.
func (b *BaseSQLAdapter) TableExists(ctx context.Context, name string) (bool, error) {
	if b.DB == nil {
		return false, ErrNotConnected
	}
	q, err := b.SQLDialect.QuoteTable(name, nil)
	if err != nil {
		return false, err
	}
	rows, err := b.DB.QueryContext(ctx, "SELECT 1 FROM "+q+" WHERE 1 = 0")
	if err != nil {
		return false, nil
	}
	_ = rows.Close()
	return true, nil
}

// InsertTable creates a table from a frame. Column types follow the
// frame's inferred value kinds.
func (b *BaseSQLAdapter) InsertTable(ctx context.Context, name string, f *frame.Frame, opts InsertOptions) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	if f == nil || len(f.Columns) == 0 {
		return fmt.Errorf("insert %q: frame has no columns", name)
	}
	d := b.SQLDialect

	exists, err := b.TableExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		if !opts.AllowOverwrite {
			return fmt.Errorf("insert %q: table already exists", name)
		}
		drop, err := d.DropTableSQL(name)
		if err != nil {
			return err
		}
		if _, err := b.Execute(ctx, drop); err != nil {
			return err
		}
	}

	create := d.CreateTableSQL
	if opts.Temporary {
		create = d.CreateTempTableSQL
	}
	createSQL, err := create(name, f.Columns, f.Kinds())
	if err != nil {
		return err
	}
	if _, err := b.Execute(ctx, createSQL); err != nil {
		return err
	}
	insertSQL, err := d.InsertSQL(name, f.Columns)
	if err != nil {
		return err
	}

	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return &core.ConnectionError{Op: "begin transaction", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return &core.ConnectionError{Op: "prepare insert", Err: err}
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range f.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return &core.ConnectionError{Op: fmt.Sprintf("insert row %d into %s", i, name), Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &core.ConnectionError{Op: "commit insert", Err: err}
	}
	b.logger().Debug("inserted table",
		slog.String("table", name),
		slog.Int("rows", f.NumRows()),
		slog.Bool("temporary", opts.Temporary),
	)
	return nil
}

// LoadCSVCommon reads a CSV file into a frame and replaces the table with
// it. Adapters without a native bulk loader use it for LoadCSV.
func (b *BaseSQLAdapter) LoadCSVCommon(ctx context.Context, tableName, filePath string) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	f, err := frame.ReadCSV(filePath)
	if err != nil {
		return err
	}
	if err := b.InsertTable(ctx, tableName, f, InsertOptions{AllowOverwrite: true}); err != nil {
		return fmt.Errorf("failed to load CSV: %w", err)
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// ParseQualifiedName splits a table reference into schema and name.
// Uses the dialect's default schema if not specified.
func ParseQualifiedName(table string, d *dialect.Dialect) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return d.DefaultSchema, table
}

// GetTableMetadataCommon provides a shared implementation of GetTableMetadata.
// Uses information_schema.columns with dialect-appropriate placeholders.
func (b *BaseSQLAdapter) GetTableMetadataCommon(ctx context.Context, table string, schemaOverride string) (*core.TableMetadata, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	d := b.SQLDialect
	schema, tableName := ParseQualifiedName(table, d)
	if schemaOverride != "" && !strings.Contains(table, ".") {
		schema = schemaOverride
	}

	//nolint:gosec // Placeholders are safe - they come from dialect.FormatPlaceholder
	query := fmt.Sprintf(`
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, d.FormatPlaceholder(1), d.FormatPlaceholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var col core.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	_ = rows.Close()
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	return &core.TableMetadata{
		Schema:   schema,
		Name:     tableName,
		Columns:  columns,
		RowCount: b.CountRows(ctx, schema, tableName),
	}, nil
}

// CountRows is best effort; failures report zero.
func (b *BaseSQLAdapter) CountRows(ctx context.Context, schema, table string) int64 {
	var qualifiers map[string]string
	if schema != "" {
		qualifiers = map[string]string{"schema": schema}
	}
	q, err := b.SQLDialect.QuoteTable(table, qualifiers)
	if err != nil {
		return 0
	}
	var n int64
	if err := b.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+q).Scan(&n); err != nil {
		return 0
	}
	return n
}
