// Package adapter provides the database connection contract used to run
// compiled pipelines.
//
// This package contains the public contract that all database adapters must implement.
// Concrete adapter implementations are in pkg/adapters/ subdirectories.
package adapter

import (
	"context"
	"errors"

	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/dialect"
	"github.com/leapstack-labs/leapalg/pkg/frame"
)

type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata
)

// ErrNotConnected is returned by every operation on a handle that has not
// connected or has been closed.
var ErrNotConnected = errors.New("database connection not established")

// InsertOptions controls InsertTable.
type InsertOptions struct {
	// AllowOverwrite drops an existing table of the same name first.
	AllowOverwrite bool
	// Temporary creates a session-scoped table.
	Temporary bool
}

// Adapter defines the interface that all database adapters must implement.
// An adapter holds one database session: temporary tables it creates stay
// visible to the queries it runs.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Execute runs a statement that returns no rows and reports the number
	// of rows affected, or -1 when the driver cannot tell.
	Execute(ctx context.Context, sql string) (int64, error)

	// ReadQuery runs a query and returns its result.
	ReadQuery(ctx context.Context, sql string) (*frame.Frame, error)

	// InsertTable creates a table named name holding the frame's rows.
	InsertTable(ctx context.Context, name string, f *frame.Frame, opts InsertOptions) error

	// TableExists reports whether a table can be read.
	TableExists(ctx context.Context, name string) (bool, error)

	// GetTableMetadata retrieves metadata for a specified table.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)

	// LoadCSV loads data from a CSV file into a table, replacing it.
	LoadCSV(ctx context.Context, tableName string, filePath string) error

	// Dialect returns the SQL dialect pipelines are compiled to.
	Dialect() *dialect.Dialect
}
