// Package core defines the shared language of the leapalg system.
//
// This package contains:
//   - Error types raised across packages (SchemaError, DialectError, ConnectionError)
//   - Dialect configuration data (IdentifierConfig, PlaceholderStyle)
//   - Connection configuration (AdapterConfig, TargetConfig, TableMetadata)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
