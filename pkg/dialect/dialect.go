// Package dialect describes how a SQL database spells identifiers, literals
// and operators.
//
// A Dialect is an immutable policy value built with NewDialect(...).Build()
// and registered by name. Concrete dialects live in pkg/dialects and register
// themselves from init().
package dialect

import (
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/expr"
)

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name        string
	Identifiers core.IdentifierConfig

	// StringQuote delimits string literals. Embedded quotes are doubled
	// unless the dialect sets an escaper.
	StringQuote string

	// Database-specific settings
	DefaultSchema string                // Default schema name ("main" for DuckDB, "public" for Postgres)
	Placeholder   core.PlaceholderStyle // How to format query parameters

	// PreferCTE selects WITH-chain output when the caller does not choose.
	PreferCTE bool

	escapeString func(string) string
	formatters   map[string]Formatter
	unsupported  map[string]struct{}
	noWindow     map[string]struct{}
	noJoins      map[core.JoinKind]struct{}
	typeNames    map[expr.Kind]string
}

// qualifierOrder fixes the position of well-known qualifiers in a dotted name.
var qualifierOrder = []string{"catalog", "project", "database", "dataset", "schema"}

// NormalizeName applies the dialect's identifier normalization.
func (d *Dialect) NormalizeName(name string) string {
	switch d.Identifiers.Normalization {
	case core.NormLowercase:
		return strings.ToLower(name)
	case core.NormUppercase:
		return strings.ToUpper(name)
	default:
		return name
	}
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
// Names containing a quote character are rejected rather than escaped.
func (d *Dialect) QuoteIdentifier(name string) (string, error) {
	if name == "" {
		return "", d.errorf(name, "empty identifier")
	}
	if strings.Contains(name, d.Identifiers.Quote) || strings.Contains(name, d.Identifiers.QuoteEnd) {
		return "", d.errorf(name, "identifier contains a quote character")
	}
	return d.Identifiers.Quote + d.NormalizeName(name) + d.Identifiers.QuoteEnd, nil
}

// QuoteIdentifiers quotes each name.
func (d *Dialect) QuoteIdentifiers(names []string) ([]string, error) {
	out := make([]string, len(names))
	for i, n := range names {
		q, err := d.QuoteIdentifier(n)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

// QuoteTable renders a possibly qualified table name, e.g. "s"."d".
func (d *Dialect) QuoteTable(name string, qualifiers map[string]string) (string, error) {
	var parts []string
	seen := make(map[string]bool, len(qualifiers))
	for _, k := range qualifierOrder {
		if v, ok := qualifiers[k]; ok {
			parts = append(parts, v)
			seen[k] = true
		}
	}
	var rest []string
	for k := range qualifiers {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		parts = append(parts, qualifiers[k])
	}
	parts = append(parts, name)
	quoted, err := d.QuoteIdentifiers(parts)
	if err != nil {
		return "", err
	}
	return strings.Join(quoted, "."), nil
}

// QuoteString renders a string literal.
func (d *Dialect) QuoteString(s string) string {
	q := d.StringQuote
	if d.escapeString != nil {
		return q + d.escapeString(s) + q
	}
	return q + strings.ReplaceAll(s, q, q+q) + q
}

// BackslashEscaper escapes backslashes and single quotes with a backslash,
// for databases that read backslash sequences inside string literals.
func BackslashEscaper(s string) string {
	return backslashReplacer.Replace(s)
}

var backslashReplacer = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// QuoteLiteral renders a literal value.
func (d *Dialect) QuoteLiteral(l *expr.Literal) string {
	switch v := l.Value().(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return expr.FormatFloat(v)
	case string:
		return d.QuoteString(v)
	}
	return l.String()
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
// Returns "?" for PlaceholderQuestion style, "$1", "$2" etc. for PlaceholderDollar style.
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case core.PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// SupportsJoin reports whether the dialect can express a join kind.
func (d *Dialect) SupportsJoin(kind core.JoinKind) bool {
	_, no := d.noJoins[kind]
	return !no
}

// JoinKeyword returns the SQL keyword sequence for a join kind.
func (d *Dialect) JoinKeyword(kind core.JoinKind) (string, error) {
	if !d.SupportsJoin(kind) {
		return "", d.errorf(string(kind), "unsupported join kind")
	}
	return string(kind) + " JOIN", nil
}

// TypeName returns the column type used when creating tables for values of kind.
func (d *Dialect) TypeName(kind expr.Kind) string {
	if t, ok := d.typeNames[kind]; ok {
		return t
	}
	if kind == expr.KindNull {
		return d.TypeName(expr.KindString)
	}
	return defaultTypeNames[kind]
}

var defaultTypeNames = map[expr.Kind]string{
	expr.KindBool:    "BOOLEAN",
	expr.KindInt:     "BIGINT",
	expr.KindFloat:   "DOUBLE PRECISION",
	expr.KindString:  "VARCHAR",
	expr.KindDecimal: "DECIMAL(38, 10)",
}

// DropTableSQL returns a statement removing a table if it exists.
func (d *Dialect) DropTableSQL(table string) (string, error) {
	q, err := d.QuoteIdentifier(table)
	if err != nil {
		return "", err
	}
	return "DROP TABLE IF EXISTS " + q, nil
}

// CreateTableSQL returns a CREATE TABLE statement for columns of the given kinds.
func (d *Dialect) CreateTableSQL(table string, columns []string, kinds []expr.Kind) (string, error) {
	return d.createTable("CREATE TABLE ", table, columns, kinds)
}

// CreateTempTableSQL is CreateTableSQL for a session-scoped table.
func (d *Dialect) CreateTempTableSQL(table string, columns []string, kinds []expr.Kind) (string, error) {
	return d.createTable("CREATE TEMPORARY TABLE ", table, columns, kinds)
}

func (d *Dialect) createTable(prefix, table string, columns []string, kinds []expr.Kind) (string, error) {
	q, err := d.QuoteIdentifier(table)
	if err != nil {
		return "", err
	}
	cols, err := d.QuoteIdentifiers(columns)
	if err != nil {
		return "", err
	}
	defs := make([]string, len(cols))
	for i, c := range cols {
		kind := expr.KindString
		if i < len(kinds) {
			kind = kinds[i]
		}
		defs[i] = c + " " + d.TypeName(kind)
	}
	return prefix + q + " (" + strings.Join(defs, ", ") + ")", nil
}

// InsertSQL returns a parameterized single-row INSERT statement.
func (d *Dialect) InsertSQL(table string, columns []string) (string, error) {
	q, err := d.QuoteIdentifier(table)
	if err != nil {
		return "", err
	}
	cols, err := d.QuoteIdentifiers(columns)
	if err != nil {
		return "", err
	}
	params := make([]string, len(cols))
	for i := range params {
		params[i] = d.FormatPlaceholder(i + 1)
	}
	return "INSERT INTO " + q + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(params, ", ") + ")", nil
}

func (d *Dialect) errorf(entity, msg string) *core.DialectError {
	return &core.DialectError{Dialect: d.Name, Entity: entity, Msg: msg}
}

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect creates a new dialect builder with the given name.
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			Name: name,
			Identifiers: core.IdentifierConfig{
				Quote:         `"`,
				QuoteEnd:      `"`,
				Normalization: core.NormCaseSensitive,
			},
			StringQuote: "'",
			formatters:  make(map[string]Formatter),
			unsupported: make(map[string]struct{}),
			noWindow:    make(map[string]struct{}),
			noJoins:     make(map[core.JoinKind]struct{}),
			typeNames:   make(map[expr.Kind]string),
		},
	}
}

// Identifiers configures identifier quoting and normalization.
func (b *Builder) Identifiers(quote, quoteEnd string, norm core.NormalizationStrategy) *Builder {
	b.dialect.Identifiers = core.IdentifierConfig{
		Quote:         quote,
		QuoteEnd:      quoteEnd,
		Normalization: norm,
	}
	return b
}

// StringQuote sets the string literal delimiter.
func (b *Builder) StringQuote(q string) *Builder {
	b.dialect.StringQuote = q
	return b
}

// StringEscaper replaces quote doubling in string literals with fn.
func (b *Builder) StringEscaper(fn func(string) string) *Builder {
	b.dialect.escapeString = fn
	return b
}

// DefaultSchema sets the default schema name.
func (b *Builder) DefaultSchema(schema string) *Builder {
	b.dialect.DefaultSchema = schema
	return b
}

// PlaceholderStyle sets how query parameters are formatted.
func (b *Builder) PlaceholderStyle(style core.PlaceholderStyle) *Builder {
	b.dialect.Placeholder = style
	return b
}

// PreferCTE makes WITH chains the default output shape.
func (b *Builder) PreferCTE() *Builder {
	b.dialect.PreferCTE = true
	return b
}

// Formatter overrides how an operator is rendered.
func (b *Builder) Formatter(op string, f Formatter) *Builder {
	b.dialect.formatters[op] = f
	return b
}

// Unsupported marks operators the dialect cannot render.
func (b *Builder) Unsupported(ops ...string) *Builder {
	for _, op := range ops {
		b.dialect.unsupported[op] = struct{}{}
	}
	return b
}

// NoWindow marks reductions the dialect cannot evaluate over a window.
func (b *Builder) NoWindow(ops ...string) *Builder {
	for _, op := range ops {
		b.dialect.noWindow[op] = struct{}{}
	}
	return b
}

// UnsupportedJoins marks join kinds the dialect cannot express.
func (b *Builder) UnsupportedJoins(kinds ...core.JoinKind) *Builder {
	for _, k := range kinds {
		b.dialect.noJoins[k] = struct{}{}
	}
	return b
}

// TypeName overrides the column type used for a value kind.
func (b *Builder) TypeName(kind expr.Kind, name string) *Builder {
	b.dialect.typeNames[kind] = name
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}
