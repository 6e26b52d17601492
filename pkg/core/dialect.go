package core

// NormalizationStrategy defines how identifiers are normalized before quoting.
type NormalizationStrategy int

const (
	// NormCaseSensitive preserves identifier case exactly (default).
	NormCaseSensitive NormalizationStrategy = iota
	// NormLowercase lowers identifiers before quoting (Spark).
	NormLowercase
	// NormUppercase raises identifiers before quoting (Snowflake, Oracle).
	NormUppercase
)

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (DuckDB, MySQL, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// IdentifierConfig defines how identifiers are quoted and normalized.
type IdentifierConfig struct {
	Quote         string                // Quote character: ", `, [
	QuoteEnd      string                // End quote character (usually same as Quote, ] for [)
	Normalization NormalizationStrategy // How to normalize identifiers
}

// JoinKind names a natural join variant.
type JoinKind string

const (
	JoinInner JoinKind = "INNER"
	JoinLeft  JoinKind = "LEFT"
	JoinRight JoinKind = "RIGHT"
	JoinFull  JoinKind = "FULL"
	JoinCross JoinKind = "CROSS"
)

// ParseJoinKind accepts a join kind in any case.
func ParseJoinKind(s string) (JoinKind, bool) {
	switch k := JoinKind(upper(s)); k {
	case JoinInner, JoinLeft, JoinRight, JoinFull, JoinCross:
		return k, true
	}
	return "", false
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
