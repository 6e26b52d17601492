// Package sqlgen compiles an operator pipeline into one SQL query for a
// dialect.
//
// Every operator becomes a query step named step_1, step_2, ... in
// post-order. Steps are assembled either as nested sub-selects or as a
// WITH chain; both forms compute the same result.
package sqlgen

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapalg/pkg/dialect"
	"github.com/leapstack-labs/leapalg/pkg/ops"
)

// Mode selects how query steps are assembled.
type Mode string

const (
	// ModeDefault follows the dialect's preference.
	ModeDefault Mode = ""
	// ModeNested embeds each step as a sub-select in FROM.
	ModeNested Mode = "nested"
	// ModeCTE lists the steps in a WITH clause.
	ModeCTE Mode = "cte"
)

// ParseMode accepts "nested", "cte" or "" (default), case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeDefault, ModeNested, ModeCTE:
		return m, nil
	}
	return "", fmt.Errorf("unknown sql mode %q (want nested or cte)", s)
}

// PlaceholderColumn names the constant column emitted when a step would
// otherwise select nothing.
const PlaceholderColumn = "leapalg_placeholder"

// ErrNilPipeline is returned when Compile is given no node.
var ErrNilPipeline = errors.New("sqlgen: nil pipeline")

// Options controls compilation.
type Options struct {
	Mode   Mode
	Pretty bool
	Logger *slog.Logger
}

// Result is a compiled query.
type Result struct {
	SQL  string
	Mode Mode
	// TempTables lists temporary tables the query reads, sorted. They
	// must exist in the session that runs it.
	TempTables []string
	// Steps is the number of step aliases allocated.
	Steps int
}

// Compile translates root into a single query in dialect d.
func Compile(root ops.Node, d *dialect.Dialect, opts Options) (*Result, error) {
	if root == nil {
		return nil, ErrNilPipeline
	}
	if d == nil {
		return nil, dialect.ErrDialectRequired
	}
	if _, err := ops.Leaves(root); err != nil {
		return nil, err
	}

	mode := opts.Mode
	if mode == ModeDefault {
		mode = ModeNested
		if d.PreferCTE {
			mode = ModeCTE
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &compiler{d: d, mode: mode, l: layout{pretty: opts.Pretty}}
	lines, temps, err := c.compile(root)
	if err != nil {
		return nil, err
	}

	logger.Debug("compiled pipeline",
		slog.String("dialect", d.Name),
		slog.String("mode", string(mode)),
		slog.Int("steps", c.next),
		slog.Int("with_entries", len(c.ctes)),
	)
	return &Result{
		SQL:        c.l.join(lines),
		Mode:       mode,
		TempTables: temps,
		Steps:      c.next,
	}, nil
}

// ToSQL compiles root and returns only the query text.
func ToSQL(root ops.Node, d *dialect.Dialect, opts Options) (string, error) {
	r, err := Compile(root, d, opts)
	if err != nil {
		return "", err
	}
	return r.SQL, nil
}
