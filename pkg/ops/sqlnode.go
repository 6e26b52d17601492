package ops

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapalg/pkg/core"
)

// SQLNode wraps caller-supplied SQL as a pipeline leaf. Its declared columns
// are trusted; the text is not parsed.
type SQLNode struct {
	schema
	text     string
	viewName string
}

// NewSQLNode declares a leaf whose rows come from text.
func NewSQLNode(text string, columns []string, viewName string) (*SQLNode, error) {
	if strings.TrimSpace(text) == "" {
		return nil, core.NewSchemaError(OpSQL, "empty SQL text")
	}
	if viewName == "" {
		return nil, core.NewSchemaError(OpSQL, "empty view name")
	}
	if len(columns) == 0 {
		return nil, core.NewSchemaError(OpSQL, "no columns declared", viewName)
	}
	if err := checkNames(OpSQL, "column", columns); err != nil {
		return nil, err
	}
	return &SQLNode{schema: newSchema(columns), text: text, viewName: viewName}, nil
}

func (s *SQLNode) Op() string      { return OpSQL }
func (s *SQLNode) Sources() []Node { return nil }

// Text returns the wrapped SQL.
func (s *SQLNode) Text() string { return s.text }

// ViewName names the rows this node produces.
func (s *SQLNode) ViewName() string { return s.viewName }

// Key identifies the node among pipeline leaves.
func (s *SQLNode) Key() string { return s.viewName }

func (s *SQLNode) String() string {
	return fmt.Sprintf("SQLNode(%s, [%s])", s.viewName, strings.Join(s.columns, ", "))
}

func (s *SQLNode) withSources([]Node) (Node, error) { return s, nil }
