package sqlgen

import "strings"

const indentSize = 2

// block is rendered SQL as lines. A line may itself contain newlines taken
// from literals or raw SQL text; those are never re-indented.
type block []string

// layout decides how blocks are joined: one line with single spaces, or
// one clause per line with nested parts indented.
type layout struct {
	pretty bool
}

func (l layout) indent(b block) block {
	if !l.pretty {
		return b
	}
	pad := strings.Repeat(" ", indentSize)
	out := make(block, len(b))
	for i, line := range b {
		out[i] = pad + line
	}
	return out
}

// clause renders a keyword followed by its (indented) body.
func (l layout) clause(keyword string, body block) block {
	out := block{keyword}
	return append(out, l.indent(body)...)
}

// list renders comma separated items, one per line when pretty.
func (l layout) list(items []string) block {
	out := make(block, len(items))
	for i, item := range items {
		if i < len(items)-1 {
			item += ","
		}
		out[i] = item
	}
	return out
}

// paren wraps a body in parentheses with a trailing suffix, e.g. an alias.
func (l layout) paren(body block, suffix string) block {
	out := block{"("}
	out = append(out, l.indent(body)...)
	return append(out, ")"+suffix)
}

func (l layout) join(b block) string {
	if l.pretty {
		return strings.Join(b, "\n")
	}
	return strings.Join(b, " ")
}

// concat joins blocks into one.
func concat(parts ...block) block {
	var out block
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
