package ops

import "strings"

// Format renders the pipeline as an indented operator listing, leaf first:
//
//	Table(d, [x])
//	  .Extend({z: x + 1})
//	  .NaturalJoin(by=[x], kind=INNER,
//	    Table(e, [x, y])
//	  )
func Format(root Node) string {
	type task struct {
		line   string
		chain  Node
		indent string
	}
	var b strings.Builder
	stack := []task{{chain: root}}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if t.chain == nil {
			b.WriteString(t.indent + t.line + "\n")
			continue
		}
		// Walk the first-source spine down to its leaf.
		var spine []Node
		for n := t.chain; n != nil; {
			spine = append(spine, n)
			src := n.Sources()
			if len(src) == 0 {
				break
			}
			n = src[0]
		}
		// Queue lines in reverse so the leaf prints first.
		var pending []task
		for i := len(spine) - 1; i >= 0; i-- {
			n := spine[i]
			if i == len(spine)-1 {
				pending = append(pending, task{line: n.String(), indent: t.indent})
				continue
			}
			step := t.indent + "  "
			src := n.Sources()
			if len(src) < 2 {
				pending = append(pending, task{line: "." + n.String(), indent: step})
				continue
			}
			head := strings.TrimSuffix(n.String(), ")")
			if !strings.HasSuffix(head, "(") {
				head += ","
			}
			pending = append(pending,
				task{line: "." + head, indent: step},
				task{chain: src[1], indent: step + "  "},
				task{line: ")", indent: step},
			)
		}
		for i := len(pending) - 1; i >= 0; i-- {
			stack = append(stack, pending[i])
		}
	}
	return b.String()
}
