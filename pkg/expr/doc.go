// Package expr is the dialect-neutral expression model used by pipeline steps.
//
// An expression is one of three immutable shapes: a Literal value, a ColumnRef
// naming an input column, or a Call applying a named operator to ordered
// arguments. Operator names are plain strings ("+", "==", "sum", "sign") and
// carry no SQL; dialects decide how each one is rendered.
package expr
