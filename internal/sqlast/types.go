package sqlast

import "fmt"

// Primitive is the declared type carried by a literal.
type Primitive string

const (
	PrimitiveString Primitive = "string"
	PrimitiveNumber Primitive = "number"
	PrimitiveNull   Primitive = "null"
)

// Operator of a Comparison node. Boolean connectives share the node shape.
type Operator string

const (
	OpEQ    Operator = "="
	OpNE    Operator = "<>"
	OpLT    Operator = "<"
	OpLE    Operator = "<="
	OpGT    Operator = ">"
	OpGE    Operator = ">="
	OpLike  Operator = "LIKE"
	OpIn    Operator = "IN"
	OpIs    Operator = "IS"
	OpAnd   Operator = "AND"
	OpOr    Operator = "OR"
	OpXor   Operator = "XOR"
	OpOther Operator = "?"
)

// Logical reports whether op joins two boolean sub-trees.
func (op Operator) Logical() bool {
	return op == OpAnd || op == OpOr || op == OpXor
}

// Expr is one node of a column or where expression. The set of variants is
// closed: ColumnRef, Wildcard, Literal, AggregateCall, Comparison, Unsupported.
type Expr interface {
	expr()
	String() string
}

type ColumnRef struct {
	Table string
	Name  string
}

type Wildcard struct {
	Table string
}

type Literal struct {
	Value any
	Type  Primitive
}

type AggregateCall struct {
	Func     string // upper-cased, e.g. COUNT
	Arg      Expr   // nil when the call has no argument
	Distinct bool
}

type Comparison struct {
	Left  Expr
	Op    Operator
	Right Expr
}

// Unsupported stands in for any node the analyzers do not interpret
// (scalar functions, subqueries, parameter markers, ...).
type Unsupported struct {
	Kind string
}

func (ColumnRef) expr()     {}
func (Wildcard) expr()      {}
func (Literal) expr()       {}
func (AggregateCall) expr() {}
func (Comparison) expr()    {}
func (Unsupported) expr()   {}

func (c ColumnRef) String() string {
	if c.Table != "" {
		return c.Table + "." + c.Name
	}
	return c.Name
}

func (w Wildcard) String() string {
	if w.Table != "" {
		return w.Table + ".*"
	}
	return "*"
}

func (l Literal) String() string {
	if l.Type == PrimitiveString {
		return fmt.Sprintf("'%v'", l.Value)
	}
	if l.Value == nil {
		return "NULL"
	}
	return fmt.Sprint(l.Value)
}

func (a AggregateCall) String() string {
	arg := "*"
	if a.Arg != nil {
		arg = a.Arg.String()
	}
	if a.Distinct {
		arg = "DISTINCT " + arg
	}
	return a.Func + "(" + arg + ")"
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Op, c.Right)
}

func (u Unsupported) String() string {
	return "<" + u.Kind + ">"
}

// SelectItem is one entry of the select list.
type SelectItem struct {
	Expr  Expr
	Alias string
}

// TableRef is one FROM-clause table.
type TableRef struct {
	Schema string
	Name   string
	Alias  string
}

// OrderItem is one ORDER BY term.
type OrderItem struct {
	Expr Expr
	Desc bool
}

// StatementKind names the statement type; only Select is produced today.
type StatementKind string

const KindSelect StatementKind = "select"

// Statement is the parsed form of a single query, independent of the parser
// that produced it.
type Statement struct {
	Kind     StatementKind
	Distinct bool
	Columns  []SelectItem
	Tables   []TableRef
	Where    Expr // nil when there is no WHERE clause
	GroupBy  []Expr
	OrderBy  []OrderItem
	Limit    *int64
	Offset   *int64
}
