package analyzer

import (
	"fmt"

	"github.com/Rana718/querygraft/internal/descriptor"
	"github.com/Rana718/querygraft/internal/placeholder"
	"github.com/Rana718/querygraft/internal/sqlast"
)

type binding struct {
	descriptor.VariableBinding
	qualifier string
}

type whereResult struct {
	conditions map[string]descriptor.Condition
	bindings   []binding
	notices    []error
}

// analyzeWhere walks the where tree depth-first. Only equality leaves with a
// column on the left become conditions; a repeated column keeps the value of
// the last leaf visited.
func analyzeWhere(stmt *sqlast.Statement) whereResult {
	v := &whereVisitor{res: whereResult{conditions: make(map[string]descriptor.Condition)}}
	if stmt.Where != nil {
		v.visit(stmt.Where)
	}
	return v.res
}

type whereVisitor struct {
	res whereResult
}

func (v *whereVisitor) skip(e sqlast.Expr, reason string) {
	v.res.notices = append(v.res.notices, &UnsupportedConstructError{
		Clause:    "where",
		Construct: e.String(),
		Reason:    reason,
	})
}

func (v *whereVisitor) visit(e sqlast.Expr) {
	switch n := e.(type) {
	case sqlast.Comparison:
		switch {
		case n.Op.Logical():
			v.visit(n.Left)
			v.visit(n.Right)
		case n.Op == sqlast.OpEQ:
			v.equality(n)
		default:
			v.skip(n, fmt.Sprintf("only equality conditions are supported, got %s", n.Op))
		}
	case sqlast.ColumnRef, sqlast.Literal, sqlast.Wildcard, sqlast.AggregateCall, sqlast.Unsupported:
		v.skip(n, "not a comparison")
	default:
		v.skip(sqlast.Unsupported{Kind: fmt.Sprintf("%T", e)}, "unknown expression")
	}
}

func (v *whereVisitor) equality(cmp sqlast.Comparison) {
	col, ok := cmp.Left.(sqlast.ColumnRef)
	if !ok {
		v.skip(cmp, "left side of an equality must be a column")
		return
	}

	switch right := cmp.Right.(type) {
	case sqlast.Literal:
		if text, isString := right.Value.(string); isString {
			if name, isVar := placeholder.Match(text); isVar {
				v.res.bindings = append(v.res.bindings, binding{
					VariableBinding: descriptor.VariableBinding{Name: name, Column: col.Name},
					qualifier:       col.Table,
				})
				v.res.conditions[col.Name] = descriptor.VariableCondition(name)
				return
			}
		}
		v.res.conditions[col.Name] = descriptor.LiteralCondition(right.Value)
	case sqlast.ColumnRef, sqlast.Wildcard, sqlast.AggregateCall, sqlast.Comparison, sqlast.Unsupported:
		v.skip(cmp, "right side of an equality must be a literal or a placeholder")
	default:
		v.skip(cmp, "unknown expression")
	}
}
