// Package sqlast adapts an external SQL parser to the small, closed expression
// model the analyzers work with. Nothing outside this package sees the
// parser's own node types.
package sqlast

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/opcode"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"
)

// Parser turns raw SQL text into a Statement.
type Parser interface {
	Parse(sql string) (*Statement, error)
}

// TiDBParser parses MySQL-dialect SQL with the pingcap parser. The zero value
// is ready to use; a fresh pingcap parser is created per call because it
// keeps scanner state between statements.
type TiDBParser struct {
	Charset   string
	Collation string
}

func NewParser() *TiDBParser {
	return &TiDBParser{}
}

func (p *TiDBParser) Parse(sql string) (*Statement, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, &SyntaxError{Query: sql, Reason: "empty query"}
	}

	node, err := parser.New().ParseOneStmt(sql, p.Charset, p.Collation)
	if err != nil {
		return nil, &SyntaxError{Query: sql, Err: err}
	}

	sel, ok := node.(*ast.SelectStmt)
	if !ok {
		return nil, &SyntaxError{Query: sql, Reason: fmt.Sprintf("only SELECT statements are supported, got %s", nodeKind(node))}
	}

	return convertSelect(sql, sel)
}

func convertSelect(sql string, sel *ast.SelectStmt) (*Statement, error) {
	stmt := &Statement{
		Kind:     KindSelect,
		Distinct: sel.Distinct,
	}

	if sel.Fields != nil {
		for _, field := range sel.Fields.Fields {
			if field.WildCard != nil {
				stmt.Columns = append(stmt.Columns, SelectItem{
					Expr: Wildcard{Table: field.WildCard.Table.O},
				})
				continue
			}
			stmt.Columns = append(stmt.Columns, SelectItem{
				Expr:  convertExpr(field.Expr),
				Alias: field.AsName.O,
			})
		}
	}

	if sel.From != nil && sel.From.TableRefs != nil {
		collectTables(sel.From.TableRefs, &stmt.Tables)
	}

	if sel.Where != nil {
		stmt.Where = convertExpr(sel.Where)
	}

	if sel.GroupBy != nil {
		for _, item := range sel.GroupBy.Items {
			stmt.GroupBy = append(stmt.GroupBy, convertExpr(item.Expr))
		}
	}

	if sel.OrderBy != nil {
		for _, item := range sel.OrderBy.Items {
			stmt.OrderBy = append(stmt.OrderBy, OrderItem{Expr: convertExpr(item.Expr), Desc: item.Desc})
		}
	}

	if sel.Limit != nil {
		count, err := limitValue(sel.Limit.Count)
		if err != nil {
			return nil, &SyntaxError{Query: sql, Reason: "LIMIT " + err.Error()}
		}
		stmt.Limit = count

		offset, err := limitValue(sel.Limit.Offset)
		if err != nil {
			return nil, &SyntaxError{Query: sql, Reason: "OFFSET " + err.Error()}
		}
		stmt.Offset = offset
	}

	return stmt, nil
}

func collectTables(node ast.ResultSetNode, out *[]TableRef) {
	switch n := node.(type) {
	case *ast.Join:
		if n.Left != nil {
			collectTables(n.Left, out)
		}
		if n.Right != nil {
			collectTables(n.Right, out)
		}
	case *ast.TableSource:
		switch src := n.Source.(type) {
		case *ast.TableName:
			*out = append(*out, TableRef{Schema: src.Schema.O, Name: src.Name.O, Alias: n.AsName.O})
		case *ast.Join:
			collectTables(src, out)
		}
	case *ast.TableName:
		*out = append(*out, TableRef{Schema: n.Schema.O, Name: n.Name.O})
	}
}

func convertExpr(node ast.ExprNode) Expr {
	switch n := node.(type) {
	case nil:
		return nil
	case *ast.ColumnNameExpr:
		return ColumnRef{Table: n.Name.Table.O, Name: n.Name.Name.O}
	case *ast.ParenthesesExpr:
		return convertExpr(n.Expr)
	case ast.ParamMarkerExpr:
		return Unsupported{Kind: "param marker"}
	case ast.ValueExpr:
		return literalOf(n.GetValue())
	case *ast.UnaryOperationExpr:
		if v, ok := n.V.(ast.ValueExpr); ok && n.Op == opcode.Minus {
			if lit := literalOf(v.GetValue()); lit.Type == PrimitiveNumber {
				return negate(lit)
			}
		}
		return Unsupported{Kind: "unary " + n.Op.String()}
	case *ast.AggregateFuncExpr:
		call := AggregateCall{Func: strings.ToUpper(n.F), Distinct: n.Distinct}
		if len(n.Args) > 0 {
			call.Arg = convertExpr(n.Args[0])
		}
		return call
	case *ast.BinaryOperationExpr:
		return Comparison{
			Left:  convertExpr(n.L),
			Op:    operatorOf(n.Op),
			Right: convertExpr(n.R),
		}
	case *ast.PatternInExpr:
		return Comparison{Left: convertExpr(n.Expr), Op: OpIn, Right: Unsupported{Kind: "value list"}}
	case *ast.IsNullExpr:
		return Comparison{Left: convertExpr(n.Expr), Op: OpIs, Right: Literal{Type: PrimitiveNull}}
	default:
		return Unsupported{Kind: nodeKind(node)}
	}
}

func operatorOf(op opcode.Op) Operator {
	switch op {
	case opcode.EQ:
		return OpEQ
	case opcode.NE:
		return OpNE
	case opcode.LT:
		return OpLT
	case opcode.LE:
		return OpLE
	case opcode.GT:
		return OpGT
	case opcode.GE:
		return OpGE
	case opcode.LogicAnd:
		return OpAnd
	case opcode.LogicOr:
		return OpOr
	case opcode.LogicXor:
		return OpXor
	default:
		return OpOther
	}
}

func literalOf(value any) Literal {
	switch v := value.(type) {
	case nil:
		return Literal{Type: PrimitiveNull}
	case string:
		return Literal{Value: v, Type: PrimitiveString}
	case []byte:
		return Literal{Value: string(v), Type: PrimitiveString}
	case int64:
		return Literal{Value: v, Type: PrimitiveNumber}
	case uint64:
		if v <= math.MaxInt64 {
			return Literal{Value: int64(v), Type: PrimitiveNumber}
		}
		return Literal{Value: v, Type: PrimitiveNumber}
	case float32:
		return Literal{Value: float64(v), Type: PrimitiveNumber}
	case float64:
		return Literal{Value: v, Type: PrimitiveNumber}
	case fmt.Stringer:
		// decimals
		if f, err := strconv.ParseFloat(v.String(), 64); err == nil {
			return Literal{Value: f, Type: PrimitiveNumber}
		}
		return Literal{Value: v.String(), Type: PrimitiveString}
	default:
		return Literal{Value: fmt.Sprint(v), Type: PrimitiveString}
	}
}

func negate(lit Literal) Literal {
	switch v := lit.Value.(type) {
	case int64:
		lit.Value = -v
	case float64:
		lit.Value = -v
	case uint64:
		lit.Value = -float64(v)
	}
	return lit
}

func limitValue(node ast.ExprNode) (*int64, error) {
	if node == nil {
		return nil, nil
	}
	if _, ok := node.(ast.ParamMarkerExpr); ok {
		return nil, fmt.Errorf("must be a constant, got a parameter marker")
	}
	v, ok := node.(ast.ValueExpr)
	if !ok {
		return nil, fmt.Errorf("must be a constant")
	}
	lit := literalOf(v.GetValue())
	n, ok := lit.Value.(int64)
	if !ok || n < 0 {
		return nil, fmt.Errorf("must be a non-negative integer, got %v", lit.Value)
	}
	return &n, nil
}

func nodeKind(node any) string {
	kind := fmt.Sprintf("%T", node)
	kind = strings.TrimPrefix(kind, "*")
	return strings.TrimPrefix(kind, "ast.")
}
