package analyzer

import (
	"fmt"

	"github.com/Rana718/querygraft/internal/descriptor"
	"github.com/Rana718/querygraft/internal/sqlast"
)

type projection struct {
	descriptor.SelectedProperty
	qualifier string
}

type selectResult struct {
	properties map[string]projection
	fields     []string
	includeAll bool
	hasCount   bool
	notices    []error
}

// analyzeSelect walks the select list in order. A wildcard anywhere wins:
// the field list is dropped along with every non-aggregate property, whether
// it was listed before or after the wildcard.
func analyzeSelect(stmt *sqlast.Statement) selectResult {
	res := selectResult{properties: make(map[string]projection)}

	for _, item := range stmt.Columns {
		switch e := item.Expr.(type) {
		case sqlast.Wildcard:
			res.includeAll = true

		case sqlast.ColumnRef:
			name := e.Name
			if item.Alias != "" {
				name = item.Alias
			}
			res.properties[name] = projection{
				SelectedProperty: descriptor.SelectedProperty{
					Name:   name,
					Source: e.Name,
					Type:   descriptor.TypeUnresolved,
				},
				qualifier: e.Table,
			}
			res.fields = append(res.fields, e.Name)

		case sqlast.AggregateCall:
			name := e.Func
			if item.Alias != "" {
				name = item.Alias
			}
			p := projection{SelectedProperty: descriptor.SelectedProperty{
				Name:        name,
				Type:        descriptor.TypeUnresolved,
				IsAggregate: true,
				Function:    e.Func,
			}}
			if col, ok := aggregateColumn(e.Arg); ok {
				p.Source = col.Name
				p.qualifier = col.Table
			}
			if e.Func == "COUNT" {
				p.Type = descriptor.TypeNumber
				res.hasCount = true
			}
			res.properties[name] = p

		case sqlast.Literal:
			if item.Alias == "" {
				res.notices = append(res.notices, unsupportedProjection(e, "literal without an alias"))
				continue
			}
			typ := descriptor.TypeUnresolved
			switch e.Type {
			case sqlast.PrimitiveString:
				typ = descriptor.TypeString
			case sqlast.PrimitiveNumber:
				typ = descriptor.TypeNumber
			}
			res.properties[item.Alias] = projection{SelectedProperty: descriptor.SelectedProperty{
				Name: item.Alias,
				Type: typ,
			}}

		case sqlast.Comparison, sqlast.Unsupported:
			res.notices = append(res.notices, unsupportedProjection(e, "unsupported projection shape"))

		default:
			res.notices = append(res.notices, unsupportedProjection(sqlast.Unsupported{Kind: fmt.Sprintf("%T", e)}, "unknown expression"))
		}
	}

	if res.includeAll {
		res.fields = nil
		for name, p := range res.properties {
			if !p.IsAggregate {
				delete(res.properties, name)
			}
		}
	}
	return res
}

// aggregateColumn finds the column an aggregate is scoped to: COUNT(col) or
// the left column of COUNT(col = ...).
func aggregateColumn(arg sqlast.Expr) (sqlast.ColumnRef, bool) {
	switch a := arg.(type) {
	case sqlast.ColumnRef:
		return a, true
	case sqlast.Comparison:
		if col, ok := a.Left.(sqlast.ColumnRef); ok {
			return col, true
		}
	}
	return sqlast.ColumnRef{}, false
}

func unsupportedProjection(e sqlast.Expr, reason string) error {
	return &UnsupportedConstructError{Clause: "select", Construct: e.String(), Reason: reason}
}
