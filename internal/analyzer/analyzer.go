// Package analyzer turns one SELECT statement with ${name} placeholders into
// a descriptor.QueryDescriptor.
package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rana718/querygraft/internal/descriptor"
	"github.com/Rana718/querygraft/internal/metadata"
	"github.com/Rana718/querygraft/internal/placeholder"
	"github.com/Rana718/querygraft/internal/sqlast"
)

// Analyzer holds the two external collaborators. It keeps no state between
// calls and may be shared by concurrent callers as long as its lookup can.
type Analyzer struct {
	lookup metadata.Lookup
	parser sqlast.Parser
}

type Option func(*Analyzer)

// WithParser replaces the default TiDB-backed statement parser.
func WithParser(p sqlast.Parser) Option {
	return func(a *Analyzer) {
		a.parser = p
	}
}

// New returns an analyzer resolving column types through lookup. A nil
// lookup never finds anything, so every unresolved type becomes string.
func New(lookup metadata.Lookup, opts ...Option) *Analyzer {
	if lookup == nil {
		lookup = metadata.None{}
	}
	a := &Analyzer{lookup: lookup, parser: sqlast.NewParser()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze parses raw and builds its descriptor. Syntax errors, an empty
// table list, lookup failures and unmatched bindings are returned as errors;
// skipped constructs and lookup misses end up in the descriptor's notices.
func (a *Analyzer) Analyze(ctx context.Context, raw string) (*descriptor.QueryDescriptor, error) {
	variables := placeholder.Scan(raw)

	stmt, err := a.parser.Parse(placeholder.Quote(raw))
	if err != nil {
		var syntaxErr *sqlast.SyntaxError
		if errors.As(err, &syntaxErr) {
			syntaxErr.Query = raw
		}
		return nil, err
	}

	tables := extractTables(stmt)
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: %s", descriptor.ErrEmptyTableList, raw)
	}

	where := analyzeWhere(stmt)
	sel := analyzeSelect(stmt)

	resolver := &typeResolver{lookup: a.lookup, tables: newTableResolver(tables)}
	properties, err := resolver.resolveTypes(ctx, sel.properties)
	if err != nil {
		return nil, err
	}
	bindings, err := resolver.resolveBindings(ctx, where.bindings)
	if err != nil {
		return nil, err
	}

	scanned := make(map[string]bool, len(variables))
	for _, name := range variables {
		scanned[name] = true
	}
	bound := make(map[string]bool, len(bindings))
	for _, b := range bindings {
		if !scanned[b.Name] {
			return nil, fmt.Errorf("%w: %s", ErrUnmatchedBinding, b.Name)
		}
		bound[b.Name] = true
	}

	var notices []error
	notices = append(notices, sel.notices...)
	notices = append(notices, where.notices...)
	notices = append(notices, resolver.misses...)

	return descriptor.Build(descriptor.Parts{
		Query:      raw,
		Tables:     tables,
		Properties: properties,
		Variables:  variables,
		Bindings:   bindings,
		Unbound:    placeholder.Unbound(variables, bound),
		Filter: descriptor.FilterSpec{
			Where:      where.conditions,
			Fields:     sel.fields,
			IncludeAll: sel.includeAll,
			Limit:      stmt.Limit,
			Offset:     stmt.Offset,
			GroupBy:    groupColumns(stmt.GroupBy),
			OrderBy:    orderTerms(stmt.OrderBy),
		},
		HasCountAggregate: sel.hasCount,
		Notices:           toNotices(notices),
	})
}

// groupColumns keeps the plain column terms of GROUP BY; other terms have no
// meaning for a filter and are dropped.
func groupColumns(exprs []sqlast.Expr) []string {
	var cols []string
	for _, e := range exprs {
		if col, ok := e.(sqlast.ColumnRef); ok {
			cols = append(cols, col.Name)
		}
	}
	return cols
}

func orderTerms(items []sqlast.OrderItem) []descriptor.OrderTerm {
	var terms []descriptor.OrderTerm
	for _, item := range items {
		if col, ok := item.Expr.(sqlast.ColumnRef); ok {
			terms = append(terms, descriptor.OrderTerm{Column: col.Name, Desc: item.Desc})
		}
	}
	return terms
}
