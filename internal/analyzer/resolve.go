package analyzer

import (
	"context"
	"fmt"
	"slices"

	"github.com/Rana718/querygraft/internal/descriptor"
	"github.com/Rana718/querygraft/internal/metadata"
)

type typeResolver struct {
	lookup metadata.Lookup
	tables tableResolver
	misses []error
}

// columnType classifies table.column through the lookup. A miss is recorded
// and reported as string; an error from the lookup itself is returned as is.
func (r *typeResolver) columnType(ctx context.Context, qualifier, column string) (string, error) {
	if column == "" {
		return descriptor.TypeString, nil
	}
	table := r.tables.resolve(qualifier)
	sqlType, found, err := r.lookup.ColumnType(ctx, table, column)
	if err != nil {
		return "", fmt.Errorf("failed to look up type of %s.%s: %w", table, column, err)
	}
	if !found {
		r.misses = append(r.misses, &LookupMissError{Table: table, Column: column})
		return descriptor.TypeString, nil
	}
	return metadata.Classify(sqlType), nil
}

// resolveTypes fills every unresolved property type. Properties that already
// carry a type, such as COUNT aggregates, are left alone.
func (r *typeResolver) resolveTypes(ctx context.Context, props map[string]projection) (map[string]descriptor.SelectedProperty, error) {
	out := make(map[string]descriptor.SelectedProperty, len(props))
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		p := props[name]
		if p.Type == descriptor.TypeUnresolved {
			typ, err := r.columnType(ctx, p.qualifier, p.Source)
			if err != nil {
				return nil, err
			}
			p.Type = typ
		}
		out[name] = p.SelectedProperty
	}
	return out, nil
}

func (r *typeResolver) resolveBindings(ctx context.Context, bindings []binding) ([]descriptor.VariableBinding, error) {
	out := make([]descriptor.VariableBinding, 0, len(bindings))
	for _, b := range bindings {
		typ, err := r.columnType(ctx, b.qualifier, b.Column)
		if err != nil {
			return nil, err
		}
		b.Type = typ
		out = append(out, b.VariableBinding)
	}
	return out, nil
}
