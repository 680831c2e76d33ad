// Package render turns a descriptor's filter into the restricted find and
// count statements a data-access layer would run.
package render

import (
	"fmt"
	"slices"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/querygraft/internal/descriptor"
)

// Var marks a bind argument whose value is supplied at run time by the named
// placeholder.
type Var string

func (v Var) String() string { return "${" + string(v) + "}" }

type Renderer struct {
	qb squirrel.StatementBuilderType
}

// New picks the placeholder format of provider: $1 for PostgreSQL, ? for the
// rest.
func New(provider string) *Renderer {
	var format squirrel.PlaceholderFormat = squirrel.Question
	switch provider {
	case "postgresql", "postgres":
		format = squirrel.Dollar
	}
	return &Renderer{qb: squirrel.StatementBuilder.PlaceholderFormat(format)}
}

func (r *Renderer) where(b squirrel.SelectBuilder, filter descriptor.FilterSpec) squirrel.SelectBuilder {
	columns := make([]string, 0, len(filter.Where))
	for column := range filter.Where {
		columns = append(columns, column)
	}
	slices.Sort(columns)
	for _, column := range columns {
		cond := filter.Where[column]
		var value interface{} = cond.Value
		if cond.IsVariable() {
			value = Var(cond.Variable)
		}
		b = b.Where(squirrel.Eq{column: value})
	}
	return b
}

// Find renders SELECT fields FROM primary WHERE col = ? ... with the
// descriptor's limit, offset and ordering.
func (r *Renderer) Find(d *descriptor.QueryDescriptor) (string, []interface{}, error) {
	filter := d.Filter()

	columns := filter.Fields
	if filter.IncludeAll || len(columns) == 0 {
		columns = []string{"*"}
	}

	b := r.where(r.qb.Select(columns...).From(d.PrimaryTable()), filter)
	if len(filter.GroupBy) > 0 {
		b = b.GroupBy(filter.GroupBy...)
	}
	for _, term := range filter.OrderBy {
		if term.Desc {
			b = b.OrderBy(term.Column + " DESC")
		} else {
			b = b.OrderBy(term.Column)
		}
	}
	if filter.Limit != nil {
		b = b.Limit(uint64(*filter.Limit))
	}
	if filter.Offset != nil {
		b = b.Offset(uint64(*filter.Offset))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to render find query: %w", err)
	}
	return query, args, nil
}

// Count renders SELECT COUNT(*) over the same conditions. Limit and ordering
// do not apply.
func (r *Renderer) Count(d *descriptor.QueryDescriptor) (string, []interface{}, error) {
	b := r.where(r.qb.Select("COUNT(*)").From(d.PrimaryTable()), d.Filter())
	query, args, err := b.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to render count query: %w", err)
	}
	return query, args, nil
}

// Bind replaces every Var in args with its value. Unknown variables are
// reported together.
func Bind(args []interface{}, values map[string]string) ([]interface{}, error) {
	out := make([]interface{}, len(args))
	var missing []string
	for i, arg := range args {
		v, ok := arg.(Var)
		if !ok {
			out[i] = arg
			continue
		}
		value, ok := values[string(v)]
		if !ok {
			missing = append(missing, string(v))
			continue
		}
		out[i] = value
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("no value for variables: %v", missing)
	}
	return out, nil
}
