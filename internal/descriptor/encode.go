package descriptor

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Document is the serialized shape consumed by code generators.
type Document struct {
	Query             string                      `json:"query,omitempty" yaml:"query,omitempty"`
	Tables            []string                    `json:"tables" yaml:"tables"`
	Properties        map[string]PropertyDocument `json:"properties" yaml:"properties"`
	IncludeAll        bool                        `json:"includeAll" yaml:"includeAll"`
	Variables         []string                    `json:"variables" yaml:"variables"`
	Bindings          []VariableBinding           `json:"bindings,omitempty" yaml:"bindings,omitempty"`
	Unbound           []string                    `json:"unbound,omitempty" yaml:"unbound,omitempty"`
	Filter            FilterDocument              `json:"filter" yaml:"filter"`
	HasCountAggregate bool                        `json:"hasCountAggregate" yaml:"hasCountAggregate"`
	Notices           []Notice                    `json:"notices,omitempty" yaml:"notices,omitempty"`
}

type PropertyDocument struct {
	Source            *string `json:"source" yaml:"source"`
	Type              string  `json:"type" yaml:"type"`
	IsAggregate       bool    `json:"isAggregate" yaml:"isAggregate"`
	AggregateFunction *string `json:"aggregateFunction" yaml:"aggregateFunction"`
}

type FilterDocument struct {
	Where   map[string]Condition `json:"where" yaml:"where"`
	Fields  *[]string            `json:"fields,omitempty" yaml:"fields,omitempty"`
	Limit   *int64               `json:"limit,omitempty" yaml:"limit,omitempty"`
	Offset  *int64               `json:"offset,omitempty" yaml:"offset,omitempty"`
	GroupBy []string             `json:"groupBy,omitempty" yaml:"groupBy,omitempty"`
	OrderBy []OrderTerm          `json:"orderBy,omitempty" yaml:"orderBy,omitempty"`
}

// Document converts d into its serialized shape.
func (d *QueryDescriptor) Document() Document {
	props := make(map[string]PropertyDocument, len(d.properties))
	for name, p := range d.properties {
		doc := PropertyDocument{Type: p.Type, IsAggregate: p.IsAggregate}
		if p.Source != "" {
			source := p.Source
			doc.Source = &source
		}
		if p.Function != "" {
			fn := p.Function
			doc.AggregateFunction = &fn
		}
		props[name] = doc
	}

	filter := d.Filter()
	fdoc := FilterDocument{
		Where:   filter.Where,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
		GroupBy: filter.GroupBy,
		OrderBy: filter.OrderBy,
	}
	if !filter.IncludeAll {
		fields := filter.Fields
		if fields == nil {
			fields = []string{}
		}
		fdoc.Fields = &fields
	}

	return Document{
		Query:             d.query,
		Tables:            d.TableNames(),
		Properties:        props,
		IncludeAll:        filter.IncludeAll,
		Variables:         d.Variables(),
		Bindings:          d.Bindings(),
		Unbound:           d.Unbound(),
		Filter:            fdoc,
		HasCountAggregate: d.hasCount,
		Notices:           d.Notices(),
	}
}

// Encode writes v (a descriptor, a Document or any collection of them) in
// the given format, "json" or "yaml".
func Encode(w io.Writer, v any, format string) error {
	if d, ok := v.(*QueryDescriptor); ok {
		v = d.Document()
	}

	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
