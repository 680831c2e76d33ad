// Package descriptor holds the structured description of one analyzed query.
// A QueryDescriptor is built once by Build and never mutated afterwards; all
// accessors hand out copies.
package descriptor

import (
	"errors"
	"maps"
	"slices"
)

// Property types. TypeUnresolved only exists while the analyzer is running.
const (
	TypeString     = "string"
	TypeNumber     = "number"
	TypeUnresolved = "unresolved"
)

// ErrEmptyTableList is returned by Build when the query names no table.
var ErrEmptyTableList = errors.New("query does not reference any table")

type TableReference struct {
	Name  string `json:"name" yaml:"name"`
	Alias string `json:"alias,omitempty" yaml:"alias,omitempty"`
}

// SelectedProperty is one named, typed output column.
type SelectedProperty struct {
	Name        string `json:"-" yaml:"-"`
	Source      string `json:"source" yaml:"source"`
	Type        string `json:"type" yaml:"type"`
	IsAggregate bool   `json:"isAggregate" yaml:"isAggregate"`
	Function    string `json:"aggregateFunction,omitempty" yaml:"aggregateFunction,omitempty"`
}

// VariableBinding links a placeholder to the column it filters on.
type VariableBinding struct {
	Name   string `json:"variable" yaml:"variable"`
	Column string `json:"column" yaml:"column"`
	Type   string `json:"type,omitempty" yaml:"type,omitempty"`
}

// OrderTerm is one ORDER BY column, passed through untouched.
type OrderTerm struct {
	Column string `json:"column" yaml:"column"`
	Desc   bool   `json:"desc,omitempty" yaml:"desc,omitempty"`
}

// FilterSpec is the restricted equality/limit/field contract handed to the
// data-access layer.
type FilterSpec struct {
	Where      map[string]Condition
	Fields     []string
	IncludeAll bool
	Limit      *int64
	Offset     *int64
	GroupBy    []string
	OrderBy    []OrderTerm
}

// Notice is an informational, non-fatal finding recorded during analysis.
type Notice struct {
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

// Parts are the analyzer outputs composed by Build.
type Parts struct {
	Query             string
	Tables            []TableReference
	Properties        map[string]SelectedProperty
	Variables         []string
	Bindings          []VariableBinding
	Unbound           []string
	Filter            FilterSpec
	HasCountAggregate bool
	Notices           []Notice
}

// QueryDescriptor is the immutable aggregate root.
type QueryDescriptor struct {
	query      string
	tables     []TableReference
	properties map[string]SelectedProperty
	variables  []string
	bindings   []VariableBinding
	unbound    []string
	filter     FilterSpec
	hasCount   bool
	notices    []Notice
}

// Build composes the analyzer outputs. It only checks that at least one table
// is present; every other invariant belongs to the component producing it.
func Build(p Parts) (*QueryDescriptor, error) {
	if len(p.Tables) == 0 {
		return nil, ErrEmptyTableList
	}

	props := make(map[string]SelectedProperty, len(p.Properties))
	for name, prop := range p.Properties {
		prop.Name = name
		props[name] = prop
	}

	variables := slices.Clone(p.Variables)
	if variables == nil {
		variables = []string{}
	}

	return &QueryDescriptor{
		query:      p.Query,
		tables:     slices.Clone(p.Tables),
		properties: props,
		variables:  variables,
		bindings:   slices.Clone(p.Bindings),
		unbound:    slices.Clone(p.Unbound),
		filter:     p.Filter.clone(),
		hasCount:   p.HasCountAggregate,
		notices:    slices.Clone(p.Notices),
	}, nil
}

func (f FilterSpec) clone() FilterSpec {
	out := FilterSpec{
		Where:      maps.Clone(f.Where),
		Fields:     slices.Clone(f.Fields),
		IncludeAll: f.IncludeAll,
		GroupBy:    slices.Clone(f.GroupBy),
		OrderBy:    slices.Clone(f.OrderBy),
	}
	if out.Where == nil {
		out.Where = map[string]Condition{}
	}
	if out.IncludeAll {
		out.Fields = nil
	}
	if f.Limit != nil {
		limit := *f.Limit
		out.Limit = &limit
	}
	if f.Offset != nil {
		offset := *f.Offset
		out.Offset = &offset
	}
	return out
}

func (d *QueryDescriptor) Query() string { return d.query }

func (d *QueryDescriptor) Tables() []TableReference { return slices.Clone(d.tables) }

// TableNames returns the table names in FROM order.
func (d *QueryDescriptor) TableNames() []string {
	names := make([]string, len(d.tables))
	for i, t := range d.tables {
		names[i] = t.Name
	}
	return names
}

// PrimaryTable is the first FROM-clause table.
func (d *QueryDescriptor) PrimaryTable() string { return d.tables[0].Name }

func (d *QueryDescriptor) Properties() map[string]SelectedProperty { return maps.Clone(d.properties) }

func (d *QueryDescriptor) Property(name string) (SelectedProperty, bool) {
	p, ok := d.properties[name]
	return p, ok
}

// PropertyNames returns the property names sorted.
func (d *QueryDescriptor) PropertyNames() []string {
	var names []string
	for name := range d.properties {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (d *QueryDescriptor) Variables() []string { return slices.Clone(d.variables) }

func (d *QueryDescriptor) Bindings() []VariableBinding { return slices.Clone(d.bindings) }

// Unbound lists placeholders that appear in the text but filter no column.
func (d *QueryDescriptor) Unbound() []string { return slices.Clone(d.unbound) }

func (d *QueryDescriptor) Filter() FilterSpec { return d.filter.clone() }

func (d *QueryDescriptor) IncludeAll() bool { return d.filter.IncludeAll }

func (d *QueryDescriptor) HasCountAggregate() bool { return d.hasCount }

func (d *QueryDescriptor) Notices() []Notice { return slices.Clone(d.notices) }
