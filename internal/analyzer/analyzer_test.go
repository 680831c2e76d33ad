package analyzer

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/Rana718/querygraft/internal/descriptor"
	"github.com/Rana718/querygraft/internal/metadata"
	"github.com/Rana718/querygraft/internal/sqlast"
)

var clinicTypes = map[string]string{
	"doctor.id":           "INTEGER",
	"doctor.name":         "VARCHAR(255)",
	"doctor.age":          "SMALLINT",
	"employees.salary":    "DECIMAL(10, 2)",
	"employees.name":      "TEXT",
	"employees.dept_id":   "BIGINT",
	"employees.reportsTo": "INTEGER",
	"dept.title":          "TEXT",
}

func clinicLookup() metadata.Lookup {
	return metadata.LookupFunc(func(ctx context.Context, table, column string) (string, bool, error) {
		typ, ok := clinicTypes[table+"."+column]
		return typ, ok, nil
	})
}

func analyze(t *testing.T, query string) *descriptor.QueryDescriptor {
	t.Helper()
	d, err := New(clinicLookup()).Analyze(context.Background(), query)
	if err != nil {
		t.Fatalf("Analyze(%q) failed: %v", query, err)
	}
	return d
}

func TestAnalyzeLiteralEquality(t *testing.T) {
	d := analyze(t, "select id, name from doctor where id = 1")

	if got := d.TableNames(); !reflect.DeepEqual(got, []string{"doctor"}) {
		t.Errorf("tables = %v", got)
	}
	if got := d.PropertyNames(); !reflect.DeepEqual(got, []string{"id", "name"}) {
		t.Errorf("properties = %v", got)
	}
	if p, _ := d.Property("id"); p.Type != descriptor.TypeNumber || p.Source != "id" {
		t.Errorf("id property = %+v", p)
	}
	if p, _ := d.Property("name"); p.Type != descriptor.TypeString {
		t.Errorf("name property = %+v", p)
	}

	where := d.Filter().Where
	if len(where) != 1 || where["id"].Raw() != int64(1) || where["id"].IsVariable() {
		t.Errorf("where = %v", where)
	}
	if vars := d.Variables(); vars == nil || len(vars) != 0 {
		t.Errorf("variables = %#v, want empty", vars)
	}
	if got := d.Filter().Fields; !reflect.DeepEqual(got, []string{"id", "name"}) {
		t.Errorf("fields = %v", got)
	}
}

func TestAnalyzePlaceholderBinding(t *testing.T) {
	d := analyze(t, "select id, name from doctor where id = ${doctorId}")

	if got := d.Variables(); !reflect.DeepEqual(got, []string{"doctorId"}) {
		t.Errorf("variables = %v", got)
	}
	cond := d.Filter().Where["id"]
	if !cond.IsVariable() || cond.Variable != "doctorId" {
		t.Errorf("where[id] = %#v", cond)
	}
	want := []descriptor.VariableBinding{{Name: "doctorId", Column: "id", Type: descriptor.TypeNumber}}
	if got := d.Bindings(); !reflect.DeepEqual(got, want) {
		t.Errorf("bindings = %#v, want %#v", got, want)
	}
	if len(d.Unbound()) != 0 {
		t.Errorf("unexpected unbound variables %v", d.Unbound())
	}
}

func TestAnalyzeWildcardWithLimit(t *testing.T) {
	d := analyze(t, "select * from doctor limit 10")

	if !d.IncludeAll() {
		t.Error("expected includeAll")
	}
	f := d.Filter()
	if f.Fields != nil {
		t.Errorf("fields = %v, want absent", f.Fields)
	}
	if f.Limit == nil || *f.Limit != 10 {
		t.Errorf("limit = %v", f.Limit)
	}
	if len(d.Properties()) != 0 {
		t.Errorf("properties = %v", d.Properties())
	}
}

func TestAnalyzeCountAggregate(t *testing.T) {
	d := analyze(t, "select count(*) as total from doctor")

	if !d.HasCountAggregate() {
		t.Error("expected hasCountAggregate")
	}
	p, ok := d.Property("total")
	if !ok {
		t.Fatalf("missing total property in %v", d.PropertyNames())
	}
	if p.Type != descriptor.TypeNumber || !p.IsAggregate || p.Function != "COUNT" || p.Source != "" {
		t.Errorf("total = %+v", p)
	}
}

func TestAnalyzeWildcardPosition(t *testing.T) {
	tests := []string{
		"select id, * from doctor",
		"select *, id from doctor",
		"select name, *, id from doctor",
	}
	for _, query := range tests {
		d := analyze(t, query)
		if !d.IncludeAll() || d.Filter().Fields != nil {
			t.Errorf("%q: includeAll=%v fields=%v", query, d.IncludeAll(), d.Filter().Fields)
		}
		if len(d.Properties()) != 0 {
			t.Errorf("%q: properties = %v", query, d.PropertyNames())
		}
	}

	d := analyze(t, "select *, count(id) as n from doctor")
	if _, ok := d.Property("n"); !ok || !d.HasCountAggregate() {
		t.Errorf("aggregate dropped next to wildcard: %v", d.PropertyNames())
	}
}

func TestAnalyzeWhereLastWriteWins(t *testing.T) {
	d := analyze(t, "select id from doctor where id = 1 and (name = 'x' or id = 2)")

	where := d.Filter().Where
	if where["id"].Raw() != int64(2) {
		t.Errorf("where[id] = %v, want 2", where["id"])
	}
	if where["name"].Raw() != "x" {
		t.Errorf("where[name] = %v", where["name"])
	}
}

func TestAnalyzeSkipsNonEquality(t *testing.T) {
	d := analyze(t, "select id from doctor where age > 30 and id = ${id} and name like 'a%'")

	where := d.Filter().Where
	if len(where) != 1 || !where["id"].IsVariable() {
		t.Errorf("where = %v", where)
	}

	var unsupported int
	for _, n := range d.Notices() {
		if n.Kind == "unsupported" && strings.HasPrefix(n.Message, "where:") {
			unsupported++
		}
	}
	if unsupported != 2 {
		t.Errorf("expected 2 where notices, got %v", d.Notices())
	}
}

func TestAnalyzeAggregateTypedThroughLookup(t *testing.T) {
	schema := metadata.NewSchemaLookup([]*metadata.Table{{
		Name: "employees",
		Columns: []metadata.Column{
			{Name: "salary", Type: "DECIMAL(10, 2)"},
			{Name: "name", Type: "TEXT"},
		},
	}})

	d, err := New(schema).Analyze(context.Background(), "select sum(salary) as total, max(name) from employees")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	total, _ := d.Property("total")
	if total.Type != descriptor.TypeNumber || total.Source != "salary" || total.Function != "SUM" {
		t.Errorf("total = %+v", total)
	}
	max, ok := d.Property("MAX")
	if !ok || max.Type != descriptor.TypeString {
		t.Errorf("MAX = %+v, %v", max, ok)
	}
	if d.HasCountAggregate() {
		t.Error("SUM and MAX are not counts")
	}
}

func TestAnalyzeResolvesQualifiedColumns(t *testing.T) {
	d := analyze(t, "select e.name, d.title from employees e join dept d on e.dept_id = d.id where d.title = ${title}")

	if p, _ := d.Property("title"); p.Type != descriptor.TypeString {
		t.Errorf("title = %+v", p)
	}
	if got := d.TableNames(); !reflect.DeepEqual(got, []string{"employees", "dept"}) {
		t.Errorf("tables = %v", got)
	}
	for _, n := range d.Notices() {
		if n.Kind == "lookup-miss" {
			t.Errorf("unexpected miss: %s", n.Message)
		}
	}
}

func TestAnalyzeLookupMissDefaultsToString(t *testing.T) {
	d := analyze(t, "select nickname from doctor")

	p, _ := d.Property("nickname")
	if p.Type != descriptor.TypeString {
		t.Errorf("nickname = %+v", p)
	}
	notices := d.Notices()
	if len(notices) != 1 || notices[0].Kind != "lookup-miss" {
		t.Errorf("notices = %v", notices)
	}
}

func TestAnalyzeVariables(t *testing.T) {
	d := analyze(t, "select id from doctor where id = ${a} and name = ${b} and age = ${a}")

	if got := d.Variables(); !reflect.DeepEqual(got, []string{"a", "b", "a"}) {
		t.Errorf("variables = %v", got)
	}
	if len(d.Bindings()) != 3 {
		t.Errorf("bindings = %v", d.Bindings())
	}

	d = analyze(t, "select id from doctor where id = ${id} and age > ${minAge}")
	if got := d.Unbound(); !reflect.DeepEqual(got, []string{"minAge"}) {
		t.Errorf("unbound = %v", got)
	}
}

func TestAnalyzeAliases(t *testing.T) {
	d := analyze(t, "select name as fullName, 'active' as status, 42 as answer, upper(name) from doctor")

	tests := map[string]descriptor.SelectedProperty{
		"fullName": {Name: "fullName", Source: "name", Type: descriptor.TypeString},
		"status":   {Name: "status", Type: descriptor.TypeString},
		"answer":   {Name: "answer", Type: descriptor.TypeNumber},
	}
	for name, want := range tests {
		got, ok := d.Property(name)
		if !ok || !reflect.DeepEqual(got, want) {
			t.Errorf("property %s = %+v, want %+v", name, got, want)
		}
	}
	if len(d.Properties()) != 3 {
		t.Errorf("properties = %v", d.PropertyNames())
	}
	if got := d.Filter().Fields; !reflect.DeepEqual(got, []string{"name"}) {
		t.Errorf("fields = %v", got)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	a := New(clinicLookup())
	ctx := context.Background()

	_, err := a.Analyze(ctx, "select from where")
	var syntaxErr *sqlast.SyntaxError
	if !errors.As(err, &syntaxErr) || syntaxErr.Query != "select from where" {
		t.Errorf("expected syntax error carrying the query, got %v", err)
	}

	if _, err := a.Analyze(ctx, "delete from doctor where id = ${id}"); !errors.As(err, &syntaxErr) {
		t.Errorf("expected syntax error for DELETE, got %v", err)
	}

	if _, err := a.Analyze(ctx, "select 1"); !errors.Is(err, descriptor.ErrEmptyTableList) {
		t.Errorf("expected ErrEmptyTableList, got %v", err)
	}

	boom := errors.New("connection reset")
	failing := New(metadata.LookupFunc(func(context.Context, string, string) (string, bool, error) {
		return "", false, boom
	}))
	if _, err := failing.Analyze(ctx, "select id from doctor"); !errors.Is(err, boom) {
		t.Errorf("expected lookup error, got %v", err)
	}
}

type stubParser struct {
	stmt *sqlast.Statement
}

func (p stubParser) Parse(string) (*sqlast.Statement, error) { return p.stmt, nil }

func TestAnalyzeUnmatchedBinding(t *testing.T) {
	stmt := &sqlast.Statement{
		Kind:    sqlast.KindSelect,
		Columns: []sqlast.SelectItem{{Expr: sqlast.Wildcard{}}},
		Tables:  []sqlast.TableRef{{Name: "doctor"}},
		Where: sqlast.Comparison{
			Left:  sqlast.ColumnRef{Name: "id"},
			Op:    sqlast.OpEQ,
			Right: sqlast.Literal{Value: "${ghost}", Type: sqlast.PrimitiveString},
		},
	}

	a := New(nil, WithParser(stubParser{stmt: stmt}))
	if _, err := a.Analyze(context.Background(), "select * from doctor"); !errors.Is(err, ErrUnmatchedBinding) {
		t.Errorf("expected ErrUnmatchedBinding, got %v", err)
	}
}

func TestAnalyzeQuotedPlaceholderStaysLiteral(t *testing.T) {
	d := analyze(t, "select id from doctor where name = 'Dr ${name}'")

	cond := d.Filter().Where["name"]
	if cond.IsVariable() || cond.Raw() != "Dr ${name}" {
		t.Errorf("where[name] = %#v", cond)
	}
	if got := d.Unbound(); !reflect.DeepEqual(got, []string{"name"}) {
		t.Errorf("unbound = %v", got)
	}
}

func TestAnalyzeBackslashEscapedStrings(t *testing.T) {
	d := analyze(t, `select id from doctor where name = 'a\'b' and id = ${id} and age = 'c'`)

	where := d.Filter().Where
	if where["name"].IsVariable() || where["name"].Raw() != "a'b" {
		t.Errorf("where[name] = %#v", where["name"])
	}
	if where["age"].IsVariable() || where["age"].Raw() != "c" {
		t.Errorf("where[age] = %#v", where["age"])
	}
	if !where["id"].IsVariable() || where["id"].Variable != "id" {
		t.Errorf("where[id] = %#v", where["id"])
	}
	want := []descriptor.VariableBinding{{Name: "id", Column: "id", Type: descriptor.TypeNumber}}
	if got := d.Bindings(); !reflect.DeepEqual(got, want) {
		t.Errorf("bindings = %#v, want %#v", got, want)
	}

	d = analyze(t, `select id from doctor where name = 'it\'s ${name}' and id = ${id}`)
	where = d.Filter().Where
	if where["name"].IsVariable() || where["name"].Raw() != "it's ${name}" {
		t.Errorf("where[name] = %#v", where["name"])
	}
	if !where["id"].IsVariable() {
		t.Errorf("where[id] = %#v", where["id"])
	}
	if got := d.Unbound(); !reflect.DeepEqual(got, []string{"name"}) {
		t.Errorf("unbound = %v", got)
	}
}

func TestAnalyzeScenarios(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		tables     []string
		properties []string
		groupBy    []string
		limit      int64
		includeAll bool
		hasCount   bool
	}{
		{
			name:       "grouped count",
			query:      "select reportsTo, count(*) as employeesCount from employees group by reportsTo",
			tables:     []string{"employees"},
			properties: []string{"employeesCount", "reportsTo"},
			groupBy:    []string{"reportsTo"},
			hasCount:   true,
		},
		{
			name:       "wildcard with limit",
			query:      "select * from doctor limit 5",
			tables:     []string{"doctor"},
			limit:      5,
			includeAll: true,
		},
		{
			name:       "multi-table from keeps order",
			query:      "select * from doctor, patient, ward",
			tables:     []string{"doctor", "patient", "ward"},
			includeAll: true,
		},
		{
			name:       "multi-table from reversed",
			query:      "select * from ward, doctor",
			tables:     []string{"ward", "doctor"},
			includeAll: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := analyze(t, tt.query)

			if got := d.TableNames(); !reflect.DeepEqual(got, tt.tables) {
				t.Errorf("tables = %v, want %v", got, tt.tables)
			}
			if got := d.PropertyNames(); len(got) != len(tt.properties) || (len(got) > 0 && !reflect.DeepEqual(got, tt.properties)) {
				t.Errorf("properties = %v, want %v", got, tt.properties)
			}
			if got := d.Filter().GroupBy; !reflect.DeepEqual(got, tt.groupBy) {
				t.Errorf("group by = %v, want %v", got, tt.groupBy)
			}
			if d.IncludeAll() != tt.includeAll {
				t.Errorf("includeAll = %v", d.IncludeAll())
			}
			if tt.includeAll && d.Filter().Fields != nil {
				t.Errorf("fields = %v, want absent", d.Filter().Fields)
			}
			if d.HasCountAggregate() != tt.hasCount {
				t.Errorf("hasCountAggregate = %v", d.HasCountAggregate())
			}
			limit := d.Filter().Limit
			if tt.limit == 0 && limit != nil {
				t.Errorf("limit = %d, want absent", *limit)
			}
			if tt.limit != 0 && (limit == nil || *limit != tt.limit) {
				t.Errorf("limit = %v, want %d", limit, tt.limit)
			}
		})
	}

	d := analyze(t, "select reportsTo, count(*) as employeesCount from employees group by reportsTo")
	count, _ := d.Property("employeesCount")
	want := descriptor.SelectedProperty{Name: "employeesCount", Type: descriptor.TypeNumber, IsAggregate: true, Function: "COUNT"}
	if !reflect.DeepEqual(count, want) {
		t.Errorf("employeesCount = %+v, want %+v", count, want)
	}
	if p, _ := d.Property("reportsTo"); p.Type != descriptor.TypeNumber || p.Source != "reportsTo" {
		t.Errorf("reportsTo = %+v", p)
	}
}
