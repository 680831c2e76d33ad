package metadata

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Pre-compiled once; schema files are parsed on every CLI run.
var (
	tableRegex      = regexp.MustCompile(`(?i)CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?(?:(?:"?\w+"?|` + "`\\w+`" + `)\.)?(?:"(\w+)"|` + "`(\\w+)`" + `|(\w+))\s*\(`)
	createTableStmt = regexp.MustCompile(`(?i)^\s*CREATE\s+TABLE`)
	commentRegex    = regexp.MustCompile(`--.*|/\*[\s\S]*?\*/`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

var multiWordTypes = []string{
	"TIMESTAMP WITH TIME ZONE",
	"TIMESTAMP WITHOUT TIME ZONE",
	"DOUBLE PRECISION",
	"CHARACTER VARYING",
}

var tableConstraintPrefixes = []string{"PRIMARY KEY", "FOREIGN KEY", "UNIQUE", "CHECK", "CONSTRAINT", "KEY", "INDEX"}

// Table is a parsed CREATE TABLE: name plus columns in declaration order.
type Table struct {
	Name    string
	Columns []Column
}

type Column struct {
	Name string
	Type string
}

// SchemaLookup resolves column types from CREATE TABLE statements. Lookups
// are case-insensitive on both table and column.
type SchemaLookup struct {
	tables  []*Table
	columns map[string]map[string]string // lower table → lower column → type
}

// NewSchemaLookup indexes already parsed tables. A later table with the same
// name replaces the earlier one.
func NewSchemaLookup(tables []*Table) *SchemaLookup {
	idx := &SchemaLookup{
		tables:  tables,
		columns: make(map[string]map[string]string, len(tables)),
	}
	for _, table := range tables {
		cols := make(map[string]string, len(table.Columns))
		for _, col := range table.Columns {
			cols[strings.ToLower(col.Name)] = col.Type
		}
		idx.columns[strings.ToLower(table.Name)] = cols
	}
	return idx
}

// LoadSchemaFiles parses every file and indexes the tables found.
func LoadSchemaFiles(files ...string) (*SchemaLookup, error) {
	var tables []*Table
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file %s: %w", file, err)
		}
		parsed, err := ParseSchema(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse schema file %s: %w", file, err)
		}
		tables = append(tables, parsed...)
	}
	return NewSchemaLookup(tables), nil
}

func (s *SchemaLookup) ColumnType(_ context.Context, table, column string) (string, bool, error) {
	cols, ok := s.columns[strings.ToLower(table)]
	if !ok {
		return "", false, nil
	}
	typ, ok := cols[strings.ToLower(column)]
	return typ, ok, nil
}

// Tables returns the indexed tables in the order they were parsed.
func (s *SchemaLookup) Tables() []*Table {
	return s.tables
}

// ParseSchema extracts the CREATE TABLE statements of a SQL script. Other
// statements (indexes, enums, inserts) are ignored.
func ParseSchema(sql string) ([]*Table, error) {
	var tables []*Table
	for _, stmt := range splitStatements(cleanSQL(sql)) {
		if !createTableStmt.MatchString(stmt) {
			continue
		}
		table, err := parseCreateTable(stmt)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func cleanSQL(sql string) string {
	sql = commentRegex.ReplaceAllString(sql, "")
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(sql, " "))
}

func splitStatements(sql string) []string {
	statements := strings.Split(sql, ";")
	result := make([]string, 0, len(statements))
	for _, stmt := range statements {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			result = append(result, stmt)
		}
	}
	return result
}

func parseCreateTable(stmt string) (*Table, error) {
	matches := tableRegex.FindStringSubmatch(stmt)
	if matches == nil {
		return nil, fmt.Errorf("could not extract table name from: %s", stmt)
	}

	var name string
	for _, m := range matches[1:] {
		if m != "" {
			name = m
			break
		}
	}

	start, end := strings.Index(stmt, "("), strings.LastIndex(stmt, ")")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("invalid CREATE TABLE syntax for table %s", name)
	}

	table := &Table{Name: name}
	for _, def := range splitColumnDefinitions(stmt[start+1 : end]) {
		if def = strings.TrimSpace(def); def == "" || isTableConstraint(def) {
			continue
		}
		col, err := parseColumnDefinition(def)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		table.Columns = append(table.Columns, col)
	}
	return table, nil
}

func splitColumnDefinitions(defs string) []string {
	var result []string
	var current strings.Builder
	parenLevel := 0

	for _, char := range defs {
		switch char {
		case '(':
			parenLevel++
			current.WriteRune(char)
		case ')':
			parenLevel--
			current.WriteRune(char)
		case ',':
			if parenLevel == 0 {
				result = append(result, current.String())
				current.Reset()
			} else {
				current.WriteRune(char)
			}
		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

func isTableConstraint(def string) bool {
	def = strings.ToUpper(strings.TrimSpace(def))
	for _, prefix := range tableConstraintPrefixes {
		if strings.HasPrefix(def, prefix+" ") || strings.HasPrefix(def, prefix+"(") {
			return true
		}
	}
	return false
}

func parseColumnDefinition(colDef string) (Column, error) {
	spaceIdx := strings.IndexAny(colDef, " \t")
	if spaceIdx == -1 {
		return Column{}, fmt.Errorf("invalid column definition: %s", colDef)
	}

	name := strings.Trim(colDef[:spaceIdx], "\"`")
	rest := strings.TrimSpace(colDef[spaceIdx+1:])
	if rest == "" {
		return Column{}, fmt.Errorf("invalid column definition (no type): %s", colDef)
	}

	restUpper := strings.ToUpper(rest)
	for _, t := range multiWordTypes {
		if strings.HasPrefix(restUpper, t) {
			return Column{Name: name, Type: t}, nil
		}
	}

	// keep the parenthesised part of types like DECIMAL(10, 2)
	parenDepth := 0
	typeEnd := len(rest)
	for i, ch := range rest {
		if ch == '(' {
			parenDepth++
		} else if ch == ')' {
			parenDepth--
			if parenDepth == 0 {
				typeEnd = i + 1
				break
			}
		} else if parenDepth == 0 && (ch == ' ' || ch == '\t') {
			typeEnd = i
			break
		}
	}

	typ := rest[:typeEnd]
	if strings.HasPrefix(strings.ToUpper(rest[typeEnd:]), " UNSIGNED") {
		typ += " UNSIGNED"
	}
	return Column{Name: name, Type: typ}, nil
}
