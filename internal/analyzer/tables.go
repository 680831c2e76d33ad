package analyzer

import (
	"strings"

	"github.com/Rana718/querygraft/internal/descriptor"
	"github.com/Rana718/querygraft/internal/sqlast"
)

// extractTables returns one reference per FROM entry in source order. Joins
// are not interpreted and duplicates are kept.
func extractTables(stmt *sqlast.Statement) []descriptor.TableReference {
	tables := make([]descriptor.TableReference, 0, len(stmt.Tables))
	for _, t := range stmt.Tables {
		tables = append(tables, descriptor.TableReference{Name: t.Name, Alias: t.Alias})
	}
	return tables
}

// tableResolver maps a column qualifier (table name or alias) to a table
// name, falling back to the primary table.
type tableResolver struct {
	primary string
	byName  map[string]string
}

func newTableResolver(tables []descriptor.TableReference) tableResolver {
	r := tableResolver{byName: make(map[string]string, len(tables)*2)}
	if len(tables) > 0 {
		r.primary = tables[0].Name
	}
	for _, t := range tables {
		if _, ok := r.byName[strings.ToLower(t.Name)]; !ok {
			r.byName[strings.ToLower(t.Name)] = t.Name
		}
		if t.Alias != "" {
			r.byName[strings.ToLower(t.Alias)] = t.Name
		}
	}
	return r
}

func (r tableResolver) resolve(qualifier string) string {
	if qualifier != "" {
		if name, ok := r.byName[strings.ToLower(qualifier)]; ok {
			return name
		}
	}
	return r.primary
}
