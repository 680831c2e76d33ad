// Package batch analyzes every annotated query in a directory of .sql files.
package batch

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Query is one "-- name: X" annotated statement.
type Query struct {
	Name    string
	Cmd     string
	Comment string
	File    string
	Line    int
	SQL     string
}

// Load reads every *.sql file in dir, in file name order.
func Load(dir string) ([]*Query, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	queries := []*Query{}
	for _, file := range files {
		parsed, err := LoadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		queries = append(queries, parsed...)
	}
	return queries, nil
}

// LoadFile splits one file into its annotated queries. Lines before the
// first annotation are ignored; a "--" line inside a query becomes its
// comment.
func LoadFile(filename string) ([]*Query, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	baseName := filepath.Base(filename)
	queries := []*Query{}
	scanner := bufio.NewScanner(file)

	var current *Query
	var sqlLines []string

	flush := func() {
		if current == nil {
			return
		}
		current.SQL = strings.TrimSuffix(strings.TrimSpace(strings.Join(sqlLines, " ")), ";")
		if current.SQL != "" {
			queries = append(queries, current)
		}
		current = nil
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "-- name:") || strings.HasPrefix(line, "-- name :") {
			flush()

			remainder := line[strings.Index(line, "name")+4:]
			parts := strings.Fields(strings.TrimLeft(remainder, " :"))
			if len(parts) == 0 {
				return nil, fmt.Errorf("line %d: query annotation without a name", lineNo)
			}
			current = &Query{Name: parts[0], File: baseName, Line: lineNo}
			if len(parts) >= 2 {
				current.Cmd = parts[1]
			}
			sqlLines = nil
		} else if strings.HasPrefix(line, "--") {
			if current != nil {
				current.Comment = strings.TrimSpace(strings.TrimPrefix(line, "--"))
			}
		} else if current != nil {
			sqlLines = append(sqlLines, line)
		}
	}
	flush()

	return queries, scanner.Err()
}
