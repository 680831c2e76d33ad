// Package placeholder tokenizes ${name} variables embedded in raw query text.
// It works on text only and knows nothing about SQL structure beyond quoting.
package placeholder

import (
	"regexp"
	"strings"
)

var (
	tokenRegex  = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
	exactRegex  = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)
	// MySQL strings accept both the doubled quote and the backslash escape.
	stringRegex = regexp.MustCompile(`(?s)'(?:[^'\\]|\\.|'')*'|"(?:[^"\\]|\\.|"")*"|` + "`(?:[^`]|``)*`")
)

// Scan returns the placeholder names in raw in left-to-right order.
// A placeholder used twice yields two entries.
func Scan(raw string) []string {
	matches := tokenRegex.FindAllStringSubmatch(raw, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// Match reports whether text is exactly one placeholder and returns its name.
func Match(text string) (string, bool) {
	m := exactRegex.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Quote wraps every placeholder that is not already inside a quoted string
// in single quotes, so that a SQL parser sees a string literal whose text is
// the placeholder itself.
func Quote(raw string) string {
	quoted := stringRegex.FindAllStringIndex(raw, -1)
	inQuotes := func(pos int) bool {
		for _, span := range quoted {
			if pos >= span[0] && pos < span[1] {
				return true
			}
		}
		return false
	}

	var b strings.Builder
	b.Grow(len(raw) + 8)
	last := 0
	for _, loc := range tokenRegex.FindAllStringIndex(raw, -1) {
		if inQuotes(loc[0]) {
			continue
		}
		b.WriteString(raw[last:loc[0]])
		b.WriteByte('\'')
		b.WriteString(raw[loc[0]:loc[1]])
		b.WriteByte('\'')
		last = loc[1]
	}
	b.WriteString(raw[last:])
	return b.String()
}

// Unbound returns the scanned names that are missing from bound, keeping scan
// order and dropping repeats.
func Unbound(scanned []string, bound map[string]bool) []string {
	var out []string
	seen := make(map[string]bool, len(scanned))
	for _, name := range scanned {
		if bound[name] || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
