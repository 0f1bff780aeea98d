package mailer

import (
	"html"
	"regexp"
	"sort"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Placeholders returns the distinct variable names referenced by text, sorted.
func Placeholders(text string) []string {
	seen := map[string]struct{}{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		seen[m[1]] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Undeclared returns the placeholders in texts that are missing from declared.
func Undeclared(declared []string, texts ...string) []string {
	allowed := make(map[string]struct{}, len(declared))
	for _, d := range declared {
		allowed[d] = struct{}{}
	}
	var missing []string
	seen := map[string]struct{}{}
	for _, text := range texts {
		for _, name := range Placeholders(text) {
			if _, ok := allowed[name]; ok {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Render substitutes {{name}} placeholders with vars. Unknown names render empty.
// When escape is set values are HTML-escaped.
func Render(text string, vars map[string]string, escape bool) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		val := vars[name]
		if escape {
			return html.EscapeString(val)
		}
		return val
	})
}
