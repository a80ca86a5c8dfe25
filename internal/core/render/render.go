// Package render contains pure template substitution logic.
// This is part of the Functional Core - all functions are pure with no I/O.
package render

import (
	"fmt"
	"regexp"
)

// placeholderRegex matches ${VAR} placeholders.
var placeholderRegex = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// MissingVariableError reports a placeholder with no corresponding entry in
// the environment. A missing key indicates a misconfigured target and is
// always fatal, never substituted blank.
type MissingVariableError struct {
	Name string
	File string // optional, set by callers rendering a file
}

func (e *MissingVariableError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: no value for template variable %q", e.File, e.Name)
	}
	return fmt.Sprintf("no value for template variable %q", e.Name)
}

// Substitute replaces every ${VAR} placeholder in text with env["VAR"].
// Unresolved placeholders are an error, not a pass-through.
func Substitute(text string, env map[string]string) (string, error) {
	var missing *MissingVariableError
	out := placeholderRegex.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderRegex.FindStringSubmatch(match)[1]
		val, ok := env[name]
		if !ok {
			if missing == nil {
				missing = &MissingVariableError{Name: name}
			}
			return match
		}
		return val
	})
	if missing != nil {
		return "", missing
	}
	return out, nil
}

// Variables returns the unique placeholder names referenced by text, in
// order of first appearance.
func Variables(text string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, match := range placeholderRegex.FindAllStringSubmatch(text, -1) {
		if !seen[match[1]] {
			seen[match[1]] = true
			names = append(names, match[1])
		}
	}
	return names
}
