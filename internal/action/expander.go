package action

import (
	"regexp"
	"strings"
	"time"
)

// Expander resolves dynamic-value placeholders in a string.
type Expander interface {
	Expand(template string) string
}

// placeholderRegex matches the {name} placeholder syntax.
var placeholderRegex = regexp.MustCompile(`\{([^{}]+)\}`)

// ValueFunc produces the current value of a placeholder.
type ValueFunc func() string

// TemplateExpander replaces {name} placeholders with values from a table.
// Unknown placeholders are left as written.
type TemplateExpander struct {
	values map[string]ValueFunc
}

// NewTemplateExpander creates an expander with the built-in time values
// plus extra.
func NewTemplateExpander(extra map[string]ValueFunc) *TemplateExpander {
	values := map[string]ValueFunc{
		"time":    func() string { return time.Now().Format("15:04:05") },
		"hour":    func() string { return time.Now().Format("15") },
		"minute":  func() string { return time.Now().Format("04") },
		"date":    func() string { return time.Now().Format("2006-01-02") },
		"weekday": func() string { return time.Now().Weekday().String() },
	}
	for k, fn := range extra {
		values[strings.ToLower(k)] = fn
	}
	return &TemplateExpander{values: values}
}

// Expand implements Expander.
func (t *TemplateExpander) Expand(template string) string {
	return placeholderRegex.ReplaceAllStringFunc(template, func(match string) string {
		name := strings.ToLower(strings.TrimSpace(placeholderRegex.FindStringSubmatch(match)[1]))
		fn, ok := t.values[name]
		if !ok {
			return match
		}
		return fn()
	})
}
