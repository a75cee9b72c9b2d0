package workflow

import (
	"regexp"
	"strconv"
)

// TaskRef points a parameter at a field of a prior task's result. Raw keeps
// the original placeholder text so an unresolvable reference can be left
// in place with a diagnostic instead of silently vanishing.
type TaskRef struct {
	Index int
	Field string
	Raw   string
}

// ContextRef points a parameter at a named ambient context field.
type ContextRef struct {
	Field string
	Raw   string
}

var (
	taskRefRe    = regexp.MustCompile(`^\{task\.(\d+)\.([A-Za-z_][A-Za-z0-9_]*)\}$`)
	contextRefRe = regexp.MustCompile(`^\{context\.([A-Za-z_][A-Za-z0-9_]*)\}$`)
)

// compileParams rewrites placeholder strings into typed references at plan
// time. Non-placeholder values pass through untouched. References are
// compiled once here so the resolver never re-parses free text.
func compileParams(params map[string]interface{}) map[string]interface{} {
	if params == nil {
		return map[string]interface{}{}
	}
	compiled := make(map[string]interface{}, len(params))
	for key, value := range params {
		compiled[key] = compileValue(value)
	}
	return compiled
}

func compileValue(value interface{}) interface{} {
	s, ok := value.(string)
	if !ok {
		return value
	}
	if m := taskRefRe.FindStringSubmatch(s); m != nil {
		idx, _ := strconv.Atoi(m[1])
		return TaskRef{Index: idx, Field: m[2], Raw: s}
	}
	if m := contextRefRe.FindStringSubmatch(s); m != nil {
		return ContextRef{Field: m[1], Raw: s}
	}
	return s
}
