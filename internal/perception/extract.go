package perception

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"

	"dataforge/internal/logging"
)

// Path identifies which extraction stage produced a usable value. Keeping
// the chosen path observable lets callers and tests assert on the strategy
// instead of inferring it from control flow.
type Path string

const (
	// PathStrict means the cleaned response parsed as-is.
	PathStrict Path = "strict"
	// PathRepaired means parsing succeeded after malformation repair.
	PathRepaired Path = "repaired"
	// PathFallback means the permissive structured parser recovered a value.
	PathFallback Path = "fallback"
	// PathDefault means every parse failed and the caller's default applies.
	PathDefault Path = "default"
)

// Result reports the outcome of an extraction. Err is only set alongside
// PathDefault and records the last parse failure for diagnostics.
type Result struct {
	Path Path
	Err  error
}

// Degraded reports whether the extraction had to leave the strict path.
func (r Result) Degraded() bool {
	return r.Path != PathStrict
}

// Extract recovers a structured value from free-form language-model output
// and unmarshals it into out. Stages, each best-effort: strip code fences,
// slice to the outermost JSON payload, repair known malformations, then a
// permissive structured parse. Extract never returns an error; when every
// stage fails it invokes applyDefault (when non-nil) so out carries a
// shape-appropriate default, and reports PathDefault.
func Extract(raw string, out interface{}, applyDefault func()) Result {
	cleaned := CleanResponse(raw)

	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return Result{Path: PathStrict}
	}

	sliced := sliceJSON(cleaned)
	if sliced != "" && sliced != cleaned {
		if err := json.Unmarshal([]byte(sliced), out); err == nil {
			return Result{Path: PathStrict}
		}
	}
	if sliced == "" {
		sliced = cleaned
	}

	repaired := repairJSON(sliced)
	if err := json.Unmarshal([]byte(repaired), out); err == nil {
		logging.PerceptionDebug("extraction succeeded after repair")
		return Result{Path: PathRepaired}
	}

	// Permissive fallback: YAML accepts a superset of JSON and tolerates
	// some of the sloppiness models produce (unquoted strings, stray
	// indentation). Round-trip through JSON to honor the target's tags.
	var loose interface{}
	if err := yaml.Unmarshal([]byte(repaired), &loose); err == nil && loose != nil {
		if data, err := json.Marshal(normalizeYAML(loose)); err == nil {
			if err := json.Unmarshal(data, out); err == nil {
				logging.PerceptionDebug("extraction succeeded via permissive parser")
				return Result{Path: PathFallback}
			}
		}
	}

	lastErr := json.Unmarshal([]byte(repaired), out)
	logging.Perception("extraction exhausted all paths: %v", lastErr)
	if applyDefault != nil {
		applyDefault()
	}
	return Result{Path: PathDefault, Err: lastErr}
}

// CleanResponse removes markdown code fences and surrounding noise from a
// language-model response.
func CleanResponse(resp string) string {
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	// Fences may also appear mid-response when the model narrates around
	// the payload.
	if idx := strings.Index(resp, "```json"); idx != -1 {
		resp = resp[idx+len("```json"):]
		if end := strings.Index(resp, "```"); end != -1 {
			resp = resp[:end]
		}
	}
	return strings.TrimSpace(resp)
}

// sliceJSON returns the substring between the first opening and last closing
// bracket of the dominant payload kind, or "" when none is present.
func sliceJSON(s string) string {
	objStart := strings.Index(s, "{")
	arrStart := strings.Index(s, "[")

	start, closer := objStart, byte('}')
	if objStart == -1 || (arrStart != -1 && arrStart < objStart) {
		start, closer = arrStart, ']'
	}
	if start == -1 {
		return ""
	}

	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return ""
	}
	return s[start : end+1]
}

// repairJSON fixes the malformations language models commonly produce:
// a missing comma before a value or quoted key that starts the next line,
// and bare (unquoted) array elements spanning lines.
func repairJSON(s string) string {
	lines := strings.Split(s, "\n")
	depthStack := make([]byte, 0, 8)
	inArray := func() bool {
		return len(depthStack) > 0 && depthStack[len(depthStack)-1] == '['
	}

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}

		// Quote bare array elements: inside an array, a line that starts
		// with a letter and is not a JSON literal needs quoting.
		if inArray() && isBareElement(trimmed) {
			indent := lines[i][:len(lines[i])-len(strings.TrimLeft(lines[i], " \t"))]
			value := strings.TrimSuffix(trimmed, ",")
			suffix := ""
			if strings.HasSuffix(trimmed, ",") {
				suffix = ","
			}
			lines[i] = indent + `"` + strings.TrimSpace(value) + `"` + suffix
			trimmed = strings.TrimSpace(lines[i])
		}

		// Missing comma: this line ends a value and the next line begins a
		// new value or quoted key.
		if i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if endsValue(trimmed) && startsValue(next) {
				lines[i] = lines[i] + ","
				trimmed = strings.TrimSpace(lines[i])
			}
		}

		// Track bracket nesting outside of strings.
		inString := false
		for j := 0; j < len(trimmed); j++ {
			ch := trimmed[j]
			switch {
			case ch == '"' && (j == 0 || trimmed[j-1] != '\\'):
				inString = !inString
			case inString:
			case ch == '{' || ch == '[':
				depthStack = append(depthStack, ch)
			case ch == '}' || ch == ']':
				if len(depthStack) > 0 {
					depthStack = depthStack[:len(depthStack)-1]
				}
			}
		}
	}

	return strings.Join(lines, "\n")
}

// isBareElement reports whether a line looks like an unquoted array element.
func isBareElement(line string) bool {
	body := strings.TrimSuffix(line, ",")
	body = strings.TrimSpace(body)
	if body == "" {
		return false
	}
	switch body {
	case "true", "false", "null":
		return false
	}
	first := body[0]
	if first == '"' || first == '{' || first == '[' || first == '}' || first == ']' {
		return false
	}
	if (first >= '0' && first <= '9') || first == '-' {
		return false
	}
	// A key:value line belongs to an object, not an array element.
	if strings.Contains(body, ":") {
		return false
	}
	return true
}

// endsValue reports whether a line ends a JSON value without a trailing comma.
func endsValue(line string) bool {
	if strings.HasSuffix(line, ",") || strings.HasSuffix(line, "{") ||
		strings.HasSuffix(line, "[") || strings.HasSuffix(line, ":") {
		return false
	}
	last := line[len(line)-1]
	if last == '"' || last == '}' || last == ']' {
		return true
	}
	if last >= '0' && last <= '9' {
		return true
	}
	return strings.HasSuffix(line, "true") || strings.HasSuffix(line, "false") || strings.HasSuffix(line, "null")
}

// startsValue reports whether a line begins a new JSON value or quoted key.
func startsValue(line string) bool {
	if line == "" {
		return false
	}
	first := line[0]
	return first == '"' || first == '{' || first == '[' ||
		(first >= '0' && first <= '9') || first == '-'
}

// normalizeYAML converts YAML's map[interface{}]interface{} trees into
// JSON-marshalable map[string]interface{} trees.
func normalizeYAML(v interface{}) interface{} {
	switch val := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, inner := range val {
			key, ok := k.(string)
			if !ok {
				continue
			}
			m[key] = normalizeYAML(inner)
		}
		return m
	case map[string]interface{}:
		for k, inner := range val {
			val[k] = normalizeYAML(inner)
		}
		return val
	case []interface{}:
		for i, inner := range val {
			val[i] = normalizeYAML(inner)
		}
		return val
	default:
		return v
	}
}
