package tabular

import (
	"regexp"
	"strings"

	"dataforge/internal/logging"
)

// Mode records which engine processed a text payload.
type Mode string

const (
	// ModeTable means the payload parsed as a table and the structured
	// pass ran.
	ModeTable Mode = "table"
	// ModeRegex means the payload did not parse and a line-oriented regex
	// pass ran instead.
	ModeRegex Mode = "regex"
)

// CleanText runs the clean pass over delimited text. When the text does not
// parse as a table it degrades to a regex sweep over the raw lines so the
// operation still returns usable output.
func CleanText(text string) (string, Mode) {
	table, err := Parse(text)
	if err != nil {
		logging.Tabular("clean: falling back to regex pass: %v", err)
		return regexClean(text), ModeRegex
	}
	return Clean(table).Reconstruct(), ModeTable
}

// TransformText runs the format-canonicalization pass over delimited text,
// degrading to a regex sweep when the text does not parse.
func TransformText(text string) (string, Mode) {
	table, err := Parse(text)
	if err != nil {
		logging.Tabular("transform: falling back to regex pass: %v", err)
		return regexTransform(text), ModeRegex
	}
	return Transform(table).Reconstruct(), ModeTable
}

// ValidateText runs the validation pass over delimited text. Without a
// parseable table there are no headers to scope checks to, so the text is
// returned unchanged in regex mode.
func ValidateText(text string) (string, Mode) {
	table, err := Parse(text)
	if err != nil {
		logging.Tabular("validate: input not tabular, returning unchanged: %v", err)
		return text, ModeRegex
	}
	return Validate(table).Reconstruct(), ModeTable
}

// DeduplicateText runs the dedup pass over delimited text, degrading to
// whole-line dedup when the text does not parse.
func DeduplicateText(text string) (string, Mode) {
	table, err := Parse(text)
	if err != nil {
		logging.Tabular("deduplicate: falling back to line dedup: %v", err)
		return dedupLines(text), ModeRegex
	}
	return Deduplicate(table).Reconstruct(), ModeTable
}

// NormalizeText runs the casing pass over delimited text. The pass needs
// header hints, so unparseable text is returned unchanged in regex mode.
func NormalizeText(text string) (string, Mode) {
	table, err := Parse(text)
	if err != nil {
		logging.Tabular("normalize: input not tabular, returning unchanged: %v", err)
		return text, ModeRegex
	}
	return Normalize(table).Reconstruct(), ModeTable
}

var looseNullRe = regexp.MustCompile(`(?i)\b(null|n/a|tbd|pending|undefined)\b`)

// regexClean sweeps null sentinels and whitespace runs without any tabular
// structure.
func regexClean(text string) string {
	text = looseNullRe.ReplaceAllString(text, Unknown)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = whitespaceRe.ReplaceAllString(strings.TrimSpace(line), " ")
	}
	return strings.Join(lines, "\n")
}

var looseDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)

// regexTransform rewrites MM/DD/YYYY dates in place without tabular
// structure. Other transforms need header hints and are skipped.
func regexTransform(text string) string {
	return looseDateRe.ReplaceAllStringFunc(text, func(match string) string {
		m := looseDateRe.FindStringSubmatch(match)
		if rewritten, ok := assembleDate(m[3], m[1], m[2]); ok {
			return rewritten
		}
		return match
	})
}

func dedupLines(text string) string {
	lines := strings.Split(text, "\n")
	seen := make(map[string]bool, len(lines))
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if seen[line] {
			continue
		}
		seen[line] = true
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
