package tabular

import (
	"regexp"
	"strconv"
	"strings"
)

// Unknown is the canonical replacement for null-like cells.
const Unknown = "Unknown"

// Validation sentinel tags. A failing cell's value is replaced entirely.
const (
	TagInvalidEmail  = "[INVALID_EMAIL]"
	TagInvalidAge    = "[INVALID_AGE]"
	TagInvalidDate   = "[INVALID_DATE]"
	TagInvalidPhone  = "[INVALID_PHONE]"
	TagInvalidAmount = "[INVALID_AMOUNT]"
)

var nullSentinels = map[string]bool{
	"null":      true,
	"n/a":       true,
	"na":        true,
	"pending":   true,
	"tbd":       true,
	"undefined": true,
	"nil":       true,
	"none":      true,
	"--":        true,
	"":          true,
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	emailRe      = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	isoDateRe    = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	mdyDateRe    = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	dmyDateRe    = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
	ymdSlashRe   = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`)
	currencyRe   = regexp.MustCompile(`^\$?\d{1,3}(,\d{3})*(\.\d+)?$|^\$\d+(\.\d+)?$`)
	digitRe      = regexp.MustCompile(`\d`)
)

// stateCodes is the fixed 50-state abbreviation set used by Normalize.
var stateCodes = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true,
	"CO": true, "CT": true, "DE": true, "FL": true, "GA": true,
	"HI": true, "ID": true, "IL": true, "IN": true, "IA": true,
	"KS": true, "KY": true, "LA": true, "ME": true, "MD": true,
	"MA": true, "MI": true, "MN": true, "MS": true, "MO": true,
	"MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true,
	"OK": true, "OR": true, "PA": true, "RI": true, "SC": true,
	"SD": true, "TN": true, "TX": true, "UT": true, "VT": true,
	"VA": true, "WA": true, "WV": true, "WI": true, "WY": true,
}

// Clean replaces null-sentinel cells with Unknown and collapses internal
// whitespace runs in every other cell. Idempotent.
func Clean(t *ParsedTable) *ParsedTable {
	out := t.clone()
	for _, row := range out.Rows {
		for i, cell := range row {
			row[i] = cleanCell(cell)
		}
	}
	return out
}

func cleanCell(cell string) string {
	trimmed := strings.TrimSpace(cell)
	if nullSentinels[strings.ToLower(trimmed)] {
		return Unknown
	}
	return whitespaceRe.ReplaceAllString(trimmed, " ")
}

// Transform canonicalizes cell formats using the column header as a hint:
// dates to YYYY-MM-DD (also rewritten on a direct format match regardless of
// header), emails lowercased, embedded ten-digit phones to NNN-NNN-NNNN,
// currency-like values stripped of $ and thousands separators.
func Transform(t *ParsedTable) *ParsedTable {
	out := t.clone()
	for _, row := range out.Rows {
		for i, cell := range row {
			header := ""
			if i < len(out.Headers) {
				header = out.Headers[i]
			}
			row[i] = transformCell(header, cell)
		}
	}
	return out
}

func transformCell(header, cell string) string {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == Unknown {
		return cell
	}

	// Dates rewrite on a direct format match regardless of header.
	if rewritten, ok := normalizeDate(cell); ok {
		return rewritten
	}

	switch {
	case strings.Contains(header, "email"):
		if emailRe.MatchString(cell) {
			return strings.ToLower(cell)
		}
	case strings.Contains(header, "phone"):
		if formatted, ok := normalizePhone(cell); ok {
			return formatted
		}
	case isCurrencyHeader(header):
		if currencyRe.MatchString(cell) {
			cleaned := strings.ReplaceAll(cell, "$", "")
			return strings.ReplaceAll(cleaned, ",", "")
		}
	}

	return cell
}

func isCurrencyHeader(header string) bool {
	for _, hint := range []string{"salary", "price", "amount", "cost", "revenue"} {
		if strings.Contains(header, hint) {
			return true
		}
	}
	return false
}

// normalizeDate rewrites MM/DD/YYYY, DD-MM-YYYY and YYYY/MM/DD to
// YYYY-MM-DD. The rewrite is rejected (cell left unchanged) when the parsed
// month exceeds 12 or the day exceeds 31.
func normalizeDate(cell string) (string, bool) {
	if m := mdyDateRe.FindStringSubmatch(cell); m != nil {
		return assembleDate(m[3], m[1], m[2])
	}
	if m := dmyDateRe.FindStringSubmatch(cell); m != nil {
		return assembleDate(m[3], m[2], m[1])
	}
	if m := ymdSlashRe.FindStringSubmatch(cell); m != nil {
		return assembleDate(m[1], m[2], m[3])
	}
	return "", false
}

func assembleDate(year, month, day string) (string, bool) {
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return "", false
	}
	return year + "-" + pad2(m) + "-" + pad2(d), true
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// normalizePhone extracts the digits embedded in a cell and, when exactly
// ten remain, formats them as NNN-NNN-NNNN.
func normalizePhone(cell string) (string, bool) {
	digits := strings.Join(digitRe.FindAllString(cell, -1), "")
	if len(digits) != 10 {
		return "", false
	}
	return digits[0:3] + "-" + digits[3:6] + "-" + digits[6:10], true
}

// Validate applies column-header-scoped checks, replacing a failing cell's
// value with its sentinel tag. The literal Unknown is always exempt. Row
// lengths are never changed.
func Validate(t *ParsedTable) *ParsedTable {
	out := t.clone()
	for _, row := range out.Rows {
		for i, cell := range row {
			header := ""
			if i < len(out.Headers) {
				header = out.Headers[i]
			}
			row[i] = validateCell(header, cell)
		}
	}
	return out
}

func validateCell(header, cell string) string {
	cell = strings.TrimSpace(cell)
	if cell == Unknown || cell == "" {
		return cell
	}

	switch {
	case strings.Contains(header, "email"):
		if !emailRe.MatchString(cell) {
			return TagInvalidEmail
		}
	case strings.Contains(header, "age"):
		age, err := strconv.Atoi(cell)
		if err != nil || age < 0 || age > 120 {
			return TagInvalidAge
		}
	case strings.Contains(header, "date"):
		if !validISODate(cell) {
			return TagInvalidDate
		}
	case strings.Contains(header, "phone"):
		digits := strings.Join(digitRe.FindAllString(cell, -1), "")
		if len(digits) != 10 {
			return TagInvalidPhone
		}
	case isCurrencyHeader(header):
		normalized := strings.ReplaceAll(strings.ReplaceAll(cell, "$", ""), ",", "")
		if _, err := strconv.ParseFloat(normalized, 64); err != nil {
			return TagInvalidAmount
		}
	}

	return cell
}

// validISODate checks a YYYY-MM-DD cell for shape and range. Years outside
// 1900-2100 are treated as data errors.
func validISODate(cell string) bool {
	m := isoDateRe.FindStringSubmatch(cell)
	if m == nil {
		return false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if year < 1900 || year > 2100 {
		return false
	}
	if month < 1 || month > 12 {
		return false
	}
	if day < 1 || day > 31 {
		return false
	}
	return true
}

// Deduplicate drops rows whose pipe-joined cells have been seen before.
// First occurrence wins; header and row order are preserved. Idempotent.
func Deduplicate(t *ParsedTable) *ParsedTable {
	out := t.clone()
	seen := make(map[string]bool, len(out.Rows))
	kept := make([][]string, 0, len(out.Rows))
	for _, row := range out.Rows {
		key := strings.Join(row, "|")
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, row)
	}
	out.Rows = kept
	return out
}

// Normalize title-cases name-like columns and upper-cases two-letter cells
// that match the state abbreviation set.
func Normalize(t *ParsedTable) *ParsedTable {
	out := t.clone()
	for _, row := range out.Rows {
		for i, cell := range row {
			header := ""
			if i < len(out.Headers) {
				header = out.Headers[i]
			}
			row[i] = normalizeCell(header, cell)
		}
	}
	return out
}

func normalizeCell(header, cell string) string {
	trimmed := strings.TrimSpace(cell)
	if trimmed == Unknown {
		return trimmed
	}

	if len(trimmed) == 2 && stateCodes[strings.ToUpper(trimmed)] {
		return strings.ToUpper(trimmed)
	}

	if strings.Contains(header, "name") {
		return titleCase(trimmed)
	}

	return trimmed
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
