// Package tabular implements the quote-aware CSV codec and the per-cell
// transform passes (clean, transform, validate, deduplicate, normalize)
// the processing tools run over uploaded data.
package tabular

import (
	"errors"
	"strings"

	"dataforge/internal/logging"
)

// ErrMalformedInput is returned when a required tabular parse has fewer than
// two non-blank lines (header plus at least one data row).
var ErrMalformedInput = errors.New("malformed tabular input: need a header row and at least one data row")

// ParsedTable is the header/row form of delimited text. Headers are
// lowercased at parse time; every row holds exactly one cell per header.
// Transforms never mutate a table in place.
type ParsedTable struct {
	Headers []string
	Rows    [][]string
}

// Parse converts delimited text into a ParsedTable. Literal backslash-n
// sequences are normalized to real newlines first. The header row fixes the
// column count: short rows are padded with empty strings, long rows are
// truncated with the overflow discarded. This lossy policy is deliberate;
// ragged input is not a parse error.
func Parse(text string) (*ParsedTable, error) {
	text = strings.ReplaceAll(text, `\n`, "\n")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	rawLines := strings.Split(text, "\n")
	lines := make([]string, 0, len(rawLines))
	for _, line := range rawLines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) < 2 {
		return nil, ErrMalformedInput
	}

	headers := splitLine(lines[0])
	for i, h := range headers {
		headers[i] = strings.ToLower(h)
	}

	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		cells := splitLine(line)
		switch {
		case len(cells) < len(headers):
			padded := make([]string, len(headers))
			copy(padded, cells)
			rows = append(rows, padded)
		case len(cells) > len(headers):
			rows = append(rows, cells[:len(headers)])
		default:
			rows = append(rows, cells)
		}
	}

	logging.TabularDebug("parsed table: %d columns, %d rows", len(headers), len(rows))

	return &ParsedTable{Headers: headers, Rows: rows}, nil
}

// splitLine splits one CSV line into trimmed fields. A double quote toggles
// the in-quotes flag; inside quotes a doubled "" is an escaped literal quote
// and a comma is ordinary text.
func splitLine(line string) []string {
	fields := make([]string, 0, 8)
	var sb strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				sb.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(sb.String()))
			sb.Reset()
		default:
			sb.WriteByte(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(sb.String()))

	return fields
}

// Reconstruct renders headers and rows back to delimited text: each row is
// comma-joined, rows are newline-joined with the header first. For data
// free of commas, quotes and embedded newlines this is the exact inverse
// of Parse.
func Reconstruct(headers []string, rows [][]string) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(headers, ","))
	for _, row := range rows {
		sb.WriteByte('\n')
		sb.WriteString(strings.Join(row, ","))
	}
	return sb.String()
}

// Reconstruct renders the table back to delimited text.
func (t *ParsedTable) Reconstruct() string {
	return Reconstruct(t.Headers, t.Rows)
}

// clone copies headers and rows so transforms can build a fresh table.
func (t *ParsedTable) clone() *ParsedTable {
	headers := make([]string, len(t.Headers))
	copy(headers, t.Headers)
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = make([]string, len(row))
		copy(rows[i], row)
	}
	return &ParsedTable{Headers: headers, Rows: rows}
}
