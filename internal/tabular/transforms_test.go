package tabular

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, text string) *ParsedTable {
	t.Helper()
	table, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(%q): %v", text, err)
	}
	return table
}

func TestCleanReplacesNullSentinels(t *testing.T) {
	table := mustParse(t, "name,status\nJohn,null\nJane,N/A\nBob,TBD\nAmy,pending\nKim,--")
	cleaned := Clean(table)
	for i, row := range cleaned.Rows {
		if row[1] != Unknown {
			t.Errorf("row %d: expected %q, got %q", i, Unknown, row[1])
		}
	}
}

func TestCleanCollapsesWhitespace(t *testing.T) {
	table := mustParse(t, "name,city\n\"John   Smith\",\"New    York\"")
	cleaned := Clean(table)
	want := [][]string{{"John Smith", "New York"}}
	if diff := cmp.Diff(want, cleaned.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestCleanIdempotent(t *testing.T) {
	table := mustParse(t, "name,status\n\"John  Smith\",null\nJane,ok")
	once := Clean(table)
	twice := Clean(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("Clean not idempotent (-once +twice):\n%s", diff)
	}
}

func TestCleanDoesNotMutateInput(t *testing.T) {
	table := mustParse(t, "name,status\nJohn,null")
	Clean(table)
	if table.Rows[0][1] != "null" {
		t.Errorf("input table mutated: %q", table.Rows[0][1])
	}
}

func TestTransformDates(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"01/15/2023", "2023-01-15"},
		{"15-01-2023", "2023-01-15"},
		{"2023/01/15", "2023-01-15"},
		{"13/45/2023", "13/45/2023"}, // month 13, day 45: rejected
		{"2023-01-15", "2023-01-15"}, // already canonical
	}
	for _, tt := range tests {
		table := mustParse(t, "joined\n"+tt.in)
		got := Transform(table).Rows[0][0]
		if got != tt.want {
			t.Errorf("Transform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTransformEmailLowercase(t *testing.T) {
	table := mustParse(t, "email\nJohn.Smith@Example.COM\nnot-an-email")
	out := Transform(table)
	if out.Rows[0][0] != "john.smith@example.com" {
		t.Errorf("expected lowercased email, got %q", out.Rows[0][0])
	}
	if out.Rows[1][0] != "not-an-email" {
		t.Errorf("non-email should pass through, got %q", out.Rows[1][0])
	}
}

func TestTransformPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(555) 123-4567", "555-123-4567"},
		{"555.123.4567", "555-123-4567"},
		{"5551234567", "555-123-4567"},
		{"12345", "12345"}, // not ten digits: pass through
	}
	for _, tt := range tests {
		table := mustParse(t, "phone\n\""+tt.in+"\"")
		got := Transform(table).Rows[0][0]
		if got != tt.want {
			t.Errorf("Transform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTransformCurrency(t *testing.T) {
	table := mustParse(t, "salary,price\n\"$85,000\",\"$1,234.50\"")
	out := Transform(table)
	want := [][]string{{"85000", "1234.50"}}
	if diff := cmp.Diff(want, out.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateAge(t *testing.T) {
	table := mustParse(t, "name,age\nJohn,200\nJane,30")
	out := Validate(table)
	if out.Rows[0][1] != TagInvalidAge {
		t.Errorf("age 200 should be tagged, got %q", out.Rows[0][1])
	}
	if out.Rows[1][1] != "30" {
		t.Errorf("age 30 should pass, got %q", out.Rows[1][1])
	}
	if out.Rows[0][0] != "John" {
		t.Errorf("name column must be untouched, got %q", out.Rows[0][0])
	}
}

func TestValidateEmail(t *testing.T) {
	table := mustParse(t, "email\njohn@example.com\nnot-an-email\nUnknown")
	out := Validate(table)
	if out.Rows[0][0] != "john@example.com" {
		t.Errorf("valid email tagged: %q", out.Rows[0][0])
	}
	if out.Rows[1][0] != TagInvalidEmail {
		t.Errorf("invalid email not tagged: %q", out.Rows[1][0])
	}
	if out.Rows[2][0] != Unknown {
		t.Errorf("Unknown must be exempt, got %q", out.Rows[2][0])
	}
}

func TestValidateDate(t *testing.T) {
	table := mustParse(t, "start_date\n2023-01-15\n2023-13-01\n01/15/2023")
	out := Validate(table)
	if out.Rows[0][0] != "2023-01-15" {
		t.Errorf("valid date tagged: %q", out.Rows[0][0])
	}
	if out.Rows[1][0] != TagInvalidDate {
		t.Errorf("month 13 not tagged: %q", out.Rows[1][0])
	}
	if out.Rows[2][0] != TagInvalidDate {
		t.Errorf("non-canonical date not tagged: %q", out.Rows[2][0])
	}
}

func TestValidatePreservesRowLengths(t *testing.T) {
	table := mustParse(t, "name,age,email\nJohn,invalid,bad\nJane,30,jane@x.io")
	out := Validate(table)
	for i, row := range out.Rows {
		if len(row) != len(table.Headers) {
			t.Errorf("row %d length changed: %d != %d", i, len(row), len(table.Headers))
		}
	}
}

func TestDeduplicateFirstWins(t *testing.T) {
	table := mustParse(t, "name,age\nJohn,30\nJane,25\nJohn,30")
	out := Deduplicate(table)
	want := [][]string{
		{"John", "30"},
		{"Jane", "25"},
	}
	if diff := cmp.Diff(want, out.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	table := mustParse(t, "name\nJohn\nJane\nJohn")
	once := Deduplicate(table)
	twice := Deduplicate(once)
	if diff := cmp.Diff(once.Rows, twice.Rows); diff != "" {
		t.Errorf("Deduplicate not idempotent (-once +twice):\n%s", diff)
	}
}

func TestNormalizeNamesAndStates(t *testing.T) {
	table := mustParse(t, "name,state\njohn smith,ca\nJANE DOE,ny")
	out := Normalize(table)
	want := [][]string{
		{"John Smith", "CA"},
		{"Jane Doe", "NY"},
	}
	if diff := cmp.Diff(want, out.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeLeavesNonStatesAlone(t *testing.T) {
	table := mustParse(t, "code\nxx\nok")
	out := Normalize(table)
	if out.Rows[0][0] != "xx" {
		t.Errorf("xx is not a state code, got %q", out.Rows[0][0])
	}
	if out.Rows[1][0] != "OK" {
		t.Errorf("ok is Oklahoma, got %q", out.Rows[1][0])
	}
}

func TestCleanTextTableMode(t *testing.T) {
	out, mode := CleanText("name,status\nJohn,null")
	if mode != ModeTable {
		t.Errorf("expected table mode, got %s", mode)
	}
	if !strings.Contains(out, Unknown) {
		t.Errorf("null not replaced: %q", out)
	}
}

func TestCleanTextRegexFallback(t *testing.T) {
	out, mode := CleanText("status is null today")
	if mode != ModeRegex {
		t.Errorf("expected regex mode, got %s", mode)
	}
	if !strings.Contains(out, Unknown) {
		t.Errorf("null not replaced in regex mode: %q", out)
	}
}

func TestTransformTextRegexFallback(t *testing.T) {
	out, mode := TransformText("meeting on 01/15/2023 confirmed")
	if mode != ModeRegex {
		t.Errorf("expected regex mode, got %s", mode)
	}
	if !strings.Contains(out, "2023-01-15") {
		t.Errorf("date not rewritten in regex mode: %q", out)
	}
}

func TestValidateTextUnparseableUnchanged(t *testing.T) {
	in := "free form text"
	out, mode := ValidateText(in)
	if mode != ModeRegex || out != in {
		t.Errorf("unparseable input must pass through: mode=%s out=%q", mode, out)
	}
}
