package perception

import (
	"testing"
)

type insightsShape struct {
	Summary   string   `json:"summary"`
	Anomalies []string `json:"anomalies"`
}

func TestExtractStrict(t *testing.T) {
	var out insightsShape
	res := Extract(`{"summary": "all good", "anomalies": []}`, &out, nil)
	if res.Path != PathStrict {
		t.Errorf("expected strict path, got %s", res.Path)
	}
	if out.Summary != "all good" {
		t.Errorf("unexpected summary: %q", out.Summary)
	}
	if res.Degraded() {
		t.Error("strict extraction should not be degraded")
	}
}

func TestExtractFencedResponse(t *testing.T) {
	raw := "```json\n{\"summary\": \"fenced\", \"anomalies\": [\"a\"]}\n```"
	var out insightsShape
	res := Extract(raw, &out, nil)
	if res.Path != PathStrict {
		t.Errorf("expected strict path after fence strip, got %s", res.Path)
	}
	if out.Summary != "fenced" || len(out.Anomalies) != 1 {
		t.Errorf("unexpected result: %+v", out)
	}
}

func TestExtractNarratedResponse(t *testing.T) {
	raw := "Sure, here is the JSON you asked for:\n\n{\"summary\": \"sliced\", \"anomalies\": []}\n\nLet me know if you need anything else."
	var out insightsShape
	res := Extract(raw, &out, nil)
	if res.Path != PathStrict {
		t.Errorf("expected strict path after slicing, got %s", res.Path)
	}
	if out.Summary != "sliced" {
		t.Errorf("unexpected summary: %q", out.Summary)
	}
}

// The canonical malformed sample: a fenced object with a missing comma
// between array elements. Extraction must not panic or surface an error.
func TestExtractMalformedSampleNeverFails(t *testing.T) {
	raw := "```json\n{\"a\": [1\n2]}\n```"
	var out map[string]interface{}
	defaulted := false
	res := Extract(raw, &out, func() {
		out = map[string]interface{}{}
		defaulted = true
	})
	if res.Path == PathDefault && !defaulted {
		t.Error("default path reported but default not applied")
	}
	if out == nil {
		t.Fatal("out must hold either a repaired parse or the default")
	}
	if res.Path == PathRepaired {
		arr, ok := out["a"].([]interface{})
		if !ok || len(arr) != 2 {
			t.Errorf("repaired parse lost elements: %+v", out)
		}
	}
}

func TestExtractMissingCommaBeforeKey(t *testing.T) {
	raw := "{\n  \"items\": [\"x\"]\n  \"summary\": \"ok\"\n}"
	var out struct {
		Items   []string `json:"items"`
		Summary string   `json:"summary"`
	}
	res := Extract(raw, &out, nil)
	if res.Path != PathRepaired && res.Path != PathFallback {
		t.Fatalf("expected repaired or fallback path, got %s (err=%v)", res.Path, res.Err)
	}
	if out.Summary != "ok" || len(out.Items) != 1 {
		t.Errorf("unexpected result: %+v", out)
	}
}

func TestExtractQuotesBareArrayElements(t *testing.T) {
	raw := "{\n  \"anomalies\": [\n    salary spike in row 3,\n    missing emails\n  ],\n  \"summary\": \"two issues\"\n}"
	var out insightsShape
	res := Extract(raw, &out, nil)
	if res.Path == PathDefault {
		t.Fatalf("expected a recovering path, got default (err=%v)", res.Err)
	}
	if len(out.Anomalies) != 2 {
		t.Errorf("expected 2 anomalies, got %+v", out.Anomalies)
	}
	if out.Summary != "two issues" {
		t.Errorf("unexpected summary: %q", out.Summary)
	}
}

func TestExtractTotalFailureAppliesDefault(t *testing.T) {
	var out insightsShape
	res := Extract("the model refused to answer", &out, func() {
		out = insightsShape{
			Summary:   "Unable to generate insights from the provided data.",
			Anomalies: []string{},
		}
	})
	if res.Path != PathDefault {
		t.Fatalf("expected default path, got %s", res.Path)
	}
	if res.Err == nil {
		t.Error("default path should carry the last parse error")
	}
	if out.Summary == "" || out.Anomalies == nil {
		t.Errorf("default not applied: %+v", out)
	}
	if !res.Degraded() {
		t.Error("default extraction must report degraded")
	}
}

func TestCleanResponseVariants(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"narrated fence", "Result:\n```json\n{\"a\":1}\n```\ndone", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := CleanResponse(tt.in); got != tt.want {
			t.Errorf("%s: CleanResponse = %q, want %q", tt.name, got, tt.want)
		}
	}
}
