// Package report builds structured reports over processed data through two
// chained language-model calls and renders them as HTML, Markdown or JSON.
package report

import (
	"context"
	"fmt"
	"time"

	"dataforge/internal/logging"
	"dataforge/internal/perception"
	"dataforge/internal/tabular"
)

// Metadata describes one report's provenance.
type Metadata struct {
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generatedAt"`
	DataSource  string    `json:"dataSource"`
	RecordCount int       `json:"recordCount"`
	ReportType  string    `json:"reportType"`
}

// Section is one titled block of report content.
type Section struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Insights []string `json:"insights,omitempty"`
}

// Report is the structured result of synthesis. It is built once and
// exported without further mutation.
type Report struct {
	Metadata        Metadata  `json:"metadata"`
	Sections        []Section `json:"sections"`
	Summary         string    `json:"summary"`
	Recommendations []string  `json:"recommendations,omitempty"`
}

const summaryPrompt = `Summarize this dataset in 2-4 plain sentences: what it contains, its apparent quality, and anything notable. Respond with the summary text only, no preamble.

Data (may be truncated):
%s`

const insightsPrompt = `You previously summarized a dataset as:
%s

Now produce structured insights over the same data. Respond with ONLY a JSON object, no prose, no code fences:
{"sections": [{"title": "...", "content": "...", "insights": ["..."]}], "recommendations": ["..."]}

Data (may be truncated):
%s`

// insightsDefaultSummary is the fixed text used when insight extraction
// fails entirely.
const insightsDefaultSummary = "Unable to generate detailed insights from the provided data."

const synthesisSampleLimit = 6000

// Synthesizer runs the two-call report pipeline. The LLM client is injected
// at construction.
type Synthesizer struct {
	llm perception.LLMClient
}

// NewSynthesizer creates a synthesizer bound to the given LLM client.
func NewSynthesizer(llm perception.LLMClient) *Synthesizer {
	return &Synthesizer{llm: llm}
}

// insightsShape is the wire shape of the second call.
type insightsShape struct {
	Sections        []Section `json:"sections"`
	Recommendations []string  `json:"recommendations"`
}

// Synthesize builds a report over data: first a textual summary, then a
// structured insights call fed through the resilient extractor. The summary
// call failing fails the synthesis; the insights call degrades to a fixed
// default section instead.
func (s *Synthesizer) Synthesize(ctx context.Context, data, dataSource, reportType string) (*Report, error) {
	timer := logging.StartTimer(logging.CategoryReport, "Synthesize")
	defer timer.Stop()

	sample := data
	if len(sample) > synthesisSampleLimit {
		sample = sample[:synthesisSampleLimit]
	}

	summary, err := s.llm.Complete(ctx, fmt.Sprintf(summaryPrompt, sample))
	if err != nil {
		return nil, fmt.Errorf("report summary call failed: %w", err)
	}
	summary = perception.CleanResponse(summary)
	logging.ReportDebug("summary produced (%d chars)", len(summary))

	var insights insightsShape
	applyDefault := func() {
		insights = insightsShape{
			Sections: []Section{{
				Title:   "Overview",
				Content: insightsDefaultSummary,
			}},
		}
	}

	resp, err := s.llm.Complete(ctx, fmt.Sprintf(insightsPrompt, summary, sample))
	if err != nil {
		logging.Report("insights call failed, using default section: %v", err)
		applyDefault()
	} else {
		res := perception.Extract(resp, &insights, applyDefault)
		if len(insights.Sections) == 0 {
			applyDefault()
		}
		logging.ReportDebug("insights extracted via %s path: %d sections", res.Path, len(insights.Sections))
	}

	return &Report{
		Metadata: Metadata{
			Title:       fmt.Sprintf("%s report: %s", reportType, dataSource),
			GeneratedAt: time.Now().UTC(),
			DataSource:  dataSource,
			RecordCount: countRecords(data),
			ReportType:  reportType,
		},
		Sections:        insights.Sections,
		Summary:         summary,
		Recommendations: insights.Recommendations,
	}, nil
}

// Summarize runs only the first call and returns the plain-text summary.
func (s *Synthesizer) Summarize(ctx context.Context, data string) (string, error) {
	timer := logging.StartTimer(logging.CategoryReport, "Summarize")
	defer timer.Stop()

	sample := data
	if len(sample) > synthesisSampleLimit {
		sample = sample[:synthesisSampleLimit]
	}
	resp, err := s.llm.Complete(ctx, fmt.Sprintf(summaryPrompt, sample))
	if err != nil {
		return "", fmt.Errorf("summary call failed: %w", err)
	}
	return perception.CleanResponse(resp), nil
}

// countRecords counts data rows when the payload parses as a table, else 0.
func countRecords(data string) int {
	table, err := tabular.Parse(data)
	if err != nil {
		return 0
	}
	return len(table.Rows)
}
