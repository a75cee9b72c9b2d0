package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"dataforge/internal/logging"
	"dataforge/internal/perception"
)

const plannerSystemPrompt = `You are a workflow planner for a data processing engine.
You translate a user's request into an ordered list of tasks drawn from a fixed action catalogue.

AVAILABLE ACTIONS:
Retrieval:
- get_record: fetch a stored record. Params: recordId.
- get_by_filename: fetch the record ingested from a file. Params: filename.
- save_record: persist data as a record. Params: title, data, filename.
Processing:
- clean_data: replace null-like values and collapse whitespace. Params: data.
- transform_data: canonicalize dates, emails, phones, currency. Params: data.
- validate_data: tag invalid emails, ages, dates, phones, amounts. Params: data.
- deduplicate_data: drop duplicate rows. Params: data.
- normalize_data: title-case names, uppercase state codes. Params: data.
- analyze_data: decide which processing stages the data needs and run them. Params: data.
Reporting:
- generate_report: build a structured report over the data. Params: recordId or data, reportType.
- summarize_data: produce a short textual summary. Params: data.
Export:
- export_pdf: render the report as HTML (PDF surrogate).
- export_markdown: render the report as Markdown.
- export_json: render the report as JSON.

PARAMETER REFERENCES:
- {task.N.field} substitutes field "field" of task N's result (0-based).
- {context.field} substitutes a field of the ambient request context.

Respond with ONLY a JSON object, no prose, no code fences:
{"tasks": [{"action": "...", "params": {...}, "dependencies": [0]}], "reasoning": "..."}

Rules:
- Tasks run strictly in order. dependencies lists the indices a task needs completed.
- Processing tasks chain via {task.N.data}.
- Reference retrieved records via {task.N.id}.`

const plannerSimplifiedPrompt = `Translate this request into a JSON workflow plan.
Use only these actions: get_record, get_by_filename, save_record, clean_data, transform_data, validate_data, deduplicate_data, normalize_data, analyze_data, generate_report, summarize_data, export_pdf, export_markdown, export_json.
Output exactly one JSON object shaped {"tasks": [{"action": "...", "params": {}, "dependencies": []}], "reasoning": "..."} and nothing else.

Request: %s
Context: %s`

const analysisPrompt = `Inspect this raw data and decide which processing stages it needs.
Respond with ONLY a JSON object:
{"needs_cleaning": bool, "needs_transformation": bool, "needs_validation": bool, "raw_text_allowed": bool, "explanation": "one sentence"}

Data (may be truncated):
%s`

// Planner asks the language model for a workflow plan. The client is passed
// in at construction; there is no ambient singleton.
type Planner struct {
	llm perception.LLMClient
}

// NewPlanner creates a planner bound to the given LLM client.
func NewPlanner(llm perception.LLMClient) *Planner {
	return &Planner{llm: llm}
}

// rawPlan is the wire shape the model returns before reference compilation.
type rawPlan struct {
	Tasks []struct {
		Action       string                 `json:"action"`
		Params       map[string]interface{} `json:"params"`
		Dependencies []int                  `json:"dependencies"`
	} `json:"tasks"`
	Reasoning string `json:"reasoning"`
}

// Plan produces a WorkflowPlan for the request. The primary path sends the
// full structured prompt and requires a strict parse; on failure a simplified
// prompt is sent and the raw text fed through the resilient extractor.
// ErrPlanning is returned only when both paths fail.
func (p *Planner) Plan(ctx context.Context, request string, wctx Context) (*WorkflowPlan, error) {
	timer := logging.StartTimer(logging.CategoryPlanning, "Plan")
	defer timer.Stop()

	ctxJSON := serializeContext(wctx)
	logging.Planning("planning request: %q (context keys: %d)", request, len(wctx))

	userPrompt := fmt.Sprintf("Request: %s\nContext: %s", request, ctxJSON)
	resp, err := p.llm.CompleteWithSystem(ctx, plannerSystemPrompt, userPrompt)
	if err == nil {
		var raw rawPlan
		cleaned := perception.CleanResponse(resp)
		if jsonErr := json.Unmarshal([]byte(cleaned), &raw); jsonErr == nil && len(raw.Tasks) > 0 {
			logging.PlanningDebug("structured path produced %d tasks", len(raw.Tasks))
			return buildPlan(raw), nil
		}
		logging.Planning("structured path unusable, retrying with simplified prompt")
	} else {
		logging.Planning("structured path request failed: %v", err)
	}

	resp, err = p.llm.Complete(ctx, fmt.Sprintf(plannerSimplifiedPrompt, request, ctxJSON))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlanning, err)
	}

	var raw rawPlan
	res := perception.Extract(resp, &raw, nil)
	if res.Path == perception.PathDefault || len(raw.Tasks) == 0 {
		return nil, fmt.Errorf("%w: simplified path yielded no tasks (extraction=%s)", ErrPlanning, res.Path)
	}
	logging.PlanningDebug("simplified path produced %d tasks via %s extraction", len(raw.Tasks), res.Path)

	return buildPlan(raw), nil
}

// buildPlan converts the wire shape into the typed plan: statuses initialized
// to pending and placeholder strings compiled into typed references.
func buildPlan(raw rawPlan) *WorkflowPlan {
	plan := &WorkflowPlan{
		Tasks:     make([]Task, 0, len(raw.Tasks)),
		Reasoning: raw.Reasoning,
	}
	for _, t := range raw.Tasks {
		plan.Tasks = append(plan.Tasks, Task{
			Action:       Action(t.Action),
			Params:       compileParams(t.Params),
			Dependencies: t.Dependencies,
			Status:       StatusPending,
		})
	}
	return plan
}

const analysisSampleLimit = 4000

// Analyze runs the companion analysis call over a raw data blob. It never
// fails: when the model's answer is unusable the default enables every
// stage, which is always safe.
func (p *Planner) Analyze(ctx context.Context, rawData string) DataAnalysis {
	timer := logging.StartTimer(logging.CategoryPlanning, "Analyze")
	defer timer.Stop()

	sample := rawData
	if len(sample) > analysisSampleLimit {
		sample = sample[:analysisSampleLimit]
	}

	var analysis DataAnalysis
	applyDefault := func() {
		analysis = DataAnalysis{
			NeedsCleaning:       true,
			NeedsTransformation: true,
			NeedsValidation:     true,
			Explanation:         "Analysis unavailable; running all processing stages.",
		}
	}

	resp, err := p.llm.Complete(ctx, fmt.Sprintf(analysisPrompt, sample))
	if err != nil {
		logging.Planning("analysis call failed: %v", err)
		applyDefault()
		return analysis
	}

	res := perception.Extract(resp, &analysis, applyDefault)
	logging.PlanningDebug("data analysis (path=%s): cleaning=%v transformation=%v validation=%v",
		res.Path, analysis.NeedsCleaning, analysis.NeedsTransformation, analysis.NeedsValidation)
	return analysis
}

func serializeContext(wctx Context) string {
	if len(wctx) == 0 {
		return "{}"
	}
	// The payload itself can be huge; the planner only needs to know it
	// exists.
	summary := make(map[string]interface{}, len(wctx))
	for k, v := range wctx {
		if k == "fileData" {
			if s, ok := v.(string); ok {
				summary[k] = fmt.Sprintf("<%d bytes of data>", len(s))
				continue
			}
		}
		summary[k] = v
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return "{}"
	}
	return string(data)
}
