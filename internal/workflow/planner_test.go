package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestPlanStructuredPath(t *testing.T) {
	llm := &mockLLM{
		completeWithSystemFn: func(_ context.Context, _, _ string) (string, error) {
			return `{"tasks": [{"action": "clean_data", "params": {"data": "{context.fileData}"}}], "reasoning": "single cleanup"}`, nil
		},
	}

	plan, err := NewPlanner(llm).Plan(context.Background(), "clean my data", Context{})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(plan.Tasks))
	}
	if plan.Tasks[0].Action != ActionCleanData {
		t.Errorf("unexpected action: %s", plan.Tasks[0].Action)
	}
	if plan.Tasks[0].Status != StatusPending {
		t.Errorf("task must start pending, got %s", plan.Tasks[0].Status)
	}
	if plan.Reasoning != "single cleanup" {
		t.Errorf("unexpected reasoning: %q", plan.Reasoning)
	}
	if _, ok := plan.Tasks[0].Params["data"].(ContextRef); !ok {
		t.Errorf("placeholder not compiled to ContextRef: %#v", plan.Tasks[0].Params["data"])
	}
}

func TestPlanCompilesTaskRefs(t *testing.T) {
	llm := &mockLLM{
		completeWithSystemFn: func(_ context.Context, _, _ string) (string, error) {
			return `{"tasks": [
				{"action": "get_by_filename", "params": {"filename": "employees.csv"}},
				{"action": "generate_report", "params": {"recordId": "{task.0.id}"}, "dependencies": [0]}
			], "reasoning": "fetch then report"}`, nil
		},
	}

	plan, err := NewPlanner(llm).Plan(context.Background(), "report on employees.csv", Context{})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	ref, ok := plan.Tasks[1].Params["recordId"].(TaskRef)
	if !ok {
		t.Fatalf("recordId not compiled: %#v", plan.Tasks[1].Params["recordId"])
	}
	if ref.Index != 0 || ref.Field != "id" {
		t.Errorf("unexpected ref: %+v", ref)
	}
	if len(plan.Tasks[1].Dependencies) != 1 || plan.Tasks[1].Dependencies[0] != 0 {
		t.Errorf("dependencies not carried: %v", plan.Tasks[1].Dependencies)
	}
}

func TestPlanFallsBackToSimplifiedPrompt(t *testing.T) {
	simplifiedCalled := false
	llm := &mockLLM{
		completeWithSystemFn: func(_ context.Context, _, _ string) (string, error) {
			return "I'd be happy to help! What data would you like processed?", nil
		},
		completeFn: func(_ context.Context, _ string) (string, error) {
			simplifiedCalled = true
			return "```json\n{\"tasks\": [{\"action\": \"summarize_data\", \"params\": {}}], \"reasoning\": \"r\"}\n```", nil
		},
	}

	plan, err := NewPlanner(llm).Plan(context.Background(), "summarize", Context{})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !simplifiedCalled {
		t.Error("simplified path was not used")
	}
	if len(plan.Tasks) != 1 || plan.Tasks[0].Action != ActionSummarizeData {
		t.Errorf("unexpected plan: %+v", plan.Tasks)
	}
}

func TestPlanErrPlanningWhenBothPathsFail(t *testing.T) {
	llm := &mockLLM{
		completeWithSystemFn: func(_ context.Context, _, _ string) (string, error) {
			return "no json here", nil
		},
		completeFn: func(_ context.Context, _ string) (string, error) {
			return "still no json", nil
		},
	}

	_, err := NewPlanner(llm).Plan(context.Background(), "do something", Context{})
	if !errors.Is(err, ErrPlanning) {
		t.Fatalf("expected ErrPlanning, got %v", err)
	}
}

func TestAnalyzeDefaultsOnFailure(t *testing.T) {
	llm := &mockLLM{
		completeFn: func(_ context.Context, _ string) (string, error) {
			return "", errors.New("provider down")
		},
	}

	analysis := NewPlanner(llm).Analyze(context.Background(), "a,b\n1,2")
	if !analysis.NeedsCleaning || !analysis.NeedsTransformation || !analysis.NeedsValidation {
		t.Errorf("default analysis must enable all stages: %+v", analysis)
	}
}

func TestAnalyzeParsesResponse(t *testing.T) {
	llm := &mockLLM{
		completeFn: func(_ context.Context, _ string) (string, error) {
			return `{"needs_cleaning": true, "needs_transformation": false, "needs_validation": false, "explanation": "nulls only"}`, nil
		},
	}

	analysis := NewPlanner(llm).Analyze(context.Background(), "a,b\nnull,2")
	if !analysis.NeedsCleaning || analysis.NeedsTransformation || analysis.NeedsValidation {
		t.Errorf("unexpected analysis: %+v", analysis)
	}
	if analysis.Explanation != "nulls only" {
		t.Errorf("unexpected explanation: %q", analysis.Explanation)
	}
}
