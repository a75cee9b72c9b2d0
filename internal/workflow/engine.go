package workflow

import (
	"context"
	"path/filepath"
	"strings"

	"dataforge/internal/logging"
	"dataforge/internal/perception"
	"dataforge/internal/report"
	"dataforge/internal/store"
)

// Engine is the caller-facing surface: it owns a planner and an executor
// built over explicitly injected collaborators.
type Engine struct {
	store    store.RecordStore
	planner  *Planner
	executor *Executor
}

// NewEngine wires an engine from its collaborators. The LLM client and
// record store are constructed by the caller and passed in once.
func NewEngine(st store.RecordStore, llm perception.LLMClient) *Engine {
	planner := NewPlanner(llm)
	synth := report.NewSynthesizer(llm)
	return &Engine{
		store:    st,
		planner:  planner,
		executor: NewExecutor(st, planner, synth),
	}
}

// ProcessRequest plans and executes one natural-language request. The
// context may carry fileData, filename, tags and recordId. Fatal errors
// (ErrPlanning, ErrCriticalTask, ErrUnknownAction) are surfaced verbatim
// alongside whatever partial result exists.
func (e *Engine) ProcessRequest(ctx context.Context, request string, wctx Context) (*ExecutionResult, error) {
	timer := logging.StartTimer(logging.CategoryWorkflow, "ProcessRequest")
	defer timer.Stop()

	if wctx == nil {
		wctx = Context{}
	}

	plan, err := e.planner.Plan(ctx, request, wctx)
	if err != nil {
		return nil, err
	}

	return e.executor.Execute(ctx, plan, wctx)
}

// ProcessFileUpload persists an uploaded file's extracted text as a record,
// then runs the request with the file wired into the ambient context.
func (e *Engine) ProcessFileUpload(ctx context.Context, extractedText, filename, request string) (*ExecutionResult, error) {
	timer := logging.StartTimer(logging.CategoryWorkflow, "ProcessFileUpload")
	defer timer.Stop()

	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	rec := &store.KnowledgeRecord{
		Title:      title,
		Content:    extractedText,
		RawContent: extractedText,
		Filename:   filename,
		FileType:   strings.TrimPrefix(filepath.Ext(filename), "."),
		Tags:       []string{"upload"},
	}
	if err := e.store.Save(rec); err != nil {
		return nil, err
	}
	logging.Workflow("upload %q stored as record %s", filename, rec.ID)

	wctx := Context{
		"fileData": extractedText,
		"filename": filename,
		"recordId": rec.ID,
		"tags":     rec.Tags,
	}
	return e.ProcessRequest(ctx, request, wctx)
}
