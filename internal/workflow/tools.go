package workflow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"dataforge/internal/logging"
	"dataforge/internal/report"
	"dataforge/internal/store"
	"dataforge/internal/tabular"
)

// dispatch routes one resolved task to its tool. The switch is exhaustive
// over the closed action set; the executor has already rejected anything
// outside it.
func (e *Executor) dispatch(ctx context.Context, action Action, params map[string]interface{}) (map[string]interface{}, error) {
	timer := logging.StartTimer(logging.CategoryTools, string(action))
	defer timer.Stop()

	switch action {
	case ActionGetRecord:
		return e.getRecord(params)
	case ActionGetByFilename:
		return e.getByFilename(params)
	case ActionSaveRecord:
		return e.saveRecord(params)

	case ActionCleanData:
		return e.processData(params, tabular.CleanText)
	case ActionTransformData:
		return e.processData(params, tabular.TransformText)
	case ActionValidateData:
		return e.processData(params, tabular.ValidateText)
	case ActionDeduplicateData:
		return e.processData(params, tabular.DeduplicateText)
	case ActionNormalizeData:
		return e.processData(params, tabular.NormalizeText)
	case ActionAnalyzeData:
		return e.analyzeData(ctx, params)

	case ActionGenerateReport:
		return e.generateReport(ctx, params)
	case ActionSummarizeData:
		return e.summarizeData(ctx, params)

	case ActionExportPDF:
		return e.exportReport(ctx, params, "html")
	case ActionExportMarkdown:
		return e.exportReport(ctx, params, "markdown")
	case ActionExportJSON:
		return e.exportReport(ctx, params, "json")
	}

	return nil, fmt.Errorf("unhandled action %q", action)
}

func (e *Executor) getRecord(params map[string]interface{}) (map[string]interface{}, error) {
	id := paramString(params, "recordId")
	if id == "" {
		id = paramString(params, "id")
	}
	if id == "" {
		return nil, errors.New("get_record requires a recordId")
	}

	rec, err := e.store.GetByID(id)
	if errors.Is(err, store.ErrNotFound) {
		rec, err = e.store.GetByTitle(id)
	}
	if err != nil {
		return nil, fmt.Errorf("record %q: %w", id, err)
	}
	return recordValue(rec), nil
}

func (e *Executor) getByFilename(params map[string]interface{}) (map[string]interface{}, error) {
	filename := paramString(params, "filename")
	if filename == "" {
		return nil, errors.New("get_by_filename requires a filename")
	}

	rec, err := e.store.GetByFilename(filename)
	if errors.Is(err, store.ErrNotFound) {
		// Uploads are often titled after the bare filename.
		title := strings.TrimSuffix(filename, filepath.Ext(filename))
		rec, err = e.store.GetByTitle(title)
	}
	if err != nil {
		return nil, fmt.Errorf("record for file %q: %w", filename, err)
	}
	return recordValue(rec), nil
}

func (e *Executor) saveRecord(params map[string]interface{}) (map[string]interface{}, error) {
	data := paramString(params, "data")
	if data == "" {
		return nil, errors.New("save_record requires data")
	}

	filename := paramString(params, "filename")
	title := paramString(params, "title")
	if title == "" && filename != "" {
		title = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	if title == "" {
		title = "Untitled record"
	}

	rec := &store.KnowledgeRecord{
		ID:         paramString(params, "recordId"),
		Title:      title,
		Content:    data,
		RawContent: paramString(params, "rawData"),
		Filename:   filename,
		FileType:   strings.TrimPrefix(filepath.Ext(filename), "."),
		Tags:       paramStrings(params, "tags"),
	}
	if err := e.store.Save(rec); err != nil {
		return nil, err
	}
	return recordValue(rec), nil
}

// processData runs one transform pass over the task's data, carrying the
// record identity fields through so downstream tasks can chain on them.
func (e *Executor) processData(params map[string]interface{}, pass func(string) (string, tabular.Mode)) (map[string]interface{}, error) {
	data, err := e.loadData(params)
	if err != nil {
		return nil, err
	}

	out, mode := pass(data)
	logging.Tools("processed %d -> %d bytes (mode=%s)", len(data), len(out), mode)

	value := map[string]interface{}{
		"data": out,
		"mode": string(mode),
	}
	carryIdentity(params, value)
	return value, nil
}

func (e *Executor) analyzeData(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	data, err := e.loadData(params)
	if err != nil {
		return nil, err
	}

	analysis := e.planner.Analyze(ctx, data)

	out := data
	if analysis.NeedsCleaning {
		out, _ = tabular.CleanText(out)
	}
	if analysis.NeedsTransformation {
		out, _ = tabular.TransformText(out)
	}
	if analysis.NeedsValidation {
		out, _ = tabular.ValidateText(out)
	}

	value := map[string]interface{}{
		"data":        out,
		"analysis":    analysis,
		"explanation": analysis.Explanation,
	}
	carryIdentity(params, value)
	return value, nil
}

func (e *Executor) generateReport(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	data, err := e.loadData(params)
	if err != nil {
		return nil, err
	}

	dataSource := paramString(params, "filename")
	if dataSource == "" {
		dataSource = paramString(params, "recordId")
	}
	if dataSource == "" {
		dataSource = "inline data"
	}
	reportType := paramString(params, "reportType")
	if reportType == "" {
		reportType = "summary"
	}

	rep, err := e.synth.Synthesize(ctx, data, dataSource, reportType)
	if err != nil {
		return nil, err
	}

	value := map[string]interface{}{
		"report":     rep,
		"reportType": reportType,
		"dataSource": rep.Metadata.DataSource,
		"title":      rep.Metadata.Title,
		"data":       data,
	}
	carryIdentity(params, value)
	return value, nil
}

func (e *Executor) summarizeData(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	data, err := e.loadData(params)
	if err != nil {
		return nil, err
	}

	summary, err := e.synth.Summarize(ctx, data)
	if err != nil {
		return nil, err
	}

	value := map[string]interface{}{"summary": summary}
	carryIdentity(params, value)
	return value, nil
}

// exportReport renders a report in the requested format. When the resolver's
// shim delivered a prior report it is rendered directly; otherwise a report
// is synthesized from the task's data first.
func (e *Executor) exportReport(ctx context.Context, params map[string]interface{}, format string) (map[string]interface{}, error) {
	rep, _ := params["report"].(*report.Report)
	if rep == nil {
		data, err := e.loadData(params)
		if err != nil {
			return nil, fmt.Errorf("no report and no data to export: %w", err)
		}
		dataSource := paramString(params, "filename")
		if dataSource == "" {
			dataSource = "inline data"
		}
		reportType := paramString(params, "reportType")
		if reportType == "" {
			reportType = "summary"
		}
		rep, err = e.synth.Synthesize(ctx, data, dataSource, reportType)
		if err != nil {
			return nil, err
		}
	}

	var content string
	var err error
	switch format {
	case "html":
		content = report.ExportHTML(rep)
	case "markdown":
		content = report.ExportMarkdown(rep)
	case "json":
		content, err = report.ExportJSON(rep)
	}
	if err != nil {
		return nil, err
	}

	value := map[string]interface{}{
		"content": content,
		"format":  format,
		"title":   rep.Metadata.Title,
	}
	carryIdentity(params, value)
	return value, nil
}

// loadData returns the task's data parameter, falling back to the content of
// the record named by recordId.
func (e *Executor) loadData(params map[string]interface{}) (string, error) {
	if data := paramString(params, "data"); data != "" && !isRawPlaceholder(data) {
		return data, nil
	}
	if id := paramString(params, "recordId"); id != "" && !isRawPlaceholder(id) {
		rec, err := e.store.GetByID(id)
		if err != nil {
			return "", fmt.Errorf("loading data from record %q: %w", id, err)
		}
		return rec.Content, nil
	}
	return "", errors.New("no data available: neither data nor recordId resolved")
}

func recordValue(rec *store.KnowledgeRecord) map[string]interface{} {
	return map[string]interface{}{
		"id":       rec.ID,
		"recordId": rec.ID,
		"title":    rec.Title,
		"content":  rec.Content,
		"data":     rec.Content,
		"filename": rec.Filename,
		"fileType": rec.FileType,
		"tags":     rec.Tags,
	}
}

// carryIdentity propagates the record identity fields from resolved params
// into a tool result so later tasks can reference them.
func carryIdentity(params, value map[string]interface{}) {
	for _, key := range []string{"recordId", "filename"} {
		if _, set := value[key]; set {
			continue
		}
		if v := paramString(params, key); v != "" && !isRawPlaceholder(v) {
			value[key] = v
		}
	}
}

func paramString(params map[string]interface{}, key string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

func paramStrings(params map[string]interface{}, key string) []string {
	switch v := params[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	default:
		return nil
	}
}
