package workflow

import (
	"dataforge/internal/logging"
)

// exportInheritedFields are inherited by export tasks from the most recent
// report-shaped prior result when the task's own references fail. Plans
// commonly point exports at a reportId field no report result carries; the
// shim keeps such plans executable.
var exportInheritedFields = []string{"report", "recordId", "filename", "data", "reportType"}

// Resolve produces the concrete parameter map for one task: typed references
// substitute from prior results and context, a fixed set of context fields is
// auto-injected when unset, and export tasks inherit from the latest
// report-shaped result as a compatibility shim. An unresolvable reference is
// logged and left as its raw placeholder string; resolution never fails.
func Resolve(task *Task, previous []TaskResult, ctx Context) map[string]interface{} {
	resolved := make(map[string]interface{}, len(task.Params)+3)

	for key, value := range task.Params {
		switch ref := value.(type) {
		case TaskRef:
			if v, ok := lookupTaskField(previous, ref); ok {
				resolved[key] = v
			} else {
				logging.Workflow("unresolved task reference %s for param %q (action=%s)", ref.Raw, key, task.Action)
				resolved[key] = ref.Raw
			}
		case ContextRef:
			if v, ok := ctx[ref.Field]; ok {
				resolved[key] = v
			} else {
				logging.Workflow("unresolved context reference %s for param %q (action=%s)", ref.Raw, key, task.Action)
				resolved[key] = ref.Raw
			}
		default:
			resolved[key] = value
		}
	}

	// Ambient injection: the uploaded payload and its identity travel with
	// every task unless the plan set them explicitly.
	injectIfUnset(resolved, "data", ctx["fileData"])
	injectIfUnset(resolved, "filename", ctx["filename"])
	injectIfUnset(resolved, "recordId", ctx["recordId"])

	if capability, ok := task.Action.Capability(); ok && capability == CapabilityExport {
		applyExportShim(resolved, previous, task.Action)
	}

	return resolved
}

func injectIfUnset(params map[string]interface{}, key string, value interface{}) {
	if value == nil {
		return
	}
	if existing, ok := params[key]; ok && existing != nil && existing != "" {
		return
	}
	params[key] = value
}

func lookupTaskField(previous []TaskResult, ref TaskRef) (interface{}, bool) {
	if ref.Index < 0 || ref.Index >= len(previous) {
		return nil, false
	}
	value, ok := previous[ref.Index].Value[ref.Field]
	return value, ok
}

// applyExportShim fills missing or still-placeholder export parameters from
// the most recent report-shaped prior result.
func applyExportShim(params map[string]interface{}, previous []TaskResult, action Action) {
	source := latestReportResult(previous)
	if source == nil {
		return
	}
	for _, field := range exportInheritedFields {
		current, ok := params[field]
		if ok && current != nil && !isRawPlaceholder(current) {
			continue
		}
		if v, has := source.Value[field]; has {
			params[field] = v
			logging.WorkflowDebug("export shim: %s inherited %q from task %d", action, field, source.Index)
		}
	}
}

func latestReportResult(previous []TaskResult) *TaskResult {
	for i := len(previous) - 1; i >= 0; i-- {
		if previous[i].Status != StatusCompleted {
			continue
		}
		if _, ok := previous[i].Value["reportType"]; ok {
			return &previous[i]
		}
		if _, ok := previous[i].Value["report"]; ok {
			return &previous[i]
		}
	}
	return nil
}

// isRawPlaceholder reports whether a resolved value is still a placeholder
// string, meaning its reference failed to resolve.
func isRawPlaceholder(value interface{}) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	return taskRefRe.MatchString(s) || contextRefRe.MatchString(s)
}
