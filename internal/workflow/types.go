// Package workflow turns a natural-language request into an ordered task
// plan via a language model, resolves inter-task parameter references, and
// executes the plan against the tool set.
package workflow

// Capability groups actions by what kind of tool serves them. Retrieval and
// processing are the critical capabilities: their failures abort a workflow.
type Capability string

const (
	CapabilityRetrieval  Capability = "retrieval"
	CapabilityProcessing Capability = "processing"
	CapabilityReporting  Capability = "reporting"
	CapabilityExport     Capability = "export"
)

// Action is the closed set of tool names a plan may reference.
type Action string

const (
	ActionGetRecord     Action = "get_record"
	ActionGetByFilename Action = "get_by_filename"
	ActionSaveRecord    Action = "save_record"

	ActionCleanData       Action = "clean_data"
	ActionTransformData   Action = "transform_data"
	ActionValidateData    Action = "validate_data"
	ActionDeduplicateData Action = "deduplicate_data"
	ActionNormalizeData   Action = "normalize_data"
	ActionAnalyzeData     Action = "analyze_data"

	ActionGenerateReport Action = "generate_report"
	ActionSummarizeData  Action = "summarize_data"

	ActionExportPDF      Action = "export_pdf"
	ActionExportMarkdown Action = "export_markdown"
	ActionExportJSON     Action = "export_json"
)

var actionCapabilities = map[Action]Capability{
	ActionGetRecord:     CapabilityRetrieval,
	ActionGetByFilename: CapabilityRetrieval,
	ActionSaveRecord:    CapabilityRetrieval,

	ActionCleanData:       CapabilityProcessing,
	ActionTransformData:   CapabilityProcessing,
	ActionValidateData:    CapabilityProcessing,
	ActionDeduplicateData: CapabilityProcessing,
	ActionNormalizeData:   CapabilityProcessing,
	ActionAnalyzeData:     CapabilityProcessing,

	ActionGenerateReport: CapabilityReporting,
	ActionSummarizeData:  CapabilityReporting,

	ActionExportPDF:      CapabilityExport,
	ActionExportMarkdown: CapabilityExport,
	ActionExportJSON:     CapabilityExport,
}

// Capability returns the action's capability group; ok is false for actions
// outside the closed set.
func (a Action) Capability() (Capability, bool) {
	c, ok := actionCapabilities[a]
	return c, ok
}

// Critical reports whether a failure of this action aborts the workflow.
// Retrieval and processing tasks feed everything downstream; reporting and
// export failures are recorded and execution continues.
func (a Action) Critical() bool {
	c, ok := actionCapabilities[a]
	if !ok {
		return false
	}
	return c == CapabilityRetrieval || c == CapabilityProcessing
}

// TaskStatus is the task state machine: pending -> running -> completed|failed.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusRunning   TaskStatus = "running"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
)

// Task is one unit of work in a plan. The planner creates tasks with status
// pending; only the executor mutates Status, Result and Error.
type Task struct {
	Action       Action                 `json:"action"`
	Params       map[string]interface{} `json:"params"`
	Dependencies []int                  `json:"dependencies,omitempty"`
	Status       TaskStatus             `json:"status"`
	Result       interface{}            `json:"result,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

// WorkflowPlan is the ordered task list plus the model's reasoning. Task
// count and order are fixed once planned; task contents mutate during
// execution.
type WorkflowPlan struct {
	Tasks     []Task `json:"tasks"`
	Reasoning string `json:"reasoning"`
}

// DataAnalysis is the companion analysis the planner runs over a raw data
// blob to decide which transform stages a processing request needs.
type DataAnalysis struct {
	NeedsCleaning       bool   `json:"needs_cleaning"`
	NeedsTransformation bool   `json:"needs_transformation"`
	NeedsValidation     bool   `json:"needs_validation"`
	RawTextAllowed      *bool  `json:"raw_text_allowed,omitempty"`
	Explanation         string `json:"explanation"`
}

// Context carries the ambient request fields (fileData, filename, tags,
// recordId) available to parameter resolution.
type Context map[string]interface{}

// TaskResult is the field-addressable outcome of one executed task, appended
// to the previous-results sequence that later tasks resolve references
// against.
type TaskResult struct {
	Index  int                    `json:"index"`
	Action Action                 `json:"action"`
	Status TaskStatus             `json:"status"`
	Value  map[string]interface{} `json:"value,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// ExecutionResult is what a workflow run returns to the caller.
type ExecutionResult struct {
	Plan    *WorkflowPlan `json:"plan"`
	Results []TaskResult  `json:"results"`
	Summary string        `json:"summary"`
}
