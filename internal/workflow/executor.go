package workflow

import (
	"context"
	"fmt"

	"dataforge/internal/logging"
	"dataforge/internal/report"
	"dataforge/internal/store"
)

// Executor walks a plan in order, resolving each task's parameters and
// dispatching to the matching tool. There is no parallelism: each task,
// including its language-model calls, completes before the next starts.
type Executor struct {
	store   store.RecordStore
	planner *Planner
	synth   *report.Synthesizer
}

// NewExecutor creates an executor over the given collaborators.
func NewExecutor(st store.RecordStore, planner *Planner, synth *report.Synthesizer) *Executor {
	return &Executor{store: st, planner: planner, synth: synth}
}

// DependencyFailureMessage is the fixed error recorded on a task whose
// declared dependency failed. The task's tool is never invoked.
func DependencyFailureMessage(dep int) string {
	return fmt.Sprintf("dependency task %d failed", dep)
}

// Execute runs every task in plan order. Failed dependencies mark a task
// failed without invoking its tool. A failed retrieval or processing task
// aborts the workflow with ErrCriticalTask; reporting and export failures
// are recorded and execution continues. An action outside the closed set
// aborts with ErrUnknownAction. The returned ExecutionResult is populated
// even on abort, so callers can inspect partial progress.
func (e *Executor) Execute(ctx context.Context, plan *WorkflowPlan, wctx Context) (*ExecutionResult, error) {
	timer := logging.StartTimer(logging.CategoryWorkflow, "Execute")
	defer timer.Stop()

	logging.Workflow("executing plan: %d tasks", len(plan.Tasks))

	results := make([]TaskResult, 0, len(plan.Tasks))

	for i := range plan.Tasks {
		task := &plan.Tasks[i]

		if failedDep, blocked := failedDependency(task, results); blocked {
			msg := DependencyFailureMessage(failedDep)
			task.Status = StatusFailed
			task.Error = msg
			results = append(results, TaskResult{Index: i, Action: task.Action, Status: StatusFailed, Error: msg})
			logging.Workflow("task %d (%s) skipped: %s", i, task.Action, msg)
			if task.Action.Critical() {
				return resultOf(plan, results), fmt.Errorf("%w: task %d (%s): %s", ErrCriticalTask, i, task.Action, msg)
			}
			continue
		}

		if _, known := task.Action.Capability(); !known {
			msg := fmt.Sprintf("unknown action %q", task.Action)
			task.Status = StatusFailed
			task.Error = msg
			results = append(results, TaskResult{Index: i, Action: task.Action, Status: StatusFailed, Error: msg})
			return resultOf(plan, results), fmt.Errorf("%w: %q (task %d)", ErrUnknownAction, task.Action, i)
		}

		task.Status = StatusRunning
		logging.WorkflowDebug("task %d (%s) running", i, task.Action)

		params := Resolve(task, results, wctx)
		value, err := e.dispatch(ctx, task.Action, params)
		if err != nil {
			task.Status = StatusFailed
			task.Error = err.Error()
			results = append(results, TaskResult{Index: i, Action: task.Action, Status: StatusFailed, Error: task.Error})
			logging.Workflow("task %d (%s) failed: %v", i, task.Action, err)
			if task.Action.Critical() {
				return resultOf(plan, results), fmt.Errorf("%w: task %d (%s): %v", ErrCriticalTask, i, task.Action, err)
			}
			continue
		}

		task.Status = StatusCompleted
		task.Result = value
		results = append(results, TaskResult{Index: i, Action: task.Action, Status: StatusCompleted, Value: value})
		logging.WorkflowDebug("task %d (%s) completed", i, task.Action)
	}

	res := resultOf(plan, results)
	logging.Workflow("%s", res.Summary)
	return res, nil
}

func failedDependency(task *Task, results []TaskResult) (int, bool) {
	for _, dep := range task.Dependencies {
		if dep < 0 || dep >= len(results) {
			return dep, true
		}
		if results[dep].Status == StatusFailed {
			return dep, true
		}
	}
	return 0, false
}

func resultOf(plan *WorkflowPlan, results []TaskResult) *ExecutionResult {
	succeeded, failed := 0, 0
	for _, r := range results {
		if r.Status == StatusCompleted {
			succeeded++
		} else {
			failed++
		}
	}
	return &ExecutionResult{
		Plan:    plan,
		Results: results,
		Summary: fmt.Sprintf("Workflow complete: %d succeeded, %d failed, %d total", succeeded, failed, len(plan.Tasks)),
	}
}
