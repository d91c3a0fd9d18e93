package model

import "time"

type RunState string

const RUN_STATE_PENDING RunState = "pending"
const RUN_STATE_RUNNING RunState = "running"
const RUN_STATE_SUCCESS RunState = "success"
const RUN_STATE_FAILED RunState = "failed"

type StepState string

const STEP_STATE_PENDING StepState = "pending"
const STEP_STATE_SUCCESS StepState = "success"
const STEP_STATE_FAILED StepState = "failed"

// Step records one node visit within a run. A step is appended in pending
// state before the node executes and replaced in place, same id, with a
// terminal record afterwards.
type Step struct {
	Id        string         `json:"id"`
	NodeId    string         `json:"nodeId"`
	NodeLabel string         `json:"nodeLabel"`
	Status    StepState      `json:"status"`
	StartTime time.Time      `json:"startTime"`
	EndTime   time.Time      `json:"endTime,omitempty"`
	Duration  string         `json:"duration,omitempty"`
	Input     map[string]any `json:"input"`
	Output    map[string]any `json:"output"`
	Logs      []string       `json:"logs"`
}

// Run is one end-to-end execution of a workflow. The run record itself is
// the error report: a failed run carries the failing step with the error
// text in its logs.
type Run struct {
	Id           string    `json:"id"`
	WorkflowId   string    `json:"workflowId"`
	WorkflowName string    `json:"workflowName"`
	Status       RunState  `json:"status"`
	StartedAt    time.Time `json:"startedAt"`
	Duration     string    `json:"duration,omitempty"`
	Steps        []Step    `json:"steps"`
}

// Copy returns a snapshot of the run safe to hand to observers while the
// engine keeps mutating the original.
func (r *Run) Copy() *Run {
	cp := *r
	cp.Steps = make([]Step, len(r.Steps))
	for i, s := range r.Steps {
		sc := s
		sc.Logs = append([]string(nil), s.Logs...)
		sc.Input = copyMap(s.Input)
		sc.Output = copyMap(s.Output)
		cp.Steps[i] = sc
	}
	return &cp
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
