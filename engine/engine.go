package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/canvasflow/canvasflow/action"
	"github.com/canvasflow/canvasflow/logger"
	"github.com/canvasflow/canvasflow/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Observer receives a full snapshot of the run after every mutation:
// creation, each pending-step append, each step completion, and the
// terminal status change. Notifications arrive strictly in mutation order.
type Observer func(run *model.Run)

// Engine walks a workflow graph from its trigger node, executing one node
// at a time and merging each node's output into the accumulating run data.
// The engine trusts that the graph was validated beforehand; it carries no
// runtime cycle guard of its own.
type Engine struct {
	executor *action.ActionExecutor
}

func New(executor *action.ActionExecutor) *Engine {
	return &Engine{
		executor: executor,
	}
}

func (e *Engine) Run(ctx context.Context, wf model.Workflow, input map[string]any, observer Observer) (*model.Run, error) {
	start := time.Now()
	run := &model.Run{
		Id:           uuid.New().String(),
		WorkflowId:   wf.Id,
		WorkflowName: wf.Name,
		Status:       model.RUN_STATE_RUNNING,
		StartedAt:    start,
		Steps:        []model.Step{},
	}
	notify := func() {
		if observer != nil {
			observer(run.Copy())
		}
	}
	notify()

	current, err := startNode(wf)
	if err != nil {
		run.Status = model.RUN_STATE_FAILED
		run.Duration = time.Since(start).Round(time.Millisecond).String()
		logger.Error("workflow has no entry point", zap.String("workflow", wf.Name), zap.String("runId", run.Id))
		notify()
		return run, err
	}

	data := make(map[string]any, len(input))
	for k, v := range input {
		data[k] = v
	}

	for current != nil {
		step := model.Step{
			Id:        uuid.New().String(),
			NodeId:    current.Id,
			NodeLabel: current.Label,
			Status:    model.STEP_STATE_PENDING,
			StartTime: time.Now(),
			Input:     snapshot(data),
		}
		run.Steps = append(run.Steps, step)
		idx := len(run.Steps) - 1
		notify()

		res, err := e.executor.Execute(ctx, *current, data)
		step.EndTime = time.Now()
		step.Duration = res.Duration
		step.Logs = res.Logs
		if err != nil {
			step.Status = model.STEP_STATE_FAILED
			step.Logs = append(step.Logs, fmt.Sprintf("ActivityTaskFailed: %v", err))
			run.Steps[idx] = step
			run.Status = model.RUN_STATE_FAILED
			run.Duration = time.Since(start).Round(time.Millisecond).String()
			logger.Error("workflow run failed",
				zap.String("workflow", wf.Name),
				zap.String("runId", run.Id),
				zap.String("node", current.Id),
				zap.Error(err))
			notify()
			return run, err
		}
		step.Status = model.STEP_STATE_SUCCESS
		step.Output = res.Output
		run.Steps[idx] = step
		for k, v := range res.Output {
			data[k] = v
		}
		notify()

		current = e.nextNode(wf, *current, res.Output, &run.Steps[idx])
	}

	run.Status = model.RUN_STATE_SUCCESS
	run.Duration = time.Since(start).Round(time.Millisecond).String()
	logger.Info("workflow run completed", zap.String("workflow", wf.Name), zap.String("runId", run.Id))
	notify()
	return run, nil
}

// startNode picks the run's entry point: the first node with no incoming
// edge. No such node means the graph was never validated and the run is
// refused rather than started from a guessed position.
func startNode(wf model.Workflow) (*model.Node, error) {
	hasIncoming := make(map[string]bool, len(wf.Nodes))
	for _, e := range wf.Edges {
		hasIncoming[e.Target] = true
	}
	var candidates []model.Node
	for _, n := range wf.Nodes {
		if !hasIncoming[n.Id] {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("workflow %s has no entry node", wf.Name)
	}
	if len(candidates) > 1 {
		logger.Warn("multiple entry nodes, taking the first in definition order",
			zap.String("workflow", wf.Name),
			zap.Int("candidates", len(candidates)))
	}
	return &candidates[0], nil
}

// nextNode resolves the successor of the node that just completed. For
// condition nodes the branch is picked by edge label; when no label
// matches, the first outgoing edge is taken and the fallback is recorded
// in the step log rather than applied silently.
func (e *Engine) nextNode(wf model.Workflow, current model.Node, output map[string]any, step *model.Step) *model.Node {
	var outgoing []model.Edge
	for _, edge := range wf.Edges {
		if edge.Source == current.Id {
			outgoing = append(outgoing, edge)
		}
	}
	if len(outgoing) == 0 {
		return nil
	}

	chosen := outgoing[0]
	if current.Type == model.NODE_TYPE_CONDITION {
		want := "false"
		if result, _ := output["conditionResult"].(bool); result {
			want = "true"
		}
		matched := false
		for _, edge := range outgoing {
			if strings.EqualFold(edge.Label, want) {
				chosen = edge
				matched = true
				break
			}
		}
		if !matched {
			step.Logs = append(step.Logs, fmt.Sprintf("No '%s' branch found, falling back to first outgoing edge", want))
			logger.Warn("condition branch label missing, falling back to first outgoing edge",
				zap.String("workflow", wf.Name),
				zap.String("node", current.Id),
				zap.String("wanted", want))
		}
	}

	for i := range wf.Nodes {
		if wf.Nodes[i].Id == chosen.Target {
			return &wf.Nodes[i]
		}
	}
	logger.Warn("edge points to unknown node, ending traversal",
		zap.String("workflow", wf.Name),
		zap.String("edge", chosen.Id),
		zap.String("target", chosen.Target))
	return nil
}

func snapshot(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
