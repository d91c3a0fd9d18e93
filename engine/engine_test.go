package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/canvasflow/canvasflow/action"
	"github.com/canvasflow/canvasflow/model"
	"github.com/stretchr/testify/require"
)

func newTestEngine(registry *action.Registry) *Engine {
	return New(action.NewActionExecutor(registry, action.RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
	}))
}

func recordingHandler(name string, output map[string]any) (action.Handler, *int) {
	calls := new(int)
	return action.HandlerFunc(func(ctx context.Context, config, data map[string]any) (*action.HandlerResult, error) {
		*calls++
		return &action.HandlerResult{
			Output: output,
			Logs:   []string{fmt.Sprintf("%s executed", name)},
		}, nil
	}), calls
}

func conditionWorkflow() model.Workflow {
	return model.Workflow{
		Id:   "wf-1",
		Name: "order-alert",
		Nodes: []model.Node{
			{Id: "a", Type: model.NODE_TYPE_TRIGGER, Service: "shopify", Label: "New Order"},
			{Id: "b", Type: model.NODE_TYPE_CONDITION, Service: "system", Label: "High Value?",
				Config: map[string]any{"variable": "totalValue", "operator": ">", "threshold": 100}},
			{Id: "c", Type: model.NODE_TYPE_ACTION, Service: "slack", Label: "Slack Alert"},
			{Id: "d", Type: model.NODE_TYPE_ACTION, Service: "sheets", Label: "Sheets Log"},
		},
		Edges: []model.Edge{
			{Id: "e1", Source: "a", Target: "b"},
			{Id: "e2", Source: "b", Target: "c", Label: "true"},
			{Id: "e3", Source: "b", Target: "d", Label: "false"},
		},
	}
}

func TestRunSelectsConditionBranch(t *testing.T) {
	for scenario, tc := range map[string]struct {
		totalValue   int
		expectedNode string
	}{
		"true branch":  {150, "c"},
		"false branch": {50, "d"},
	} {
		t.Run(scenario, func(t *testing.T) {
			registry := action.NewRegistry()
			slack, slackCalls := recordingHandler("slack", map[string]any{"alerted": true})
			sheets, sheetsCalls := recordingHandler("sheets", map[string]any{"logged": true})
			registry.Register("slack", slack)
			registry.Register("sheets", sheets)
			eng := newTestEngine(registry)

			run, err := eng.Run(context.Background(), conditionWorkflow(),
				map[string]any{"totalValue": tc.totalValue}, nil)
			require.NoError(t, err)
			require.Equal(t, model.RUN_STATE_SUCCESS, run.Status)
			require.Len(t, run.Steps, 3)
			require.Equal(t, tc.expectedNode, run.Steps[2].NodeId)
			require.Equal(t, 1, *slackCalls+*sheetsCalls)
		})
	}
}

func TestRunLinearChainVisitsEveryNodeOnce(t *testing.T) {
	registry := action.NewRegistry()
	handler, calls := recordingHandler("mail", map[string]any{})
	registry.Register("mail", handler)
	eng := newTestEngine(registry)

	wf := model.Workflow{
		Id:   "wf-2",
		Name: "linear",
		Nodes: []model.Node{
			{Id: "a", Type: model.NODE_TYPE_TRIGGER, Service: "system", Label: "Start"},
			{Id: "b", Type: model.NODE_TYPE_ACTION, Service: "mail", Label: "First"},
			{Id: "c", Type: model.NODE_TYPE_ACTION, Service: "mail", Label: "Second"},
		},
		Edges: []model.Edge{
			{Id: "e1", Source: "a", Target: "b"},
			{Id: "e2", Source: "b", Target: "c"},
		},
	}
	run, err := eng.Run(context.Background(), wf, map[string]any{}, nil)
	require.NoError(t, err)
	require.Equal(t, model.RUN_STATE_SUCCESS, run.Status)
	require.Len(t, run.Steps, 3)
	require.Equal(t, []string{"a", "b", "c"},
		[]string{run.Steps[0].NodeId, run.Steps[1].NodeId, run.Steps[2].NodeId})
	require.Equal(t, 2, *calls)
	for _, step := range run.Steps {
		require.Equal(t, model.STEP_STATE_SUCCESS, step.Status)
	}
}

func TestRunContextMergeIsLastWriteWins(t *testing.T) {
	registry := action.NewRegistry()
	first, _ := recordingHandler("first", map[string]any{"a": 1})
	second, _ := recordingHandler("second", map[string]any{"a": 2, "b": 3})
	registry.Register("first", first)
	registry.Register("second", second)
	var finalInput map[string]any
	registry.Register("probe", action.HandlerFunc(func(ctx context.Context, config, data map[string]any) (*action.HandlerResult, error) {
		finalInput = data
		return &action.HandlerResult{Output: map[string]any{}}, nil
	}))
	eng := newTestEngine(registry)

	wf := model.Workflow{
		Id:   "wf-3",
		Name: "merge",
		Nodes: []model.Node{
			{Id: "t", Type: model.NODE_TYPE_TRIGGER, Service: "system", Label: "T"},
			{Id: "x", Type: model.NODE_TYPE_ACTION, Service: "first", Label: "X"},
			{Id: "y", Type: model.NODE_TYPE_ACTION, Service: "second", Label: "Y"},
			{Id: "z", Type: model.NODE_TYPE_ACTION, Service: "probe", Label: "Z"},
		},
		Edges: []model.Edge{
			{Id: "e1", Source: "t", Target: "x"},
			{Id: "e2", Source: "x", Target: "y"},
			{Id: "e3", Source: "y", Target: "z"},
		},
	}
	_, err := eng.Run(context.Background(), wf, map[string]any{}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, finalInput["a"])
	require.Equal(t, 3, finalInput["b"])
}

func TestRunFailureHaltsTraversal(t *testing.T) {
	registry := action.NewRegistry()
	registry.Register("flaky", action.HandlerFunc(func(ctx context.Context, config, data map[string]any) (*action.HandlerResult, error) {
		return nil, fmt.Errorf("upstream unavailable")
	}))
	after, afterCalls := recordingHandler("after", map[string]any{})
	registry.Register("after", after)
	eng := newTestEngine(registry)

	wf := model.Workflow{
		Id:   "wf-4",
		Name: "failing",
		Nodes: []model.Node{
			{Id: "t", Type: model.NODE_TYPE_TRIGGER, Service: "system", Label: "T"},
			{Id: "f", Type: model.NODE_TYPE_ACTION, Service: "flaky", Label: "Flaky"},
			{Id: "n", Type: model.NODE_TYPE_ACTION, Service: "after", Label: "Never"},
		},
		Edges: []model.Edge{
			{Id: "e1", Source: "t", Target: "f"},
			{Id: "e2", Source: "f", Target: "n"},
		},
	}
	run, err := eng.Run(context.Background(), wf, map[string]any{}, nil)
	require.Error(t, err)
	require.Equal(t, model.RUN_STATE_FAILED, run.Status)
	require.Len(t, run.Steps, 2)
	failed := run.Steps[1]
	require.Equal(t, model.STEP_STATE_FAILED, failed.Status)
	require.Contains(t, strings.Join(failed.Logs, "\n"), "upstream unavailable")
	require.Equal(t, 0, *afterCalls)
}

func TestRunObserverOrdering(t *testing.T) {
	registry := action.NewRegistry()
	handler, _ := recordingHandler("mail", map[string]any{})
	registry.Register("mail", handler)
	eng := newTestEngine(registry)

	wf := model.Workflow{
		Id:   "wf-5",
		Name: "observed",
		Nodes: []model.Node{
			{Id: "t", Type: model.NODE_TYPE_TRIGGER, Service: "system", Label: "T"},
			{Id: "m", Type: model.NODE_TYPE_ACTION, Service: "mail", Label: "M"},
		},
		Edges: []model.Edge{{Id: "e1", Source: "t", Target: "m"}},
	}

	var snapshots []*model.Run
	_, err := eng.Run(context.Background(), wf, map[string]any{}, func(run *model.Run) {
		snapshots = append(snapshots, run)
	})
	require.NoError(t, err)
	// creation, then pending+success per step, then terminal status
	require.Len(t, snapshots, 6)
	require.Equal(t, model.RUN_STATE_RUNNING, snapshots[0].Status)
	require.Empty(t, snapshots[0].Steps)
	require.Equal(t, model.STEP_STATE_PENDING, snapshots[1].Steps[0].Status)
	require.Equal(t, model.STEP_STATE_SUCCESS, snapshots[2].Steps[0].Status)
	require.Equal(t, model.STEP_STATE_PENDING, snapshots[3].Steps[1].Status)
	require.Equal(t, model.STEP_STATE_SUCCESS, snapshots[4].Steps[1].Status)
	require.Equal(t, model.RUN_STATE_SUCCESS, snapshots[5].Status)

	// snapshots are copies, not views into the live run
	require.Equal(t, model.RUN_STATE_RUNNING, snapshots[0].Status)
	snapshots[1].Steps[0].Status = model.STEP_STATE_FAILED
	require.Equal(t, model.STEP_STATE_SUCCESS, snapshots[2].Steps[0].Status)
}

func TestRunConditionFallbackToFirstOutgoingEdge(t *testing.T) {
	registry := action.NewRegistry()
	handler, calls := recordingHandler("mail", map[string]any{})
	registry.Register("mail", handler)
	eng := newTestEngine(registry)

	wf := model.Workflow{
		Id:   "wf-6",
		Name: "unlabeled",
		Nodes: []model.Node{
			{Id: "t", Type: model.NODE_TYPE_TRIGGER, Service: "system", Label: "T"},
			{Id: "c", Type: model.NODE_TYPE_CONDITION, Service: "system", Label: "C",
				Config: map[string]any{"variable": "x", "operator": ">", "threshold": 10}},
			{Id: "m", Type: model.NODE_TYPE_ACTION, Service: "mail", Label: "M"},
		},
		Edges: []model.Edge{
			{Id: "e1", Source: "t", Target: "c"},
			{Id: "e2", Source: "c", Target: "m"}, // no true/false label
		},
	}
	run, err := eng.Run(context.Background(), wf, map[string]any{"x": 5}, nil)
	require.NoError(t, err)
	require.Equal(t, model.RUN_STATE_SUCCESS, run.Status)
	require.Equal(t, 1, *calls)
	require.Contains(t, strings.Join(run.Steps[1].Logs, "\n"), "falling back to first outgoing edge")
}

func TestRunRefusesGraphWithoutEntryNode(t *testing.T) {
	eng := newTestEngine(action.NewRegistry())
	wf := model.Workflow{
		Id:   "wf-7",
		Name: "cycle",
		Nodes: []model.Node{
			{Id: "a", Type: model.NODE_TYPE_ACTION, Service: "mail", Label: "A"},
			{Id: "b", Type: model.NODE_TYPE_ACTION, Service: "mail", Label: "B"},
		},
		Edges: []model.Edge{
			{Id: "e1", Source: "a", Target: "b"},
			{Id: "e2", Source: "b", Target: "a"},
		},
	}
	run, err := eng.Run(context.Background(), wf, map[string]any{}, nil)
	require.Error(t, err)
	require.Equal(t, model.RUN_STATE_FAILED, run.Status)
	require.Empty(t, run.Steps)
}

func TestRunRetryThenSuccessKeepsRunGreen(t *testing.T) {
	registry := action.NewRegistry()
	calls := 0
	registry.Register("slack", action.HandlerFunc(func(ctx context.Context, config, data map[string]any) (*action.HandlerResult, error) {
		calls++
		if calls < 3 {
			return nil, fmt.Errorf("rate limited")
		}
		return &action.HandlerResult{Output: map[string]any{"sent": true}}, nil
	}))
	eng := newTestEngine(registry)

	wf := model.Workflow{
		Id:   "wf-8",
		Name: "retrying",
		Nodes: []model.Node{
			{Id: "t", Type: model.NODE_TYPE_TRIGGER, Service: "system", Label: "T"},
			{Id: "s", Type: model.NODE_TYPE_ACTION, Service: "slack", Label: "S"},
		},
		Edges: []model.Edge{{Id: "e1", Source: "t", Target: "s"}},
	}
	run, err := eng.Run(context.Background(), wf, map[string]any{}, nil)
	require.NoError(t, err)
	require.Equal(t, model.RUN_STATE_SUCCESS, run.Status)
	retryLines := 0
	for _, line := range run.Steps[1].Logs {
		if strings.Contains(line, "retrying in") {
			retryLines++
		}
	}
	require.Equal(t, 2, retryLines)
}
