package action

import (
	"context"
	"fmt"
	"time"

	"github.com/canvasflow/canvasflow/logger"
	"github.com/canvasflow/canvasflow/model"
	"github.com/canvasflow/canvasflow/util"
	"go.uber.org/zap"
)

const MAX_RETRIES = 3
const BASE_RETRY_DELAY = 1 * time.Second
const SCRIPT_TIMEOUT = 5 * time.Second

// RetryPolicy bounds the retry wrapper: up to MaxRetries attempts with
// exponential backoff starting at BaseDelay (1s, 2s, 4s, ...).
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

func (p RetryPolicy) normalized() RetryPolicy {
	q := p
	if q.MaxRetries <= 0 {
		q.MaxRetries = MAX_RETRIES
	}
	if q.BaseDelay <= 0 {
		q.BaseDelay = BASE_RETRY_DELAY
	}
	return q
}

// ExecutionResult is the outcome of dispatching one node: the data delta to
// merge into the run context, the step's audit log, and elapsed wall-clock
// time. On failure the result still carries the log lines gathered so far.
type ExecutionResult struct {
	Output   map[string]any
	Logs     []string
	Duration string
}

type ActionExecutor struct {
	registry      *Registry
	retry         RetryPolicy
	scriptTimeout time.Duration
}

func NewActionExecutor(registry *Registry, retry RetryPolicy) *ActionExecutor {
	return &ActionExecutor{
		registry:      registry,
		retry:         retry.normalized(),
		scriptTimeout: SCRIPT_TIMEOUT,
	}
}

// WithScriptTimeout overrides how long a SCRIPT node may run before its VM
// is interrupted. Non-positive values keep the default.
func (e *ActionExecutor) WithScriptTimeout(timeout time.Duration) *ActionExecutor {
	if timeout > 0 {
		e.scriptTimeout = timeout
	}
	return e
}

// Execute resolves the node config against the run data and dispatches the
// node by type and service, retrying transient failures. Errors surfacing
// after retries are exhausted are returned to the caller untouched; the
// executor never downgrades them.
func (e *ActionExecutor) Execute(ctx context.Context, node model.Node, data map[string]any) (*ExecutionResult, error) {
	start := time.Now()
	resolved := util.ResolveParams(node.Config, data)
	logs := []string{
		fmt.Sprintf("ActivityTaskScheduled (%s.%s)", node.Service, node.Type),
		"ActivityTaskStarted",
	}
	output, dispatchLogs, err := e.executeWithRetry(ctx, node, resolved, data)
	logs = append(logs, dispatchLogs...)
	duration := time.Since(start).Round(time.Millisecond).String()
	if err != nil {
		return &ExecutionResult{Logs: logs, Duration: duration}, err
	}
	logs = append(logs, "ActivityTaskCompleted")
	return &ExecutionResult{
		Output:   output,
		Logs:     logs,
		Duration: duration,
	}, nil
}

func (e *ActionExecutor) executeWithRetry(ctx context.Context, node model.Node, resolved map[string]any, data map[string]any) (map[string]any, []string, error) {
	var logs []string
	for attempt := 1; ; attempt++ {
		output, attemptLogs, err := e.dispatch(ctx, node, resolved, data)
		logs = append(logs, attemptLogs...)
		if err == nil {
			return output, logs, nil
		}
		if IsPermanent(err) || ctx.Err() != nil || attempt >= e.retry.MaxRetries {
			return nil, logs, err
		}
		delay := e.retry.BaseDelay << (attempt - 1)
		logs = append(logs, fmt.Sprintf("Attempt %d/%d failed: %v; retrying in %s", attempt, e.retry.MaxRetries, err, delay))
		logger.Warn("action failed, retrying",
			zap.String("node", node.Id),
			zap.String("service", node.Service),
			zap.Int("attempt", attempt),
			zap.Duration("retryAfter", delay),
			zap.Error(err))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, logs, ctx.Err()
		}
	}
}

func (e *ActionExecutor) dispatch(ctx context.Context, node model.Node, resolved map[string]any, data map[string]any) (map[string]any, []string, error) {
	switch node.Type {
	case model.NODE_TYPE_TRIGGER:
		return map[string]any{}, []string{fmt.Sprintf("Trigger '%s' received payload", node.Label)}, nil
	case model.NODE_TYPE_CONDITION:
		result, expression, err := evaluateCondition(resolved, data)
		if err != nil {
			return nil, nil, Permanent(err)
		}
		return map[string]any{"conditionResult": result},
			[]string{fmt.Sprintf("Condition evaluated: %s", expression)}, nil
	case model.NODE_TYPE_SCRIPT:
		code, _ := resolved["code"].(string)
		if len(code) == 0 {
			return nil, nil, wrapPermanent("script node '%s' has no code", node.Label)
		}
		output, err := runScript(ctx, code, data, e.scriptTimeout)
		if err != nil {
			return nil, nil, err
		}
		return output, []string{"Script executed"}, nil
	default:
		handler, ok := e.registry.Get(node.Service)
		if !ok {
			return map[string]any{},
				[]string{fmt.Sprintf("No handler registered for service '%s', nothing to do", node.Service)}, nil
		}
		res, err := handler.Handle(ctx, resolved, data)
		if err != nil {
			return nil, nil, err
		}
		output := res.Output
		if output == nil {
			output = map[string]any{}
		}
		return output, res.Logs, nil
	}
}
