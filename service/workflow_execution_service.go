package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/canvasflow/canvasflow/analytics"
	"github.com/canvasflow/canvasflow/engine"
	"github.com/canvasflow/canvasflow/logger"
	"github.com/canvasflow/canvasflow/metadata"
	"github.com/canvasflow/canvasflow/model"
	"github.com/canvasflow/canvasflow/persistence"
	"github.com/canvasflow/canvasflow/util"
	"go.uber.org/zap"
)

type runRequest struct {
	workflowName string
	input        map[string]any
}

// WorkflowExecutionService glues the metadata store, the engine, run
// persistence and analytics together. Every observer notification is saved,
// so a run record is readable while the run is still in flight.
type WorkflowExecutionService struct {
	metadataService metadata.MetadataService
	runStorage      persistence.RunStorage
	engine          *engine.Engine
	collector       analytics.RunDataCollector
	worker          *util.Worker
}

func NewWorkflowExecutionService(metadataService metadata.MetadataService, runStorage persistence.RunStorage,
	eng *engine.Engine, collector analytics.RunDataCollector, wg *sync.WaitGroup, capacity int) *WorkflowExecutionService {
	s := &WorkflowExecutionService{
		metadataService: metadataService,
		runStorage:      runStorage,
		engine:          eng,
		collector:       collector,
	}
	s.worker = util.NewWorker("run-executor", wg, func(task util.Task) error {
		req := task.(runRequest)
		_, err := s.StartRun(context.Background(), req.workflowName, req.input)
		return err
	}, capacity)
	return s
}

func (s *WorkflowExecutionService) Start() {
	s.worker.Start()
}

func (s *WorkflowExecutionService) Stop() {
	s.worker.Stop()
}

// StartRun executes a workflow to its terminal state. The returned run is
// the full record; a non-nil error means the run failed and the error text
// is already captured in the failing step's logs.
func (s *WorkflowExecutionService) StartRun(ctx context.Context, name string, input map[string]any) (*model.Run, error) {
	wf, err := s.metadataService.GetWorkflow(name)
	if err != nil {
		return nil, err
	}
	logger.Info("starting workflow run", zap.String("workflow", name))
	observer := func(run *model.Run) {
		if err := s.runStorage.SaveRun(run); err != nil {
			logger.Error("error persisting run snapshot", zap.String("runId", run.Id), zap.Error(err))
		}
	}
	run, runErr := s.engine.Run(ctx, *wf, input, observer)
	for _, step := range run.Steps {
		s.collector.RecordStep(run, step)
	}
	s.collector.RecordRunFinished(run)
	return run, runErr
}

// StartRunAsync queues a run and returns immediately. The caller discovers
// the run id by listing runs for the workflow or through its own observer
// at the store level.
func (s *WorkflowExecutionService) StartRunAsync(name string, input map[string]any) error {
	select {
	case s.worker.Sender() <- runRequest{workflowName: name, input: input}:
		return nil
	default:
		return fmt.Errorf("run executor is at capacity")
	}
}

func (s *WorkflowExecutionService) GetRun(id string) (*model.Run, error) {
	return s.runStorage.GetRun(id)
}

func (s *WorkflowExecutionService) GetRunsForWorkflow(name string) ([]*model.Run, error) {
	return s.runStorage.GetRunsForWorkflow(name)
}
