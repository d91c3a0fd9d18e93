package persistence

import (
	"fmt"

	"github.com/canvasflow/canvasflow/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

type NotFoundError struct {
	Kind string
	Key  string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

// MetadataStorage persists workflow definitions, keyed by name.
type MetadataStorage interface {
	SaveWorkflowDefinition(wf model.Workflow) error
	GetWorkflowDefinition(name string) (*model.Workflow, error)
	DeleteWorkflowDefinition(name string) error
}

// RunStorage persists run records. The engine never calls this directly;
// the execution service saves every observer snapshot, which is what makes
// a run readable mid-flight.
type RunStorage interface {
	SaveRun(run *model.Run) error
	GetRun(id string) (*model.Run, error)
	GetRunsForWorkflow(workflowName string) ([]*model.Run, error)
	DeleteRun(id string) error
}
