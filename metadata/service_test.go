package metadata

import (
	"testing"

	"github.com/canvasflow/canvasflow/model"
	"github.com/canvasflow/canvasflow/persistence/inmem"
	"github.com/stretchr/testify/require"
)

func validWorkflow() model.Workflow {
	return model.Workflow{
		Id:   "wf-1",
		Name: "order-alert",
		Nodes: []model.Node{
			{Id: "a", Type: model.NODE_TYPE_TRIGGER, Service: "shopify", Label: "New Order"},
			{Id: "b", Type: model.NODE_TYPE_ACTION, Service: "slack", Label: "Alert"},
		},
		Edges: []model.Edge{{Id: "e1", Source: "a", Target: "b"}},
	}
}

func TestSaveAndGetWorkflow(t *testing.T) {
	svc := NewMetadataService(inmem.NewInMemMetadataStorage())
	require.NoError(t, svc.SaveWorkflow(validWorkflow()))

	wf, err := svc.GetWorkflow("order-alert")
	require.NoError(t, err)
	require.Equal(t, "wf-1", wf.Id)
	require.Len(t, wf.Nodes, 2)
}

func TestSaveRejectsInvalidWorkflow(t *testing.T) {
	svc := NewMetadataService(inmem.NewInMemMetadataStorage())
	wf := validWorkflow()
	wf.Edges = nil // orphans the action node
	err := svc.SaveWorkflow(wf)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no incoming connection")
}

func TestGetWorkflowServesFromCache(t *testing.T) {
	storage := inmem.NewInMemMetadataStorage()
	svc := NewMetadataService(storage)
	require.NoError(t, svc.SaveWorkflow(validWorkflow()))

	_, err := svc.GetWorkflow("order-alert")
	require.NoError(t, err)

	// definition changes behind the service's back stay invisible
	// until the cache entry expires or the service saves again
	changed := validWorkflow()
	changed.Id = "wf-2"
	require.NoError(t, storage.SaveWorkflowDefinition(changed))

	wf, err := svc.GetWorkflow("order-alert")
	require.NoError(t, err)
	require.Equal(t, "wf-1", wf.Id)
}

func TestSaveNormalizesNodeTypeCasing(t *testing.T) {
	svc := NewMetadataService(inmem.NewInMemMetadataStorage())
	wf := validWorkflow()
	wf.Nodes[0].Type = "trigger"
	wf.Nodes[1].Type = "action"
	require.NoError(t, svc.SaveWorkflow(wf))

	stored, err := svc.GetWorkflow("order-alert")
	require.NoError(t, err)
	require.Equal(t, model.NODE_TYPE_TRIGGER, stored.Nodes[0].Type)
	require.Equal(t, model.NODE_TYPE_ACTION, stored.Nodes[1].Type)
}

func TestGetUnknownWorkflow(t *testing.T) {
	svc := NewMetadataService(inmem.NewInMemMetadataStorage())
	_, err := svc.GetWorkflow("nope")
	require.Error(t, err)
}
