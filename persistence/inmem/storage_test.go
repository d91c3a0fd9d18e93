package inmem

import (
	"testing"

	"github.com/canvasflow/canvasflow/model"
	"github.com/canvasflow/canvasflow/persistence"
	"github.com/stretchr/testify/require"
)

func TestRunStorage(t *testing.T) {
	storage := NewInMemRunStorage()
	run := &model.Run{
		Id:           "r1",
		WorkflowId:   "wf-1",
		WorkflowName: "order-alert",
		Status:       model.RUN_STATE_RUNNING,
	}
	require.NoError(t, storage.SaveRun(run))

	// re-saving the same run is an overwrite, not a duplicate
	run.Status = model.RUN_STATE_SUCCESS
	require.NoError(t, storage.SaveRun(run))

	got, err := storage.GetRun("r1")
	require.NoError(t, err)
	require.Equal(t, model.RUN_STATE_SUCCESS, got.Status)

	runs, err := storage.GetRunsForWorkflow("order-alert")
	require.NoError(t, err)
	require.Len(t, runs, 1)

	require.NoError(t, storage.DeleteRun("r1"))
	_, err = storage.GetRun("r1")
	var notFound persistence.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestRunStorageReturnsCopies(t *testing.T) {
	storage := NewInMemRunStorage()
	run := &model.Run{Id: "r1", WorkflowName: "wf", Status: model.RUN_STATE_RUNNING,
		Steps: []model.Step{{Id: "s1", Status: model.STEP_STATE_PENDING}}}
	require.NoError(t, storage.SaveRun(run))

	got, err := storage.GetRun("r1")
	require.NoError(t, err)
	got.Steps[0].Status = model.STEP_STATE_FAILED

	again, err := storage.GetRun("r1")
	require.NoError(t, err)
	require.Equal(t, model.STEP_STATE_PENDING, again.Steps[0].Status)
}
