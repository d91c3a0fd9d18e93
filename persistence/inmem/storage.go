package inmem

import (
	"sync"

	"github.com/canvasflow/canvasflow/model"
	"github.com/canvasflow/canvasflow/persistence"
)

var _ persistence.MetadataStorage = new(InMemMetadataStorage)
var _ persistence.RunStorage = new(InMemRunStorage)

type InMemMetadataStorage struct {
	mu        sync.RWMutex
	workflows map[string]model.Workflow
}

func NewInMemMetadataStorage() *InMemMetadataStorage {
	return &InMemMetadataStorage{
		workflows: make(map[string]model.Workflow),
	}
}

func (s *InMemMetadataStorage) SaveWorkflowDefinition(wf model.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[wf.Name] = wf
	return nil
}

func (s *InMemMetadataStorage) GetWorkflowDefinition(name string) (*model.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wf, ok := s.workflows[name]
	if !ok {
		return nil, persistence.NotFoundError{Kind: "workflow", Key: name}
	}
	return &wf, nil
}

func (s *InMemMetadataStorage) DeleteWorkflowDefinition(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workflows, name)
	return nil
}

type InMemRunStorage struct {
	mu       sync.RWMutex
	runs     map[string]*model.Run
	byWfName map[string][]string
}

func NewInMemRunStorage() *InMemRunStorage {
	return &InMemRunStorage{
		runs:     make(map[string]*model.Run),
		byWfName: make(map[string][]string),
	}
}

func (s *InMemRunStorage) SaveRun(run *model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.Id]; !ok {
		s.byWfName[run.WorkflowName] = append(s.byWfName[run.WorkflowName], run.Id)
	}
	s.runs[run.Id] = run.Copy()
	return nil
}

func (s *InMemRunStorage) GetRun(id string) (*model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, persistence.NotFoundError{Kind: "run", Key: id}
	}
	return run.Copy(), nil
}

func (s *InMemRunStorage) GetRunsForWorkflow(workflowName string) ([]*model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byWfName[workflowName]
	runs := make([]*model.Run, 0, len(ids))
	for _, id := range ids {
		if run, ok := s.runs[id]; ok {
			runs = append(runs, run.Copy())
		}
	}
	return runs, nil
}

func (s *InMemRunStorage) DeleteRun(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return persistence.NotFoundError{Kind: "run", Key: id}
	}
	delete(s.runs, id)
	ids := s.byWfName[run.WorkflowName]
	for i, rid := range ids {
		if rid == id {
			s.byWfName[run.WorkflowName] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}
