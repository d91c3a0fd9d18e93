package metadata

import (
	"fmt"
	"time"

	"github.com/canvasflow/canvasflow/graph"
	"github.com/canvasflow/canvasflow/model"
	"github.com/canvasflow/canvasflow/persistence"
	c "github.com/patrickmn/go-cache"
)

// MetadataService fronts workflow definition storage with a read-through
// cache. Validation is advisory: Save rejects structurally broken graphs,
// but Validate is also exposed on its own for editors to call while a
// workflow is being drawn.
type MetadataService interface {
	GetWorkflow(name string) (*model.Workflow, error)
	SaveWorkflow(wf model.Workflow) error
	DeleteWorkflow(name string) error
	Validate(wf model.Workflow) graph.ValidationResult
}

type metadataServiceImpl struct {
	storage persistence.MetadataStorage
	cache   *c.Cache
}

func NewMetadataService(storage persistence.MetadataStorage) MetadataService {
	return &metadataServiceImpl{
		storage: storage,
		cache:   c.New(5*time.Minute, 10*time.Minute),
	}
}

func (s *metadataServiceImpl) GetWorkflow(name string) (*model.Workflow, error) {
	if cached, found := s.cache.Get(name); found {
		wf := cached.(model.Workflow)
		return &wf, nil
	}
	wf, err := s.storage.GetWorkflowDefinition(name)
	if err != nil {
		return nil, err
	}
	s.cache.Set(name, *wf, c.DefaultExpiration)
	return wf, nil
}

func (s *metadataServiceImpl) SaveWorkflow(wf model.Workflow) error {
	wf = normalizeNodeTypes(wf)
	result := s.Validate(wf)
	if !result.IsValid {
		return fmt.Errorf("invalid workflow %s: %v", wf.Name, result.Errors)
	}
	if err := s.storage.SaveWorkflowDefinition(wf); err != nil {
		return err
	}
	s.cache.Delete(wf.Name)
	return nil
}

func (s *metadataServiceImpl) DeleteWorkflow(name string) error {
	if err := s.storage.DeleteWorkflowDefinition(name); err != nil {
		return err
	}
	s.cache.Delete(name)
	return nil
}

func (s *metadataServiceImpl) Validate(wf model.Workflow) graph.ValidationResult {
	wf = normalizeNodeTypes(wf)
	return graph.Validate(wf.Nodes, wf.Edges)
}

// normalizeNodeTypes canonicalizes node type strings, since definitions
// arrive user- or AI-authored with whatever casing the editor produced.
func normalizeNodeTypes(wf model.Workflow) model.Workflow {
	nodes := make([]model.Node, len(wf.Nodes))
	for i, n := range wf.Nodes {
		n.Type = model.ToNodeType(string(n.Type))
		nodes[i] = n
	}
	wf.Nodes = nodes
	return wf
}
