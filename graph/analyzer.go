package graph

import (
	"fmt"

	"github.com/canvasflow/canvasflow/model"
	"golang.org/x/exp/slices"
)

type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// FindUpstream returns every strict ancestor of the target node, following
// edges in reverse. Discovery order is breadth first. The visited set makes
// the traversal terminate even on cyclic graphs.
func FindUpstream(nodes []model.Node, edges []model.Edge, targetId string) []model.Node {
	nodeById := make(map[string]model.Node, len(nodes))
	for _, n := range nodes {
		nodeById[n.Id] = n
	}
	visited := map[string]bool{targetId: true}
	queue := []string{targetId}
	var upstream []model.Node
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, e := range edges {
			if e.Target != current || visited[e.Source] {
				continue
			}
			visited[e.Source] = true
			if n, ok := nodeById[e.Source]; ok {
				upstream = append(upstream, n)
			}
			queue = append(queue, e.Source)
		}
	}
	return upstream
}

// HasCycle reports whether any node can reach itself following edge
// direction. Depth first search with a recursion stack, O(V+E).
func HasCycle(nodes []model.Node, edges []model.Edge) bool {
	adjacency := make(map[string][]string, len(nodes))
	for _, e := range edges {
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
	}
	visited := make(map[string]bool, len(nodes))
	inStack := make(map[string]bool, len(nodes))

	var visit func(id string) bool
	visit = func(id string) bool {
		visited[id] = true
		inStack[id] = true
		for _, next := range adjacency[id] {
			if inStack[next] {
				return true
			}
			if !visited[next] && visit(next) {
				return true
			}
		}
		inStack[id] = false
		return false
	}

	for _, n := range nodes {
		if !visited[n.Id] && visit(n.Id) {
			return true
		}
	}
	return false
}

// Validate checks structural well-formedness of a workflow graph and
// accumulates every violation instead of stopping at the first. The engine
// does not call this itself; callers invoke it before activating a workflow.
func Validate(nodes []model.Node, edges []model.Edge) ValidationResult {
	var errors []string

	triggerCount := 0
	for _, n := range nodes {
		if n.Type == model.NODE_TYPE_TRIGGER {
			triggerCount++
		}
	}
	if triggerCount == 0 {
		errors = append(errors, "workflow must have a trigger node")
	}
	if triggerCount > 1 {
		errors = append(errors, fmt.Sprintf("workflow has %d trigger nodes, entry point is ambiguous", triggerCount))
	}

	var targets []string
	for _, e := range edges {
		targets = append(targets, e.Target)
	}
	for _, n := range nodes {
		if n.Type != model.NODE_TYPE_TRIGGER && !slices.Contains(targets, n.Id) {
			errors = append(errors, fmt.Sprintf("node '%s' has no incoming connection", n.Label))
		}
		if len(n.Service) == 0 {
			errors = append(errors, fmt.Sprintf("node '%s' has no service configured", n.Label))
		}
		if n.Type == model.NODE_TYPE_CONDITION {
			outgoing := 0
			for _, e := range edges {
				if e.Source == n.Id {
					outgoing++
				}
			}
			if outgoing == 0 {
				errors = append(errors, fmt.Sprintf("condition node '%s' has no outgoing branch", n.Label))
			}
		}
	}

	if HasCycle(nodes, edges) {
		errors = append(errors, "workflow contains a cycle")
	}

	return ValidationResult{
		IsValid: len(errors) == 0,
		Errors:  errors,
	}
}
