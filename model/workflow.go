package model

import "strings"

type NodeType string

const NODE_TYPE_TRIGGER NodeType = "TRIGGER"
const NODE_TYPE_ACTION NodeType = "ACTION"
const NODE_TYPE_CONDITION NodeType = "CONDITION"
const NODE_TYPE_AI NodeType = "AI"
const NODE_TYPE_SCRIPT NodeType = "SCRIPT"

func ToNodeType(t string) NodeType {
	switch {
	case strings.EqualFold(t, "trigger"):
		return NODE_TYPE_TRIGGER
	case strings.EqualFold(t, "condition"):
		return NODE_TYPE_CONDITION
	case strings.EqualFold(t, "ai"):
		return NODE_TYPE_AI
	case strings.EqualFold(t, "script"):
		return NODE_TYPE_SCRIPT
	}
	return NODE_TYPE_ACTION
}

type Node struct {
	Id      string         `json:"id"`
	Type    NodeType       `json:"type"`
	Service string         `json:"service"`
	Label   string         `json:"label"`
	Config  map[string]any `json:"config"`
}

type Edge struct {
	Id     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

type Workflow struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

type WorkflowRunRequest struct {
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}
