package orders

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/simp-lee/order360/internal/domain"
)

type bpmnDefinitions struct {
	Processes []bpmnContainer `xml:"process"`
}

// bpmnContainer is a process or sub-process; both hold flow nodes and may nest.
type bpmnContainer struct {
	XMLName  xml.Name
	ID       string          `xml:"id,attr"`
	Name     string          `xml:"name,attr"`
	Children []bpmnContainer `xml:",any"`
}

// ParseFlowNodes returns the flow nodes (tasks, events, gateways, sub-processes
// and call activities) of every process in a BPMN 2.0 document, in document order.
func ParseFlowNodes(doc []byte) ([]domain.ProcessNode, error) {
	var defs bpmnDefinitions
	if err := xml.NewDecoder(bytes.NewReader(doc)).Decode(&defs); err != nil {
		return nil, fmt.Errorf("parse bpmn: %w", err)
	}
	var nodes []domain.ProcessNode
	var walk func(c bpmnContainer)
	walk = func(c bpmnContainer) {
		for _, child := range c.Children {
			kind := child.XMLName.Local
			if child.ID != "" && isFlowNode(kind) {
				nodes = append(nodes, domain.ProcessNode{ID: child.ID, Name: child.Name, Kind: kind})
			}
			walk(child)
		}
	}
	for _, p := range defs.Processes {
		walk(p)
	}
	return nodes, nil
}

func isFlowNode(kind string) bool {
	switch kind {
	case "task", "subProcess", "callActivity", "transaction":
		return true
	}
	return strings.HasSuffix(kind, "Task") || strings.HasSuffix(kind, "Event") || strings.HasSuffix(kind, "Gateway")
}

// Highlight marks nodes whose id or name matches a historical state as
// visited, and the node matching the current state as active.
func Highlight(nodes []domain.ProcessNode, o *domain.Order) []domain.ProcessNode {
	visited := make(map[string]struct{})
	for _, sc := range o.StateChanges {
		if k := foldState(sc.State); k != "" {
			visited[k] = struct{}{}
		}
	}
	for _, item := range o.OrderItems {
		for _, sc := range item.StateChanges {
			if k := foldState(sc.State); k != "" {
				visited[k] = struct{}{}
			}
		}
	}
	active := foldState(o.State)

	out := make([]domain.ProcessNode, len(nodes))
	for i, n := range nodes {
		id, name := foldState(n.ID), foldState(n.Name)
		switch {
		case active != "" && (id == active || name == active):
			n.Status = domain.NodeActive
		case matches(visited, id, name):
			n.Status = domain.NodeVisited
		default:
			n.Status = ""
		}
		out[i] = n
	}
	return out
}

func matches(set map[string]struct{}, keys ...string) bool {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := set[k]; ok {
			return true
		}
	}
	return false
}

// FormatVariableValue unquotes JSON strings and pretty-prints JSON objects
// and arrays. Anything else is returned as is.
func FormatVariableValue(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Placeholder
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
			return s
		}
		return trimmed
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(trimmed), "", "  "); err == nil {
			return buf.String()
		}
	}
	return raw
}
