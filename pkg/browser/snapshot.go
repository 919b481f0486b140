package browser

import (
	"strconv"
	"strings"
)

// axNode is the subset of an accessibility tree node the snapshot renders.
type axNode struct {
	ID       string
	ParentID string
	Role     string
	Name     string
	Ignored  bool
	Children []string
}

// roles that only group other nodes; their children are rendered in their place
var transparentRoles = map[string]bool{
	"":             true,
	"none":         true,
	"generic":      true,
	"RootWebArea":  true,
	"WebArea":      true,
	"presentation": true,
}

// formatAXTree renders nodes as an indented YAML list, one item per meaningful node:
//
//	- heading "Example Domain"
//	- paragraph:
//	  - text: "This domain is for use in examples."
func formatAXTree(nodes []axNode) string {
	if len(nodes) == 0 {
		return ""
	}

	byID := make(map[string]axNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	var roots []string
	for _, n := range nodes {
		if _, ok := byID[n.ParentID]; n.ParentID == "" || !ok {
			roots = append(roots, n.ID)
		}
	}

	var b strings.Builder
	visited := make(map[string]bool, len(nodes))
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		n, ok := byID[id]
		if !ok || visited[id] {
			return
		}
		visited[id] = true

		if n.Role == "InlineTextBox" {
			return
		}
		if n.Ignored || transparentRoles[n.Role] {
			for _, child := range n.Children {
				walk(child, depth)
			}
			return
		}

		indent := strings.Repeat("  ", depth)
		if n.Role == "StaticText" {
			if n.Name != "" {
				b.WriteString(indent + "- text: " + strconv.Quote(n.Name) + "\n")
			}
			return
		}

		line := indent + "- " + n.Role
		if n.Name != "" {
			line += " " + strconv.Quote(n.Name)
		}
		if hasRenderedChildren(byID, n) {
			line += ":"
		}
		b.WriteString(line + "\n")

		for _, child := range n.Children {
			walk(child, depth+1)
		}
	}

	for _, id := range roots {
		walk(id, 0)
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func hasRenderedChildren(byID map[string]axNode, n axNode) bool {
	for _, id := range n.Children {
		child, ok := byID[id]
		if !ok || child.Role == "InlineTextBox" {
			continue
		}
		if child.Ignored || transparentRoles[child.Role] {
			if hasRenderedChildren(byID, child) {
				return true
			}
			continue
		}
		if child.Role == "StaticText" && child.Name == "" {
			continue
		}
		return true
	}
	return false
}
