package report

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"inspector/internal/graph"
)

var mermaidIDRe = regexp.MustCompile(`[^a-z0-9_]`)

// MountDiagram renders the router mount graph as a Mermaid flowchart. Nodes
// are labelled with the file relative to root and its resolved base path;
// edges that lost to a later mount of the same child are dotted.
func MountDiagram(g *graph.MountGraph, root string) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("graph TD\n")
	if g == nil {
		sb.WriteString("```\n")
		return sb.String()
	}

	files := make(map[string]bool)
	for file := range g.Routers {
		files[file] = true
	}
	for _, e := range g.Edges() {
		files[e.Parent] = true
		files[e.Child] = true
	}
	ordered := make([]string, 0, len(files))
	for file := range files {
		ordered = append(ordered, file)
	}
	sort.Strings(ordered)

	ids := make(map[string]string, len(ordered))
	used := make(map[string]int)
	for _, file := range ordered {
		id := sanitizeMermaidID(relPath(root, file))
		used[id]++
		if used[id] > 1 {
			id = fmt.Sprintf("%s_%d", id, used[id])
		}
		ids[file] = id

		label := relPath(root, file)
		if _, ok := g.Routers[file]; ok {
			label += "<br/>" + g.Base(file)
			if g.InCycle(file) {
				label += " (cycle)"
			}
		}
		sb.WriteString(fmt.Sprintf("    %s[%s]\n", id, mermaidLabel(label)))
	}

	for _, e := range g.Edges() {
		arrow := "-.->"
		if parent, prefix, ok := g.Parent(e.Child); ok && parent == e.Parent && prefix == e.Prefix {
			arrow = "-->"
		}
		sb.WriteString(fmt.Sprintf("    %s %s|%s| %s\n", ids[e.Parent], arrow, mermaidLabel(e.Prefix), ids[e.Child]))
	}

	sb.WriteString("```\n")
	return sb.String()
}

// mermaidLabel quotes text for a node or edge label. Mermaid has no escape
// character inside quotes, only entity codes.
func mermaidLabel(text string) string {
	return `"` + strings.ReplaceAll(text, `"`, "#quot;") + `"`
}

func sanitizeMermaidID(v string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "" {
		return "node"
	}
	v = mermaidIDRe.ReplaceAllString(strings.ReplaceAll(v, "-", "_"), "_")
	if v[0] >= '0' && v[0] <= '9' {
		v = "n_" + v
	}
	return v
}

func relPath(root, file string) string {
	if root == "" {
		return filepath.ToSlash(file)
	}
	rel, err := filepath.Rel(root, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}
