package graph

import (
	"sort"

	"inspector/internal/extractor"
	"inspector/internal/routepath"
)

// MountGraph links router files through their mount edges and computes the
// base path every router is reachable under.
type MountGraph struct {
	Routers RouterMap

	edges   []Edge
	parents map[string]link // child file -> winning mount

	bases  map[string]string
	cycles map[string]bool
}

// NewMountGraph indexes the mounts of every router. Parents are scanned in
// sorted file order and edges in declaration order; a later edge for the
// same child replaces the earlier one.
func NewMountGraph(routers RouterMap) *MountGraph {
	g := &MountGraph{
		Routers: routers,
		edges:   []Edge{},
		parents: make(map[string]link),
	}
	for _, parent := range sortedFiles(routers) {
		decl := routers[parent]
		if decl == nil {
			continue
		}
		for _, m := range decl.Mounts {
			prefix := m.Prefix
			if prefix == "" {
				prefix = routepath.Root
			}
			g.edges = append(g.edges, Edge{Parent: parent, Child: m.ChildFile, Prefix: prefix})
			g.parents[m.ChildFile] = link{parent: parent, prefix: prefix}
		}
	}
	return g
}

// Edges returns every mount edge in scan order, including those that were
// later overridden.
func (g *MountGraph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// Parent returns the file whose mount of child won, if any.
func (g *MountGraph) Parent(child string) (parent, prefix string, ok bool) {
	l, ok := g.parents[child]
	return l.parent, l.prefix, ok
}

// Children returns the files whose winning mount is held by parent, sorted.
func (g *MountGraph) Children(parent string) []string {
	var out []string
	for child, l := range g.parents {
		if l.parent == parent {
			out = append(out, child)
		}
	}
	sort.Strings(out)
	return out
}

// Base returns the composed base path of a router file. Unmounted files and
// members of a mount cycle resolve to the root.
func (g *MountGraph) Base(file string) string {
	g.resolveAll()
	if b, ok := g.bases[file]; ok {
		return b
	}
	return routepath.Root
}

// Bases returns the base path of every router file.
func (g *MountGraph) Bases() map[string]string {
	g.resolveAll()
	out := make(map[string]string, len(g.Routers))
	for file := range g.Routers {
		out[file] = g.bases[file]
	}
	return out
}

// InCycle reports whether file takes part in a mount cycle.
func (g *MountGraph) InCycle(file string) bool {
	g.resolveAll()
	return g.cycles[file]
}

// Routes composes every router's routes with its base path. Output follows
// sorted file order, then each router's declaration order.
func (g *MountGraph) Routes() []extractor.Route {
	g.resolveAll()
	var out []extractor.Route
	for _, file := range sortedFiles(g.Routers) {
		decl := g.Routers[file]
		if decl == nil {
			continue
		}
		base := g.bases[file]
		for _, r := range decl.Routes {
			out = append(out, r.WithPath(routepath.Join(base, r.Path)))
		}
	}
	return out
}

func (g *MountGraph) resolveAll() {
	if g.bases != nil {
		return
	}
	g.bases = make(map[string]string)
	g.cycles = make(map[string]bool)
	inProgress := make(map[string]bool)
	for _, file := range sortedFiles(g.Routers) {
		g.resolve(file, inProgress)
	}
}

// resolve walks up the parent chain of file. When the walk re-enters a file
// that is still in progress, it reports that file as the cycle head and every
// frame up to the head resolves to the root.
func (g *MountGraph) resolve(file string, inProgress map[string]bool) (base, cycleHead string) {
	if b, ok := g.bases[file]; ok {
		return b, ""
	}
	l, mounted := g.parents[file]
	if !mounted {
		g.bases[file] = routepath.Root
		return routepath.Root, ""
	}
	if inProgress[file] {
		return routepath.Root, file
	}

	inProgress[file] = true
	parentBase, head := g.resolve(l.parent, inProgress)
	delete(inProgress, file)

	if head != "" {
		g.bases[file] = routepath.Root
		g.cycles[file] = true
		if head == file {
			return routepath.Root, ""
		}
		return routepath.Root, head
	}

	b := routepath.Join(parentBase, l.prefix)
	g.bases[file] = b
	return b, ""
}

// Resolve flattens the routers of a whole codebase into fully qualified routes.
func Resolve(routers RouterMap) []extractor.Route {
	return NewMountGraph(routers).Routes()
}

// Bases computes the base path of every router in routers.
func Bases(routers RouterMap) map[string]string {
	return NewMountGraph(routers).Bases()
}

func sortedFiles(routers RouterMap) []string {
	files := make([]string, 0, len(routers))
	for file := range routers {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}
