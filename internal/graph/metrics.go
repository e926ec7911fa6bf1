package graph

// Stats summarizes the shape of a resolved mount graph.
type Stats struct {
	Routers      int `json:"routers"`
	Edges        int `json:"edges"`
	Mounted      int `json:"mounted"`
	Roots        int `json:"roots"`
	CycleMembers int `json:"cycle_members"`
}

func (g *MountGraph) Stats() Stats {
	s := Stats{}
	if g == nil {
		return s
	}
	g.resolveAll()
	s.Routers = len(g.Routers)
	s.Edges = len(g.edges)
	s.CycleMembers = len(g.cycles)
	for file := range g.Routers {
		if _, ok := g.parents[file]; ok {
			s.Mounted++
		} else {
			s.Roots++
		}
	}
	return s
}
