package analysis

import (
	"inspector/internal/extractor"
	"inspector/internal/git"
	"inspector/internal/graph"
)

// ImpactReport splits the routes touched by a diff.
type ImpactReport struct {
	// DirectlyAffected routes had their declaring line edited.
	DirectlyAffected []extractor.Route
	// IndirectlyAffected routes sit below a router file that changed, so
	// their composed path may have moved.
	IndirectlyAffected []extractor.Route
}

// Routes returns both groups, direct first.
func (r *ImpactReport) Routes() []extractor.Route {
	out := make([]extractor.Route, 0, len(r.DirectlyAffected)+len(r.IndirectlyAffected))
	out = append(out, r.DirectlyAffected...)
	return append(out, r.IndirectlyAffected...)
}

// Analyzer maps file changes onto discovered routes.
type Analyzer struct {
	g *graph.MountGraph
}

// NewAnalyzer takes the mount graph of the scan; nil is fine for frameworks
// without cross-file mounts.
func NewAnalyzer(g *graph.MountGraph) *Analyzer {
	return &Analyzer{g: g}
}

// AnalyzeImpact keeps the input order of routes within each group.
func (a *Analyzer) AnalyzeImpact(routes []extractor.Route, changes []git.ChangedFile) *ImpactReport {
	report := &ImpactReport{
		DirectlyAffected:   []extractor.Route{},
		IndirectlyAffected: []extractor.Route{},
	}

	lines := make(map[string]map[int]bool, len(changes))
	for _, c := range changes {
		set := lines[c.Path]
		if set == nil {
			set = make(map[int]bool, len(c.ChangedLines))
			lines[c.Path] = set
		}
		for _, l := range c.ChangedLines {
			set[l] = true
		}
	}

	for _, r := range routes {
		if lines[r.File][r.Line] {
			report.DirectlyAffected = append(report.DirectlyAffected, r)
			continue
		}
		if a.ancestorChanged(r.File, lines) {
			report.IndirectlyAffected = append(report.IndirectlyAffected, r)
		}
	}
	return report
}

func (a *Analyzer) ancestorChanged(file string, lines map[string]map[int]bool) bool {
	if a.g == nil {
		return false
	}
	seen := map[string]bool{file: true}
	for {
		parent, _, ok := a.g.Parent(file)
		if !ok || seen[parent] {
			return false
		}
		if _, changed := lines[parent]; changed {
			return true
		}
		seen[parent] = true
		file = parent
	}
}
