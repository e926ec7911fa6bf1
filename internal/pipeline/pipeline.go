package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"inspector/internal/extractor"
	"inspector/internal/graph"
	"inspector/internal/jsast"
	"inspector/internal/resolver"
)

// ErrVisitorPanic marks a file whose visitor crashed on malformed input.
var ErrVisitorPanic = errors.New("visitor panic")

// FileError is a fault confined to a single file. The file is excluded from
// the result and the run continues.
type FileError struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Options configures a Pipeline.
type Options struct {
	Framework   string
	Concurrency int
	Logger      *slog.Logger
}

// Pipeline runs the per-file passes over a codebase and assembles its routes.
type Pipeline struct {
	framework   extractor.Framework
	visitor     extractor.Visitor
	parser      *jsast.Parser
	imports     *resolver.ImportResolver
	concurrency int
	logger      *slog.Logger
}

// Result is the outcome of one run.
type Result struct {
	Framework extractor.Framework `json:"framework"`
	Routes    []extractor.Route   `json:"routes"`
	// Routers and Graph are only populated for frameworks with mount resolution.
	Routers     graph.RouterMap       `json:"-"`
	Graph       *graph.MountGraph     `json:"-"`
	Errors      []FileError           `json:"errors,omitempty"`
	Files       int                   `json:"files"`
	ImportStats resolver.ResolveStats `json:"-"`
}

// New validates the framework and prepares a pipeline. No file is read.
func New(opts Options) (*Pipeline, error) {
	fw, err := extractor.ParseFramework(opts.Framework)
	if err != nil {
		return nil, err
	}
	visitor, err := extractor.NewVisitor(fw)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Pipeline{
		framework:   fw,
		visitor:     visitor,
		parser:      jsast.NewParser(),
		imports:     resolver.NewImportResolver(logger),
		concurrency: concurrency,
		logger:      logger,
	}, nil
}

func (p *Pipeline) Framework() extractor.Framework {
	return p.framework
}

// Run analyzes files. Files are processed in sorted order; parse or visitor
// faults are collected in Result.Errors instead of failing the run. Only a
// cancelled context aborts.
func (p *Pipeline) Run(ctx context.Context, files []string) (*Result, error) {
	files = sortedUnique(files)

	parsed, errs, err := p.parseStage(ctx, files)
	if err != nil {
		return nil, err
	}

	var imports []resolver.Bindings
	var stats resolver.ResolveStats
	if p.framework.NeedsMountResolution() {
		imports, stats, err = p.importStage(ctx, parsed)
		if err != nil {
			return nil, err
		}
	}

	results, routeErrs, err := p.routeStage(ctx, parsed, imports)
	if err != nil {
		return nil, err
	}
	errs = append(errs, routeErrs...)
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Path < errs[j].Path })

	res := p.resolveStage(parsed, results)
	res.Errors = errs
	res.Files = len(files)
	res.ImportStats = stats

	p.logger.Info("scan complete",
		"framework", string(p.framework),
		"files", len(files),
		"routes", len(res.Routes),
		"errors", len(errs))
	return res, nil
}

// parseStage parses every file once. A nil entry marks a file that failed.
func (p *Pipeline) parseStage(ctx context.Context, files []string) ([]*jsast.File, []FileError, error) {
	parsed := make([]*jsast.File, len(files))
	faults := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := p.parser.ParseFile(gctx, path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				faults[i] = err
				return nil
			}
			parsed[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var errs []FileError
	for i, err := range faults {
		if err == nil {
			continue
		}
		p.logger.Warn("skipping file", "path", files[i], "err", err)
		errs = append(errs, FileError{Path: files[i], Err: err})
	}
	p.logger.Debug("parse stage done", "files", len(files), "failed", len(errs))
	return parsed, errs, nil
}

// importStage builds every file's import map. It completes for all files
// before any route is visited, since mount edges need the full map.
func (p *Pipeline) importStage(ctx context.Context, parsed []*jsast.File) ([]resolver.Bindings, resolver.ResolveStats, error) {
	bindings := make([]resolver.Bindings, len(parsed))
	perFile := make([]resolver.ResolveStats, len(parsed))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, f := range parsed {
		if f == nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bindings[i], perFile[i] = p.imports.Resolve(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, resolver.ResolveStats{}, err
	}

	total := resolver.ResolveStats{}
	for _, s := range perFile {
		total.Add(s)
	}
	p.logger.Debug("import stage done",
		"attempted", total.Attempted,
		"resolved", total.Resolved,
		"skipped", total.Skipped)
	return bindings, total, nil
}

func (p *Pipeline) routeStage(ctx context.Context, parsed []*jsast.File, imports []resolver.Bindings) ([]*extractor.FileResult, []FileError, error) {
	results := make([]*extractor.FileResult, len(parsed))
	faults := make([]error, len(parsed))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, f := range parsed {
		if f == nil {
			continue
		}
		var fileImports map[string]string
		if imports != nil {
			fileImports = imports[i]
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], faults[i] = p.visit(f, fileImports)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var errs []FileError
	for i, err := range faults {
		if err == nil {
			continue
		}
		path := parsed[i].Path
		p.logger.Warn("skipping file", "path", path, "err", err)
		errs = append(errs, FileError{Path: path, Err: err})
	}
	return results, errs, nil
}

func (p *Pipeline) visit(f *jsast.File, imports map[string]string) (res *extractor.FileResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: %v", ErrVisitorPanic, r)
		}
	}()
	return p.visitor.Visit(f, imports), nil
}

// resolveStage merges per-file results in file order and, for mountable
// frameworks, composes routes through the mount graph.
func (p *Pipeline) resolveStage(parsed []*jsast.File, results []*extractor.FileResult) *Result {
	res := &Result{Framework: p.framework, Routes: []extractor.Route{}}

	if !p.framework.NeedsMountResolution() {
		for _, r := range results {
			if r != nil {
				res.Routes = append(res.Routes, r.Routes...)
			}
		}
		return res
	}

	routers := graph.RouterMap{}
	for i, r := range results {
		if r == nil || r.Router == nil {
			continue
		}
		routers[parsed[i].Path] = r.Router
	}

	g := graph.NewMountGraph(routers)
	res.Routers = routers
	res.Graph = g
	res.Routes = append(res.Routes, g.Routes()...)

	stats := g.Stats()
	if stats.CycleMembers > 0 {
		p.logger.Warn("mount cycle detected, members resolve to root", "members", stats.CycleMembers)
	}
	p.logger.Debug("mount graph resolved",
		"routers", stats.Routers,
		"edges", stats.Edges,
		"roots", stats.Roots)
	return res
}

func sortedUnique(files []string) []string {
	out := append([]string(nil), files...)
	sort.Strings(out)
	j := 0
	for i, f := range out {
		if i > 0 && f == out[j-1] {
			continue
		}
		out[j] = f
		j++
	}
	return out[:j]
}
