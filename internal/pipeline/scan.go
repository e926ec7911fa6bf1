package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"inspector/internal/config"
	"inspector/internal/crawler"
	"inspector/internal/storage"
)

// Scan runs a whole analysis from a configuration: enumerate files, run the
// pipeline, then record the result in the history database when one is set.
type Scan struct {
	Config *config.Config
	Logger *slog.Logger
	// Progress receives human-readable status lines; nil disables them.
	Progress io.Writer
	// Report is the run report of the last Run, kept when the run fails.
	Report *RunReport
}

// ScanResult is a Result plus where it was taken from and stored.
type ScanResult struct {
	*Result
	Entry  string
	ScanID int64
	Report *RunReport
}

func NewScan(cfg *config.Config, logger *slog.Logger) *Scan {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scan{Config: cfg, Logger: logger}
}

func (s *Scan) Run(ctx context.Context) (_ *ScanResult, err error) {
	s.Report = nil
	p, err := New(Options{
		Framework:   s.Config.Framework,
		Concurrency: s.Config.Concurrency,
		Logger:      s.Logger,
	})
	if err != nil {
		return nil, err
	}
	report := newRunReport(string(p.Framework()))
	report.Entry = s.Config.Entry
	s.Report = report
	defer func() {
		if err != nil {
			report.addSignal("scan_failed", report.lastStage(), "critical", err.Error(), 0)
		}
		report.finalize()
	}()

	// 1. Enumerate
	stage := report.beginStage("enumerate")
	entry, files, err := s.enumerateStage()
	report.endStage(stage, map[string]float64{"files": float64(len(files))}, err)
	if err != nil {
		return nil, err
	}
	report.Entry = entry
	s.progressf("🔍 Starting analysis of %q using the %q parser...\n", entry, p.Framework())

	// 2. Analyze
	stage = report.beginStage("analyze")
	start := time.Now()
	res, err := p.Run(ctx, files)
	if err != nil {
		report.endStage(stage, nil, err)
		return nil, err
	}
	report.endStage(stage, analyzeCounters(res), nil)
	s.progressf("📊 Analyzed %d files in %v. Routes=%d, skipped files=%d\n",
		res.Files, time.Since(start).Round(time.Millisecond), len(res.Routes), len(res.Errors))
	addSignals(report, res)

	out := &ScanResult{Result: res, Entry: entry, Report: report}

	// 3. Persist
	if s.Config.DB != "" {
		stage = report.beginStage("persist")
		id, err := s.persistStage(ctx, out)
		report.endStage(stage, nil, err)
		if err != nil {
			return nil, err
		}
		out.ScanID = id
	}

	return out, nil
}

func analyzeCounters(res *Result) map[string]float64 {
	counters := map[string]float64{
		"files":  float64(res.Files),
		"routes": float64(len(res.Routes)),
		"errors": float64(len(res.Errors)),
	}
	if res.Graph != nil {
		st := res.Graph.Stats()
		counters["routers"] = float64(st.Routers)
		counters["mounts"] = float64(st.Edges)
		counters["imports_attempted"] = float64(res.ImportStats.Attempted)
		counters["imports_resolved"] = float64(res.ImportStats.Resolved)
	}
	return counters
}

func addSignals(report *RunReport, res *Result) {
	if n := len(res.Errors); n > 0 {
		report.addSignal("files_skipped", "analyze", "warning",
			"Some files could not be analyzed and contributed no routes.", float64(n))
	}
	if res.Files > 0 && len(res.Routes) == 0 {
		report.addSignal("no_routes", "analyze", "warning",
			"No routes were found; check the framework and entry.", 0)
	}
	if res.Graph != nil {
		if n := res.Graph.Stats().CycleMembers; n > 0 {
			report.addSignal("mount_cycle", "analyze", "warning",
				"Routers mount each other in a cycle; their routes were placed at the root.", float64(n))
		}
	}
	if n := res.ImportStats.Skipped; n > 0 {
		report.addSignal("imports_unresolved", "analyze", "info",
			"Local imports that did not resolve to a file.", float64(n))
	}
}

func (s *Scan) enumerateStage() (string, []string, error) {
	entry, err := filepath.Abs(s.Config.Entry)
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve entry %s: %w", s.Config.Entry, err)
	}
	c, err := crawler.NewCrawler(s.Config.Ignore, s.Logger)
	if err != nil {
		return "", nil, err
	}
	files, err := c.Files(entry)
	if err != nil {
		return "", nil, err
	}
	return entry, files, nil
}

func (s *Scan) persistStage(ctx context.Context, res *ScanResult) (int64, error) {
	store, err := storage.NewSQLiteStore(s.Config.DB)
	if err != nil {
		return 0, fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	record := &storage.Scan{
		Entry:     res.Entry,
		Framework: string(res.Framework),
		Files:     res.Files,
		Routes:    res.Routes,
	}
	if res.Graph != nil {
		record.Mounts = res.Graph.Edges()
	}
	for _, fe := range res.Errors {
		record.Errors = append(record.Errors, fe.Error())
	}

	id, err := store.SaveScan(ctx, record)
	if err != nil {
		return 0, fmt.Errorf("failed to save scan: %w", err)
	}
	s.progressf("💾 Saved scan #%d to %s\n", id, s.Config.DB)
	return id, nil
}

func (s *Scan) progressf(format string, args ...any) {
	if s.Progress != nil {
		fmt.Fprintf(s.Progress, format, args...)
	}
}
