package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"inspector/internal/analysis"
	"inspector/internal/config"
	"inspector/internal/extractor"
	"inspector/internal/git"
	"inspector/internal/pipeline"
	"inspector/internal/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	framework    string
	ignore       []string
	html         string
	openapi      string
	format       string
	mermaid      string
	db           string
	logLevel     string
	concurrency  int
	configDir    string
	changedSince string
	runReport    string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "inspector [entry]",
		Short: "Statically discover HTTP routes in a JavaScript/TypeScript codebase",
		Long: "inspector parses every source file under entry and reports the routes declared\n" +
			"with Express, Koa (koa-router) or Fastify, composing routers mounted across files.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts, args)
			if err != nil {
				return err
			}
			logger, err := newLogger(stderr, cfg.LogLevel)
			if err != nil {
				return err
			}
			return runScan(cmd.Context(), cfg, opts, logger, stdout)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.framework, "framework", "express",
		fmt.Sprintf("framework to analyze (%s)", frameworkNames()))
	flags.StringSliceVar(&opts.ignore, "ignore", nil, "glob patterns to ignore (repeatable)")
	flags.StringVarP(&opts.html, "html", "o", "", "write an HTML report to this path")
	flags.StringVar(&opts.openapi, "openapi", "", "write an OpenAPI 3 document to this path")
	flags.StringVar(&opts.format, "format", "json", "OpenAPI encoding (json|yaml)")
	flags.StringVar(&opts.mermaid, "mermaid", "", "write a Mermaid diagram of the mount graph to this path (express)")
	cmd.PersistentFlags().StringVarP(&opts.db, "db", "d", "", "record the scan in this SQLite history database")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.configDir, "config-dir", ".", "directory searched for .inspectorrc and .env")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "files analyzed in parallel (0 = GOMAXPROCS)")
	flags.StringVar(&opts.changedSince, "changed-since", "",
		"only report routes affected by changes since this git ref")
	flags.StringVar(&opts.runReport, "run-report", "", "write a JSON report of scan stages and warnings to this path")

	cmd.AddCommand(newHistoryCmd(opts, stdout, stderr))
	return cmd
}

// loadConfig layers flags over env over the config file over defaults.
func loadConfig(cmd *cobra.Command, opts *rootOptions, args []string) (*config.Config, error) {
	cfg, err := config.Load(opts.configDir)
	if err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.Entry = args[0]
	}
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("framework") {
		cfg.Framework = opts.framework
	}
	if changed("ignore") {
		cfg.Ignore = opts.ignore
	}
	if changed("html") {
		cfg.HTML = opts.html
	}
	if changed("openapi") {
		cfg.OpenAPI = opts.openapi
	}
	if changed("format") {
		cfg.Format = opts.format
	}
	if changed("mermaid") {
		cfg.Mermaid = opts.mermaid
	}
	if changed("db") {
		cfg.DB = opts.db
	}
	if changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if changed("concurrency") {
		cfg.Concurrency = opts.concurrency
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: false,
		ReportCaller:    false,
		Prefix:          "inspector",
	})
	return slog.New(handler), nil
}

func runScan(ctx context.Context, cfg *config.Config, opts *rootOptions, logger *slog.Logger, stdout io.Writer) error {
	toFiles := cfg.HTML != "" || cfg.OpenAPI != "" || cfg.Mermaid != "" || opts.runReport != ""

	scan := pipeline.NewScan(cfg, logger)
	if toFiles {
		scan.Progress = stdout
	}

	res, err := scan.Run(ctx)
	if err != nil {
		if opts.runReport != "" && scan.Report != nil {
			if werr := report.WriteFile(opts.runReport, scan.Report.Write); werr != nil {
				logger.Error("failed to write run report", "path", opts.runReport, "err", werr)
			}
		}
		return err
	}

	if opts.changedSince != "" {
		routes, err := affectedRoutes(ctx, res, opts.changedSince)
		if err != nil {
			return err
		}
		logger.Info("filtered routes by git changes", "ref", opts.changedSince, "affected", len(routes), "total", len(res.Routes))
		res.Routes = routes
	}

	if !toFiles {
		return report.WriteJSON(stdout, res.Routes)
	}

	if cfg.OpenAPI != "" {
		spec := report.BuildOpenAPI(res.Routes, report.Info{
			Title:     cfg.OpenAPIInfo.Title,
			Version:   cfg.OpenAPIInfo.Version,
			ServerURL: cfg.OpenAPIInfo.Server,
		})
		if err := report.WriteFile(cfg.OpenAPI, func(w io.Writer) error {
			return report.WriteOpenAPI(w, spec, cfg.Format)
		}); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "✅ OpenAPI spec generated at: %s\n", cfg.OpenAPI)
	}

	if cfg.HTML != "" {
		if err := report.WriteFile(cfg.HTML, func(w io.Writer) error {
			return report.WriteHTML(w, res.Routes, report.HTMLOptions{
				Title:     "Routes of " + filepath.Base(res.Entry),
				Framework: string(res.Framework),
				Root:      res.Entry,
			})
		}); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "✅ HTML report generated at: %s\n", cfg.HTML)
	}

	if cfg.Mermaid != "" {
		if res.Graph == nil {
			logger.Warn("mount diagram is only available for express", "framework", string(res.Framework))
		} else {
			diagram := report.MountDiagram(res.Graph, res.Entry)
			if err := report.WriteFile(cfg.Mermaid, func(w io.Writer) error {
				_, err := io.WriteString(w, diagram)
				return err
			}); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "✅ Mount diagram generated at: %s\n", cfg.Mermaid)
		}
	}

	if opts.runReport != "" {
		if err := report.WriteFile(opts.runReport, res.Report.Write); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "✅ Run report generated at: %s\n", opts.runReport)
	}

	fmt.Fprintf(stdout, "✨ Analysis complete. Found %d routes.\n", len(res.Routes))
	return nil
}

func affectedRoutes(ctx context.Context, res *pipeline.ScanResult, ref string) ([]extractor.Route, error) {
	dir := res.Entry
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	changes, err := git.ChangedFiles(ctx, dir, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to diff against %s: %w", ref, err)
	}
	return analysis.NewAnalyzer(res.Graph).AnalyzeImpact(res.Routes, changes).Routes(), nil
}

func frameworkNames() string {
	names := make([]string, 0, 3)
	for _, fw := range extractor.Frameworks() {
		names = append(names, string(fw))
	}
	return strings.Join(names, ", ")
}
