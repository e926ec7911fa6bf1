package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"inspector/internal/config"
	"inspector/internal/report"
	"inspector/internal/storage"
)

func newHistoryCmd(root *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	var scanID int64

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded scans, or print the routes of one scan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configDir)
			if err != nil {
				return err
			}
			if f := cmd.Flags().Lookup("db"); f != nil && f.Changed {
				cfg.DB = root.db
			}
			if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
				cfg.LogLevel = root.logLevel
			}
			if cfg.DB == "" {
				return errors.New("no history database: pass --db or set INSPECTOR_DB")
			}

			logger, err := newLogger(stderr, cfg.LogLevel)
			if err != nil {
				return err
			}

			store, err := storage.NewSQLiteStore(cfg.DB)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer store.Close()

			if scanID > 0 {
				routes, err := store.LoadRoutes(cmd.Context(), scanID)
				if err != nil {
					return err
				}
				logger.Debug("loaded scan", "id", scanID, "routes", len(routes))
				return report.WriteJSON(stdout, routes)
			}

			scans, err := store.ListScans(cmd.Context())
			if err != nil {
				return err
			}
			if len(scans) == 0 {
				fmt.Fprintln(stdout, "No scans recorded yet.")
				return nil
			}

			tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTAKEN\tFRAMEWORK\tFILES\tROUTES\tERRORS\tENTRY")
			for _, s := range scans {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
					s.ID, s.CreatedAt.Format(time.DateTime), s.Framework, s.Files, s.RouteCount, s.ErrorCount, s.Entry)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Int64Var(&scanID, "scan", 0, "print the routes of this scan id as JSON")
	return cmd
}
