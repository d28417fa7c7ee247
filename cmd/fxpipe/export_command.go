package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fxpipe/internal/config"
	"fxpipe/internal/export"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Load monthly statistics and missing months into SQLite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			path := cfg.Export.SQLitePath
			if target := strings.TrimSpace(targetPath); target != "" {
				if path, err = config.ExpandPath(target); err != nil {
					return fmt.Errorf("resolve export path: %w", err)
				}
			}

			db, err := export.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer db.Close()

			summary, err := db.Load(cmd.Context(), store, time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d monthly row(s) and %d missing month(s) for %d pair(s) to %s\n",
				summary.MonthlyRows, summary.MissingRows, summary.Pairs, db.Path())
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "SQLite database path (defaults to export.sqlite_path)")
	return cmd
}
