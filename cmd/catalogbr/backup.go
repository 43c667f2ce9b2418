package main

import (
	"fmt"
	"os"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/core/application/usecase"

	"github.com/spf13/cobra"
)

func newBackupCmd(root *rootOptions) *cobra.Command {
	flags := &runFlags{}
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up a catalog snapshot into an archive",
		Long: `Reads a catalog snapshot, selects the resources matching --filter and
writes them to an NDJSON archive in the configured archive storage.
With --dry-run the resources are serialized and validated but no archive is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			params, err := flags.parameters()
			if err != nil {
				return err
			}
			source, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}

			return withLauncher(cmd.Context(), cfg, func(launcher usecase.RunLauncher) error {
				report, err := launcher.Backup(cmd.Context(), source, params)
				if report != nil {
					printReport(cmd, report)
				}
				if err != nil {
					return err
				}
				return reportError(report)
			})
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Path to the catalog snapshot to back up")
	_ = cmd.MarkFlagRequired("catalog")
	flags.register(cmd)
	return cmd
}

func loadCatalog(path string) (catalog.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog snapshot: %w", err)
	}
	defer f.Close()
	cat, err := catalog.LoadSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog snapshot '%s': %w", path, err)
	}
	return cat, nil
}

func printReport(cmd *cobra.Command, report *usecase.RunReport) {
	out := cmd.OutOrStdout()
	execution := report.Execution
	fmt.Fprintf(out, "Run:     %s\n", execution.ID)
	fmt.Fprintf(out, "Mode:    %s\n", report.Mode)
	fmt.Fprintf(out, "Status:  %s\n", execution.Status)
	fmt.Fprintf(out, "Archive: %s\n", report.Archive)
	for _, field := range report.ParameterizedFields {
		fmt.Fprintf(out, "Parameterized: %s\n", field)
	}
	for _, w := range report.Warnings() {
		fmt.Fprintf(out, "Warning: %s\n", w)
	}
	for _, f := range report.Failures() {
		fmt.Fprintf(out, "Failure: %s\n", f)
	}
}

func reportError(report *usecase.RunReport) error {
	failures := report.Failures()
	if len(failures) == 0 {
		return nil
	}
	return fmt.Errorf("run %s failed: %s", report.Execution.ID, failures[0])
}
