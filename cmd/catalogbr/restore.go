package main

import (
	"fmt"
	"io"
	"os"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/core/application/usecase"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/core/backuprestore"

	"github.com/spf13/cobra"
)

func newRestoreCmd(root *rootOptions) *cobra.Command {
	flags := &runFlags{}
	var passwordTokens string
	var output string

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore an archive into a new catalog snapshot",
		Long: `Reads an NDJSON archive from the configured archive storage, restores the
resources matching --filter into a new catalog and writes it to --output ("-" for stdout).
Password tokens are replaced using --password-tokens, e.g. "${sf.sf.passwd}=secret".
With --dry-run the archive is restored into a scratch catalog that is discarded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.archive == "" {
				return fmt.Errorf("--archive is required")
			}
			if output == "" && !flags.dryRun {
				return fmt.Errorf("--output is required unless --dry-run is set")
			}
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			params, err := flags.parameters()
			if err != nil {
				return err
			}
			if passwordTokens != "" {
				params.Put(backuprestore.ParamPasswordTokens, passwordTokens)
			}

			return withLauncher(cmd.Context(), cfg, func(launcher usecase.RunLauncher) error {
				report, err := launcher.Restore(cmd.Context(), params)
				if report != nil {
					printReport(cmd, report)
				}
				if err != nil {
					return err
				}
				if err := reportError(report); err != nil {
					return err
				}
				if flags.dryRun {
					return nil
				}
				return writeCatalog(cmd.OutOrStdout(), output, report.Catalog)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&passwordTokens, "password-tokens", "", "Token=value pairs joined by the replacement separator")
	cmd.Flags().StringVar(&output, "output", "", "Path of the restored catalog snapshot, \"-\" for stdout")
	return cmd
}

func writeCatalog(stdout io.Writer, path string, cat catalog.Catalog) error {
	if path == "-" {
		return catalog.SaveSnapshot(stdout, cat)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create catalog snapshot: %w", err)
	}
	if err := catalog.SaveSnapshot(f, cat); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write catalog snapshot '%s': %w", path, err)
	}
	return f.Close()
}
