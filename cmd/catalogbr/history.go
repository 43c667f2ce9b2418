package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/core/application/usecase"
	repository "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/repository"
	sqlrepo "github.com/tigerroll/surfin-backuprestore/pkg/batch/infrastructure/repository/sql"

	"github.com/spf13/cobra"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var mode string
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past runs and their ledger entries",
		Long: `Lists the latest backup or restore runs recorded in the ledger database.
With --run the failures and warnings recorded for that run are listed instead.
Requires backup_restore.ledger.enabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Surfin.BackupRestore.Ledger.Enabled {
				return fmt.Errorf("run history requires backup_restore.ledger.enabled")
			}
			jobName, err := jobNameForMode(mode)
			if err != nil {
				return err
			}

			var runs repository.JobRepository
			var ledger *sqlrepo.GormLedgerStore
			return runApplication(cmd.Context(), cfg, func() error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				defer w.Flush()

				if runID != "" {
					entries, err := ledger.FindByRun(cmd.Context(), runID)
					if err != nil {
						return err
					}
					fmt.Fprintln(w, "KIND\tSTEP\tRESOURCE\tMESSAGE")
					for _, e := range entries {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Kind, e.StepName, e.Resource, e.Message)
					}
					return nil
				}

				executions, err := runs.FindJobExecutionsByJobName(cmd.Context(), jobName, limit)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "RUN\tSTATUS\tCREATED\tWARNINGS\tFAILURES")
				for _, je := range executions {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
						je.ID, je.Status, je.CreateTime.Format("2006-01-02 15:04:05"), len(je.Warnings), len(je.Failures))
				}
				return nil
			}, &runs, &ledger)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "backup", "Runs to list: backup or restore")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs, 0 for all")
	cmd.Flags().StringVar(&runID, "run", "", "Show the ledger entries of this run")
	return cmd
}

func jobNameForMode(mode string) (string, error) {
	switch mode {
	case "backup":
		return usecase.BackupJobName, nil
	case "restore":
		return usecase.RestoreJobName, nil
	default:
		return "", fmt.Errorf("unknown mode %q, expected backup or restore", mode)
	}
}
