package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/core/backuprestore"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"

	"github.com/spf13/cobra"
)

// runFlags are the job parameters shared by backup and restore.
type runFlags struct {
	archive               string
	filter                string
	dryRun                bool
	bestEffort            bool
	parameterizePasswords bool
	separator             string
	extra                 []string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.archive, "archive", "", "Archive object name (default <run id>.ndjson)")
	cmd.Flags().StringVar(&f.filter, "filter", "", "CQL filter selecting the resources, e.g. \"name IN ('sf','it')\"")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Validate without persisting anything")
	cmd.Flags().BoolVar(&f.bestEffort, "best-effort", false, "Skip invalid resources with a warning instead of failing")
	cmd.Flags().BoolVar(&f.parameterizePasswords, "parameterize-passwords", false, "Replace credentials by ${workspace.store.key} tokens")
	cmd.Flags().StringVar(&f.separator, "separator", "", "Separator between password token pairs")
	cmd.Flags().StringArrayVar(&f.extra, "param", nil, "Additional job parameter as key=value (repeatable)")
}

// parameters builds the job parameters of the run.
func (f *runFlags) parameters() (model.JobParameters, error) {
	params := model.NewJobParameters()
	for _, kv := range f.extra {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return params, fmt.Errorf("invalid --param %q, expected key=value", kv)
		}
		params.Put(key, value)
	}

	params.Put(backuprestore.ParamDryRunMode, strconv.FormatBool(f.dryRun))
	params.Put(backuprestore.ParamBestEffortMode, strconv.FormatBool(f.bestEffort))
	params.Put(backuprestore.ParamParameterizePasswords, strconv.FormatBool(f.parameterizePasswords))
	if f.archive != "" {
		params.Put("archive", f.archive)
	}
	if f.filter != "" {
		params.Put(backuprestore.ParamFilter, f.filter)
	}
	if f.separator != "" {
		params.Put(backuprestore.ParamReplacementSeparator, f.separator)
	}
	return params, nil
}
