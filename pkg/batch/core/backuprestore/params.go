// Package backuprestore resolves, before every backup or restore step, the
// context the step works in: which catalog it reads or writes, how resources
// are serialized, how credentials are tokenized, which resources are in scope
// and how validation problems are handled.
package backuprestore

import (
	"reflect"
	"strings"

	config "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/config"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/configbinder"

	"github.com/mitchellh/mapstructure"
)

// Job parameter keys recognized by backup and restore runs.
const (
	ParamDryRunMode            = "BK_DRY_RUN"
	ParamBestEffortMode        = "BK_BEST_EFFORT"
	ParamParameterizePasswords = "BK_PARAM_PASSWORDS"
	ParamReplacementSeparator  = "REPLACEMENT_SEPARATOR"
	ParamPasswordTokens        = config.PasswordTokensParameterKey
	ParamFilter                = "filter"
)

type jobParameterFields struct {
	DryRun                     bool   `yaml:"BK_DRY_RUN"`
	BestEffort                 bool   `yaml:"BK_BEST_EFFORT"`
	ParameterizePasswords      bool   `yaml:"BK_PARAM_PASSWORDS"`
	ReplacementSeparator       string `yaml:"REPLACEMENT_SEPARATOR"`
	ConcatenatedPasswordTokens string `yaml:"BK_PASSWORD_TOKENS"`
	FilterExpression           string `yaml:"filter"`
}

// JobParameterSet is the immutable view of a run's parameters.
type JobParameterSet struct {
	fields jobParameterFields
}

// NewJobParameterSet binds params. Flags are true only for a case-insensitive
// "true"; any other value, including malformed ones, is false. An absent or
// empty separator falls back to defaultSeparator, then to ",".
func NewJobParameterSet(params model.JobParameters, defaultSeparator string) (JobParameterSet, error) {
	var fields jobParameterFields
	if err := configbinder.BindProperties(params.Params, &fields, strictTrueHook); err != nil {
		return JobParameterSet{}, err
	}
	if fields.ReplacementSeparator == "" {
		fields.ReplacementSeparator = defaultSeparator
	}
	if fields.ReplacementSeparator == "" {
		fields.ReplacementSeparator = config.DefaultReplacementSeparator
	}
	return JobParameterSet{fields: fields}, nil
}

// strictTrueHook maps strings onto bool fields the way job parameters are read:
// only "true" (any case) is true.
func strictTrueHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() != reflect.Bool || from.Kind() != reflect.String {
		return data, nil
	}
	return strings.EqualFold(strings.TrimSpace(data.(string)), "true"), nil
}

var _ mapstructure.DecodeHookFuncType = strictTrueHook

// DryRun reports whether steps must skip persistence.
func (p JobParameterSet) DryRun() bool { return p.fields.DryRun }

// BestEffort reports whether validation failures are downgraded to warnings.
func (p JobParameterSet) BestEffort() bool { return p.fields.BestEffort }

// ParameterizePasswords reports whether credentials are tokenized.
func (p JobParameterSet) ParameterizePasswords() bool { return p.fields.ParameterizePasswords }

// ReplacementSeparator separates token=value pairs.
func (p JobParameterSet) ReplacementSeparator() string { return p.fields.ReplacementSeparator }

// ConcatenatedPasswordTokens is the raw token list.
func (p JobParameterSet) ConcatenatedPasswordTokens() string {
	return p.fields.ConcatenatedPasswordTokens
}

// FilterExpression is the raw filter text, possibly empty.
func (p JobParameterSet) FilterExpression() string { return p.fields.FilterExpression }
