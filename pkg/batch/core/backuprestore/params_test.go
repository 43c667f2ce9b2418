package backuprestore_test

import (
	"testing"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/core/backuprestore"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobParameterSet_Defaults(t *testing.T) {
	params, err := backuprestore.NewJobParameterSet(test.NewTestJobParameters(nil), "")
	require.NoError(t, err)

	assert.False(t, params.DryRun())
	assert.False(t, params.BestEffort())
	assert.False(t, params.ParameterizePasswords())
	assert.Equal(t, ",", params.ReplacementSeparator())
	assert.Empty(t, params.ConcatenatedPasswordTokens())
	assert.Empty(t, params.FilterExpression())
}

func TestNewJobParameterSet_Flags(t *testing.T) {
	cases := []struct {
		value interface{}
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"True", true},
		{true, true},
		{"false", false},
		{"yes", false},
		{"1", false},
		{"", false},
		{false, false},
	}
	for _, tc := range cases {
		params, err := backuprestore.NewJobParameterSet(test.NewTestJobParameters(map[string]interface{}{
			backuprestore.ParamDryRunMode:            tc.value,
			backuprestore.ParamBestEffortMode:        tc.value,
			backuprestore.ParamParameterizePasswords: tc.value,
		}), "")
		require.NoError(t, err)
		assert.Equal(t, tc.want, params.DryRun(), "BK_DRY_RUN=%v", tc.value)
		assert.Equal(t, tc.want, params.BestEffort(), "BK_BEST_EFFORT=%v", tc.value)
		assert.Equal(t, tc.want, params.ParameterizePasswords(), "BK_PARAM_PASSWORDS=%v", tc.value)
	}
}

func TestNewJobParameterSet_Separator(t *testing.T) {
	params, err := backuprestore.NewJobParameterSet(test.NewTestJobParameters(nil), ";")
	require.NoError(t, err)
	assert.Equal(t, ";", params.ReplacementSeparator())

	params, err = backuprestore.NewJobParameterSet(test.NewTestJobParameters(map[string]interface{}{
		backuprestore.ParamReplacementSeparator: "|",
		backuprestore.ParamPasswordTokens:       "${a}=1|${b}=2",
		backuprestore.ParamFilter:               "name = 'sf'",
	}), ";")
	require.NoError(t, err)
	assert.Equal(t, "|", params.ReplacementSeparator())
	assert.Equal(t, "${a}=1|${b}=2", params.ConcatenatedPasswordTokens())
	assert.Equal(t, "name = 'sf'", params.FilterExpression())
}

func TestNewJobParameterSet_IgnoresUnknownKeys(t *testing.T) {
	params, err := backuprestore.NewJobParameterSet(test.NewTestJobParameters(map[string]interface{}{
		"run.id":                      "42",
		backuprestore.ParamDryRunMode: "true",
	}), "")
	require.NoError(t, err)
	assert.True(t, params.DryRun())
}
