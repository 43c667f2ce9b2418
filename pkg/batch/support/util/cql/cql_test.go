package cql_test

import (
	"errors"
	"testing"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/cql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Evaluate(t *testing.T) {
	alpha := cql.PropertyMap{"name": "alpha", "isolated": false, "layers": 3.0}
	beta := cql.PropertyMap{"name": "beta", "isolated": true, "layers": 12.0}

	tests := []struct {
		filter string
		alpha  bool
		beta   bool
	}{
		{"name = 'alpha'", true, false},
		{"name='alpha'", true, false},
		{"name <> 'alpha'", false, true},
		{"name IN ('alpha', 'gamma')", true, false},
		{"name NOT IN ('alpha')", false, true},
		{"name LIKE 'al%'", true, false},
		{"name LIKE '_eta'", false, true},
		{"name ILIKE 'ALPHA'", true, false},
		{"name NOT LIKE 'a%'", false, true},
		{"layers > 5", false, true},
		{"layers BETWEEN 1 AND 5", true, false},
		{"isolated = true", false, true},
		{"name = 'alpha' OR name = 'beta'", true, true},
		{"name = 'alpha' AND isolated = true", false, false},
		{"NOT (name = 'alpha')", false, true},
		{"(name = 'alpha' OR name = 'beta') AND layers < 10", true, false},
		{"missing IS NULL", true, true},
		{"name IS NOT NULL", true, true},
		{"missing = 'x'", false, false},
		{"INCLUDE", true, true},
		{"EXCLUDE", false, false},
		{"\"name\" = 'beta'", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			f, err := cql.Parse(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.alpha, f.Evaluate(alpha), "alpha")
			assert.Equal(t, tt.beta, f.Evaluate(beta), "beta")
		})
	}
}

func TestParse_QuotedQuote(t *testing.T) {
	f, err := cql.Parse("name = 'o''brien'")
	require.NoError(t, err)
	assert.True(t, f.Evaluate(cql.PropertyMap{"name": "o'brien"}))
	assert.Equal(t, "name = 'o''brien'", f.String())
}

func TestParse_SyntaxErrors(t *testing.T) {
	for _, text := range []string{
		"",
		"name =",
		"name = 'unterminated",
		"name == 'a'",
		"name 'a'",
		"(name = 'a'",
		"name IN ('a' 'b')",
		"name LIKE 5",
		"name = 'a' AND",
		"name ! 'a'",
		"name = 'a' )",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := cql.Parse(text)
			require.Error(t, err)
			var syntaxErr *cql.SyntaxError
			assert.True(t, errors.As(err, &syntaxErr))
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { cql.MustParse("name =") })
	assert.NotPanics(t, func() { cql.MustParse("name = 'a'") })
}
