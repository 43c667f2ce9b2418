package configbinder_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/configbinder"

	"github.com/mitchellh/mapstructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string `yaml:"name"`
	Size    int    `yaml:"size"`
	Enabled bool   `yaml:"enabled"`
}

func TestBindProperties_WeakTyping(t *testing.T) {
	var s sample
	err := configbinder.BindProperties(map[string]interface{}{
		"name":    "sf",
		"size":    "12",
		"enabled": "1",
	}, &s)
	require.NoError(t, err)
	assert.Equal(t, sample{Name: "sf", Size: 12, Enabled: true}, s)
}

func TestBindProperties_Hook(t *testing.T) {
	upper := func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() == reflect.String && to.Kind() == reflect.String {
			return strings.ToUpper(data.(string)), nil
		}
		return data, nil
	}
	var s sample
	err := configbinder.BindProperties(map[string]interface{}{"name": "sf"}, &s, mapstructure.DecodeHookFuncType(upper))
	require.NoError(t, err)
	assert.Equal(t, "SF", s.Name)
}

func TestBindProperties_Error(t *testing.T) {
	var s sample
	err := configbinder.BindProperties(map[string]interface{}{"size": "not-a-number"}, &s)
	assert.ErrorContains(t, err, "sample")
}
