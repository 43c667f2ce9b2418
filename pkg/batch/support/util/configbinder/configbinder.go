// Package configbinder binds loosely typed property maps (job parameters,
// YAML fragments) onto tagged structs.
package configbinder

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// BindProperties binds a map of properties to a target struct using mapstructure.
// It uses the "yaml" tag for binding and allows weakly typed input (e.g., string to int conversion).
// Extra decode hooks run before the weak conversions and can override them for
// specific target types.
//
// Parameters:
//
//	properties: The map of properties to bind.
//	target: A pointer to the struct receiving the values.
//	hooks: Optional decode hooks, composed in order.
func BindProperties(properties map[string]interface{}, target interface{}, hooks ...mapstructure.DecodeHookFunc) error {
	decoderConfig := &mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	}
	if len(hooks) > 0 {
		decoderConfig.DecodeHook = mapstructure.ComposeDecodeHookFunc(hooks...)
	}

	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(properties); err != nil {
		targetType := reflect.TypeOf(target)
		if targetType.Kind() == reflect.Ptr {
			targetType = targetType.Elem()
		}
		return fmt.Errorf("failed to bind properties to struct %s: %w", targetType.Name(), err)
	}
	return nil
}
