// Package serialization provides JSON helpers for job parameters and execution
// contexts that keep configured sensitive keys out of logs and stored records.
package serialization

import (
	"github.com/goccy/go-json"

	config "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/config"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/logger"
)

// MaskValue replaces the value of every masked key.
const MaskValue = "********"

// GetMaskedJobParametersMap creates a copy of the parameters with sensitive values masked.
func GetMaskedJobParametersMap(params map[string]interface{}) map[string]interface{} {
	if len(params) == 0 {
		return map[string]interface{}{}
	}

	maskedParams := make(map[string]interface{}, len(params))
	for k, v := range params {
		maskedParams[k] = v
	}

	for _, key := range config.GetMaskedParameterKeys() {
		if _, ok := maskedParams[key]; ok {
			maskedParams[key] = MaskValue
		}
	}
	return maskedParams
}

// MarshalJobParameters serializes job parameters into JSON, masking sensitive keys as configured.
func MarshalJobParameters(params map[string]interface{}) ([]byte, error) {
	maskedParams := GetMaskedJobParametersMap(params)
	if len(maskedParams) == 0 {
		return []byte("{}"), nil
	}

	data, err := json.Marshal(maskedParams)
	if err != nil {
		logger.Errorf("Failed to serialize JobParameters: %v", err)
		return nil, exception.NewBatchError("serialization", "Failed to serialize JobParameters", err, false, false)
	}
	return data, nil
}

// MarshalExecutionContext serializes an ExecutionContext map into JSON.
func MarshalExecutionContext(ctx map[string]interface{}) ([]byte, error) {
	if ctx == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(ctx)
	if err != nil {
		logger.Errorf("Failed to serialize ExecutionContext: %v", err)
		return nil, exception.NewBatchError("serialization", "Failed to serialize ExecutionContext", err, false, false)
	}
	return data, nil
}

// UnmarshalExecutionContext deserializes JSON into an ExecutionContext map,
// replacing any existing content.
func UnmarshalExecutionContext(data []byte, ctx *map[string]interface{}) error {
	*ctx = make(map[string]interface{})
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, ctx); err != nil {
		logger.Errorf("Failed to deserialize ExecutionContext: %v", err)
		return exception.NewBatchError("serialization", "Failed to deserialize ExecutionContext", err, false, false)
	}
	return nil
}
