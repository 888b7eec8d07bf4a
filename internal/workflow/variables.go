// internal/workflow/variables.go
package workflow

import (
	"encoding/json"
	"fmt"
	"time"

	"loan-workers/internal/common/errors"

	"github.com/mitchellh/mapstructure"
)

// Variables are process variables in their JSON form.
type Variables map[string]interface{}

// Clone returns a deep copy made through JSON.
func (v Variables) Clone() Variables {
	out, err := Encode(map[string]interface{}(v))
	if err != nil {
		// Variables only ever hold JSON values.
		panic(err)
	}
	return out
}

// Merge copies every key of other into v.
func (v Variables) Merge(other Variables) {
	for k, val := range other {
		v[k] = val
	}
}

// Encode converts a value into its variables form (nested maps, slices,
// float64, string, bool), the same shape a Zeebe job delivers.
func Encode(value interface{}) (Variables, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, errors.NewParseError(err)
	}
	var out Variables
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.NewParseError(err)
	}
	return out, nil
}

// ParseVariables decodes a job's JSON variable document.
func ParseVariables(document string) (Variables, error) {
	if document == "" {
		return Variables{}, nil
	}
	var out Variables
	if err := json.Unmarshal([]byte(document), &out); err != nil {
		return nil, errors.NewParseError(fmt.Errorf("parse job variables: %w", err))
	}
	return out, nil
}

// Decode fills out, a pointer to a struct with json tags, from vars.
func Decode(vars Variables, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     out,
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	})
	if err != nil {
		return errors.NewInternalError(err)
	}
	if err := decoder.Decode(map[string]interface{}(vars)); err != nil {
		return errors.NewParseError(err)
	}
	return nil
}
