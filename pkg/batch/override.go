package batch

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// ParseOverrides splits a list of "key=value" pairs (as repeated
// `--set key=value` flags) into the map ApplyOverrides decodes from.
func ParseOverrides(pairs []string) (map[string]any, error) {
	overrides := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("batch: invalid --set %q (want key=value)", pair)
		}
		overrides[key] = value
	}
	return overrides, nil
}

// ApplyOverrides decodes overrides (as produced by ParseOverrides) onto
// job via mapstructure, so a single `--set threads=8` on the command line
// applies across every job in the manifest without a per-field CLI flag
// for each one. Values arrive as strings; WeaklyTypedInput lets
// mapstructure coerce them into Job's int/slice fields.
func ApplyOverrides(job *Job, overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           job,
	})
	if err != nil {
		return fmt.Errorf("batch: build override decoder: %w", err)
	}
	if err := decoder.Decode(overrides); err != nil {
		return fmt.Errorf("batch: apply --set overrides: %w", err)
	}
	return nil
}
