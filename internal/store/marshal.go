package store

import (
	"fmt"

	"github.com/roach88/rendezvous/internal/ir"
)

// marshalValues converts the values of a trace event to canonical JSON TEXT.
// An event without values is stored as the empty string.
func marshalValues(values []any) (string, error) {
	if len(values) == 0 {
		return "", nil
	}
	data, err := ir.MarshalCanonical(values)
	if err != nil {
		return "", fmt.Errorf("marshal values: %w", err)
	}
	return string(data), nil
}

// unmarshalValues parses canonical JSON TEXT back to event values.
// Large integers survive the round trip: ir.UnmarshalIRValue decodes numbers
// via json.Number.
func unmarshalValues(data string) ([]any, error) {
	if data == "" {
		return nil, nil
	}
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	arr, ok := v.(ir.IRArray)
	if !ok {
		return nil, fmt.Errorf("unmarshal values: expected array, got %T", v)
	}
	values := make([]any, len(arr))
	for i, elem := range arr {
		values[i] = elem
	}
	return values, nil
}
