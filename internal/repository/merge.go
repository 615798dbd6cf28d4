package repository

import (
	"encoding/json"
	"fmt"
)

// Merge shallow-merges patch over base: every top-level JSON field present in
// patch replaces the same field of base. patch may be a struct (nil pointer
// fields with omitempty are skipped) or a map[string]any. The result is
// decoded back into T, so a field of the wrong type is an error.
func Merge[T any](base *T, patch any) (*T, error) {
	baseFields, err := toFields(base)
	if err != nil {
		return nil, fmt.Errorf("encode base: %w", err)
	}
	patchFields, err := toFields(patch)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	for k, v := range patchFields {
		baseFields[k] = v
	}

	data, err := json.Marshal(baseFields)
	if err != nil {
		return nil, fmt.Errorf("encode merged: %w", err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode merged: %w", err)
	}
	return &out, nil
}

func toFields(v any) (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage)
	if v == nil {
		return fields, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return fields, nil
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}
	return fields, nil
}
