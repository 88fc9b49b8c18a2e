// Package payload decodes evaluation request bodies.
//
// Bodies are strict JSON objects. Clients that send single-quoted,
// literal-style mappings ({'theme': 'x', 'input': 'y'}) are accepted too:
// their strings follow backslash-escape rules and a repeated key keeps the
// last value, the same as JSON.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/sway/internal/domain/model"
)

// Field names read from the body.
const (
	FieldTheme = "theme"
	FieldInput = "input"
)

// Decode parses raw into a Request with both fields trimmed.
// Missing or null fields become empty strings; the caller decides what empty means.
func Decode(raw []byte) (model.Request, error) {
	body := bytes.TrimSpace(raw)
	if len(body) == 0 {
		return model.Request{}, ErrEmptyBody
	}

	fields, err := decodeMapping(body)
	if err != nil {
		return model.Request{}, err
	}

	theme, err := text(fields, FieldTheme)
	if err != nil {
		return model.Request{}, err
	}
	input, err := text(fields, FieldInput)
	if err != nil {
		return model.Request{}, err
	}
	return model.Request{Theme: theme, Input: input}, nil
}

type lookup func(key string) (any, bool)

func decodeMapping(body []byte) (lookup, error) {
	var v any
	if err := json.Unmarshal(body, &v); err == nil {
		return asMapping(v)
	}

	converted, err := literalToJSON(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotMapping, err)
	}
	var lit any
	if err := json.Unmarshal(converted, &lit); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotMapping, err)
	}
	return asMapping(lit)
}

func asMapping(v any) (lookup, error) {
	switch m := v.(type) {
	case map[string]any:
		return func(key string) (any, bool) {
			val, ok := m[key]
			return val, ok
		}, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrNotMapping, v)
	}
}

func text(fields lookup, key string) (string, error) {
	v, ok := fields(key)
	if !ok || v == nil {
		return "", nil
	}
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), nil
	case map[string]any, []any:
		return "", fmt.Errorf("%w: %s", ErrFieldType, key)
	default:
		return strings.TrimSpace(fmt.Sprint(x)), nil
	}
}
