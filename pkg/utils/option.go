// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package utils

import (
	"fmt"
	"strconv"
)

// Option is an open key/value bag of provider options. Keys are dotted
// paths ("listen.language", "speak.voice.id"); values come from the
// request or from per-provider defaults. Unrecognized keys are ignored
// by consumers, missing keys fall back to provider defaults.
type Option map[string]interface{}

// GetString returns the string value for key, or an error when the key is
// absent or not a string.
func (o Option) GetString(key string) (string, error) {
	v, ok := o[key]
	if !ok {
		return "", fmt.Errorf("option %q is not set", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("option %q is not a string", key)
	}
	return s, nil
}

// GetBool returns the boolean value for key. String values "true"/"false"
// are accepted since env-sourced options arrive as strings.
func (o Option) GetBool(key string) (bool, error) {
	v, ok := o[key]
	if !ok {
		return false, fmt.Errorf("option %q is not set", key)
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	default:
		return false, fmt.Errorf("option %q is not a bool", key)
	}
}

// GetInt returns the integer value for key, converting from the numeric
// and string representations that config sources produce.
func (o Option) GetInt(key string) (int, error) {
	v, ok := o[key]
	if !ok {
		return 0, fmt.Errorf("option %q is not set", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("option %q is not an int", key)
	}
}

// GetFloat64 returns the float value for key.
func (o Option) GetFloat64(key string) (float64, error) {
	v, ok := o[key]
	if !ok {
		return 0, fmt.Errorf("option %q is not set", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("option %q is not a float", key)
	}
}

// Merge overlays other on top of o and returns the result. o is not
// mutated; keys present in other win.
func (o Option) Merge(other Option) Option {
	merged := make(Option, len(o)+len(other))
	for k, v := range o {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}
