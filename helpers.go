package particle

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"
)

// unmarshalResponse unmarshals JSON data with consistent error formatting.
func unmarshalResponse[T any](data []byte, resourceName string) (*T, error) {
	var resp T
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w (body: %s)", resourceName, err, truncatePreview(data))
	}
	return &resp, nil
}

// truncatePreview returns a truncated string for error messages.
func truncatePreview(data []byte) string {
	s := string(data)
	if len(s) <= 200 {
		return s
	}
	cut := 200
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// GetString navigates normalized data and returns a string value.
// Returns the value and true if found, or empty string and false if not.
//
// Example:
//
//	// Extract: event.Data["data"]["state"]
//	state, ok := particle.GetString(event.Data, "data", "state")
func GetString(data any, keys ...string) (string, bool) {
	val, ok := navigate(data, keys)
	if !ok {
		return "", false
	}
	s, ok := val.(string)
	return s, ok
}

// GetInt navigates normalized data and returns an int value.
// Handles JSON's float64 representation of numbers and numeric strings.
// Returns false if the value is outside the valid int range.
func GetInt(data any, keys ...string) (int, bool) {
	f, ok := GetFloat(data, keys...)
	if !ok {
		return 0, false
	}
	if f >= float64(math.MaxInt) || f < float64(math.MinInt) || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// GetFloat navigates normalized data and returns a float64 value.
// Device variables often publish numbers as strings; those are parsed too.
//
// Example:
//
//	temp, ok := particle.GetFloat(value.Result)
func GetFloat(data any, keys ...string) (float64, bool) {
	val, ok := navigate(data, keys)
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// GetBool navigates normalized data and returns a bool value.
func GetBool(data any, keys ...string) (bool, bool) {
	val, ok := navigate(data, keys)
	if !ok {
		return false, false
	}
	b, ok := val.(bool)
	return b, ok
}

// GetMap navigates normalized data and returns a map[string]any value.
func GetMap(data any, keys ...string) (map[string]any, bool) {
	val, ok := navigate(data, keys)
	if !ok {
		return nil, false
	}
	m, ok := val.(map[string]any)
	return m, ok
}

// GetArray navigates normalized data and returns a []any value.
func GetArray(data any, keys ...string) ([]any, bool) {
	val, ok := navigate(data, keys)
	if !ok {
		return nil, false
	}
	arr, ok := val.([]any)
	return arr, ok
}

// navigate walks through nested objects following the provided keys.
// Returns the final value and true if successful, or nil and false if any key is missing.
func navigate(data any, keys []string) (any, bool) {
	current := data
	for _, key := range keys {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
