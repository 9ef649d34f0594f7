// Package extract turns free model text into a JSON-like value.
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"regexp"
	"strings"

	"farm-advisor/api/internal/advisory/types"
)

var fenceRe = regexp.MustCompile("(?is)```(?:json)?[ \\t]*\\r?\\n?(.*?)```")

// FindFenced returns the trimmed body of the first ``` block.
func FindFenced(raw string) (string, bool) {
	m := fenceRe.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// ParseValue decodes exactly one JSON value from text. Numbers decode as
// float64, except integers too large for a float64 to hold exactly, which stay
// json.Number so they re-encode unchanged.
func ParseValue(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(text)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return numbers(v), nil
}

const maxExactInt = 1 << 53

func numbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, x := range t {
			t[k] = numbers(x)
		}
	case []any:
		for i, x := range t {
			t[i] = numbers(x)
		}
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t
		}
		if !strings.ContainsAny(t.String(), ".eE") && math.Abs(f) >= maxExactInt {
			return t
		}
		return f
	}
	return v
}

// Extract prefers the first fenced block and falls back to the whole text.
// When neither parses the error is a parse failure carrying raw verbatim.
func Extract(raw string) (any, error) {
	var cause error
	if inner, ok := FindFenced(raw); ok {
		v, err := ParseValue(inner)
		if err == nil {
			return v, nil
		}
		cause = err
	}
	v, err := ParseValue(raw)
	if err == nil {
		return v, nil
	}
	if cause == nil {
		cause = err
	}
	return nil, &types.Error{
		Kind:    types.KindParseFailure,
		Stage:   types.StageExtracting,
		Message: "model output is not valid JSON",
		Raw:     raw,
		Err:     cause,
	}
}

// HasKeys reports whether v is an object holding every key.
func HasKeys(v any, keys ...string) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return len(keys) == 0
	}
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}

// Compact re-encodes v without HTML escaping, for storage and logs.
func Compact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
