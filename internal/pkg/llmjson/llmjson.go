// Package llmjson pulls a JSON object out of free-form model output.
//
// Models wrap answers in markdown fences, prefix them with a "json" label, or add prose
// around the object. Extraction is lenient about that framing; decoding is strict, with a
// single repair attempt for common syntax slips (trailing commas, single quotes).
package llmjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var (
	ErrNoObject  = errors.New("llmjson: no JSON object found")
	ErrMalformed = errors.New("llmjson: malformed JSON object")
)

// ExtractObject returns the candidate object span of raw.
func ExtractObject(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = stripLeadingFence(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = strings.TrimSpace(s[4:])
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", ErrNoObject
	}
	return s[start : end+1], nil
}

func stripLeadingFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = s[3:]
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = s[4:]
	}
	return strings.TrimSpace(s)
}

// Decode extracts the object from raw and decodes it into out.
func Decode(raw string, out any) error {
	span, err := ExtractObject(raw)
	if err != nil {
		return err
	}
	if err := strictDecode(span, out); err == nil {
		return nil
	} else if !isSyntaxError(err) {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	repaired, rerr := jsonrepair.JSONRepair(span)
	if rerr != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, rerr)
	}
	if err := strictDecode(repaired, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// DecodeMap is Decode into a generic object with numbers preserved as json.Number.
func DecodeMap(raw string) (map[string]any, error) {
	var m map[string]any
	if err := Decode(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: null object", ErrMalformed)
	}
	return m, nil
}

func strictDecode(s string, out any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if dec.More() {
		return &json.SyntaxError{Offset: dec.InputOffset()}
	}
	return nil
}

func isSyntaxError(err error) bool {
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

// Number reads a numeric field. Strings holding numbers are rejected.
func Number(m map[string]any, key string) (float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing %q", key)
	}
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", key)
		}
		return f, nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("%q is not a number", key)
	}
}

// RoundedInt reads a number and rounds it half away from zero.
func RoundedInt(m map[string]any, key string) (int, error) {
	f, err := Number(m, key)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not finite", key)
	}
	return int(math.Round(f)), nil
}

func String(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", fmt.Errorf("missing %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%q is not a string", key)
	}
	return s, nil
}

// StringSlice reads an array of strings. A missing key is an error; an empty array is not.
func StringSlice(m map[string]any, key string) ([]string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("missing %q", key)
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%q is not an array", key)
	}
	out := make([]string, 0, len(arr))
	for i, item := range arr {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%q[%d] is not a string", key, i)
		}
		out = append(out, s)
	}
	return out, nil
}

// Object reads a nested object.
func Object(m map[string]any, key string) (map[string]any, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("missing %q", key)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%q is not an object", key)
	}
	return obj, nil
}
