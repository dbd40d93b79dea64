package llmjson

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare", in: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "fenced upper", in: "```JSON\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "plain fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "json label", in: "json\n{\"a\":1}", want: `{"a":1}`},
		{name: "leading and trailing prose", in: "Here you go:\n{\"a\":{\"b\":2}}\nHope this helps!", want: `{"a":{"b":2}}`},
		{name: "fence then prose", in: "```json\n{\"a\":1}\n```\nLet me know.", want: `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractObject(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractObjectNoSpan(t *testing.T) {
	for _, in := range []string{"", "no json here", "} backwards {", "```json\n```"} {
		_, err := ExtractObject(in)
		assert.ErrorIs(t, err, ErrNoObject, "input %q", in)
	}
}

func TestDecodeRepairsTrailingComma(t *testing.T) {
	m, err := DecodeMap("```json\n{\"name\": \"Ava\", \"tags\": [\"a\", \"b\",],}\n```")
	require.NoError(t, err)
	name, err := String(m, "name")
	require.NoError(t, err)
	assert.Equal(t, "Ava", name)
	tags, err := StringSlice(m, "tags")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tags)
}

func TestDecodeMalformed(t *testing.T) {
	var out struct {
		Age int `json:"age"`
	}
	err := Decode(`{"age": "thirty"}`, &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestTypedReaders(t *testing.T) {
	m, err := DecodeMap(`{"score": 7.6, "label": 3, "list": ["x", 1], "obj": {"k": "v"}}`)
	require.NoError(t, err)

	n, err := RoundedInt(m, "score")
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	_, err = String(m, "label")
	assert.Error(t, err)

	_, err = StringSlice(m, "list")
	assert.Error(t, err)

	_, err = Number(m, "missing")
	assert.Error(t, err)

	obj, err := Object(m, "obj")
	require.NoError(t, err)
	assert.Equal(t, "v", obj["k"])
}
