package extract

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-advisor/api/internal/advisory/types"
)

func TestFindFenced(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		inner string
		ok    bool
	}{
		{"json tag", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"upper tag", "Here:\n```JSON\n[1, 2]\n```\nbye", "[1, 2]", true},
		{"no tag", "```\n  \"ok\"  \n```", `"ok"`, true},
		{"inline", "```{\"a\":true}```", `{"a":true}`, true},
		{"first of two", "```json\n{\"first\":1}\n``` and ```json\n{\"second\":2}\n```", `{"first":1}`, true},
		{"no fence", `{"a":1}`, "", false},
		{"unterminated", "```json\n{\"a\":1}", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner, ok := FindFenced(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.inner, inner)
		})
	}
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue("  \n42\t")
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)

	v, err = ParseValue(`"text"`)
	require.NoError(t, err)
	assert.Equal(t, "text", v)

	v, err = ParseValue("null")
	require.NoError(t, err)
	assert.Nil(t, v)

	for _, bad := range []string{"", "   ", "not json at all", `{"a":1} trailing`, "1 2", `{"a":`} {
		_, err := ParseValue(bad)
		assert.Error(t, err, bad)
	}
}

func TestExtract(t *testing.T) {
	want := map[string]any{
		"fertilizerPlan": map[string]any{
			"crop":  "Wheat",
			"stage": "Flowering",
			"recommendedFertilizers": []any{
				map[string]any{"name": "Urea", "dosage": "25 kg/acre"},
			},
		},
	}
	body := `{"fertilizerPlan":{"crop":"Wheat","stage":"Flowering","recommendedFertilizers":[{"name":"Urea","dosage":"25 kg/acre"}]}}`

	for name, raw := range map[string]string{
		"plain":          body,
		"padded":         "\n\n  " + body + "  \n",
		"fenced":         "```json\n" + body + "\n```",
		"fenced in text": "Sure! Here is your plan:\n```json\n" + body + "\n```\nGood luck.",
	} {
		t.Run(name, func(t *testing.T) {
			got, err := Extract(raw)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtract_OnlyFirstFence(t *testing.T) {
	got, err := Extract("```json\n{\"n\":1}\n```\n```json\n{\"n\":2}\n```")
	require.NoError(t, err)
	if diff := cmp.Diff(map[string]any{"n": 1.0}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_FenceFailureFallsBackToWholeText(t *testing.T) {
	got, err := Extract("```\n```")
	require.Error(t, err)
	assert.Nil(t, got)

	// The whole text is a JSON string whose content looks like a broken fence.
	got, err = Extract("\"```json\\n{broken\\n```\"")
	require.NoError(t, err)
	assert.Equal(t, "```json\n{broken\n```", got)
}

func TestExtract_ParseFailureKeepsRaw(t *testing.T) {
	raw := "not json at all"
	_, err := Extract(raw)
	require.Error(t, err)

	assert.True(t, errors.Is(err, types.ErrParseFailure))
	var perr *types.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, raw, perr.Raw)
	assert.Equal(t, types.StageExtracting, perr.Stage)
}

func TestHasKeys(t *testing.T) {
	v := map[string]any{"diagnosis": map[string]any{}}
	assert.True(t, HasKeys(v, "diagnosis"))
	assert.False(t, HasKeys(v, "cropPlan"))
	assert.True(t, HasKeys([]any{1.0}))
	assert.False(t, HasKeys([]any{1.0}, "diagnosis"))
}

func TestCompact(t *testing.T) {
	b, err := Compact(map[string]any{"tip": "N < 40 & P > 10"})
	require.NoError(t, err)
	assert.Equal(t, `{"tip":"N < 40 & P > 10"}`, string(b))
}

func TestParseValue_LargeIntegersSurviveReencoding(t *testing.T) {
	raw := `{"plotId":9007199254740993,"area":2.5,"count":3,"ids":[-9223372036854775807,12345678901234567890]}`
	v, err := ParseValue(raw)
	require.NoError(t, err)

	m := v.(map[string]any)
	assert.Equal(t, 2.5, m["area"])
	assert.Equal(t, 3.0, m["count"])
	assert.Equal(t, json.Number("9007199254740993"), m["plotId"])

	b, err := Compact(v)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(b))
	assert.Contains(t, string(b), "9007199254740993")
	assert.Contains(t, string(b), "12345678901234567890")
}
