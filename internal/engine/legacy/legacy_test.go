package legacy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reoring/schemareg/internal/engine"
)

func TestCompile_Draft04Only(t *testing.T) {
	_, err := New().Compile(engine.Options{Draft: engine.Draft7}, nil, "s.json")
	require.ErrorIs(t, err, ErrDraft)
}

func TestValidate_GreedyAndPaths(t *testing.T) {
	h, err := New().Compile(engine.Options{Draft: engine.Draft4}, []engine.Resource{
		{ID: "s.json", Doc: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "string"},
				"b": map[string]any{"type": "array", "items": map[string]any{"minimum": json.Number("0")}},
			},
		}},
	}, "s.json")
	require.NoError(t, err)

	v := map[string]any{"a": json.Number("1"), "b": []any{json.Number("-1")}}
	ok, recs, err := h.Validate(v, engine.CallOptions{Verbose: true})
	require.NoError(t, err)
	require.False(t, ok)
	require.Len(t, recs, 1)

	_, recs, err = h.Validate(v, engine.CallOptions{Verbose: true, Greedy: true})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	paths := []string{recs[0].InstancePath, recs[1].InstancePath}
	require.ElementsMatch(t, []string{"/a", "/b/0"}, paths)
}

func TestInstancePath_Root(t *testing.T) {
	h, err := New().Compile(engine.Options{Draft: engine.Draft4}, []engine.Resource{
		{ID: "s.json", Doc: map[string]any{"type": "string"}},
	}, "s.json")
	require.NoError(t, err)
	_, recs, err := h.Validate(json.Number("1"), engine.CallOptions{Verbose: true})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "", recs[0].InstancePath)
	require.Equal(t, "invalid_type", recs[0].Keyword)
}
