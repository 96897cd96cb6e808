package schemareg_test

import (
	"encoding/json"
	"strconv"

	"pgregory.net/rapid"

	"github.com/reoring/schemareg"
)

// jsonValue draws decoded-JSON trees where objects often carry a "$ref".
func jsonValue(depth int) *rapid.Generator[any] {
	return rapid.Custom(func(t *rapid.T) any {
		hi := 5
		if depth <= 0 {
			hi = 3
		}
		switch rapid.IntRange(0, hi).Draw(t, "kind") {
		case 0:
			return rapid.StringMatching(`[a-z#/.]{0,6}`).Draw(t, "string")
		case 1:
			return json.Number(strconv.Itoa(rapid.IntRange(-5, 5).Draw(t, "number")))
		case 2:
			return rapid.Bool().Draw(t, "bool")
		case 3:
			return nil
		case 4:
			n := rapid.IntRange(0, 3).Draw(t, "len")
			arr := make([]any, n)
			for i := range arr {
				arr[i] = jsonValue(depth-1).Draw(t, "elem")
			}
			return arr
		default:
			keys := rapid.SliceOfDistinct(
				rapid.SampledFrom([]string{"$ref", "a", "b", "items", "oneOf", "n", "list"}),
				rapid.ID[string],
			).Draw(t, "keys")
			m := make(map[string]any, len(keys))
			for _, k := range keys {
				if k == "$ref" && rapid.Bool().Draw(t, "stringRef") {
					m[k] = rapid.StringMatching(`[a-z]{1,4}\.json(#/[a-z]{1,3})?`).Draw(t, "ref")
					continue
				}
				m[k] = jsonValue(depth-1).Draw(t, "member")
			}
			return m
		}
	})
}

func mustDecode(t interface{ Fatalf(string, ...any) }, s string) any {
	v, err := schemareg.DecodeJSON([]byte(s))
	if err != nil {
		t.Fatalf("decode %s: %v", s, err)
	}
	return v
}

func ptr(s string) *string { return &s }
