package schemareg

import (
	"io"
	"sort"

	"github.com/reoring/schemareg/internal/stream"
)

// FindReferences collects every "$ref" string in x, depth first. An object's
// own $ref comes before the references found in its members, and every member
// is descended, $ref siblings included: real-world schemas put keys next to
// $ref even though JSON-Schema says they are ignored. Arrays are walked
// element by element since combinators (oneOf, anyOf, allOf) hold schema
// arrays. Object keys are visited in sorted order. Duplicates are kept and
// nothing is resolved.
func FindReferences(x any) []string {
	out := []string{}
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case []any:
			for _, e := range t {
				walk(e)
			}
		case map[string]any:
			if ref, ok := t["$ref"].(string); ok {
				out = append(out, ref)
			}
			for _, k := range sortedKeys(t) {
				walk(t[k])
			}
		}
	}
	walk(x)
	return out
}

// ScanReferences is FindReferences over raw JSON, visiting object members in
// document order instead of sorted order.
func ScanReferences(r io.Reader) ([]string, error) {
	return stream.References(stream.NewReader(r))
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
