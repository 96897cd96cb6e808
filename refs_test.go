package schemareg_test

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/reoring/schemareg"
)

func TestFindReferences_NestedAndArrays(t *testing.T) {
	x := mustDecode(t, `{"a": {"$ref": "s1"}, "b": [{"$ref": "s2"}]}`)
	got := schemareg.FindReferences(x)
	if !reflect.DeepEqual(got, []string{"s1", "s2"}) {
		t.Fatalf("expected [s1 s2], got %v", got)
	}
}

func TestFindReferences_OwnRefBeforeSiblings(t *testing.T) {
	// siblings of $ref are descended too, after the node's own $ref
	x := mustDecode(t, `{"z": {"$ref": "inner"}, "$ref": "outer"}`)
	got := schemareg.FindReferences(x)
	if !reflect.DeepEqual(got, []string{"outer", "inner"}) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestFindReferences_CombinatorsAndDuplicates(t *testing.T) {
	x := mustDecode(t, `{
		"oneOf": [{"$ref": "a.json"}, {"$ref": "b.json"}],
		"anyOf": [{"$ref": "a.json"}],
		"allOf": [{"$ref": "#/definitions/x"}]
	}`)
	got := schemareg.FindReferences(x)
	want := []string{"#/definitions/x", "a.json", "a.json", "b.json"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFindReferences_ScalarsAndNonStringRefs(t *testing.T) {
	for _, x := range []any{nil, "s", true, []any{}, map[string]any{}} {
		if got := schemareg.FindReferences(x); len(got) != 0 {
			t.Fatalf("expected no refs for %v, got %v", x, got)
		}
	}
	x := mustDecode(t, `{"$ref": {"$ref": "deep"}}`)
	if got := schemareg.FindReferences(x); !reflect.DeepEqual(got, []string{"deep"}) {
		t.Fatalf("expected [deep], got %v", got)
	}
}

func TestScanReferences_DocumentOrder(t *testing.T) {
	js := `{"b": [{"$ref": "s2"}], "a": {"x": {"$ref": "s3"}, "$ref": "s1"}, "c": "$ref"}`
	got, err := schemareg.ScanReferences(strings.NewReader(js))
	if err != nil {
		t.Fatalf("scan err: %v", err)
	}
	want := []string{"s2", "s1", "s3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestScanReferences_Malformed(t *testing.T) {
	if _, err := schemareg.ScanReferences(strings.NewReader(`{"$ref": "a"`)); err == nil {
		t.Fatalf("expected error for truncated input")
	}
}

func countRefNodes(v any) int {
	n := 0
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			n += countRefNodes(e)
		}
	case map[string]any:
		if _, ok := t["$ref"].(string); ok {
			n++
		}
		for _, e := range t {
			n += countRefNodes(e)
		}
	}
	return n
}

func TestFindReferences_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		x := jsonValue(4).Draw(rt, "doc")
		refs := schemareg.FindReferences(x)
		if len(refs) != countRefNodes(x) {
			rt.Fatalf("expected one ref per $ref node: got %d want %d", len(refs), countRefNodes(x))
		}
		// encoding/json writes map keys sorted, so document order matches
		// FindReferences' sorted traversal.
		b, err := json.Marshal(x)
		if err != nil {
			rt.Fatalf("marshal: %v", err)
		}
		scanned, err := schemareg.ScanReferences(bytes.NewReader(b))
		if err != nil {
			rt.Fatalf("scan: %v", err)
		}
		if !reflect.DeepEqual(refs, scanned) {
			rt.Fatalf("find %v != scan %v", refs, scanned)
		}
	})
}
