package schemareg

import (
	"encoding/json"
	"reflect"
	"testing"
)

func decodeT(t *testing.T, s string) any {
	t.Helper()
	v, err := DecodeJSON([]byte(s))
	if err != nil {
		t.Fatalf("decode %s: %v", s, err)
	}
	return v
}

func TestStripKeywords_SchemaPositionsOnly(t *testing.T) {
	doc := decodeT(t, `{
		"const": 1,
		"properties": {"if": {"type": "string", "contains": {}}},
		"items": [{"then": {}}, {"propertyNames": {}}],
		"not": {"else": {}},
		"enum": [{"const": 2}]
	}`)
	got := stripKeywords(doc, laterDraftKeywords)
	want := decodeT(t, `{
		"properties": {"if": {"type": "string"}},
		"items": [{}, {}],
		"not": {},
		"enum": [{"const": 2}]
	}`)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if _, ok := doc.(map[string]any)["const"]; !ok {
		t.Fatalf("input was mutated")
	}
}

func TestDropIdentifiers_TopLevelOnly(t *testing.T) {
	doc := decodeT(t, `{"id": "a", "$id": "b", "properties": {"x": {"$id": "c"}}}`)
	got := dropIdentifiers(doc).(map[string]any)
	if _, ok := got["id"]; ok {
		t.Fatalf("id kept")
	}
	if _, ok := got["$id"]; ok {
		t.Fatalf("$id kept")
	}
	inner := got["properties"].(map[string]any)["x"].(map[string]any)
	if inner["$id"] != "c" {
		t.Fatalf("nested $id should be kept, got %v", inner)
	}
	if doc.(map[string]any)["id"] != "a" {
		t.Fatalf("input was mutated")
	}
	if v := dropIdentifiers(json.Number("1")); v != json.Number("1") {
		t.Fatalf("scalars pass through")
	}
}

func TestUnknownKeywords(t *testing.T) {
	doc := decodeT(t, `{
		"type": "object",
		"x-extra": true,
		"properties": {"colour": {"type": "string", "nullable": true}},
		"$defs": {"a": {"foo": 1}}
	}`)
	got := unknownKeywords(doc, Draft07)
	want := []string{"/$defs", "/$defs/a/foo", "/properties/colour/nullable", "/x-extra"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("draft-07: expected %v, got %v", want, got)
	}
	got = unknownKeywords(doc, Draft202012)
	want = []string{"/$defs/a/foo", "/properties/colour/nullable", "/x-extra"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("2020-12: expected %v, got %v", want, got)
	}
}

func TestDependencyClosure(t *testing.T) {
	refs := map[string][]string{
		"root.json":   {"#/definitions/x", "a.json#/p", "http://remote.example/r.json", "a.json"},
		"a.json":      {"dir/b.json", "root.json#/definitions/x"},
		"dir/b.json":  {"../a.json", "c.json"},
		"unused.json": {"a.json"},
		"dir/c.json":  nil,
	}
	closure, unresolved := dependencyClosure("root.json", refs, []string{"a.json", "dir/b.json", "dir/c.json", "unused.json"})
	if want := []string{"a.json", "dir/b.json", "dir/c.json"}; !reflect.DeepEqual(closure, want) {
		t.Fatalf("expected closure %v, got %v", want, closure)
	}
	if want := []string{"http://remote.example/r.json"}; !reflect.DeepEqual(unresolved, want) {
		t.Fatalf("expected unresolved %v, got %v", want, unresolved)
	}
}

func TestDependencyClosure_RelativeMiss(t *testing.T) {
	_, unresolved := dependencyClosure("s.json", map[string][]string{"s.json": {"missing.json#/a", "missing.json"}}, nil)
	if want := []string{"missing.json"}; !reflect.DeepEqual(unresolved, want) {
		t.Fatalf("expected %v, got %v", want, unresolved)
	}
}
