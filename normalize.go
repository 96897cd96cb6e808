package schemareg

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// NormalizeUnboxableValues undoes serializers that wrap scalars in
// single-element arrays. value is walked together with schema and every
// array of exactly one atomic element (string, number or boolean) is
// replaced by that element wherever the schema declares an atomic type at
// that position (string, number, integer, boolean, or an enum/const).
//
// Only shape the schema knows about is touched: object members missing from
// "properties" are left alone, and arrays of objects are descended through
// "items" (assumed homogeneous) only when it declares type object or array.
// A value that does not match its schema passes through unchanged. Local
// "#/..." references in schema are followed. The input is not modified.
func NormalizeUnboxableValues(value, schema any) any {
	n := &normalizer{root: schema}
	return n.normalize(value, schema)
}

type normalizer struct {
	root any
}

func (n *normalizer) normalize(value, schema any) any {
	s := n.resolve(schema)
	if s == nil {
		return value
	}
	switch v := value.(type) {
	case []any:
		if atomicSchema(s) && unboxable(v) {
			return v[0]
		}
		if len(v) == 0 {
			return value
		}
		if first, ok := v[0].(map[string]any); !ok || first == nil {
			return value
		}
		items := n.resolve(s["items"])
		if items == nil || !declaresType(items, "object", "array") {
			return value
		}
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = n.normalize(e, items)
		}
		return out
	case map[string]any:
		if v == nil || !declaresType(s, "object") {
			return value
		}
		props, _ := s["properties"].(map[string]any)
		if len(props) == 0 {
			return value
		}
		out := make(map[string]any, len(v))
		for k, e := range v {
			if ps, ok := props[k]; ok {
				out[k] = n.normalize(e, ps)
				continue
			}
			out[k] = e
		}
		return out
	}
	return value
}

// resolve follows local $ref chains. It returns nil for boolean schemas,
// dangling pointers and cycles.
func (n *normalizer) resolve(schema any) map[string]any {
	var seen map[string]bool
	for {
		m, ok := schema.(map[string]any)
		if !ok {
			return nil
		}
		ref, ok := m["$ref"].(string)
		if !ok || !strings.HasPrefix(ref, "#") {
			return m
		}
		if seen[ref] {
			return nil
		}
		if seen == nil {
			seen = make(map[string]bool)
		}
		seen[ref] = true
		target, ok := lookupPointer(n.root, ref[1:])
		if !ok {
			return nil
		}
		schema = target
	}
}

var atomicTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"integer": true,
	"boolean": true,
}

// atomicSchema reports whether s declares an atomic type. A type list counts
// when every entry is atomic or "null" and at least one is atomic.
func atomicSchema(s map[string]any) bool {
	if _, ok := s["enum"]; ok {
		return true
	}
	if _, ok := s["const"]; ok {
		return true
	}
	switch t := s["type"].(type) {
	case string:
		return atomicTypes[t]
	case []any:
		found := false
		for _, e := range t {
			name, _ := e.(string)
			switch {
			case atomicTypes[name]:
				found = true
			case name == "null":
			default:
				return false
			}
		}
		return found
	}
	return false
}

func declaresType(s map[string]any, names ...string) bool {
	match := func(t string) bool {
		for _, n := range names {
			if t == n {
				return true
			}
		}
		return false
	}
	switch t := s["type"].(type) {
	case string:
		return match(t)
	case []any:
		for _, e := range t {
			if name, ok := e.(string); ok && match(name) {
				return true
			}
		}
	}
	return false
}

func unboxable(arr []any) bool {
	return len(arr) == 1 && atomicValue(arr[0])
}

func atomicValue(v any) bool {
	switch v.(type) {
	case string, bool, json.Number,
		float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// lookupPointer resolves a URI fragment JSON Pointer ("" or "/a/0") in doc.
func lookupPointer(doc any, ptr string) (any, bool) {
	if ptr == "" {
		return doc, true
	}
	if !strings.HasPrefix(ptr, "/") {
		return nil, false
	}
	cur := doc
	for _, tok := range strings.Split(ptr[1:], "/") {
		if u, err := url.PathUnescape(tok); err == nil {
			tok = u
		}
		tok = strings.ReplaceAll(strings.ReplaceAll(tok, "~1", "/"), "~0", "~")
		switch c := cur.(type) {
		case map[string]any:
			next, ok := c[tok]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(tok)
			if err != nil || i < 0 || i >= len(c) {
				return nil, false
			}
			cur = c[i]
		default:
			return nil, false
		}
	}
	return cur, true
}
