package schemareg

import (
	"sort"
	"strconv"

	"github.com/reoring/schemareg/internal/stream"
)

// Keywords whose values are schemas, grouped by how they hold them. "items"
// appears twice: it is a single schema or a schema array depending on form.
var (
	subschemaKeywords = []string{
		"additionalItems", "additionalProperties", "contains", "propertyNames",
		"not", "if", "then", "else", "items", "unevaluatedItems",
		"unevaluatedProperties", "contentSchema",
	}
	subschemaListKeywords = []string{"allOf", "anyOf", "oneOf", "items", "prefixItems"}
	subschemaMapKeywords  = []string{
		"properties", "patternProperties", "definitions", "$defs",
		"dependentSchemas", "dependencies",
	}
)

// laterDraftKeywords are understood by the engines in every dialect but only
// belong to draft-06 and later. They are removed from draft-04 schemas so
// their presence is inert instead of changing validation outcomes.
var laterDraftKeywords = []string{"propertyNames", "contains", "const", "if", "then", "else"}

var knownKeywords = func() map[Dialect]map[string]bool {
	set := func(base map[string]bool, add []string, drop ...string) map[string]bool {
		out := make(map[string]bool, len(base)+len(add))
		for k := range base {
			out[k] = true
		}
		for _, k := range add {
			out[k] = true
		}
		for _, k := range drop {
			delete(out, k)
		}
		return out
	}
	common := set(nil, []string{
		"$schema", "$ref", "title", "description", "default", "format",
		"enum", "type", "multipleOf", "maximum", "minimum",
		"exclusiveMaximum", "exclusiveMinimum", "maxLength", "minLength",
		"pattern", "items", "additionalItems", "maxItems", "minItems",
		"uniqueItems", "maxProperties", "minProperties", "required",
		"properties", "patternProperties", "additionalProperties",
		"dependencies", "allOf", "anyOf", "oneOf", "not", "definitions",
	})
	d4 := set(common, []string{"id"})
	d6 := set(common, []string{"$id", "const", "contains", "propertyNames", "examples"})
	d7 := set(d6, []string{
		"if", "then", "else", "$comment", "readOnly", "writeOnly",
		"contentMediaType", "contentEncoding",
	})
	d2019 := set(d7, []string{
		"$anchor", "$defs", "$recursiveRef", "$recursiveAnchor", "$vocabulary",
		"dependentRequired", "dependentSchemas", "unevaluatedItems",
		"unevaluatedProperties", "maxContains", "minContains", "deprecated",
		"contentSchema",
	})
	d2020 := set(d2019, []string{"prefixItems", "$dynamicRef", "$dynamicAnchor"},
		"$recursiveRef", "$recursiveAnchor", "additionalItems")
	return map[Dialect]map[string]bool{
		Draft04: d4, Draft06: d6, Draft07: d7, Draft201909: d2019, Draft202012: d2020,
	}
}()

// dropIdentifiers returns doc without its top-level "id" and "$id". The
// registry names documents itself; a document's own identifier would clash
// when the same schema is registered both as a dependency and as the target.
func dropIdentifiers(doc any) any {
	m, ok := doc.(map[string]any)
	if !ok {
		return doc
	}
	_, hasID := m["id"]
	_, hasDollarID := m["$id"]
	if !hasID && !hasDollarID {
		return doc
	}
	out := copyMap(m)
	delete(out, "id")
	delete(out, "$id")
	return out
}

// stripKeywords returns a copy of doc without keywords at any schema position.
// Members of "properties" and friends are names, not keywords, and are kept.
func stripKeywords(doc any, keywords []string) any {
	return rewriteSchema(doc, func(m map[string]any) {
		for _, k := range keywords {
			delete(m, k)
		}
	})
}

// rewriteSchema copies every schema object of doc, letting edit change the
// copy before its subschemas are visited.
func rewriteSchema(doc any, edit func(map[string]any)) any {
	m, ok := doc.(map[string]any)
	if !ok || m == nil {
		return doc
	}
	out := copyMap(m)
	edit(out)
	for _, kw := range subschemaKeywords {
		if sub, ok := out[kw].(map[string]any); ok {
			out[kw] = rewriteSchema(sub, edit)
		}
	}
	for _, kw := range subschemaListKeywords {
		if list, ok := out[kw].([]any); ok {
			nl := make([]any, len(list))
			for i, e := range list {
				nl[i] = rewriteSchema(e, edit)
			}
			out[kw] = nl
		}
	}
	for _, kw := range subschemaMapKeywords {
		if mm, ok := out[kw].(map[string]any); ok {
			nm := make(map[string]any, len(mm))
			for name, e := range mm {
				nm[name] = rewriteSchema(e, edit)
			}
			out[kw] = nm
		}
	}
	return out
}

// unknownKeywords lists the JSON Pointers of keywords the dialect does not
// define, in sorted order.
func unknownKeywords(doc any, d Dialect) []string {
	known := knownKeywords[d]
	var out []string
	var walk func(v any, path []string)
	walk = func(v any, path []string) {
		m, ok := v.(map[string]any)
		if !ok {
			return
		}
		for k := range m {
			if !known[k] {
				out = append(out, stream.Pointer(append(path, k)))
			}
		}
		for _, kw := range subschemaKeywords {
			if sub, ok := m[kw].(map[string]any); ok {
				walk(sub, append(path, kw))
			}
		}
		for _, kw := range subschemaListKeywords {
			if list, ok := m[kw].([]any); ok {
				for i, e := range list {
					walk(e, append(path, kw, strconv.Itoa(i)))
				}
			}
		}
		for _, kw := range subschemaMapKeywords {
			if mm, ok := m[kw].(map[string]any); ok {
				for name, e := range mm {
					walk(e, append(path, kw, name))
				}
			}
		}
	}
	walk(doc, nil)
	sort.Strings(out)
	return out
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
