// Package schemareg provides:
//
// - A Registry of compiled JSON-Schema validators keyed by (engine, key), with
// dependency wiring for schemas that $ref each other
// - A validator facade returning {success, errors, engine} results
// - $ref extraction (FindReferences, ScanReferences)
// - "Unboxing" normalization of single-element arrays (NormalizeUnboxableValues)
// - A single-segment property query (EvaluateQuery)
//
// Compilation and keyword evaluation are delegated to
// github.com/santhosh-tekuri/jsonschema/v6 (drafts 04 to 2020-12) and
// github.com/xeipuuv/gojsonschema (draft-04).
//
// Design policy:
// - Keep only public APIs in the root package; put engine adapters under internal/.
// - Place the JSON host surface under host/, HTTP glue under middleware/ and the CLI under cmd/schemareg.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	reg := schemareg.NewRegistry()
//	err := reg.Create(schemareg.Definition{Key: "order", Schema: doc, Filename: "order.json"})
//	res, err := reg.Call(schemareg.EngineJSONSchema, "order", value, schemareg.CallOptions{Errors: true})
package schemareg
