package host_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/reoring/schemareg"
	"github.com/reoring/schemareg/host"
)

func newRuntime() *host.Runtime {
	return host.New(schemareg.NewRegistry(), zerolog.Nop())
}

func invoke(t *testing.T, rt *host.Runtime, name, args string) string {
	t.Helper()
	out, err := rt.Invoke(name, []byte(args))
	require.NoError(t, err)
	return string(out)
}

func TestInvoke_ValidatorLifecycle(t *testing.T) {
	rt := newRuntime()
	require.Equal(t, "null", invoke(t, rt, host.FnCreateValidator, `{
		"key": "user",
		"schema": {"type": "object", "properties": {"age": {"$ref": "defs.json#/definitions/age"}}},
		"filename": "user.json",
		"dependencies": [{"id": "defs.json", "value": {"definitions": {"age": {"type": "integer", "minimum": 0}}}}]
	}`))

	require.JSONEq(t, `{"success": true, "errors": null, "engine": "jsonschema"}`,
		invoke(t, rt, host.FnCallValidator, `{"key": "user", "value": {"age": 3}, "errors": true}`))
	require.JSONEq(t, `{"success": false, "errors": null, "engine": "jsonschema"}`,
		invoke(t, rt, host.FnCallValidator, `{"key": "user", "value": {"age": -3}}`))

	out := invoke(t, rt, host.FnCallValidator, `{"key": "user", "value": {"age": -3}, "errors": true}`)
	require.Contains(t, out, `"instancePath":"/age"`)
	require.Contains(t, out, `"keyword":"minimum"`)

	require.JSONEq(t, `{"success": true, "errors": null, "engine": "jsonschema"}`,
		invoke(t, rt, host.FnCallValidator, `{"key": "user", "value": {"data": {"age": 1}}, "query": "data"}`))

	require.JSONEq(t, `{"jsonschema": 1, "gojsonschema": 0}`, invoke(t, rt, host.FnValidatorStats, ``))
	require.Equal(t, "null", invoke(t, rt, host.FnDeleteValidator, `{"key": "user"}`))
	require.Equal(t, "null", invoke(t, rt, host.FnDeleteValidator, `{"key": "user"}`))
	require.JSONEq(t, `{"jsonschema": 0, "gojsonschema": 0}`, invoke(t, rt, host.FnValidatorStats, `{}`))

	_, err := rt.Invoke(host.FnCallValidator, []byte(`{"key": "user", "value": 1}`))
	require.ErrorIs(t, err, schemareg.ErrUnknownValidator)
}

func TestInvoke_LegacyEngineStrictAndGreedy(t *testing.T) {
	rt := newRuntime()
	_, err := rt.Invoke(host.FnCreateValidator, []byte(`{
		"engine": "gojsonschema", "key": "k", "metaSchemaVersion": "draft-04", "strict": true,
		"schema": {"type": "object", "nullable": true}, "filename": "k.json"
	}`))
	require.ErrorIs(t, err, schemareg.ErrUnknownKeyword)

	invoke(t, rt, host.FnCreateValidator, `{
		"engine": "gojsonschema", "key": "k", "metaSchemaVersion": "http://json-schema.org/draft-04/schema#", "strict": null,
		"schema": {"properties": {"a": {"type": "string"}, "b": {"type": "string"}}}, "filename": "k.json"
	}`)
	one := invoke(t, rt, host.FnCallValidator, `{"engine": "gojsonschema", "key": "k", "value": {"a": 1, "b": 2}, "errors": true}`)
	all := invoke(t, rt, host.FnCallValidator, `{"engine": "gojsonschema", "key": "k", "value": {"a": 1, "b": 2}, "errors": true, "greedy": true}`)
	require.Len(t, decodeResult(t, one).Errors, 1)
	require.Len(t, decodeResult(t, all).Errors, 2)
}

func decodeResult(t *testing.T, s string) struct{ Errors []any } {
	t.Helper()
	v, err := schemareg.DecodeJSON([]byte(s))
	require.NoError(t, err)
	errs, _ := v.(map[string]any)["errors"].([]any)
	return struct{ Errors []any }{Errors: errs}
}

func TestInvoke_PureFunctions(t *testing.T) {
	rt := newRuntime()
	require.JSONEq(t, `"http://json-schema.org/draft-07/schema#"`,
		invoke(t, rt, host.FnMetaSchemaVersionOf, `{"schema": {"$schema": "http://json-schema.org/draft-07/schema#"}}`))
	require.Equal(t, "null", invoke(t, rt, host.FnMetaSchemaVersionOf, `{"schema": {}}`))

	require.JSONEq(t, `["s1", "s2"]`,
		invoke(t, rt, host.FnFindReferences, `{"value": {"a": {"$ref": "s1"}, "b": [{"$ref": "s2"}]}}`))
	require.JSONEq(t, `[]`, invoke(t, rt, host.FnFindReferences, `{"value": 1}`))

	require.JSONEq(t, `1`, invoke(t, rt, host.FnEvaluateQuery, `{"value": {"a": 1}, "query": "a"}`))
	require.JSONEq(t, `[1, 2]`, invoke(t, rt, host.FnEvaluateQuery, `{"value": [1, 2], "query": null}`))
	_, err := rt.Invoke(host.FnEvaluateQuery, []byte(`{"value": {"a": 1}, "query": "b"}`))
	require.ErrorIs(t, err, schemareg.ErrQueryMiss)
	_, err = rt.Invoke(host.FnEvaluateQuery, []byte(`{"value": [1, 2], "query": "a"}`))
	require.ErrorIs(t, err, schemareg.ErrUnsupportedQuery)

	require.JSONEq(t, `{"n": 5}`, invoke(t, rt, host.FnNormalizeUnboxableValues,
		`{"value": {"n": [5]}, "schema": {"type": "object", "properties": {"n": {"type": "number"}}}}`))
}

func TestInvoke_BadCalls(t *testing.T) {
	rt := newRuntime()
	_, err := rt.Invoke("compile", nil)
	require.ErrorIs(t, err, schemareg.ErrUnknownFunction)

	_, err = rt.Invoke(host.FnFindReferences, []byte(`[1]`))
	require.ErrorIs(t, err, schemareg.ErrInvalidArgument)

	_, err = rt.Invoke(host.FnFindReferences, []byte(`{"value": 1, "value": 2}`))
	require.ErrorIs(t, err, schemareg.ErrDuplicateKey)

	_, err = rt.Invoke(host.FnCallValidator, []byte(`{"key": "k", "errors": "yes"}`))
	require.ErrorIs(t, err, schemareg.ErrInvalidArgument)

	_, err = rt.Invoke(host.FnCreateValidator, []byte(`{"key": "k", "schema": {}}`))
	require.ErrorIs(t, err, schemareg.ErrInvalidArgument)

	_, err = rt.Invoke(host.FnDeleteValidator, []byte(`{"engine": "ajv", "key": "k"}`))
	require.ErrorIs(t, err, schemareg.ErrUnknownEngine)

	require.Len(t, rt.Names(), 8)
}
