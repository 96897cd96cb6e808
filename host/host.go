// Package host exposes a Registry to an embedding runtime as named functions
// that take a JSON object of arguments and return a JSON value.
package host

import (
	"bytes"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/reoring/schemareg"
)

// Function names understood by Invoke.
const (
	FnCreateValidator          = "createValidator"
	FnCallValidator            = "callValidator"
	FnDeleteValidator          = "deleteValidator"
	FnValidatorStats           = "validatorStats"
	FnMetaSchemaVersionOf      = "metaSchemaVersionOf"
	FnFindReferences           = "findReferences"
	FnEvaluateQuery            = "evaluateQuery"
	FnNormalizeUnboxableValues = "normalizeUnboxableValues"
)

type function func(a args) (any, error)

// Runtime dispatches host calls to a Registry. Calls may come from several
// goroutines; the Registry serializes what needs it.
type Runtime struct {
	reg   *schemareg.Registry
	log   zerolog.Logger
	funcs map[string]function
}

// New returns a Runtime bound to reg.
func New(reg *schemareg.Registry, log zerolog.Logger) *Runtime {
	rt := &Runtime{reg: reg, log: log}
	rt.funcs = map[string]function{
		FnCreateValidator:          rt.createValidator,
		FnCallValidator:            rt.callValidator,
		FnDeleteValidator:          rt.deleteValidator,
		FnValidatorStats:           rt.validatorStats,
		FnMetaSchemaVersionOf:      metaSchemaVersionOf,
		FnFindReferences:           findReferences,
		FnEvaluateQuery:            evaluateQuery,
		FnNormalizeUnboxableValues: normalizeUnboxableValues,
	}
	return rt
}

// Names lists the callable functions in sorted order.
func (rt *Runtime) Names() []string {
	out := make([]string, 0, len(rt.funcs))
	for n := range rt.funcs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Invoke runs the named function. Empty args mean no arguments. The result is
// the function's return value encoded as JSON ("null" for functions without
// one).
func (rt *Runtime) Invoke(name string, raw []byte) ([]byte, error) {
	fn, ok := rt.funcs[name]
	if !ok {
		return nil, schemareg.NewError(schemareg.CodeUnknownFunction, "", map[string]string{"function": name}, nil)
	}
	a, err := decodeArgs(raw)
	if err != nil {
		return nil, err
	}
	out, err := fn(a)
	if err != nil {
		rt.log.Debug().Str("function", name).Err(err).Msg("host call failed")
		return nil, err
	}
	return json.Marshal(out)
}

func decodeArgs(raw []byte) (args, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return args{}, nil
	}
	v, err := schemareg.DecodeJSON(raw)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, schemareg.NewError(schemareg.CodeInvalidArgument, "arguments must be a JSON object", nil, nil)
	}
	return args(m), nil
}

func (rt *Runtime) createValidator(a args) (any, error) {
	eng, err := a.engine()
	if err != nil {
		return nil, err
	}
	key, err := a.str("key", true)
	if err != nil {
		return nil, err
	}
	filename, err := a.str("filename", true)
	if err != nil {
		return nil, err
	}
	dialect, err := a.str("metaSchemaVersion", false)
	if err != nil {
		return nil, err
	}
	reference, err := a.str("reference", false)
	if err != nil {
		return nil, err
	}
	strict, err := a.optBool("strict")
	if err != nil {
		return nil, err
	}
	deps, err := a.dependencies()
	if err != nil {
		return nil, err
	}
	return nil, rt.reg.Create(schemareg.Definition{
		Key:          key,
		Engine:       eng,
		Dialect:      schemareg.Dialect(dialect),
		Strict:       schemareg.StrictFromBool(strict),
		Schema:       a["schema"],
		Filename:     filename,
		Dependencies: deps,
		Reference:    reference,
	})
}

func (rt *Runtime) callValidator(a args) (any, error) {
	eng, err := a.engine()
	if err != nil {
		return nil, err
	}
	key, err := a.str("key", true)
	if err != nil {
		return nil, err
	}
	withErrors, err := a.optBool("errors")
	if err != nil {
		return nil, err
	}
	greedy, err := a.optBool("greedy")
	if err != nil {
		return nil, err
	}
	query, err := a.optStr("query")
	if err != nil {
		return nil, err
	}
	return rt.reg.Call(eng, key, a["value"], schemareg.CallOptions{
		Errors: withErrors != nil && *withErrors,
		Query:  query,
		Greedy: greedy != nil && *greedy,
	})
}

func (rt *Runtime) deleteValidator(a args) (any, error) {
	eng, err := a.engine()
	if err != nil {
		return nil, err
	}
	key, err := a.str("key", true)
	if err != nil {
		return nil, err
	}
	rt.reg.Delete(eng, key)
	return nil, nil
}

func (rt *Runtime) validatorStats(args) (any, error) {
	return rt.reg.Stats(), nil
}

func metaSchemaVersionOf(a args) (any, error) {
	if s, ok := schemareg.MetaSchemaVersionOf(a["schema"]); ok {
		return s, nil
	}
	return nil, nil
}

func findReferences(a args) (any, error) {
	return schemareg.FindReferences(a["value"]), nil
}

func evaluateQuery(a args) (any, error) {
	q, err := a.optStr("query")
	if err != nil {
		return nil, err
	}
	return schemareg.EvaluateQuery(a["value"], q)
}

func normalizeUnboxableValues(a args) (any, error) {
	return schemareg.NormalizeUnboxableValues(a["value"], a["schema"]), nil
}
