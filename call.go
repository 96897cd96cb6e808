package schemareg

import "github.com/reoring/schemareg/internal/engine"

// CallOptions controls a validator call.
type CallOptions struct {
	// Errors asks for error records when validation fails. Collecting them
	// costs more than a pass/fail check, so they are off by default.
	Errors bool
	// Query narrows the value to one top-level property before validation.
	// It applies to every engine, EngineGoJSONSchema included. A missing
	// property fails with ErrQueryMiss and a non-object value with
	// ErrUnsupportedQuery.
	Query *string
	// Greedy keeps evaluating after the first failure so every error is
	// reported. Only EngineGoJSONSchema stops early without it.
	Greedy bool
}

// Result is the outcome of a validator call. Errors is nil unless the call
// failed and CallOptions.Errors was set.
type Result struct {
	Success bool    `json:"success"`
	Errors  Records `json:"errors"`
	Engine  Engine  `json:"engine"`
}

// Call validates value with the validator registered under (eng, key). An
// error is returned only when the call could not be made (unknown validator,
// failed query, engine failure); a non-conforming value is a Result with
// Success false.
func (r *Registry) Call(eng Engine, key string, value any, opts CallOptions) (Result, error) {
	if eng == "" {
		eng = DefaultEngine
	}
	r.mu.RLock()
	e, ok := r.table[eng][key]
	r.mu.RUnlock()
	if !ok {
		return Result{}, newError(CodeUnknownValidator, "", map[string]string{"engine": string(eng), "key": key}, nil)
	}
	v, err := EvaluateQuery(value, opts.Query)
	if err != nil {
		return Result{}, err
	}
	valid, recs, err := e.handle.Validate(v, engine.CallOptions{Verbose: opts.Errors, Greedy: opts.Greedy})
	if err != nil {
		r.metrics.observeCall(eng, OutcomeError)
		return Result{}, err
	}
	res := Result{Success: valid, Engine: eng}
	if valid {
		r.metrics.observeCall(eng, OutcomeValid)
		return res, nil
	}
	r.metrics.observeCall(eng, OutcomeInvalid)
	if opts.Errors {
		res.Errors = Records(recs)
		if res.Errors == nil {
			res.Errors = Records{}
		}
	}
	return res, nil
}
