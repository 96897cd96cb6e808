// Package middleware validates HTTP request bodies against a registered
// validator before they reach a handler. The net/http form lives here; the
// echo and gin adapters are separate modules built on Validator.Check.
package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/reoring/schemareg"
)

// DefaultMaxBodyBytes bounds the request body read by a Validator.
const DefaultMaxBodyBytes = 1 << 20

// Options configures a Validator.
type Options struct {
	// Call is passed to Registry.Call. Errors is always requested so the
	// rejection payload can list them.
	Call schemareg.CallOptions
	// MaxBodyBytes defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
	Logger       zerolog.Logger
}

// ctxKeyValue is the context key for the decoded request body.
type ctxKeyValue struct{}

// ContextWithValue attaches a decoded body to ctx.
func ContextWithValue(ctx context.Context, v any) context.Context {
	return context.WithValue(ctx, ctxKeyValue{}, valueBox{v})
}

// ValueFromContext returns the body decoded by a Validator.
func ValueFromContext(ctx context.Context) (any, bool) {
	b, ok := ctx.Value(ctxKeyValue{}).(valueBox)
	return b.v, ok
}

// valueBox lets a JSON null body be stored and found again.
type valueBox struct{ v any }

// Validator checks request bodies with the validator registered under
// (engine, key).
type Validator struct {
	reg    *schemareg.Registry
	engine schemareg.Engine
	key    func(*http.Request) string
	opts   Options
}

// New returns a Validator for a fixed key.
func New(reg *schemareg.Registry, eng schemareg.Engine, key string, opts Options) *Validator {
	return NewWithKeyFunc(reg, eng, func(*http.Request) string { return key }, opts)
}

// NewWithKeyFunc returns a Validator that picks the key per request, for
// example from a route parameter.
func NewWithKeyFunc(reg *schemareg.Registry, eng schemareg.Engine, key func(*http.Request) string, opts Options) *Validator {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	opts.Call.Errors = true
	return &Validator{reg: reg, engine: eng, key: key, opts: opts}
}

// Validate is New(...).Handler.
func Validate(reg *schemareg.Registry, eng schemareg.Engine, key string, opts Options) func(http.Handler) http.Handler {
	return New(reg, eng, key, opts).Handler
}

// Handler wraps next so it only sees conforming bodies.
func (v *Validator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, status, payload := v.Check(r)
		if payload != nil {
			WriteJSON(w, status, payload)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// Check validates the body of r. On success it returns a request carrying the
// decoded value in its context and a fresh copy of the body, and a nil
// payload. Otherwise it returns the status and JSON payload to reject with:
// 422 with the Result for a non-conforming body, 400 for an undecodable body
// or a failed query, 413 for an oversized body and 500 for registry errors.
func (v *Validator) Check(r *http.Request) (*http.Request, int, any) {
	key := v.key(r)
	log := v.opts.Logger.With().Str("key", key).Str("engine", string(v.engine)).Logger()

	body, err := io.ReadAll(io.LimitReader(r.Body, v.opts.MaxBodyBytes+1))
	if err != nil {
		return r, http.StatusBadRequest, ErrorPayload(err)
	}
	if int64(len(body)) > v.opts.MaxBodyBytes {
		return r, http.StatusRequestEntityTooLarge, ErrorPayload(errors.New("request body too large"))
	}
	value, err := schemareg.DecodeJSON(body)
	if err != nil {
		log.Debug().Err(err).Msg("undecodable request body")
		return r, http.StatusBadRequest, ErrorPayload(err)
	}
	res, err := v.reg.Call(v.engine, key, value, v.opts.Call)
	if err != nil {
		if errors.Is(err, schemareg.ErrQueryMiss) || errors.Is(err, schemareg.ErrUnsupportedQuery) {
			return r, http.StatusBadRequest, ErrorPayload(err)
		}
		log.Error().Err(err).Msg("validator call failed")
		return r, http.StatusInternalServerError, ErrorPayload(err)
	}
	if !res.Success {
		log.Debug().Int("errors", len(res.Errors)).Msg("request body rejected")
		return r, http.StatusUnprocessableEntity, res
	}

	req := r.WithContext(ContextWithValue(r.Context(), value))
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	return req, http.StatusOK, nil
}

// ErrorPayload shapes a non-validation failure for JSON responses.
func ErrorPayload(err error) map[string]any {
	p := map[string]any{"error": err.Error()}
	if e, ok := schemareg.AsError(err); ok {
		p["code"] = e.Code
	}
	return p
}

// WriteJSON writes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
