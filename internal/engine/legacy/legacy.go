// Package legacy adapts github.com/xeipuuv/gojsonschema to the engine
// contract. It is pinned to draft-04.
package legacy

import (
	"errors"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/reoring/schemareg/internal/engine"
	"github.com/reoring/schemareg/internal/stream"
)

// ErrDraft is returned when a compilation asks for anything but draft-04.
var ErrDraft = errors.New("legacy: only draft-04 is supported")

// Compiler compiles draft-04 schemas with a fresh gojsonschema.SchemaLoader.
type Compiler struct{}

// New returns a Compiler.
func New() *Compiler { return &Compiler{} }

// Compile implements engine.Compiler.
func (*Compiler) Compile(opts engine.Options, resources []engine.Resource, target string) (engine.Handle, error) {
	if opts.Draft != engine.Draft4 {
		return nil, ErrDraft
	}
	sl := gojsonschema.NewSchemaLoader()
	sl.Draft = gojsonschema.Draft4
	sl.AutoDetect = false
	for _, r := range resources {
		if err := sl.AddSchema(r.ID, gojsonschema.NewGoLoader(r.Doc)); err != nil {
			return nil, err
		}
	}
	sch, err := sl.Compile(gojsonschema.NewReferenceLoader(target))
	if err != nil {
		return nil, err
	}
	return &handle{schema: sch}, nil
}

type handle struct {
	schema *gojsonschema.Schema
}

// Validate implements engine.Handle. gojsonschema always collects every
// error; without call.Greedy only the first one is reported.
func (h *handle) Validate(v any, call engine.CallOptions) (bool, []engine.Record, error) {
	res, err := h.schema.Validate(gojsonschema.NewGoLoader(v))
	if err != nil {
		return false, nil, err
	}
	if res.Valid() {
		return true, nil, nil
	}
	if !call.Verbose {
		return false, nil, nil
	}
	errs := res.Errors()
	if !call.Greedy && len(errs) > 1 {
		errs = errs[:1]
	}
	out := make([]engine.Record, 0, len(errs))
	for _, e := range errs {
		out = append(out, engine.Record{
			InstancePath: instancePath(e.Context()),
			Keyword:      e.Type(),
			Message:      e.Description(),
		})
	}
	return false, out, nil
}

// instancePath converts a "(root).a.0" style context into a JSON Pointer.
func instancePath(ctx *gojsonschema.JsonContext) string {
	if ctx == nil {
		return ""
	}
	const sep = "\x00"
	parts := strings.Split(ctx.String(sep), sep)
	if len(parts) > 0 && parts[0] == "(root)" {
		parts = parts[1:]
	}
	return stream.Pointer(parts)
}
