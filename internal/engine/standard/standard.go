// Package standard adapts github.com/santhosh-tekuri/jsonschema/v6 to the
// engine contract. It supports every dialect from draft-04 to 2020-12.
package standard

import (
	"errors"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/reoring/schemareg/internal/engine"
	"github.com/reoring/schemareg/internal/stream"
)

// Compiler builds one jsonschema.Compiler per compilation so resources of
// different registrations never see each other.
type Compiler struct {
	printer func() *message.Printer
}

// New returns a Compiler rendering messages with the printer p returns at
// validation time, so a language change applies to existing handles. A nil
// p renders English.
func New(p func() *message.Printer) *Compiler {
	if p == nil {
		en := message.NewPrinter(language.English)
		p = func() *message.Printer { return en }
	}
	return &Compiler{printer: p}
}

func draftOf(d engine.Draft) *jsonschema.Draft {
	switch d {
	case engine.Draft4:
		return jsonschema.Draft4
	case engine.Draft6:
		return jsonschema.Draft6
	case engine.Draft2019:
		return jsonschema.Draft2019
	case engine.Draft2020:
		return jsonschema.Draft2020
	default:
		return jsonschema.Draft7
	}
}

// Compile implements engine.Compiler. Loading is hermetic: a $ref to a
// document that was not supplied as a resource fails compilation instead of
// reaching the file system or the network.
func (c *Compiler) Compile(opts engine.Options, resources []engine.Resource, target string) (engine.Handle, error) {
	jc := jsonschema.NewCompiler()
	jc.DefaultDraft(draftOf(opts.Draft))
	// format is an annotation from 2019-09 on; assert it for every draft.
	jc.AssertFormat()
	jc.UseLoader(jsonschema.SchemeURLLoader{})
	for _, r := range resources {
		if err := jc.AddResource(r.ID, r.Doc); err != nil {
			return nil, err
		}
	}
	sch, err := jc.Compile(target)
	if err != nil {
		return nil, err
	}
	return &handle{schema: sch, printer: c.printer}, nil
}

type handle struct {
	schema  *jsonschema.Schema
	printer func() *message.Printer
}

// Validate implements engine.Handle. The engine always evaluates every
// branch, so call.Greedy has no effect.
func (h *handle) Validate(v any, call engine.CallOptions) (bool, []engine.Record, error) {
	err := h.schema.Validate(v)
	if err == nil {
		return true, nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return false, nil, err
	}
	if !call.Verbose {
		return false, nil, nil
	}
	return false, h.flatten(ve, h.printer(), nil), nil
}

// flatten keeps the leaves of the cause tree; inner nodes only group them.
func (h *handle) flatten(ve *jsonschema.ValidationError, p *message.Printer, out []engine.Record) []engine.Record {
	if len(ve.Causes) == 0 {
		return append(out, record(ve, p))
	}
	for _, c := range ve.Causes {
		out = h.flatten(c, p, out)
	}
	return out
}

func record(ve *jsonschema.ValidationError, p *message.Printer) engine.Record {
	var kw []string
	msg := ""
	if ve.ErrorKind != nil {
		kw = ve.ErrorKind.KeywordPath()
		msg = ve.ErrorKind.LocalizedString(p)
	}
	frag := ""
	if i := strings.IndexByte(ve.SchemaURL, '#'); i >= 0 {
		frag = ve.SchemaURL[i+1:]
	}
	schemaPath := "#" + frag
	if len(kw) > 0 {
		schemaPath += "/" + strings.Join(kw, "/")
	}
	keyword := ""
	if len(kw) > 0 {
		keyword = kw[len(kw)-1]
	}
	return engine.Record{
		InstancePath: stream.Pointer(ve.InstanceLocation),
		SchemaPath:   schemaPath,
		Keyword:      keyword,
		Message:      msg,
	}
}
