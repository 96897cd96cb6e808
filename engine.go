package schemareg

import (
	"github.com/reoring/schemareg/i18n"
	"github.com/reoring/schemareg/internal/engine"
	"github.com/reoring/schemareg/internal/engine/legacy"
	"github.com/reoring/schemareg/internal/engine/standard"
)

// Engine tags a validation engine family. Handles are keyed by (Engine, key).
type Engine string

const (
	// EngineJSONSchema is github.com/santhosh-tekuri/jsonschema/v6. It handles
	// every supported dialect.
	EngineJSONSchema Engine = "jsonschema"
	// EngineGoJSONSchema is github.com/xeipuuv/gojsonschema, draft-04 only.
	// It is the engine that honors CallOptions.Greedy.
	EngineGoJSONSchema Engine = "gojsonschema"
)

// DefaultEngine is used when a definition or call leaves the engine empty.
const DefaultEngine = EngineJSONSchema

// ParseEngine validates an engine tag; "" selects DefaultEngine.
func ParseEngine(s string) (Engine, error) {
	switch Engine(s) {
	case "":
		return DefaultEngine, nil
	case EngineJSONSchema, EngineGoJSONSchema:
		return Engine(s), nil
	}
	return "", newError(CodeUnknownEngine, "", map[string]string{"engine": s}, nil)
}

// Compiler is the capability an engine provides: register resources, then
// compile one of them into a Handle.
type Compiler = engine.Compiler

// Handle is an engine-specific compiled schema.
type Handle = engine.Handle

// Resource is a schema document registered under an identifier.
type Resource = engine.Resource

// EngineOptions is passed to Compiler.Compile.
type EngineOptions = engine.Options

// StrictMode controls how keywords unknown to the dialect are treated.
type StrictMode int

const (
	// StrictLog logs unknown keywords and carries on. It is the zero value,
	// matching an absent strict setting.
	StrictLog StrictMode = iota
	// StrictIgnore accepts unknown keywords silently.
	StrictIgnore
	// StrictError fails registration with ErrUnknownKeyword.
	StrictError
)

// StrictFromBool maps an optional boolean strict setting: nil is StrictLog.
func StrictFromBool(b *bool) StrictMode {
	switch {
	case b == nil:
		return StrictLog
	case *b:
		return StrictError
	default:
		return StrictIgnore
	}
}

type compilerEntry struct {
	compiler Compiler
	// dialects limits what the engine accepts; empty means all.
	dialects []Dialect
}

func (c compilerEntry) accepts(d Dialect) bool {
	if len(c.dialects) == 0 {
		return true
	}
	for _, a := range c.dialects {
		if a == d {
			return true
		}
	}
	return false
}

func defaultCompilers() map[Engine]compilerEntry {
	return map[Engine]compilerEntry{
		EngineJSONSchema:   {compiler: standard.New(i18n.Printer)},
		EngineGoJSONSchema: {compiler: legacy.New(), dialects: []Dialect{Draft04}},
	}
}
