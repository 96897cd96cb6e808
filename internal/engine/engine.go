// Package engine defines the contract between the registry and the
// validation engines it delegates compilation and evaluation to.
package engine

// Draft selects the keyword set and defaults an engine applies.
type Draft int

const (
	Draft4 Draft = iota
	Draft6
	Draft7
	Draft2019
	Draft2020
)

// Options configures a single compilation.
type Options struct {
	Draft Draft
}

// Resource is a schema document registered under an identifier so that
// $refs to that identifier resolve to it.
type Resource struct {
	ID  string
	Doc any
}

// CallOptions controls one validation call.
type CallOptions struct {
	// Verbose asks for error records on failure.
	Verbose bool
	// Greedy keeps evaluating after the first failure. Engines that always
	// evaluate everything ignore it.
	Greedy bool
}

// Record is one engine-reported validation error.
type Record struct {
	InstancePath string `json:"instancePath"`
	SchemaPath   string `json:"schemaPath"`
	Keyword      string `json:"keyword"`
	Message      string `json:"message"`
}

// Handle is a compiled schema.
type Handle interface {
	// Validate reports whether v conforms. Records are returned only for a
	// failing call with call.Verbose set. A non-nil error means the engine
	// could not evaluate v at all.
	Validate(v any, call CallOptions) (bool, []Record, error)
}

// Compiler compiles target after registering every resource.
type Compiler interface {
	Compile(opts Options, resources []Resource, target string) (Handle, error)
}
