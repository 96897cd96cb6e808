package schemareg

import (
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Dependency is a schema the primary schema's $refs may resolve to,
// registered under ID.
type Dependency struct {
	ID     string `json:"id"`
	Schema any    `json:"value"`
}

// Definition describes one validator to register.
type Definition struct {
	// Key names the validator within its engine.
	Key    string
	Engine Engine
	// Dialect defaults to the schema's declared $schema, then DefaultDialect.
	Dialect Dialect
	Strict  StrictMode
	Schema  any
	// Filename is the identifier the schema is registered under. Relative
	// $refs in the schema resolve against it.
	Filename     string
	Dependencies []Dependency
	// Reference selects a different registered identifier (for example
	// "defs.json#/definitions/item") as the compiled validator. Empty selects
	// Filename.
	Reference string
}

// Info describes a registered validator.
type Info struct {
	Key       string  `json:"key"`
	Engine    Engine  `json:"engine"`
	Dialect   Dialect `json:"dialect"`
	Filename  string  `json:"filename"`
	Reference string  `json:"reference,omitempty"`
	// References lists the $refs of the primary schema.
	References []string `json:"references"`
	// Closure lists the dependency identifiers reachable from the primary
	// schema, in discovery order.
	Closure []string `json:"closure"`
}

type entry struct {
	handle Handle
	info   Info
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger (zerolog.Nop() by default).
func WithLogger(l zerolog.Logger) Option { return func(r *Registry) { r.log = l } }

// WithMetrics records registry metrics into m.
func WithMetrics(m *Metrics) Option { return func(r *Registry) { r.metrics = m } }

// WithCompiler installs or replaces the compiler for an engine tag. dialects
// restricts what it accepts; none means every dialect.
func WithCompiler(e Engine, c Compiler, dialects ...Dialect) Option {
	return func(r *Registry) { r.compilers[e] = compilerEntry{compiler: c, dialects: dialects} }
}

// Registry owns compiled validators keyed by (engine, key). Registering a
// key again replaces its handle; handles live until deleted.
type Registry struct {
	mu        sync.RWMutex
	compilers map[Engine]compilerEntry
	table     map[Engine]map[string]*entry
	log       zerolog.Logger
	metrics   *Metrics
}

// NewRegistry returns an empty registry with both built-in engines.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		compilers: defaultCompilers(),
		table:     make(map[Engine]map[string]*entry),
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Create compiles def and stores the handle under (def.Engine, def.Key).
//
// Identifiers inside the documents are ignored: dependencies are registered
// under their ID and the schema under Filename. A dependency whose ID equals
// Filename is the schema itself (reached through a recursive $ref) and is not
// registered twice. For draft-04 the later-draft keywords propertyNames,
// contains, const, if, then and else are removed before compilation.
func (r *Registry) Create(def Definition) error {
	if def.Key == "" || def.Filename == "" {
		return newError(CodeInvalidDefinition, "key and filename are required", nil, nil)
	}
	eng := def.Engine
	if eng == "" {
		eng = DefaultEngine
	}
	ce, ok := r.compilers[eng]
	if !ok {
		return newError(CodeUnknownEngine, "", map[string]string{"engine": string(eng)}, nil)
	}
	dialect, err := resolveDialect(def)
	if err != nil {
		return err
	}
	if !ce.accepts(dialect) {
		return newError(CodeUnsupportedDialect, "", map[string]string{"dialect": string(dialect), "engine": string(eng)}, nil)
	}

	schema, err := r.prepare(def.Schema, def.Filename, dialect, def.Strict)
	if err != nil {
		return err
	}
	refs := map[string][]string{def.Filename: FindReferences(schema)}
	resources := make([]Resource, 0, len(def.Dependencies)+1)
	ids := make([]string, 0, len(def.Dependencies))
	for _, d := range def.Dependencies {
		if d.ID == def.Filename {
			continue
		}
		doc, err := r.prepare(d.Schema, d.ID, dialect, def.Strict)
		if err != nil {
			return err
		}
		resources = append(resources, Resource{ID: d.ID, Doc: doc})
		refs[d.ID] = FindReferences(doc)
		ids = append(ids, d.ID)
	}
	resources = append(resources, Resource{ID: def.Filename, Doc: schema})

	closure, unresolved := dependencyClosure(def.Filename, refs, ids)
	if closure == nil {
		closure = []string{}
	}
	for _, u := range unresolved {
		r.log.Warn().Str("key", def.Key).Str("engine", string(eng)).Str("ref", u).
			Msg("reference to a document that is neither the schema nor a dependency")
	}

	target := def.Filename
	if def.Reference != "" {
		target = def.Reference
	}
	h, err := ce.compiler.Compile(EngineOptions{Draft: dialect.draft()}, resources, target)
	if err != nil {
		r.metrics.observeCompileFailure(eng)
		return newError(CodeSchemaCompile, "", map[string]string{"key": def.Key, "engine": string(eng)}, err)
	}

	e := &entry{handle: h, info: Info{
		Key:        def.Key,
		Engine:     eng,
		Dialect:    dialect,
		Filename:   def.Filename,
		Reference:  def.Reference,
		References: refs[def.Filename],
		Closure:    closure,
	}}
	r.mu.Lock()
	if r.table[eng] == nil {
		r.table[eng] = make(map[string]*entry)
	}
	_, replaced := r.table[eng][def.Key]
	r.table[eng][def.Key] = e
	n := len(r.table[eng])
	r.mu.Unlock()
	r.metrics.setValidators(eng, n)

	r.log.Debug().Str("key", def.Key).Str("engine", string(eng)).Str("dialect", string(dialect)).
		Str("target", target).Int("dependencies", len(ids)).Bool("replaced", replaced).
		Msg("validator registered")
	return nil
}

// Delete removes a validator. Deleting a missing key is a no-op.
func (r *Registry) Delete(eng Engine, key string) {
	r.mu.Lock()
	_, ok := r.table[eng][key]
	delete(r.table[eng], key)
	n := len(r.table[eng])
	r.mu.Unlock()
	if !ok {
		return
	}
	r.metrics.setValidators(eng, n)
	r.log.Debug().Str("key", key).Str("engine", string(eng)).Msg("validator deleted")
}

// Stats returns the number of registered validators per engine, including
// engines with none.
func (r *Registry) Stats() map[Engine]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[Engine]int, len(r.compilers))
	for e := range r.compilers {
		out[e] = len(r.table[e])
	}
	return out
}

// Info describes the validator registered under (eng, key).
func (r *Registry) Info(eng Engine, key string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.table[eng][key]
	if !ok {
		return Info{}, false
	}
	return e.info, true
}

// Keys lists the keys registered for an engine in sorted order.
func (r *Registry) Keys(eng Engine) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.table[eng]))
	for k := range r.table[eng] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func resolveDialect(def Definition) (Dialect, error) {
	if def.Dialect != "" {
		return ParseDialect(string(def.Dialect))
	}
	if s, ok := MetaSchemaVersionOf(def.Schema); ok {
		return ParseDialect(s)
	}
	return DefaultDialect, nil
}

// prepare returns the document the engine compiles: identifiers dropped,
// later-draft keywords removed for draft-04, unknown keywords checked.
func (r *Registry) prepare(doc any, id string, d Dialect, strict StrictMode) (any, error) {
	doc = dropIdentifiers(doc)
	if d == Draft04 {
		doc = stripKeywords(doc, laterDraftKeywords)
	}
	if strict == StrictIgnore {
		return doc, nil
	}
	unknown := unknownKeywords(doc, d)
	if len(unknown) == 0 {
		return doc, nil
	}
	if strict == StrictError {
		return nil, newError(CodeUnknownKeyword, id+": "+strings.Join(unknown, ", "),
			map[string]string{"dialect": string(d)}, nil)
	}
	r.log.Warn().Str("schema", id).Str("dialect", string(d)).Strs("keywords", unknown).
		Msg("unknown keywords ignored")
	return doc, nil
}

// dependencyClosure walks $refs from root and returns the dependency IDs it
// reaches, plus references to documents that are not registered at all.
// Refs resolve against the ID of the document holding them.
func dependencyClosure(root string, refs map[string][]string, ids []string) (closure, unresolved []string) {
	byDoc := make(map[string]string, len(ids))
	for _, id := range ids {
		byDoc[documentOf("", id)] = id
	}
	rootDoc := documentOf("", root)
	seen := map[string]bool{root: true}
	missing := map[string]bool{}
	queue := []string{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		curDoc := documentOf("", cur)
		for _, ref := range refs[cur] {
			doc := documentOf(cur, ref)
			if doc == rootDoc || doc == curDoc {
				continue
			}
			id, ok := byDoc[doc]
			if !ok {
				if !missing[doc] {
					missing[doc] = true
					unresolved = append(unresolved, strings.TrimPrefix(doc, anchorPrefix))
				}
				continue
			}
			if !seen[id] {
				seen[id] = true
				closure = append(closure, id)
				queue = append(queue, id)
			}
		}
	}
	return closure, unresolved
}

// anchor gives relative identifiers an absolute base so they resolve the
// way the engines resolve them.
var anchor = &url.URL{Scheme: "schemareg", Path: "/"}

const anchorPrefix = "schemareg:///"

// documentOf resolves ref against base and drops the fragment.
func documentOf(base, ref string) string {
	b := anchor
	if base != "" {
		if u, err := url.Parse(base); err == nil {
			b = anchor.ResolveReference(u)
		}
	}
	u, err := url.Parse(ref)
	if err != nil {
		doc, _, _ := strings.Cut(ref, "#")
		return doc
	}
	u = b.ResolveReference(u)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}
