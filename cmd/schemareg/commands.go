package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reoring/schemareg"
	"github.com/reoring/schemareg/host"
)

func (a *app) validateCmd() *cobra.Command {
	var (
		schemaPath string
		reference  string
		query      string
		deps       []string
	)
	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Validate a JSON or YAML document against a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			schema, err := schemareg.LoadDocument(schemaPath)
			if err != nil {
				return err
			}
			dependencies, err := loadDependencies(deps)
			if err != nil {
				return err
			}
			reg := a.registry()
			const key = "cli"
			if err := reg.Create(schemareg.Definition{
				Key:          key,
				Engine:       eng,
				Dialect:      schemareg.Dialect(a.cfg.Dialect),
				Strict:       a.strict(cmd),
				Schema:       schema,
				Filename:     filepath.Base(schemaPath),
				Dependencies: dependencies,
				Reference:    reference,
			}); err != nil {
				return err
			}
			doc, err := schemareg.LoadDocument(args[0])
			if err != nil {
				return err
			}
			opts := schemareg.CallOptions{Errors: a.cfg.Errors, Greedy: a.cfg.Greedy}
			if cmd.Flags().Changed("query") {
				opts.Query = &query
			}
			res, err := reg.Call(eng, key, doc, opts)
			if err != nil {
				return err
			}
			if err := a.printJSON(res); err != nil {
				return err
			}
			if !res.Success {
				return errNotValid
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&schemaPath, "schema", "s", "", "schema file (required)")
	f.StringArrayVar(&deps, "dep", nil, "dependency schema as id=path, or path registered under its base name (repeatable)")
	f.StringVar(&reference, "reference", "", "registered identifier to validate against instead of the schema, e.g. defs.json#/definitions/item")
	f.StringVarP(&query, "query", "q", "", "validate only this top-level property of the document")
	f.Bool("errors", false, "report validation errors")
	f.Bool("greedy", false, "report every error instead of the first (gojsonschema)")
	f.Bool("strict", false, "fail on unknown keywords; --strict=false ignores them (default: warn)")
	_ = cmd.MarkFlagRequired("schema")
	_ = a.v.BindPFlag("errors", f.Lookup("errors"))
	_ = a.v.BindPFlag("greedy", f.Lookup("greedy"))
	return cmd
}

// loadDependencies parses --dep values.
func loadDependencies(specs []string) ([]schemareg.Dependency, error) {
	out := make([]schemareg.Dependency, 0, len(specs))
	for _, s := range specs {
		id, path, ok := strings.Cut(s, "=")
		if !ok {
			id, path = filepath.Base(s), s
		}
		if id == "" || path == "" {
			return nil, fmt.Errorf("--dep %q: want id=path", s)
		}
		doc, err := schemareg.LoadDocument(path)
		if err != nil {
			return nil, err
		}
		out = append(out, schemareg.Dependency{ID: id, Schema: doc})
	}
	return out, nil
}

func (a *app) refsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refs <schema>",
		Short: "List the $ref strings of a schema, depth-first",
		Long:  `List every $ref string of a schema, a node's own reference before those of its children. JSON files are listed in document order; YAML files in sorted key order.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			refs, err := references(args[0])
			if err != nil {
				return err
			}
			return a.printJSON(refs)
		},
	}
}

func references(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err := schemareg.LoadDocument(path)
		if err != nil {
			return nil, err
		}
		return schemareg.FindReferences(doc), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	refs, err := schemareg.ScanReferences(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return refs, nil
}

func (a *app) queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <document> <property>",
		Short: "Print one top-level property of a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			doc, err := schemareg.LoadDocument(args[0])
			if err != nil {
				return err
			}
			v, err := schemareg.EvaluateQuery(doc, &args[1])
			if err != nil {
				return err
			}
			return a.printJSON(v)
		},
	}
}

func (a *app) unboxCmd() *cobra.Command {
	var schemaPath string
	cmd := &cobra.Command{
		Use:   "unbox <document>",
		Short: "Replace single-element arrays with their element where the schema expects a scalar",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			schema, err := schemareg.LoadDocument(schemaPath)
			if err != nil {
				return err
			}
			doc, err := schemareg.LoadDocument(args[0])
			if err != nil {
				return err
			}
			return a.printJSON(schemareg.NormalizeUnboxableValues(doc, schema))
		},
	}
	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "schema file (required)")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func (a *app) dialectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dialect <schema>",
		Short: "Print the declared $schema of a schema and the dialect it selects",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			doc, err := schemareg.LoadDocument(args[0])
			if err != nil {
				return err
			}
			out := map[string]any{"$schema": nil, "dialect": schemareg.DefaultDialect}
			if s, ok := schemareg.MetaSchemaVersionOf(doc); ok {
				out["$schema"] = s
				d, err := schemareg.ParseDialect(s)
				if err != nil {
					return err
				}
				out["dialect"] = d
			}
			return a.printJSON(out)
		},
	}
}

func (a *app) invokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invoke <function> [args-json|-]",
		Short: "Call a host function with a JSON argument object",
		Long: `Call one of the host functions (createValidator, callValidator, deleteValidator, validatorStats, metaSchemaVersionOf, findReferences, evaluateQuery, normalizeUnboxableValues) and print its JSON result. "-" reads the arguments from stdin.

Each invocation uses a fresh registry, so only the stateless functions are useful on their own.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			if len(args) == 2 {
				raw = []byte(args[1])
				if args[1] == "-" {
					var err error
					if raw, err = io.ReadAll(cmd.InOrStdin()); err != nil {
						return err
					}
				}
			}
			rt := host.New(a.registry(), a.log)
			out, err := rt.Invoke(args[0], raw)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, string(out))
			return err
		},
	}
}
