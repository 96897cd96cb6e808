package main

import (
	"errors"
	"io"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reoring/schemareg"
	"github.com/reoring/schemareg/i18n"
	"github.com/reoring/schemareg/internal/config"
	"github.com/reoring/schemareg/internal/logging"
)

// errNotValid makes the process exit with 1 after a failed validation whose
// Result was already printed.
var errNotValid = errors.New("document is not valid")

// app carries what every subcommand needs once flags and config are parsed.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	log     zerolog.Logger
	out     io.Writer
	errOut  io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{v: config.New(), out: out, errOut: errOut, log: zerolog.Nop()}
	root := &cobra.Command{
		Use:           "schemareg",
		Short:         "JSON-Schema validator registry",
		Long:          `Validate JSON and YAML documents against JSON schemas of drafts 04 to 2020-12, inspect schema references, and serve registered validators over HTTP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: ./schemareg.yaml or ~/.config/schemareg/config.yaml)")
	pf.String("engine", "", "validation engine: jsonschema or gojsonschema")
	pf.String("dialect", "", "schema dialect, e.g. draft-07 (default: the schema's $schema)")
	pf.String("lang", "", "message language: en or ja")
	pf.String("log-level", "", "log level")
	pf.String("log-format", "", "log format: json or console")
	_ = a.v.BindPFlag("engine", pf.Lookup("engine"))
	_ = a.v.BindPFlag("dialect", pf.Lookup("dialect"))
	_ = a.v.BindPFlag("lang", pf.Lookup("lang"))
	_ = a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", pf.Lookup("log-format"))

	root.AddCommand(
		a.validateCmd(),
		a.refsCmd(),
		a.queryCmd(),
		a.unboxCmd(),
		a.dialectCmd(),
		a.invokeCmd(),
		a.serveCmd(),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.apply(cfg)
	return nil
}

func (a *app) apply(cfg config.Config) {
	a.cfg = cfg
	i18n.SetLanguage(cfg.Lang)
	a.log = logging.Init(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		TimeFormat: time.RFC3339,
	}, a.errOut)
}

// configDir is where relative paths of the config file resolve.
func (a *app) configDir() string {
	if used := a.v.ConfigFileUsed(); used != "" {
		return filepath.Dir(used)
	}
	return "."
}

func (a *app) engine() (schemareg.Engine, error) {
	return schemareg.ParseEngine(a.cfg.Engine)
}

func (a *app) registry(opts ...schemareg.Option) *schemareg.Registry {
	opts = append([]schemareg.Option{schemareg.WithLogger(logging.WithComponent(a.log, "registry"))}, opts...)
	return schemareg.NewRegistry(opts...)
}

// strict reads the tri-state --strict flag, falling back to the config.
func (a *app) strict(cmd *cobra.Command) schemareg.StrictMode {
	if f := cmd.Flags().Lookup("strict"); f != nil && f.Changed {
		b, _ := cmd.Flags().GetBool("strict")
		return schemareg.StrictFromBool(&b)
	}
	return schemareg.StrictFromBool(a.cfg.Strict)
}

func (a *app) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = a.out.Write(b)
	return err
}
