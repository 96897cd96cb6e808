// Package config loads schemareg CLI settings from defaults, an optional YAML
// file, SCHEMAREG_* environment variables and bound flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/reoring/schemareg"
)

// EnvPrefix prefixes environment overrides (SCHEMAREG_LOG_LEVEL, ...).
const EnvPrefix = "SCHEMAREG"

// Config holds all configuration options for schemareg.
type Config struct {
	Engine  string `mapstructure:"engine"`
	Dialect string `mapstructure:"dialect"` // empty: the schema's $schema, then draft-07
	// Strict is tri-state: unset logs unknown keywords.
	Strict     *bool             `mapstructure:"strict"`
	Errors     bool              `mapstructure:"errors"`
	Greedy     bool              `mapstructure:"greedy"`
	Lang       string            `mapstructure:"lang"` // "en" or "ja"
	Log        LogConfig         `mapstructure:"log"`
	Serve      ServeConfig       `mapstructure:"serve"`
	Validators []ValidatorConfig `mapstructure:"validators"`
}

// LogConfig holds logging options.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// ServeConfig holds options of the serve command.
type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// ValidatorConfig registers one validator at serve start-up. Paths are
// relative to the config file.
type ValidatorConfig struct {
	Key          string             `mapstructure:"key"`
	Engine       string             `mapstructure:"engine"`
	Dialect      string             `mapstructure:"dialect"`
	Strict       *bool              `mapstructure:"strict"`
	Schema       string             `mapstructure:"schema"`
	Filename     string             `mapstructure:"filename"` // defaults to the schema file's base name
	Reference    string             `mapstructure:"reference"`
	Dependencies []DependencyConfig `mapstructure:"dependencies"`
}

// DependencyConfig is a dependency schema file registered under ID.
type DependencyConfig struct {
	ID   string `mapstructure:"id"` // defaults to the file's base name
	Path string `mapstructure:"path"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Engine: string(schemareg.DefaultEngine),
		Lang:   "en",
		Log:    LogConfig{Level: "warn", Format: "console"},
		Serve:  ServeConfig{Addr: ":8080"},
	}
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault("engine", d.Engine)
	v.SetDefault("dialect", d.Dialect)
	v.SetDefault("errors", d.Errors)
	v.SetDefault("greedy", d.Greedy)
	v.SetDefault("lang", d.Lang)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("serve.addr", d.Serve.Addr)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// strict has no default, so the environment must be bound explicitly for
	// Unmarshal to see it.
	_ = v.BindEnv("strict")
	return v
}

// Load reads cfgFile (or ./schemareg.yaml, then ~/.config/schemareg/config.yaml
// when cfgFile is empty) into v and decodes the result. A missing default
// config file is not an error; a missing explicit one is.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigType("yaml")
		if _, err := os.Stat("schemareg.yaml"); err == nil {
			v.SetConfigFile("schemareg.yaml")
		} else {
			home, _ := os.UserHomeDir()
			v.AddConfigPath(filepath.Join(home, ".config", "schemareg"))
			v.SetConfigName("config")
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}
	return Decode(v)
}

// Decode unmarshals and validates the settings currently held by v. It is
// used again after v re-reads a watched config file.
func Decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks engine and dialect names and the validator list.
func Validate(cfg Config) error {
	if _, err := schemareg.ParseEngine(cfg.Engine); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if cfg.Dialect != "" {
		if _, err := schemareg.ParseDialect(cfg.Dialect); err != nil {
			return fmt.Errorf("dialect: %w", err)
		}
	}
	seen := make(map[string]bool, len(cfg.Validators))
	for i, vc := range cfg.Validators {
		if vc.Key == "" {
			return fmt.Errorf("validator %d: key is required", i)
		}
		if vc.Schema == "" {
			return fmt.Errorf("validator %d (%s): schema is required", i, vc.Key)
		}
		eng := vc.Engine
		if eng == "" {
			eng = cfg.Engine
		}
		if _, err := schemareg.ParseEngine(eng); err != nil {
			return fmt.Errorf("validator %d (%s): %w", i, vc.Key, err)
		}
		id := eng + "/" + vc.Key
		if seen[id] {
			return fmt.Errorf("validator %d: key %q registered twice for engine %s", i, vc.Key, eng)
		}
		seen[id] = true
		for j, d := range vc.Dependencies {
			if d.Path == "" {
				return fmt.Errorf("validator %d (%s): dependency %d: path is required", i, vc.Key, j)
			}
		}
	}
	return nil
}

// Definitions loads the schema files of cfg.Validators into registry
// definitions. Relative paths resolve against baseDir. Validator fields left
// empty inherit the top-level engine, dialect and strict settings.
func (cfg Config) Definitions(baseDir string) ([]schemareg.Definition, error) {
	out := make([]schemareg.Definition, 0, len(cfg.Validators))
	for _, vc := range cfg.Validators {
		def, err := vc.definition(cfg, baseDir)
		if err != nil {
			return nil, fmt.Errorf("validator %s: %w", vc.Key, err)
		}
		out = append(out, def)
	}
	return out, nil
}

func (vc ValidatorConfig) definition(cfg Config, baseDir string) (schemareg.Definition, error) {
	eng, dialect, strict := vc.Engine, vc.Dialect, vc.Strict
	if eng == "" {
		eng = cfg.Engine
	}
	if dialect == "" {
		dialect = cfg.Dialect
	}
	if strict == nil {
		strict = cfg.Strict
	}
	engine, err := schemareg.ParseEngine(eng)
	if err != nil {
		return schemareg.Definition{}, err
	}
	schema, err := schemareg.LoadDocument(resolve(baseDir, vc.Schema))
	if err != nil {
		return schemareg.Definition{}, err
	}
	filename := vc.Filename
	if filename == "" {
		filename = filepath.Base(vc.Schema)
	}
	deps := make([]schemareg.Dependency, 0, len(vc.Dependencies))
	for _, d := range vc.Dependencies {
		doc, err := schemareg.LoadDocument(resolve(baseDir, d.Path))
		if err != nil {
			return schemareg.Definition{}, err
		}
		id := d.ID
		if id == "" {
			id = filepath.Base(d.Path)
		}
		deps = append(deps, schemareg.Dependency{ID: id, Schema: doc})
	}
	return schemareg.Definition{
		Key:          vc.Key,
		Engine:       engine,
		Dialect:      schemareg.Dialect(dialect),
		Strict:       schemareg.StrictFromBool(strict),
		Schema:       schema,
		Filename:     filename,
		Dependencies: deps,
		Reference:    vc.Reference,
	}, nil
}

func resolve(baseDir, p string) string {
	if filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}
