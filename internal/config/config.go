// Package config loads the process-wide sieve configuration.
//
// Configuration is read once at startup and never mutated afterwards. Values
// are layered, lowest precedence first:
//
//  1. built-in defaults
//  2. sieve.yaml (or an explicit file)
//  3. SIEVE_* environment variables
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/roach88/sieve/internal/builder"
	"github.com/roach88/sieve/internal/compiler"
	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/plugins"
	"github.com/roach88/sieve/internal/querysql"
)

// FileName is the config file looked up in the working directory.
const FileName = "sieve.yaml"

// FileNameAlt is the alternate config file name.
const FileNameAlt = "sieve.yml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SIEVE_"

// Config is the immutable process configuration.
type Config struct {
	// IdentifierTypes lists declared column types classified as identifiers.
	IdentifierTypes []string `koanf:"identifier_types"`

	// Dialect selects SQL rendering: sqlite or postgres.
	Dialect string `koanf:"dialect"`

	// UnsupportedTypes decides what auto-generation does with fields whose
	// type has no operators: skip, warn or reject.
	UnsupportedTypes string `koanf:"unsupported_types"`

	// DefaultPerPage is the page size for pagination plugins whose options
	// omit default_per_page.
	DefaultPerPage int `koanf:"default_per_page"`

	// TieBreaker, when set, is appended as a final ascending order column
	// to paginated or ordered queries.
	TieBreaker string `koanf:"tie_breaker"`

	LogLevel string `koanf:"log_level"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

// Default returns the built-in configuration without consulting files or
// the environment.
func Default() *Config {
	return &Config{
		IdentifierTypes:  slices.Clone(ir.DefaultIdentifierTypes),
		Dialect:          string(querysql.DialectSQLite),
		UnsupportedTypes: string(builder.PolicySkip),
		DefaultPerPage:   plugins.DefaultPerPage,
		LogLevel:         "info",
	}
}

// Defaults returns the built-in configuration as the lowest koanf layer.
func Defaults() map[string]any {
	d := Default()
	return map[string]any{
		"identifier_types":  d.IdentifierTypes,
		"dialect":           d.Dialect,
		"unsupported_types": d.UnsupportedTypes,
		"default_per_page":  d.DefaultPerPage,
		"tie_breaker":       d.TieBreaker,
		"log_level":         d.LogLevel,
	}
}

// Load reads configuration. path names an explicit config file; when empty,
// sieve.yaml or sieve.yml in dir is used if present.
func Load(path, dir string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := path
	if used == "" {
		used = findFile(dir)
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// SIEVE_DEFAULT_PER_PAGE -> default_per_page
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used
	cfg.IdentifierTypes = splitList(cfg.IdentifierTypes)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("config loaded", "file", used, "dialect", cfg.Dialect, "unsupported_types", cfg.UnsupportedTypes)
	return &cfg, nil
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	if !slices.Contains(querysql.ValidDialects, querysql.Dialect(c.Dialect)) {
		return fmt.Errorf("config: dialect %q is not one of %v", c.Dialect, querysql.ValidDialects)
	}
	if !slices.Contains(builder.ValidPolicies, builder.UnsupportedPolicy(c.UnsupportedTypes)) {
		return fmt.Errorf("config: unsupported_types %q is not one of %v", c.UnsupportedTypes, builder.ValidPolicies)
	}
	if c.DefaultPerPage <= 0 {
		return fmt.Errorf("config: default_per_page must be positive, got %d", c.DefaultPerPage)
	}
	if len(c.IdentifierTypes) == 0 {
		return fmt.Errorf("config: identifier_types must not be empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// Types builds the type table used when registering definitions.
func (c *Config) Types() ir.TypeTable {
	return ir.NewTypeTable(c.IdentifierTypes)
}

// Policy returns the configured unsupported-type policy.
func (c *Config) Policy() builder.UnsupportedPolicy {
	return builder.UnsupportedPolicy(c.UnsupportedTypes)
}

// PluginDefaults returns the fallbacks applied to plugin options.
func (c *Config) PluginDefaults() plugins.Defaults {
	return plugins.Defaults{PerPage: c.DefaultPerPage}
}

// CompilerOptions returns SQL compiler options derived from the config.
func (c *Config) CompilerOptions() []querysql.Option {
	if c.TieBreaker == "" {
		return nil
	}
	return []querysql.Option{querysql.WithTieBreaker(c.TieBreaker)}
}

// Env returns the environment definitions are registered against.
func (c *Config) Env() compiler.Env {
	return compiler.Env{
		Types:   c.Types(),
		Plugins: plugins.NewRegistry(c.PluginDefaults()),
		Policy:  c.Policy(),
	}
}

// NewCompiler creates a SQL compiler for the configured dialect.
func (c *Config) NewCompiler() (*querysql.Compiler, error) {
	return querysql.NewCompiler(querysql.Dialect(c.Dialect), c.CompilerOptions()...)
}

// splitList flattens comma separated entries, which is how a list arrives
// from the environment.
func splitList(in []string) []string {
	var out []string
	for _, v := range in {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func findFile(dir string) string {
	if dir == "" {
		dir = "."
	}
	for _, name := range []string{FileName, FileNameAlt} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
