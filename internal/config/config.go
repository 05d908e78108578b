// Package config provides configuration types and defaults for servicereg.
package config

import (
	"fmt"
	"path"
	"strings"

	"github.com/spf13/viper"

	"github.com/toyz/servicereg/internal/errors"
	"github.com/toyz/servicereg/internal/models"
	"github.com/toyz/servicereg/internal/utils"
	"github.com/toyz/servicereg/pkg/servicereg"
)

// FileName is looked up in the working directory when no --config is given
const FileName = "servicereg.yaml"

// EnvPrefix prefixes environment overrides, e.g. SERVICEREG_OUTPUT_FORMAT
const EnvPrefix = "SERVICEREG"

// Output formats
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// Config holds all configuration options for servicereg.
//
// Identities may be written relative to the module: weather.Clock stands
// for <module>/weather.Clock. Conflict and remap rules are lists rather than
// maps because viper lowercases map keys.
type Config struct {
	Module    string         `mapstructure:"module"`
	Packages  PackagesConfig `mapstructure:"packages"`
	Types     TypesConfig    `mapstructure:"types"`
	Conflicts []ConflictRule `mapstructure:"conflicts"`
	Remap     []RemapRule    `mapstructure:"remap"`
	Output    OutputConfig   `mapstructure:"output"`
}

// PackagesConfig selects the packages to load and the units to leave out
type PackagesConfig struct {
	Patterns []string `mapstructure:"patterns"`
	Exclude  []string `mapstructure:"exclude"`
}

// TypesConfig excludes single components by identity glob
type TypesConfig struct {
	Exclude []string `mapstructure:"exclude"`
}

// ConflictRule names the implementation that wins for a contract
type ConflictRule struct {
	Contract string `mapstructure:"contract"`
	Prefer   string `mapstructure:"prefer"`
}

// RemapRule swaps one implementation for another
type RemapRule struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// OutputConfig controls plan rendering
type OutputConfig struct {
	Format string `mapstructure:"format"` // "text" (default) or "yaml"
	File   string `mapstructure:"file"`   // stdout when empty
}

// Defaults returns the configuration used when nothing is set
func Defaults() Config {
	return Config{
		Packages: PackagesConfig{Patterns: []string{"./..."}},
		Output:   OutputConfig{Format: FormatText},
	}
}

// Load reads file, or servicereg.yaml in the working directory when file is
// empty, applies SERVICEREG_* overrides and validates the result. A missing
// default file is not an error.
func Load(v *viper.Viper, file string) (Config, error) {
	defaults := Defaults()
	v.SetDefault("packages.patterns", defaults.Packages.Patterns)
	v.SetDefault("output.format", defaults.Output.Format)
	v.SetDefault("output.file", "")
	v.SetDefault("module", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, errors.WrapConfigurationError(configName(file), "read", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.WrapConfigurationError(configName(file), "decode", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func configName(file string) string {
	if file == "" {
		return FileName
	}
	return file
}

// Validate reports every problem in the configuration at once
func (c Config) Validate() error {
	errs := errors.NewMultipleErrors()
	invalid := func(format string, args ...interface{}) {
		errs.Add(errors.Newf(errors.ConfigurationErrorCode, format, args...))
	}

	switch c.Output.Format {
	case FormatText, FormatYAML:
	default:
		invalid("output.format must be %q or %q, got %q", FormatText, FormatYAML, c.Output.Format)
	}

	if c.Module != "" {
		if err := utils.ValidateModulePath(c.Module); err != nil {
			invalid("module: %v", err)
		}
	}

	for _, pattern := range append(append([]string(nil), c.Packages.Exclude...), c.Types.Exclude...) {
		if _, err := path.Match(strings.TrimSuffix(pattern, "/..."), ""); err != nil {
			invalid("invalid exclude pattern %q: %v", pattern, err)
		}
	}

	seen := make(map[string]bool)
	for i, rule := range c.Conflicts {
		if rule.Contract == "" || rule.Prefer == "" {
			invalid("conflicts[%d] needs both contract and prefer", i)
			continue
		}
		if seen[rule.Contract] {
			invalid("conflicts: contract %s is listed more than once", rule.Contract)
		}
		seen[rule.Contract] = true
	}

	from := make(map[string]bool)
	for i, rule := range c.Remap {
		if rule.From == "" || rule.To == "" {
			invalid("remap[%d] needs both from and to", i)
			continue
		}
		if from[rule.From] {
			invalid("remap: %s is remapped more than once", rule.From)
		}
		from[rule.From] = true
	}

	return errs.ErrorOrNil()
}

// ComposeOptions turns the configuration into composition options, expanding
// module-relative identities against mod
func (c Config) ComposeOptions(mod utils.Module, log utils.Logger) servicereg.Options {
	opts := servicereg.Options{Logger: log}

	if len(c.Packages.Exclude) > 0 {
		opts.UnitFilter = servicereg.ExcludeUnits(expandPatterns(mod, c.Packages.Exclude)...)
	}
	if len(c.Types.Exclude) > 0 {
		opts.TypeFilter = servicereg.ExcludeTypes(expandPatterns(mod, c.Types.Exclude)...)
	}

	if len(c.Conflicts) > 0 {
		rules := make(map[models.ContractID]models.ImplementationID, len(c.Conflicts))
		for _, rule := range c.Conflicts {
			rules[models.ContractID(mod.Expand(rule.Contract))] = models.ImplementationID(mod.Expand(rule.Prefer))
		}
		opts.ResolveConflict = servicereg.PreferFor(rules)
	}

	if len(c.Remap) > 0 {
		table := make(map[models.ImplementationID]models.ImplementationID, len(c.Remap))
		for _, rule := range c.Remap {
			table[models.ImplementationID(mod.Expand(rule.From))] = models.ImplementationID(mod.Expand(rule.To))
		}
		opts.RemapImplementation = servicereg.Remap(table)
	}

	return opts
}

// expandPatterns qualifies patterns containing a slash; bare patterns match
// the last path element and stay as written
func expandPatterns(mod utils.Module, patterns []string) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		if strings.Contains(p, "/") {
			p = mod.Expand(p)
		}
		out[i] = p
	}
	return out
}

// String renders the effective configuration for verbose output
func (c Config) String() string {
	return fmt.Sprintf("patterns=%v exclude=%v types.exclude=%v conflicts=%d remap=%d format=%s",
		c.Packages.Patterns, c.Packages.Exclude, c.Types.Exclude, len(c.Conflicts), len(c.Remap), c.Output.Format)
}
