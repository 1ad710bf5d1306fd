package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/fulmenhq/assetpress/pkg/rules"
)

// Config holds all configuration for assetpress
type Config struct {
	// Rules is the ordered matcher→codec rule list. Empty means the
	// built-in raster-image default rule.
	Rules []rules.Rule `mapstructure:"rules"`

	// OverrideExtension strips an asset's existing extension before
	// appending the codec's output extension.
	OverrideExtension bool `mapstructure:"override_extension"`

	// KeepOriginal leaves the original asset in place next to the
	// transformed one (non-destructive mode). When false, the original
	// is removed and textual references to it are rewritten.
	KeepOriginal bool `mapstructure:"keep_original"`

	// Strict escalates codec failures to a fatal pipeline error.
	Strict bool `mapstructure:"strict"`

	// Silent suppresses the summary output.
	Silent bool `mapstructure:"silent"`

	// DetailedLogs emits a per-asset savings line for every outcome.
	DetailedLogs bool `mapstructure:"detailed_logs"`

	// Concurrency bounds in-flight transforms. Zero means unbounded:
	// every matched asset is in flight at once.
	Concurrency int `mapstructure:"concurrency"`
}

var defaultConfig = Config{
	OverrideExtension: true,
	KeepOriginal:      true,
	Strict:            false,
	Silent:            false,
	DetailedLogs:      false,
	Concurrency:       0,
}

// Default returns the built-in configuration.
func Default() Config {
	return defaultConfig
}

// Load reads configuration from config files and environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("override_extension", defaultConfig.OverrideExtension)
	v.SetDefault("keep_original", defaultConfig.KeepOriginal)
	v.SetDefault("strict", defaultConfig.Strict)
	v.SetDefault("silent", defaultConfig.Silent)
	v.SetDefault("detailed_logs", defaultConfig.DetailedLogs)
	v.SetDefault("concurrency", defaultConfig.Concurrency)

	v.SetConfigName("assetpress")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")

	v.SetEnvPrefix("ASSETPRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; defaults apply when absent
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}

	return &config, nil
}

// LoadProject loads global configuration and overlays project-local
// config files when present.
func LoadProject() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}

	projectConfigs := []string{
		".assetpress.yaml",
		".assetpress.yml",
		"assetpress.yaml",
		"assetpress.yml",
	}

	for _, configFile := range projectConfigs {
		if _, err := os.Stat(configFile); err == nil {
			v := viper.New()
			v.SetConfigFile(configFile)

			if err := v.ReadInConfig(); err != nil {
				continue // Try next config file
			}

			if err := v.Unmarshal(config); err != nil {
				continue
			}

			break
		}
	}

	return config, nil
}

// Reconcile resolves conflicting option combinations and returns one
// diagnostic message per conflict. silent and detailed_logs together
// is a conflict: silent wins.
func (c *Config) Reconcile() []string {
	var diagnostics []string

	if c.Silent && c.DetailedLogs {
		c.DetailedLogs = false
		diagnostics = append(diagnostics, "silent and detailed_logs are both set; silent wins, per-asset lines suppressed")
	}

	return diagnostics
}

// RuleSet compiles the configured rules, falling back to the built-in
// default rule when none are configured.
func (c *Config) RuleSet() (*rules.Set, error) {
	if len(c.Rules) == 0 {
		return rules.Default(), nil
	}
	return rules.NewSet(c.Rules)
}
