// Package config loads the settings of the pmcheck tool from command line
// flags and PMCHECK_* environment variables.
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the settings of pmcheck.
type Config struct {
	// Path of the JSON schema spec.
	Schema string `mapstructure:"schema" validate:"required,file"`
	// Path of the JSON document.
	Doc string `mapstructure:"doc" validate:"required,file"`
	// Optional path of a JSON array of steps to apply to the document.
	Steps string `mapstructure:"steps" validate:"omitempty,file"`
	// Level of the logs: debug, info, warn or error.
	LogLevel string `mapstructure:"log-level" validate:"oneof=debug info warn error"`
	// Use the human readable log encoder.
	Development bool `mapstructure:"dev"`
	// Size of the per-document resolved position cache, 0 disables it.
	ResolveCache int `mapstructure:"resolve-cache" validate:"gte=0,lte=4096"`
	// Indent the printed document.
	Pretty bool `mapstructure:"pretty"`
}

// EnvPrefix is the prefix of the environment variables read by Load.
const EnvPrefix = "PMCHECK"

// NewFlagSet declares the flags of pmcheck.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("schema", "", "path of the JSON schema spec")
	fs.String("doc", "", "path of the JSON document")
	fs.String("steps", "", "path of a JSON array of steps to apply")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.Bool("dev", false, "use the development log encoder")
	fs.Int("resolve-cache", 12, "size of the per-document resolve cache")
	fs.Bool("pretty", false, "indent the printed document")
	return fs
}

// Load parses the arguments, merges them with the environment, and
// validates the result. Flags take precedence over the environment.
func Load(args []string) (*Config, error) {
	fs := NewFlagSet("pmcheck")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the constraints of the configuration.
func Validate(cfg *Config) error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(cfg)
}
