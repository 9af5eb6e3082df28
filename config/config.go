// Package config loads model configurations from defaults, an optional
// config file, optional .env files and TWINNET_* environment variables.
package config

import (
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/AaronAnima/Twinnet/model"
)

// EnvPrefix is prepended to every key when reading the environment,
// e.g. TWINNET_HIDDEN_SIZE.
const EnvPrefix = "TWINNET"

// Defaults mirrors the sine-wave setup the models were first trained on.
var Defaults = map[string]any{
	"input_size":  1,
	"hidden_size": 51,
	"num_layers":  1,
	"num_classes": 2,
	"reverse":     false,
	"device":      "auto",
	"seed":        1,
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	for k, val := range Defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads a model.Config. path may be empty, in which case only defaults
// and the environment apply. envFiles are loaded into the process
// environment first and never override variables that are already set.
func Load(path string, envFiles ...string) (model.Config, error) {
	var cfg model.Config
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return cfg, errors.Wrap(err, "config: load env files")
		}
	}
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType(strings.TrimPrefix(filepath.Ext(path), "."))
		if err := v.ReadInConfig(); err != nil {
			return cfg, errors.Wrapf(err, "config: read %s", path)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "config: decode")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
