package compiler

import (
	"os"

	"github.com/pelletier/go-toml"
	"github.com/xyproto/env/v2"
	"tlog.app/go/errors"
)

type (
	Config struct {
		// ABI is the calling convention name: sysv, win64 or empty for the host one.
		ABI string `toml:"abi"`

		// Seal makes code read-execute after it is written.
		// Otherwise mappings stay read-write-execute.
		Seal bool `toml:"seal"`
	}
)

const (
	EnvABI  = "SLOWJIT_ABI"
	EnvSeal = "SLOWJIT_SEAL"
)

func DefaultConfig() Config {
	return Config{Seal: true}
}

// ConfigFromEnv is DefaultConfig overridden by environment.
func ConfigFromEnv() Config {
	return DefaultConfig().WithEnv()
}

// LoadConfig reads a TOML file and applies environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}

	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, errors.Wrap(err, "parse config %v", path)
	}

	return cfg.WithEnv(), nil
}

func (c Config) WithEnv() Config {
	env.Load()

	c.ABI = env.Str(EnvABI, c.ABI)

	if env.Has(EnvSeal) {
		c.Seal = env.Bool(EnvSeal)
	}

	return c
}
