// Package config resolves toolkit settings from the environment. Every
// knob has a FORGE_ prefixed variable and a default that works in a
// fresh container.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"

	"github.com/wasmforge/forge/errors"
)

// Config holds the resolved environment.
type Config struct {
	Home          string        `env:"FORGE_HOME"`
	Builder       string        `env:"FORGE_BUILDER"        envDefault:"tinygo"`
	Target        string        `env:"FORGE_TARGET"         envDefault:"wasip1"`
	Log           string        `env:"FORGE_LOG"            envDefault:"off"`
	CallTimeout   time.Duration `env:"FORGE_CALL_TIMEOUT"   envDefault:"30s"`
	WatchDebounce time.Duration `env:"FORGE_WATCH_DEBOUNCE" envDefault:"300ms"`
}

// Load parses the FORGE_* variables. An unset FORGE_HOME falls back to
// ~/.forge so deploys work without setup.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse environment")
	}
	if c.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, errors.IO(errors.PhaseConfig, "resolve home directory", err)
		}
		c.Home = filepath.Join(home, ".forge")
	}
	return c, nil
}

// Logger builds the process logger selected by FORGE_LOG: "off" (the
// default), "dev" for human-readable console output, or "prod" for JSON.
func (c Config) Logger() (*zap.Logger, error) {
	switch c.Log {
	case "", "off":
		return zap.NewNop(), nil
	case "dev":
		return zap.NewDevelopment()
	case "prod":
		return zap.NewProduction()
	default:
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Value(c.Log).
			Detail("FORGE_LOG must be off, dev or prod").
			Build()
	}
}

// StorePath is the artifact store root under Home.
func (c Config) StorePath() string {
	return filepath.Join(c.Home, "store")
}

// IndexPath is the deployment index database under Home.
func (c Config) IndexPath() string {
	return filepath.Join(c.Home, "index.db")
}

// KVPath is the database backing the kv host bundle under Home.
func (c Config) KVPath() string {
	return filepath.Join(c.Home, "kv.db")
}
