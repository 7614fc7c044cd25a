// Package config loads service configuration from defaults, an optional
// lineascope.yaml, LINEASCOPE_-prefixed environment variables and CLI flags,
// in ascending precedence.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds every tunable of the service.
type Config struct {
	ListenAddr   string        `koanf:"listen"`
	DataPath     string        `koanf:"data"`
	Watch        bool          `koanf:"watch"`
	CORSOrigin   string        `koanf:"cors_origin"`
	SearchScope  string        `koanf:"search_scope"`
	PhysicsGrace time.Duration `koanf:"physics_grace"`
	GraceLR      time.Duration `koanf:"physics_grace_lr"`
	LogLevel     string        `koanf:"log_level"`
	LogJSON      bool          `koanf:"log_json"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"listen":           ":8080",
		"data":             "data/feed_loads.csv",
		"watch":            true,
		"cors_origin":      "http://localhost:5173",
		"search_scope":     "snapshot",
		"physics_grace":    "8s",
		"physics_grace_lr": "3s",
		"log_level":        "info",
		"log_json":         false,
	}
}

// findConfigFile resolves the config file to use.
// Priority: explicit path > lineascope.yaml > lineascope.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"lineascope.yaml", "lineascope.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds the effective configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "load defaults")
	}

	if used := findConfigFile(cfgFile); used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", used)
		}
	}

	// LINEASCOPE_SEARCH_SCOPE -> search_scope
	if err := k.Load(env.Provider("LINEASCOPE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "LINEASCOPE_"))
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env vars")
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, errors.Wrap(err, "load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen address must not be empty")
	}
	if c.DataPath == "" {
		return errors.New("data path must not be empty")
	}
	if c.PhysicsGrace <= 0 || c.GraceLR <= 0 {
		return errors.New("physics grace periods must be positive")
	}
	switch c.SearchScope {
	case "snapshot", "per-snapshot", "all-snapshots":
	default:
		return errors.Newf("unknown search scope %q", c.SearchScope)
	}
	return nil
}

// RegisterFlags declares the CLI flags that map onto config keys. The flag
// names double as koanf keys, so posflag wires them without a translation
// callback.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("listen", ":8080", "HTTP listen address")
	flags.String("data", "data/feed_loads.csv", "path to the feed loads CSV")
	flags.Bool("watch", true, "reload the dataset when the CSV changes")
	flags.String("cors_origin", "http://localhost:5173", "allowed CORS origin")
	flags.String("search_scope", "snapshot", "search scope: per-snapshot or all-snapshots")
	flags.Duration("physics_grace", 8*time.Second, "physics auto-disable delay")
	flags.Duration("physics_grace_lr", 3*time.Second, "physics auto-disable delay for the left-to-right layout")
	flags.String("log_level", "info", "log level: debug, info, warn, error")
	flags.Bool("log_json", false, "JSON log output")
}
