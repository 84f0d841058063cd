// Package config assembles server settings from a YAML file, an optional
// .env file, TRACTORBEAM_* environment variables and command-line flags, in
// that order of precedence (later wins).
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/milk9111/tractorbeam/common"
)

var ErrInvalidConfig = eris.New("config: invalid")

const EnvPrefix = "TRACTORBEAM_"

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Levels  LevelsConfig  `yaml:"levels"`
	Log     LogConfig     `yaml:"log"`
	Scripts ScriptsConfig `yaml:"scripts"`
	Tuning  common.Tuning `yaml:"tuning"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	TickHz         int      `yaml:"tick_hz"`
	BroadcastHz    int      `yaml:"broadcast_hz"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LevelsConfig struct {
	Dir   string `yaml:"dir"`
	Start string `yaml:"start"`
	Watch bool   `yaml:"watch"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ScriptsConfig struct {
	// Chat overrides the bundled chat trigger script.
	Chat string `yaml:"chat"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":8080",
			TickHz:      60,
			BroadcastHz: 10,
		},
		Levels: LevelsConfig{
			Dir:   "levels",
			Start: "level1",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Tuning: common.DefaultTuning(),
	}
}

// Load reads path over the defaults and then applies environment overrides.
// An empty path skips the file; a named file that does not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, eris.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, eris.Wrapf(err, "parse config %s", path)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadEnvFile loads variables from a .env file into the process
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return eris.Wrapf(err, "load env file %s", path)
	}
	return nil
}

// ApplyEnv overrides fields from TRACTORBEAM_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, eris.Wrapf(ErrInvalidConfig, "%s%s=%q is not an integer", EnvPrefix, key, v))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, eris.Wrapf(ErrInvalidConfig, "%s%s=%q is not a boolean", EnvPrefix, key, v))
				return
			}
			*dst = b
		}
	}

	str("ADDR", &c.Server.Addr)
	num("TICK_HZ", &c.Server.TickHz)
	num("BROADCAST_HZ", &c.Server.BroadcastHz)
	if v, ok := lookup(EnvPrefix + "ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	str("LEVELS_DIR", &c.Levels.Dir)
	str("LEVEL", &c.Levels.Start)
	flag("WATCH", &c.Levels.Watch)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("CHAT_SCRIPT", &c.Scripts.Chat)
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Finalize copies the server tick rate into the tuning and validates the
// result. Call it once every override has been applied.
func (c *Config) Finalize() error {
	c.Tuning.TickHz = c.Server.TickHz
	return c.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return eris.Wrap(ErrInvalidConfig, "server.addr is required")
	case c.Server.TickHz <= 0:
		return eris.Wrap(ErrInvalidConfig, "server.tick_hz must be positive")
	case c.Server.BroadcastHz <= 0:
		return eris.Wrap(ErrInvalidConfig, "server.broadcast_hz must be positive")
	case c.Server.BroadcastHz > c.Server.TickHz:
		return eris.Wrap(ErrInvalidConfig, "server.broadcast_hz cannot exceed server.tick_hz")
	case c.Levels.Start == "":
		return eris.Wrap(ErrInvalidConfig, "levels.start is required")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return eris.Wrapf(ErrInvalidConfig, "log.format %q must be console or json", c.Log.Format)
	}
	if err := c.Tuning.Validate(); err != nil {
		return eris.Wrap(errors.Join(ErrInvalidConfig, err), "tuning")
	}
	return nil
}
