// Package config loads the engine configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/observability/log"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Log       LogConfig       `yaml:"log"`
	World     WorldConfig     `yaml:"world"`
	Resources ResourcesConfig `yaml:"resources"`
	Console   ConsoleConfig   `yaml:"console"`

	// TickRate is the number of main-thread ticks per second.
	TickRate int `yaml:"tick_rate"`
	// Scene is loaded into the DataModel at startup when set.
	Scene string `yaml:"scene"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type WorldConfig struct {
	MaxEntities    int `yaml:"max_entities"`
	MaxSearchDepth int `yaml:"max_search_depth"`
}

type ResourcesConfig struct {
	Workers int           `yaml:"workers"`
	Root    string        `yaml:"root"`
	Timeout time.Duration `yaml:"timeout"`
}

type ConsoleConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration used for keys missing from the file.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Encoding: "console"},
		World: WorldConfig{
			MaxEntities:    0,
			MaxSearchDepth: 64,
		},
		Resources: ResourcesConfig{
			Workers: 4,
			Root:    ".",
			Timeout: 10 * time.Second,
		},
		Console: ConsoleConfig{
			Enabled: false,
			Addr:    "127.0.0.1:7420",
		},
		TickRate: 60,
	}
}

// Load reads and validates the file at path.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes YAML from r on top of Default and validates the result.
// An empty document yields the defaults.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Encoding {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log encoding %q", c.Log.Encoding))
	}
	if c.World.MaxEntities < 0 {
		errs = append(errs, fmt.Errorf("world.max_entities must not be negative, got %d", c.World.MaxEntities))
	}
	if c.World.MaxSearchDepth <= 0 {
		errs = append(errs, fmt.Errorf("world.max_search_depth must be positive, got %d", c.World.MaxSearchDepth))
	}
	if c.Resources.Workers <= 0 {
		errs = append(errs, fmt.Errorf("resources.workers must be positive, got %d", c.Resources.Workers))
	}
	if c.Resources.Timeout < 0 {
		errs = append(errs, fmt.Errorf("resources.timeout must not be negative, got %s", c.Resources.Timeout))
	}
	if c.Console.Enabled && c.Console.Addr == "" {
		errs = append(errs, errors.New("console.addr is required when the console is enabled"))
	}
	if c.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("tick_rate must be positive, got %d", c.TickRate))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// TickInterval is the duration of one tick.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// LogLevel returns the parsed log level, LevelInfo when unparseable.
func (c Config) LogLevel() log.Level {
	level, _ := log.ParseLevel(c.Log.Level)
	return level
}
