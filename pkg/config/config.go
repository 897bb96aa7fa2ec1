package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultFile is the optional config file read from the working directory.
const DefaultFile = "map-api.toml"

// EnvPrefix prefixes every environment variable, e.g. MAP_API_API_KEY.
const EnvPrefix = "MAP_API_"

// Config holds all configuration for the application
type Config struct {
	Addr          string        `koanf:"addr"`
	APIKey        string        `koanf:"api_key"`
	GraphFile     string        `koanf:"graph_file"`
	Watch         bool          `koanf:"watch"`
	WebMode       bool          `koanf:"web"`
	From          string        `koanf:"from"`
	To            string        `koanf:"to"`
	Metrics       bool          `koanf:"metrics"`
	MaxBodyBytes  int64         `koanf:"max_body_bytes"`
	Verbosity     string        `koanf:"verbosity"`
	VerboseCnt    int           `koanf:"verbose"`
	LogFormat     string        `koanf:"log_format"`
	DebounceQuiet time.Duration `koanf:"debounce_quiet"`
	DebounceMax   time.Duration `koanf:"debounce_max"`
}

// Defaults returns the built-in configuration values.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"addr":           ":8080",
		"api_key":        "",
		"graph_file":     "",
		"watch":          false,
		"web":            true,
		"from":           "",
		"to":             "",
		"metrics":        true,
		"max_body_bytes": int64(8 << 20),
		"verbosity":      "",
		"verbose":        0,
		"log_format":     "compact",
		"debounce_quiet": "200ms",
		"debounce_max":   "2s",
	}
}

// RegisterFlags defines the command-line flags read by Load.
// Flag names use dashes; they map onto the underscore keys above.
func RegisterFlags(f *pflag.FlagSet) {
	f.String("addr", ":8080", "Listen address for the HTTP server")
	f.String("api-key", "", "API key required in the X-Api-Key header")
	f.String("graph-file", "", "JSON graph loaded at startup")
	f.Bool("watch", false, "Reload --graph-file when it changes")
	f.Bool("web", true, "Run the HTTP server (false: answer --from/--to once and exit)")
	f.String("from", "", "Start node for a one-shot route query")
	f.String("to", "", "End node for a one-shot route query")
	f.Bool("metrics", true, "Expose Prometheus metrics on /metrics")
	f.Int64("max-body-bytes", 8<<20, "Maximum accepted SetMap request body size")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.CountP("verbose", "v", "Increase log verbosity (repeatable)")
	f.String("log-format", "compact", "Log format: compact or json")
	f.Duration("debounce-quiet", 200*time.Millisecond, "Quiet period before reloading a changed graph file")
	f.Duration("debounce-max", 2*time.Second, "Maximum delay before reloading a changed graph file")
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return LoadFile(f, DefaultFile)
}

// LoadFile is Load with an explicit config file path.
func LoadFile(f *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional)
	// We ignore errors here as the file might not exist
	if path != "" {
		_ = k.Load(file.Provider(path), toml.Parser())
	}

	// 3. Environment Variables
	// MAP_API_GRAPH_FILE -> graph_file. Keys are flat, so underscores are kept.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (only those explicitly set override lower layers)
	if f != nil {
		if err := k.Load(posflag.ProviderWithFlag(f, ".", k, func(fl *pflag.Flag) (string, interface{}) {
			return strings.ReplaceAll(fl.Name, "-", "_"), posflag.FlagVal(f, fl)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks combinations of settings that cannot work together.
func (c *Config) Validate() error {
	if c.Watch && c.GraphFile == "" {
		return fmt.Errorf("watch requires graph_file")
	}
	if !c.WebMode && (c.From == "" || c.To == "") {
		return fmt.Errorf("from and to are required when web is false")
	}
	if !c.WebMode && c.GraphFile == "" {
		return fmt.Errorf("graph_file is required when web is false")
	}
	if c.WebMode && c.APIKey == "" {
		return fmt.Errorf("api_key is required to serve the API")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}
	switch c.LogFormat {
	case "compact", "json":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	return nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
